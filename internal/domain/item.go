package domain

import (
	"errors"
	"time"
)

// ErrItemNotFound is returned by stores when a write-back targets an item that
// does not exist or has already been processed.
var ErrItemNotFound = errors.New("item not found or already processed")

// Item is a single news or announcement record tracked through the pipeline.
type Item struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Link        string     `db:"link" json:"link"`
	Source      string     `db:"source" json:"source"`
	Content     string     `db:"content" json:"content"`
	Processed   bool       `db:"processed" json:"processed"`
	Summary     *string    `db:"summary" json:"summary,omitempty"`
	ProcessedAt *time.Time `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// DigestEntry is one line of a notification payload.
type DigestEntry struct {
	Title   string `json:"title"`
	Source  string `json:"source"`
	Summary string `json:"summary"`
	Link    string `json:"link"`
}

// HasLink reports whether the entry carries a real link rather than a placeholder.
func (e DigestEntry) HasLink() bool {
	return e.Link != "" && e.Link != "#"
}
