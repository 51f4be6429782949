package domain

import "time"

// ArticleRef identifies an item that was summarized and written back in a run.
type ArticleRef struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Source string `json:"source"`
}

// NotificationStatus describes what the dispatcher did at the end of a run.
type NotificationStatus string

const (
	NotificationSkipped       NotificationStatus = "skipped"
	NotificationNotConfigured NotificationStatus = "not_configured"
	NotificationDelivered     NotificationStatus = "delivered"
	NotificationFailed        NotificationStatus = "failed"
)

// NotificationOutcome is the result of one dispatch call.
type NotificationOutcome struct {
	Status  NotificationStatus `json:"status"`
	Channel string             `json:"channel,omitempty"`
	Entries int                `json:"entries"`
}

// Delivered reports whether any channel accepted the digest.
func (o NotificationOutcome) Delivered() bool {
	return o.Status == NotificationDelivered
}

// RunResult holds statistics about a single pipeline pass.
type RunResult struct {
	RunID          string              `json:"run_id"`
	ItemsFetched   int                 `json:"items_fetched"`
	ItemsProcessed int                 `json:"items_processed"`
	ItemsSkipped   int                 `json:"items_skipped"`
	Articles       []ArticleRef        `json:"articles"`
	Summaries      []DigestEntry       `json:"summaries"`
	Notification   NotificationOutcome `json:"notification"`
	StartedAt      time.Time           `json:"started_at"`
	Duration       time.Duration       `json:"duration"`
}

// RunState is the persisted per-source summary of past runs.
type RunState struct {
	ID             int64     `db:"id"`
	SourceFilter   string    `db:"source_filter"`
	LastRunAt      time.Time `db:"last_run_at"`
	LastRunID      string    `db:"last_run_id"`
	TotalProcessed int64     `db:"total_processed"`
}
