package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"news_summarizer/internal/domain"
)

type ItemStore struct {
	db *sqlx.DB
}

func NewItemStore(db *sqlx.DB) *ItemStore {
	return &ItemStore{db: db}
}

// FetchUnprocessed returns items not yet processed, oldest first. An empty
// sourceFilter matches every source.
func (s *ItemStore) FetchUnprocessed(ctx context.Context, sourceFilter string) ([]domain.Item, error) {
	query := `
		SELECT id, title, link, source, content, processed, summary, processed_at, created_at
		FROM items
		WHERE processed = FALSE
		  AND ($1 = '' OR source = $1)
		ORDER BY created_at, id`

	var items []domain.Item
	if err := s.db.SelectContext(ctx, &items, query, sourceFilter); err != nil {
		return nil, fmt.Errorf("select unprocessed items: %w", err)
	}
	return items, nil
}

// WriteResult stores the summary and marks the item processed. It returns
// domain.ErrItemNotFound if the item does not exist or was already processed.
func (s *ItemStore) WriteResult(ctx context.Context, id, summary string, processedAt time.Time) error {
	query := `
		UPDATE items
		SET summary = $2, processed = TRUE, processed_at = $3
		WHERE id = $1 AND processed = FALSE`

	res, err := s.db.ExecContext(ctx, query, id, summary, processedAt)
	if err != nil {
		return fmt.Errorf("update item %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// Insert creates an unprocessed item and returns its new id.
func (s *ItemStore) Insert(ctx context.Context, item *domain.Item) (string, error) {
	item.ID = uuid.NewString()
	item.Processed = false
	item.Summary = nil
	item.ProcessedAt = nil
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO items (id, title, link, source, content, processed, created_at)
		VALUES (:id, :title, :link, :source, :content, :processed, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, query, item); err != nil {
		return "", fmt.Errorf("insert item: %w", err)
	}
	return item.ID, nil
}
