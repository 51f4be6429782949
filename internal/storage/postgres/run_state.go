package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"news_summarizer/internal/domain"
)

type RunStateStore struct {
	db *sqlx.DB
}

func NewRunStateStore(db *sqlx.DB) *RunStateStore {
	return &RunStateStore{db: db}
}

func (s *RunStateStore) Get(ctx context.Context, sourceFilter string) (*domain.RunState, error) {
	var state domain.RunState
	query := `
		SELECT id, source_filter, last_run_at, last_run_id, total_processed
		FROM run_state
		WHERE source_filter = $1`

	err := s.db.GetContext(ctx, &state, query, sourceFilter)
	if errors.Is(err, sql.ErrNoRows) {
		// first run for this filter
		return &domain.RunState{SourceFilter: sourceFilter}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select run state: %w", err)
	}
	return &state, nil
}

func (s *RunStateStore) Update(ctx context.Context, state *domain.RunState) error {
	query := `
		INSERT INTO run_state (source_filter, last_run_at, last_run_id, total_processed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source_filter) DO UPDATE SET
			last_run_at = EXCLUDED.last_run_at,
			last_run_id = EXCLUDED.last_run_id,
			total_processed = EXCLUDED.total_processed`

	_, err := s.db.ExecContext(ctx, query,
		state.SourceFilter,
		state.LastRunAt,
		state.LastRunID,
		state.TotalProcessed,
	)
	if err != nil {
		return fmt.Errorf("upsert run state: %w", err)
	}
	return nil
}
