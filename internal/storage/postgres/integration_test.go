//go:build integration

package postgres

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"news_summarizer/internal/domain"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_items.up.sql"),
			filepath.Join(migrationsPath, "002_create_run_state.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM items")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM run_state")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) insert(store *ItemStore, title, source string, createdAt time.Time) string {
	id, err := store.Insert(s.ctx, &domain.Item{
		Title:     title,
		Source:    source,
		Link:      "https://example.com/" + title,
		Content:   "content of " + title,
		CreatedAt: createdAt,
	})
	s.Require().NoError(err)
	return id
}

func (s *PostgresIntegrationSuite) TestItemStore_FetchUnprocessedInOrder() {
	store := NewItemStore(s.db)
	base := time.Now().UTC().Truncate(time.Microsecond)

	second := s.insert(store, "second", "AWS", base.Add(time.Minute))
	first := s.insert(store, "first", "AWS", base)
	other := s.insert(store, "other", "GCP", base.Add(2*time.Minute))

	items, err := store.FetchUnprocessed(s.ctx, "")
	s.Require().NoError(err)
	s.Require().Len(items, 3)
	s.Equal([]string{first, second, other}, []string{items[0].ID, items[1].ID, items[2].ID})
	s.False(items[0].Processed)
	s.Nil(items[0].Summary)

	filtered, err := store.FetchUnprocessed(s.ctx, "AWS")
	s.Require().NoError(err)
	s.Len(filtered, 2)
}

func (s *PostgresIntegrationSuite) TestItemStore_WriteResult() {
	store := NewItemStore(s.db)
	id := s.insert(store, "item", "AWS", time.Now().UTC())
	processedAt := time.Now().UTC().Truncate(time.Microsecond)

	s.Require().NoError(store.WriteResult(s.ctx, id, "short summary", processedAt))

	items, err := store.FetchUnprocessed(s.ctx, "")
	s.Require().NoError(err)
	s.Empty(items)

	var got domain.Item
	err = s.db.GetContext(s.ctx, &got, "SELECT * FROM items WHERE id = $1", id)
	s.Require().NoError(err)
	s.True(got.Processed)
	s.Require().NotNil(got.Summary)
	s.Equal("short summary", *got.Summary)
	s.Require().NotNil(got.ProcessedAt)
	s.True(processedAt.Equal(*got.ProcessedAt))
}

func (s *PostgresIntegrationSuite) TestItemStore_WriteResultIsMonotonic() {
	store := NewItemStore(s.db)
	id := s.insert(store, "item", "AWS", time.Now().UTC())

	s.Require().NoError(store.WriteResult(s.ctx, id, "first", time.Now().UTC()))
	s.ErrorIs(store.WriteResult(s.ctx, id, "second", time.Now().UTC()), domain.ErrItemNotFound)

	var summary string
	s.Require().NoError(s.db.GetContext(s.ctx, &summary, "SELECT summary FROM items WHERE id = $1", id))
	s.Equal("first", summary)
}

func (s *PostgresIntegrationSuite) TestItemStore_WriteResultUnknownItem() {
	store := NewItemStore(s.db)
	err := store.WriteResult(s.ctx, "00000000-0000-0000-0000-000000000000", "x", time.Now())
	s.ErrorIs(err, domain.ErrItemNotFound)
}

func (s *PostgresIntegrationSuite) TestRunStateStore_GetUpdate() {
	store := NewRunStateStore(s.db)

	state, err := store.Get(s.ctx, "AWS")
	s.Require().NoError(err)
	s.Equal("AWS", state.SourceFilter)
	s.Zero(state.TotalProcessed)

	state.LastRunAt = time.Now().UTC().Truncate(time.Microsecond)
	state.LastRunID = "run-1"
	state.TotalProcessed = 3
	s.Require().NoError(store.Update(s.ctx, state))

	state.LastRunID = "run-2"
	state.TotalProcessed = 5
	s.Require().NoError(store.Update(s.ctx, state))

	got, err := store.Get(s.ctx, "AWS")
	s.Require().NoError(err)
	s.Equal("run-2", got.LastRunID)
	s.Equal(int64(5), got.TotalProcessed)
	s.Positive(got.ID)
}
