// Package redis stores items as JSON documents in Redis, with a sorted set of
// unprocessed item ids ordered by creation time.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"news_summarizer/internal/domain"
)

const maxWriteAttempts = 3

type ItemStore struct {
	rdb    *redis.Client
	prefix string
}

func NewItemStore(rdb *redis.Client, prefix string) *ItemStore {
	return &ItemStore{rdb: rdb, prefix: prefix}
}

func (s *ItemStore) itemKey(id string) string {
	return s.prefix + ":item:" + id
}

func (s *ItemStore) pendingKey() string {
	return s.prefix + ":unprocessed"
}

// FetchUnprocessed returns items not yet processed, oldest first. An empty
// sourceFilter matches every source.
func (s *ItemStore) FetchUnprocessed(ctx context.Context, sourceFilter string) ([]domain.Item, error) {
	ids, err := s.rdb.ZRange(ctx, s.pendingKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list unprocessed ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.itemKey(id)
	}

	docs, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	items := make([]domain.Item, 0, len(docs))
	for i, doc := range docs {
		raw, ok := doc.(string)
		if !ok {
			// index entry without a document
			continue
		}

		var item domain.Item
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("decode item %s: %w", ids[i], err)
		}
		if item.Processed {
			continue
		}
		if sourceFilter != "" && item.Source != sourceFilter {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// WriteResult stores the summary and marks the item processed. It returns
// domain.ErrItemNotFound if the item does not exist or was already processed.
func (s *ItemStore) WriteResult(ctx context.Context, id, summary string, processedAt time.Time) error {
	key := s.itemKey(id)

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrItemNotFound
		}
		if err != nil {
			return err
		}

		var item domain.Item
		if err := json.Unmarshal(raw, &item); err != nil {
			return fmt.Errorf("decode item: %w", err)
		}
		if item.Processed {
			return domain.ErrItemNotFound
		}

		item.Processed = true
		item.Summary = &summary
		item.ProcessedAt = &processedAt

		doc, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode item: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, doc, 0)
			pipe.ZRem(ctx, s.pendingKey(), id)
			return nil
		})
		return err
	}

	for range maxWriteAttempts {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, domain.ErrItemNotFound) {
			return fmt.Errorf("update item %s: %w", id, err)
		}
		return err
	}

	return fmt.Errorf("update item %s: %w", id, redis.TxFailedErr)
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

	doc, err := json.Marshal(item)
	if err != nil {
		return "", fmt.Errorf("encode item: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.itemKey(item.ID), doc, 0)
		pipe.ZAdd(ctx, s.pendingKey(), redis.Z{
			Score:  float64(item.CreatedAt.UnixMilli()),
			Member: item.ID,
		})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("insert item: %w", err)
	}

	return item.ID, nil
}
