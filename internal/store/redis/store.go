package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarkd/internal/store"
)

// DefaultMaxTxRetries bounds how often Update re-runs after a WATCH abort.
const DefaultMaxTxRetries = 5

// Store keeps bookmark documents as plain string values in Redis.
// Values have no TTL.
type Store struct {
	client     redis.UniversalClient
	maxRetries int
}

var _ store.DocumentStore = (*Store)(nil)

// NewStore creates a Redis document store. maxRetries <= 0 selects
// DefaultMaxTxRetries.
func NewStore(client redis.UniversalClient, maxRetries int) *Store {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxTxRetries
	}
	return &Store{
		client:     client,
		maxRetries: maxRetries,
	}
}

func (s *Store) Name() string { return "redis" }

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Get retrieves the raw document stored at key. An empty value counts as
// absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := read(ctx, s.client, key)
	if err != nil {
		return nil, unavailable("get", err)
	}
	return data, nil
}

// Put overwrites the document stored at key
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return unavailable("set", err)
	}
	return nil
}

// Update performs an optimistic WATCH/MULTI/EXEC cycle on key. When another
// client writes key between our read and EXEC, the transaction aborts and the
// whole cycle (including fn) runs again.
func (s *Store) Update(ctx context.Context, key string, fn store.UpdateFunc) error {
	var fnErr error

	txf := func(tx *redis.Tx) error {
		current, err := read(ctx, tx, key)
		if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			fnErr = err
			return err
		}
		if next == nil {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		fnErr = nil
		err := s.client.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return nil
		case fnErr != nil:
			return fnErr
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return unavailable("update", err)
		}
	}

	return fmt.Errorf("%w: %s after %d attempts", store.ErrConflict, key, s.maxRetries)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// read returns nil for a missing or empty key.
func read(ctx context.Context, c getter, key string) ([]byte, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: redis %s: %w", store.ErrUnavailable, op, err)
}
