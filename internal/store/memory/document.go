package memory

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/bookmarkd/internal/store"
)

// Store keeps documents in process memory. It backs development runs
// (BOOKMARKD_STORE=memory) and the test suites; nothing survives a restart.
type Store struct {
	mu     sync.Mutex
	values map[string][]byte
}

var _ store.DocumentStore = (*Store)(nil)

// New creates an empty in-memory store
func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

func (s *Store) Name() string { return "memory" }

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// Get returns a copy of the stored value
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return clone(s.values[key]), nil
}

// Put replaces the stored value
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = clone(value)
	return nil
}

// Update holds the store lock for the whole read-modify-write.
func (s *Store) Update(ctx context.Context, key string, fn store.UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(clone(s.values[key]))
	if err != nil {
		return err
	}
	if next != nil {
		s.values[key] = clone(next)
	}
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
