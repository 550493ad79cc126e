// Package store defines the key-value contract bookmark documents live in.
package store

import (
	"context"
	"errors"
	"strconv"
)

var (
	// ErrUnavailable wraps any backend failure. Callers may retry.
	ErrUnavailable = errors.New("store unavailable")

	// ErrConflict is returned when an atomic update kept losing the race
	// against concurrent writers.
	ErrConflict = errors.New("concurrent update conflict")
)

// UpdateFunc receives the current raw value (nil when absent) and returns the
// value to write. Returning a nil slice with a nil error writes nothing.
// It may run more than once and must not have side effects.
type UpdateFunc func(current []byte) ([]byte, error)

// DocumentStore holds one opaque value per key. There are no partial
// updates: the value is always read and written whole.
type DocumentStore interface {
	// Get returns nil, nil when key has no value.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error

	// Update runs a read-modify-write of key that no other writer of key
	// can interleave with. Errors returned by fn are passed through as is.
	Update(ctx context.Context, key string, fn UpdateFunc) error

	Ping(ctx context.Context) error
	Name() string
}

const documentKeyPrefix = "bookmarks:"

// DocumentKey is the key holding userID's bookmark document.
func DocumentKey(userID string) string {
	return documentKeyPrefix + userID
}

// QuarantineKey is where an unreadable document of userID is copied before
// it gets overwritten.
func QuarantineKey(userID string, unixMillis int64) string {
	return documentKeyPrefix + userID + ":corrupt:" + strconv.FormatInt(unixMillis, 10)
}
