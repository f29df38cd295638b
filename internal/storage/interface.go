package storage

import "context"

// Storage is the durable key/value store backing client-side state (admin
// token, player name, last score). Values are plain strings; it is not
// treated as secure storage.
type Storage interface {
	// Get returns the value for key, or model.ErrKeyNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set stores a single entry, overwriting any previous value
	Set(ctx context.Context, key, value string) error

	// SetMulti stores several entries in one step
	SetMulti(ctx context.Context, entries map[string]string) error

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}
