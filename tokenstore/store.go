package tokenstore

import "context"

// Store reads and writes opaque string values under well-known keys.
//
// Implementations are interchangeable and selected by the embedding
// application at construction time; the SDK core is written against this
// contract only. Get returns ("", nil) when no value exists for the key.
type Store interface {
	// Get returns the stored value, or "" if the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set persists the value, atomically replacing any prior value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes the value. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
