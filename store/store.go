package store

import "context"

// Store is a prefixed byte blob store the service uses to archive run
// history. The task-graph engine itself never touches it; graphs are
// never persisted.
type Store interface {
	Get(ctx context.Context, prefix, key string) ([]byte, error)
	Set(ctx context.Context, prefix, key string, value []byte) error
	/**
	 * Remove a prefix and key
	 * removing a nonexistent prefix + key does NOT return an error
	 */
	Remove(ctx context.Context, prefix, key string) error

	List(ctx context.Context, prefix string, iterator func(key string) bool) error
}
