package driven

import "context"

// PartitionStore persists the set of known partition keys.
// The set only grows during normal operation; Remove exists for
// explicit administrative deletion.
type PartitionStore interface {
	// Add inserts keys. Existing keys are ignored.
	Add(ctx context.Context, keys ...string) error

	// Contains reports whether key is registered.
	Contains(ctx context.Context, key string) (bool, error)

	// List returns all keys in ascending order.
	List(ctx context.Context) ([]string, error)

	// Remove deletes a key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
