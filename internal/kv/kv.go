// Package kv is the persistence port the session saves snapshots
// through. The engine only needs load-at-startup and save-on-mutation
// semantics; the backing store is interchangeable.
package kv

import "context"

// Snapshot keys, one per collection.
const (
	KeyRecords    = "records"
	KeyCategories = "categories"
)

// Store is the durable key/value contract. Load reports absence via
// the boolean instead of an error, since a missing key is the normal
// first-run state.
type Store interface {
	Load(ctx context.Context, key string) (value []byte, ok bool, err error)
	Save(ctx context.Context, key string, value []byte) error
	Close() error
}
