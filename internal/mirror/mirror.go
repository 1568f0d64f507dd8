// Package mirror pushes interchange snapshots of the ledger to
// external destinations. Mirrors are best-effort replicas driven by
// change events; they never feed back into the engine.
package mirror

import "context"

// Destination receives a full CSV snapshot of the ledger.
type Destination interface {
	// WriteSnapshot replaces the destination's contents with the
	// given interchange text.
	WriteSnapshot(ctx context.Context, csv []byte) error
	// Name identifies the destination in logs.
	Name() string
}
