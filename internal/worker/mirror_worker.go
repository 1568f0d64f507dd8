// Package worker drives ledger mirroring: it reacts to change events
// and periodically resyncs, rendering the persisted snapshot to
// interchange text and pushing it to each destination.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"ledger/internal/events"
	"ledger/internal/interchange"
	"ledger/internal/kv"
	"ledger/internal/mirror"
	"ledger/internal/session"
)

// MirrorWorker reads the records snapshot from the persistence
// adapter and replicates it. It shares no memory with the server
// process; the snapshot is the only contract between them.
type MirrorWorker struct {
	kv    kv.Store
	dests []mirror.Destination
}

func NewMirrorWorker(store kv.Store, dests []mirror.Destination) *MirrorWorker {
	return &MirrorWorker{kv: store, dests: dests}
}

// HandleChange processes a single change event. Category changes do
// not alter the interchange text, so only record changes trigger a
// sync.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *events.LedgerChangedMessage) error {
	if msg.Collection != kv.KeyRecords {
		slog.DebugContext(ctx, "Ignoring non-record change event", "collection", msg.Collection)
		return nil
	}
	return w.Sync(ctx)
}

// Sync loads the current snapshot and pushes it to every destination.
// A failing destination is logged and skipped; the next event or the
// resync ticker retries it.
func (w *MirrorWorker) Sync(ctx context.Context) error {
	data, ok, err := w.kv.Load(ctx, kv.KeyRecords)
	if err != nil {
		return fmt.Errorf("load records snapshot: %w", err)
	}
	if !ok {
		slog.InfoContext(ctx, "No records snapshot yet, nothing to mirror")
		return nil
	}
	records, err := session.DecodeRecords(data)
	if err != nil {
		return fmt.Errorf("decode records snapshot: %w", err)
	}

	csv := interchange.Export(records)

	failed := 0
	for _, d := range w.dests {
		if err := d.WriteSnapshot(ctx, csv); err != nil {
			slog.ErrorContext(ctx, "Mirror destination failed",
				"destination", d.Name(), "error", err)
			failed++
			continue
		}
		slog.InfoContext(ctx, "Mirrored ledger snapshot",
			"destination", d.Name(), "records", len(records))
	}
	if failed == len(w.dests) && len(w.dests) > 0 {
		return fmt.Errorf("all %d mirror destinations failed", failed)
	}
	return nil
}
