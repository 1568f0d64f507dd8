package worker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ledger/internal/core"
	"ledger/internal/events"
	"ledger/internal/kv"
	"ledger/internal/mirror"
	"ledger/internal/session"
)

type fakeDestination struct {
	name      string
	snapshots [][]byte
	fail      bool
}

func (d *fakeDestination) Name() string { return d.name }

func (d *fakeDestination) WriteSnapshot(_ context.Context, csv []byte) error {
	if d.fail {
		return errors.New("destination down")
	}
	d.snapshots = append(d.snapshots, csv)
	return nil
}

var _ mirror.Destination = (*fakeDestination)(nil)

func seedSnapshot(t *testing.T, store kv.Store) {
	t.Helper()
	data, err := session.EncodeRecords([]core.Record{
		{ID: "r1", Date: core.NewDate(2024, 1, 5), Amount: core.Money{Cents: 1234}, Category: "food"},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := store.Save(context.Background(), kv.KeyRecords, data); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestSyncWithoutSnapshotIsNoop(t *testing.T) {
	dest := &fakeDestination{name: "test"}
	w := NewMirrorWorker(kv.NewMemoryStore(), []mirror.Destination{dest})

	if err := w.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(dest.snapshots) != 0 {
		t.Fatalf("expected no writes without a snapshot")
	}
}

func TestSyncPushesInterchangeText(t *testing.T) {
	store := kv.NewMemoryStore()
	seedSnapshot(t, store)
	dest := &fakeDestination{name: "test"}
	w := NewMirrorWorker(store, []mirror.Destination{dest})

	if err := w.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(dest.snapshots) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(dest.snapshots))
	}
	got := string(dest.snapshots[0])
	if !strings.HasPrefix(got, "date,amount,category,note,method,id\n") {
		t.Fatalf("snapshot missing header: %q", got)
	}
	if !strings.Contains(got, "2024-01-05,12.34,food,,,r1") {
		t.Fatalf("snapshot missing record row: %q", got)
	}
}

func TestHandleChangeIgnoresCategories(t *testing.T) {
	store := kv.NewMemoryStore()
	seedSnapshot(t, store)
	dest := &fakeDestination{name: "test"}
	w := NewMirrorWorker(store, []mirror.Destination{dest})

	if err := w.HandleChange(context.Background(), events.NewLedgerChangedMessage(kv.KeyCategories)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(dest.snapshots) != 0 {
		t.Fatalf("category events must not trigger a sync")
	}

	if err := w.HandleChange(context.Background(), events.NewLedgerChangedMessage(kv.KeyRecords)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(dest.snapshots) != 1 {
		t.Fatalf("record events must trigger a sync")
	}
}

func TestSyncFailsWhenAllDestinationsFail(t *testing.T) {
	store := kv.NewMemoryStore()
	seedSnapshot(t, store)
	broken := &fakeDestination{name: "broken", fail: true}
	healthy := &fakeDestination{name: "healthy"}

	if err := NewMirrorWorker(store, []mirror.Destination{broken}).Sync(context.Background()); err == nil {
		t.Fatalf("expected error when every destination fails")
	}
	// One healthy destination is enough for the sync to count.
	if err := NewMirrorWorker(store, []mirror.Destination{broken, healthy}).Sync(context.Background()); err != nil {
		t.Fatalf("sync with partial failure: %v", err)
	}
	if len(healthy.snapshots) != 1 {
		t.Fatalf("healthy destination should have been written")
	}
}
