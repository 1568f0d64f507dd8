package session

import (
	"context"
	"errors"
	"testing"

	"ledger/internal/core"
	"ledger/internal/kv"
	"ledger/internal/ledger"
)

func newTestSession(t *testing.T, store kv.Store) *Session {
	t.Helper()
	s, err := New(context.Background(), store, nil)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func TestFirstRunDefaults(t *testing.T) {
	s := newTestSession(t, kv.NewMemoryStore())

	if len(s.Records()) != 0 {
		t.Fatalf("expected empty ledger on first run")
	}
	cats := s.Categories()
	if len(cats) == 0 {
		t.Fatalf("expected seed categories on first run")
	}
	if _, ok := findCategory(cats, ledger.FallbackCategoryID); !ok {
		t.Fatalf("seed set must contain the fallback category")
	}
}

func TestCorruptSnapshotsFallBack(t *testing.T) {
	store := kv.NewMemoryStore()
	ctx := context.Background()
	if err := store.Save(ctx, kv.KeyRecords, []byte("{not json")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, kv.KeyCategories, []byte("also not json")); err != nil {
		t.Fatalf("save: %v", err)
	}

	s := newTestSession(t, store)
	if len(s.Records()) != 0 {
		t.Fatalf("corrupt records snapshot must fall back to empty ledger")
	}
	if len(s.Categories()) == 0 {
		t.Fatalf("corrupt categories snapshot must fall back to seed set")
	}
}

func TestMutationsPersistAndReload(t *testing.T) {
	store := kv.NewMemoryStore()
	s := newTestSession(t, store)

	rec, err := s.Add(core.RecordInput{
		Date:     core.NewDate(2024, 1, 5),
		Amount:   core.Money{Cents: 1234},
		Category: "food",
		Note:     "lunch",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.AddCategory("Coffee", "#321"); err != nil {
		t.Fatalf("add category: %v", err)
	}

	// A fresh session against the same store sees the same state.
	reloaded := newTestSession(t, store)
	records := reloaded.Records()
	if len(records) != 1 || records[0].ID != rec.ID || records[0].Amount.Cents != 1234 {
		t.Fatalf("reloaded ledger mismatch: %+v", records)
	}
	if _, ok := findCategory(reloaded.Categories(), "coffee"); !ok {
		t.Fatalf("reloaded registry missing added category")
	}
}

func TestRoundTripThroughSessionExportImport(t *testing.T) {
	s := newTestSession(t, kv.NewMemoryStore())
	if _, err := s.Add(core.RecordInput{Date: core.NewDate(2024, 1, 5), Amount: core.Money{Cents: 10000}, Category: "food"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	orig := s.Records()

	fresh := newTestSession(t, kv.NewMemoryStore())
	n, err := fresh.ImportCSV(s.ExportCSV())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 imported record, got %d", n)
	}
	got := fresh.Records()
	if got[0].ID != orig[0].ID || got[0].Amount != orig[0].Amount {
		t.Fatalf("round trip mismatch: %+v vs %+v", got[0], orig[0])
	}
}

func TestImportFailureLeavesLedgerUntouched(t *testing.T) {
	s := newTestSession(t, kv.NewMemoryStore())
	if _, err := s.Add(core.RecordInput{Date: core.NewDate(2024, 1, 5), Amount: core.Money{Cents: 100}}); err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err := s.ImportCSV([]byte{0xff, 0xfe})
	var ierr *core.ImportError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected ImportError, got %v", err)
	}
	if len(s.Records()) != 1 {
		t.Fatalf("failed import must not touch the ledger")
	}
}

type recordingNotifier struct {
	collections []string
}

func (n *recordingNotifier) LedgerChanged(_ context.Context, collection string) {
	n.collections = append(n.collections, collection)
}

func TestNotifierReceivesChanges(t *testing.T) {
	notifier := &recordingNotifier{}
	s, err := New(context.Background(), kv.NewMemoryStore(), notifier)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	if _, err := s.Add(core.RecordInput{Date: core.NewDate(2024, 1, 5), Amount: core.Money{Cents: 100}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.AddCategory("Books", "#abc"); err != nil {
		t.Fatalf("add category: %v", err)
	}

	if len(notifier.collections) != 2 ||
		notifier.collections[0] != kv.KeyRecords ||
		notifier.collections[1] != kv.KeyCategories {
		t.Fatalf("unexpected notifications: %v", notifier.collections)
	}
}

func findCategory(cats []core.Category, id string) (core.Category, bool) {
	for _, c := range cats {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}
