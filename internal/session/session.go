// Package session owns one ledger engine instance per application
// run and wires it to its collaborators: the key/value persistence
// adapter and an optional change notifier. There is no process-wide
// singleton; callers construct a Session and pass it around.
package session

import (
	"context"
	"log/slog"
	"time"

	"ledger/internal/core"
	"ledger/internal/interchange"
	"ledger/internal/kv"
	"ledger/internal/ledger"
)

const persistTimeout = 5 * time.Second

// Notifier is told which collection changed after its new snapshot
// has been persisted. The AMQP publisher implements this in the
// server binary; a nil notifier disables change events.
type Notifier interface {
	LedgerChanged(ctx context.Context, collection string)
}

type Session struct {
	store    *ledger.Store
	registry *ledger.Registry
	kv       kv.Store
	notifier Notifier
}

// New loads both collections from the persistence adapter and returns
// a ready session. Absent keys (first run) and corrupt payloads fall
// back to defaults: an empty ledger and the seed category set. Load
// problems are logged, never fatal.
func New(ctx context.Context, store kv.Store, notifier Notifier) (*Session, error) {
	s := &Session{
		store:    ledger.NewStore(),
		registry: ledger.NewRegistry(),
		kv:       store,
		notifier: notifier,
	}

	s.store.Restore(s.loadRecords(ctx))
	s.registry.Restore(s.loadCategories(ctx))

	s.store.Subscribe(func() { s.persistRecords() })
	s.registry.Subscribe(func() { s.persistCategories() })

	return s, nil
}

func (s *Session) loadRecords(ctx context.Context) []core.Record {
	data, ok, err := s.kv.Load(ctx, kv.KeyRecords)
	if err != nil {
		slog.WarnContext(ctx, "Failed loading records snapshot, starting empty", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	records, err := DecodeRecords(data)
	if err != nil {
		slog.WarnContext(ctx, "Corrupt records snapshot, starting empty", "error", err)
		return nil
	}
	return records
}

func (s *Session) loadCategories(ctx context.Context) []core.Category {
	data, ok, err := s.kv.Load(ctx, kv.KeyCategories)
	if err != nil {
		slog.WarnContext(ctx, "Failed loading categories snapshot, using seed set", "error", err)
		return ledger.SeedCategories()
	}
	if !ok {
		return ledger.SeedCategories()
	}
	cats, err := DecodeCategories(data)
	if err != nil {
		slog.WarnContext(ctx, "Corrupt categories snapshot, using seed set", "error", err)
		return ledger.SeedCategories()
	}
	return cats
}

func (s *Session) persistRecords() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	data, err := EncodeRecords(s.store.Records())
	if err != nil {
		slog.ErrorContext(ctx, "Failed encoding records snapshot", "error", err)
		return
	}
	if err := s.kv.Save(ctx, kv.KeyRecords, data); err != nil {
		slog.ErrorContext(ctx, "Failed persisting records snapshot", "error", err)
		return
	}
	if s.notifier != nil {
		s.notifier.LedgerChanged(ctx, kv.KeyRecords)
	}
}

func (s *Session) persistCategories() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	data, err := EncodeCategories(s.registry.Categories())
	if err != nil {
		slog.ErrorContext(ctx, "Failed encoding categories snapshot", "error", err)
		return
	}
	if err := s.kv.Save(ctx, kv.KeyCategories, data); err != nil {
		slog.ErrorContext(ctx, "Failed persisting categories snapshot", "error", err)
		return
	}
	if s.notifier != nil {
		s.notifier.LedgerChanged(ctx, kv.KeyCategories)
	}
}

// Records returns the current ledger in storage order.
func (s *Session) Records() []core.Record {
	return s.store.Records()
}

// Categories returns the registry in enumeration order.
func (s *Session) Categories() []core.Category {
	return s.registry.Categories()
}

// DisplayName resolves a category reference for display, falling back
// to the raw id for orphaned references.
func (s *Session) DisplayName(categoryID string) string {
	return s.registry.DisplayName(categoryID)
}

// DeriveView derives the filtered, sorted view and its aggregates
// from the ledger as of this call.
func (s *Session) DeriveView(f ledger.Filter) ledger.View {
	return ledger.DeriveView(s.store.Records(), s.registry.Categories(), f)
}

func (s *Session) Add(in core.RecordInput) (core.Record, error) {
	return s.store.Add(in)
}

func (s *Session) Update(id string, patch core.RecordPatch) (core.Record, error) {
	return s.store.Update(id, patch)
}

func (s *Session) Remove(id string) {
	s.store.Remove(id)
}

func (s *Session) Clear() {
	s.store.Clear()
}

func (s *Session) AddCategory(name, color string) (core.Category, error) {
	return s.registry.Add(name, color)
}

func (s *Session) RenameCategory(id, name string) error {
	return s.registry.Rename(id, name)
}

func (s *Session) RecolorCategory(id, color string) error {
	return s.registry.Recolor(id, color)
}

func (s *Session) RemoveCategory(id string) {
	s.registry.Remove(id)
}

// ExportCSV renders the ledger as interchange text.
func (s *Session) ExportCSV() []byte {
	return interchange.Export(s.store.Records())
}

// ImportCSV parses interchange text and commits all parsed rows at
// once, ahead of existing records. A structural parse failure leaves
// the ledger untouched; the returned count is the number of imported
// records.
func (s *Session) ImportCSV(data []byte) (int, error) {
	records, err := interchange.Import(data)
	if err != nil {
		return 0, err
	}
	s.store.PrependAll(records)
	return len(records), nil
}
