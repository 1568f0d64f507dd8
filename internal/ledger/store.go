// Package ledger implements the expense ledger engine: the record
// store, the category registry and the pure view derivation that the
// rendering layer consumes.
package ledger

import (
	"github.com/google/uuid"

	"ledger/internal/core"
)

// Store owns the ordered record collection for one application
// session. Canonical order is newest-first: Add prepends. Mutations
// are synchronous and assume a single logical caller, so there is no
// internal locking; the store performs no I/O and instead signals
// registered change listeners after every successful mutation.
type Store struct {
	records   []core.Record
	listeners []func()
}

func NewStore() *Store {
	return &Store{}
}

// Subscribe registers a callback invoked after every mutation that
// changed state. Used by the session to persist snapshots and publish
// change events.
func (s *Store) Subscribe(fn func()) {
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify() {
	for _, fn := range s.listeners {
		fn()
	}
}

// Restore replaces the collection with persisted records. It is meant
// for startup loading only and does not notify listeners.
func (s *Store) Restore(records []core.Record) {
	s.records = append([]core.Record(nil), records...)
}

// Records returns a copy of the collection in storage order.
func (s *Store) Records() []core.Record {
	return append([]core.Record(nil), s.records...)
}

func (s *Store) Len() int {
	return len(s.records)
}

// Get looks up a record by id.
func (s *Store) Get(id string) (core.Record, bool) {
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return core.Record{}, false
}

// Add validates the input, assigns a fresh id and prepends the record.
// On validation failure the ledger is left untouched.
func (s *Store) Add(in core.RecordInput) (core.Record, error) {
	if err := in.Validate(); err != nil {
		return core.Record{}, err
	}
	rec := core.Record{
		ID:       uuid.NewString(),
		Date:     in.Date,
		Amount:   in.Amount,
		Category: in.Category,
		Note:     in.Note,
		Method:   in.Method,
	}
	s.records = append([]core.Record{rec}, s.records...)
	s.notify()
	return rec, nil
}

// Update merges the patch onto the stored record, validates the
// result, and replaces the record in place, preserving its position.
func (s *Store) Update(id string, patch core.RecordPatch) (core.Record, error) {
	for i, r := range s.records {
		if r.ID != id {
			continue
		}
		merged := patch.Apply(r)
		if err := merged.Input().Validate(); err != nil {
			return core.Record{}, err
		}
		s.records[i] = merged
		s.notify()
		return merged, nil
	}
	return core.Record{}, &core.NotFoundError{Kind: "record", ID: id}
}

// Remove deletes the record if present. Removing an absent id is a
// no-op, which makes deletion idempotent.
func (s *Store) Remove(id string) {
	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			s.notify()
			return
		}
	}
}

// Clear empties the collection unconditionally.
func (s *Store) Clear() {
	s.records = nil
	s.notify()
}

// PrependAll inserts records as a block ahead of all existing ones,
// preserving the slice order. It is the atomic commit step of an
// import: the codec parses the whole file first, then this applies
// all rows together or not at all.
func (s *Store) PrependAll(records []core.Record) {
	if len(records) == 0 {
		return
	}
	merged := make([]core.Record, 0, len(records)+len(s.records))
	merged = append(merged, records...)
	merged = append(merged, s.records...)
	s.records = merged
	s.notify()
}
