package session

import (
	"encoding/json"
	"fmt"

	"ledger/internal/core"
)

// Snapshots are the persisted JSON form of the two collections. Dates
// travel as YYYY-MM-DD strings and amounts as integer cents, matching
// the in-memory representation exactly.

type recordSnapshot struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
	Note        string `json:"note,omitempty"`
	Method      string `json:"method,omitempty"`
}

type categorySnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// EncodeRecords marshals records in storage order.
func EncodeRecords(records []core.Record) ([]byte, error) {
	snaps := make([]recordSnapshot, len(records))
	for i, r := range records {
		snaps[i] = recordSnapshot{
			ID:          r.ID,
			Date:        r.Date.String(),
			AmountCents: r.Amount.Cents,
			Category:    r.Category,
			Note:        r.Note,
			Method:      r.Method,
		}
	}
	return json.Marshal(snaps)
}

// DecodeRecords unmarshals a records snapshot. Any structural problem
// is an error; the caller decides whether to fall back to defaults.
func DecodeRecords(data []byte) ([]core.Record, error) {
	var snaps []recordSnapshot
	if err := json.Unmarshal(data, &snaps); err != nil {
		return nil, fmt.Errorf("decode records snapshot: %w", err)
	}
	records := make([]core.Record, len(snaps))
	for i, s := range snaps {
		rec := core.Record{
			ID:       s.ID,
			Amount:   core.Money{Cents: s.AmountCents},
			Category: s.Category,
			Note:     s.Note,
			Method:   s.Method,
		}
		if s.Date != "" {
			d, err := core.ParseDate(s.Date)
			if err != nil {
				return nil, fmt.Errorf("decode record %q date: %w", s.ID, err)
			}
			rec.Date = d
		}
		records[i] = rec
	}
	return records, nil
}

func EncodeCategories(cats []core.Category) ([]byte, error) {
	snaps := make([]categorySnapshot, len(cats))
	for i, c := range cats {
		snaps[i] = categorySnapshot{ID: c.ID, Name: c.Name, Color: c.Color}
	}
	return json.Marshal(snaps)
}

func DecodeCategories(data []byte) ([]core.Category, error) {
	var snaps []categorySnapshot
	if err := json.Unmarshal(data, &snaps); err != nil {
		return nil, fmt.Errorf("decode categories snapshot: %w", err)
	}
	cats := make([]core.Category, len(snaps))
	for i, s := range snaps {
		cats[i] = core.Category{ID: s.ID, Name: s.Name, Color: s.Color}
	}
	return cats, nil
}
