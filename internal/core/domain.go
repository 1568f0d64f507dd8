package core

import (
	"time"
)

const dateLayout = "2006-01-02"

type (
	// Date is a calendar day. Time-of-day is always midnight UTC; the
	// ledger has no sub-day semantics.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Record is a single expense entry. ID is assigned by the store and
	// immutable afterwards. Category is a non-owning reference into the
	// registry and may dangle (the referenced category can be deleted).
	Record struct {
		ID       string
		Date     Date
		Amount   Money
		Category string
		Note     string
		Method   string
	}

	Category struct {
		ID    string
		Name  string
		Color string
	}

	// RecordInput carries the user-supplied fields of a new record.
	RecordInput struct {
		Date     Date
		Amount   Money
		Category string
		Note     string
		Method   string
	}

	// RecordPatch is a partial update; nil fields keep their current
	// value. The merged result is validated as a whole.
	RecordPatch struct {
		Date     *Date
		Amount   *Money
		Category *string
		Note     *string
		Method   *string
	}
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	return nil
}

// Validate checks the invariants enforced at add and update time:
// the date must be present and the amount strictly positive.
func (in RecordInput) Validate() error {
	if in.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "required"}
	}
	return in.Amount.Validate()
}

// Apply merges the patch onto a copy of r and returns it. The ID is
// never touched.
func (p RecordPatch) Apply(r Record) Record {
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Note != nil {
		r.Note = *p.Note
	}
	if p.Method != nil {
		r.Method = *p.Method
	}
	return r
}

// Input returns the mutable fields of r as a RecordInput, so merged
// update results run through the same validation as new records.
func (r Record) Input() RecordInput {
	return RecordInput{
		Date:     r.Date,
		Amount:   r.Amount,
		Category: r.Category,
		Note:     r.Note,
		Method:   r.Method,
	}
}
