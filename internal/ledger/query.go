package ledger

import (
	"sort"
	"strings"

	"ledger/internal/core"
)

type SortOrder string

const (
	SortDateDesc   SortOrder = "date-desc" // default
	SortDateAsc    SortOrder = "date-asc"
	SortAmountDesc SortOrder = "amount-desc"
	SortAmountAsc  SortOrder = "amount-asc"
)

// CategoryAll is the sentinel meaning "no category bound".
const CategoryAll = "all"

// Filter selects and orders a subset of the ledger. Zero-valued
// fields mean "unbounded on that axis".
type Filter struct {
	From     core.Date // inclusive lower date bound
	To       core.Date // inclusive upper date bound
	Category string    // exact match; "" or CategoryAll matches everything
	Query    string    // case-insensitive substring over note or method
	Sort     SortOrder
}

// CategoryAmount is a per-category sum over a view.
type CategoryAmount struct {
	Category core.Category
	Amount   core.Money
}

// View is a filtered, sorted projection of the ledger plus its
// aggregates.
type View struct {
	Records    []core.Record
	Total      core.Money
	ByCategory []CategoryAmount
}

// DeriveView computes the view for the given filter. It is a pure
// read over the snapshot it is handed and never mutates its inputs.
//
// Sorting is stable: records with equal keys keep their relative
// ledger (newest-first) order, so derived views are reproducible.
//
// ByCategory follows registry enumeration order, covers only
// categories present in the registry, and omits categories whose
// filtered sum is zero; zero-value slices are noise in the charts
// this feeds.
func DeriveView(records []core.Record, categories []core.Category, f Filter) View {
	view := View{}
	sums := make(map[string]int64, len(categories))

	for _, r := range records {
		if !f.matches(r) {
			continue
		}
		view.Records = append(view.Records, r)
		view.Total = view.Total.Add(r.Amount)
		sums[r.Category] += r.Amount.Cents
	}

	sortRecords(view.Records, f.Sort)

	for _, c := range categories {
		if cents := sums[c.ID]; cents != 0 {
			view.ByCategory = append(view.ByCategory, CategoryAmount{
				Category: c,
				Amount:   core.Money{Cents: cents},
			})
		}
	}
	return view
}

func (f Filter) matches(r core.Record) bool {
	if !f.From.IsZero() && r.Date.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && r.Date.After(f.To.Time) {
		return false
	}
	if f.Category != "" && f.Category != CategoryAll && r.Category != f.Category {
		return false
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		q = strings.ToLower(q)
		if !strings.Contains(strings.ToLower(r.Note), q) &&
			!strings.Contains(strings.ToLower(r.Method), q) {
			return false
		}
	}
	return true
}

func sortRecords(records []core.Record, order SortOrder) {
	var less func(a, b core.Record) bool
	switch order {
	case SortDateAsc:
		less = func(a, b core.Record) bool { return a.Date.Before(b.Date.Time) }
	case SortAmountDesc:
		less = func(a, b core.Record) bool { return a.Amount.Cents > b.Amount.Cents }
	case SortAmountAsc:
		less = func(a, b core.Record) bool { return a.Amount.Cents < b.Amount.Cents }
	default: // SortDateDesc
		less = func(a, b core.Record) bool { return a.Date.After(b.Date.Time) }
	}
	sort.SliceStable(records, func(i, j int) bool { return less(records[i], records[j]) })
}
