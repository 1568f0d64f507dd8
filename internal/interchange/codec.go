// Package interchange implements the flat-file export/import format:
// comma-separated UTF-8 text with a fixed header.
//
// The format performs no quoting or escaping. Fields containing the
// delimiter or newlines will corrupt parsing on round-trip; callers
// should avoid commas in note and method. This is a documented
// constraint of the interchange format, kept for compatibility, not a
// silent bug.
package interchange

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"ledger/internal/core"
	"ledger/internal/ledger"
)

// Header column names, in export order.
var header = []string{"date", "amount", "category", "note", "method", "id"}

// Export serializes records in their current storage order (no
// re-sort) to interchange text. Dates render as YYYY-MM-DD and amounts
// with two decimals, so a round-trip preserves field values exactly.
func Export(records []core.Record) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(header, ","))
	b.WriteByte('\n')
	for _, r := range records {
		b.WriteString(r.Date.String())
		b.WriteByte(',')
		b.WriteString(r.Amount.Decimal())
		b.WriteByte(',')
		b.WriteString(r.Category)
		b.WriteByte(',')
		b.WriteString(r.Note)
		b.WriteByte(',')
		b.WriteString(r.Method)
		b.WriteByte(',')
		b.WriteString(r.ID)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Import parses interchange text into records, in file row order.
//
// The first line is the header; columns are mapped to fields by name,
// so column order does not matter. Individual malformed rows degrade
// instead of failing the import: an unparsable or missing amount
// becomes 0, an unparsable date becomes the zero date, a missing or
// empty category falls back to the "other" category, and a missing or
// empty id gets a freshly generated one. Rows that do carry an id are
// revived under it, which is what makes re-importing a previous export
// a restore.
//
// Only structural problems fail the whole import: input that is not
// valid UTF-8 or a header containing none of the known column names
// returns *core.ImportError and no records, so the caller commits
// nothing. A header-only file is a successful import of zero records.
func Import(data []byte) ([]core.Record, error) {
	if !utf8.Valid(data) {
		return nil, &core.ImportError{Reason: "input is not valid UTF-8 text"}
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	cols := columnIndex(lines[0])
	if len(cols) == 0 {
		return nil, &core.ImportError{Reason: "header row has no recognized columns"}
	}

	var records []core.Record
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, parseRow(strings.Split(line, ","), cols))
	}
	return records, nil
}

// columnIndex maps lowercased header names to their positions. Only
// the known column names are indexed; a header carrying none of them
// is not a header at all, and the import fails rather than silently
// producing zero records from a data file.
func columnIndex(headerLine string) map[string]int {
	known := make(map[string]bool, len(header))
	for _, name := range header {
		known[name] = true
	}
	cols := make(map[string]int)
	for i, name := range strings.Split(headerLine, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if !known[name] {
			continue
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

// parseRow builds a record from one data line. Structural fields
// (date, amount, category, id) are trimmed before parsing; note and
// method are free text and kept verbatim so they round-trip
// byte-exact through export and re-import.
func parseRow(fields []string, cols map[string]int) core.Record {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(fields) {
			return ""
		}
		return fields[i]
	}

	rec := core.Record{
		Category: strings.TrimSpace(get("category")),
		Note:     get("note"),
		Method:   get("method"),
		ID:       strings.TrimSpace(get("id")),
	}
	if rec.Category == "" {
		rec.Category = ledger.FallbackCategoryID
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	// Malformed numeric data degrades to a zero-amount record rather
	// than aborting the import.
	if cents, err := core.ParseDecimalToCents(get("amount")); err == nil {
		rec.Amount = core.Money{Cents: cents}
	}
	if d, err := core.ParseDate(strings.TrimSpace(get("date"))); err == nil {
		rec.Date = d
	}
	return rec
}
