package ledger

import (
	"strings"

	"ledger/internal/core"
)

// FallbackCategoryID is the category assigned to imported rows whose
// category column is missing or empty. It is part of the seed set so
// fresh installs can always resolve it.
const FallbackCategoryID = "other"

// SeedCategories is the fixed default set, applied only when no
// persisted registry exists.
func SeedCategories() []core.Category {
	return []core.Category{
		{ID: "food", Name: "Food", Color: "#e4572e"},
		{ID: "transport", Name: "Transport", Color: "#3d5a80"},
		{ID: "housing", Name: "Housing", Color: "#6a994e"},
		{ID: "bill", Name: "Bill", Color: "#f4a261"},
		{ID: "entertainment", Name: "Entertainment", Color: "#9b5de5"},
		{ID: "health", Name: "Health", Color: "#e63946"},
		{ID: FallbackCategoryID, Name: "Other", Color: "#6b7280"},
	}
}

// Registry owns the category definitions for one session. Enumeration
// order is stable (seed order, then insertion order) and is the order
// aggregates are reported in. Like the Store it holds no locks and
// does no I/O.
type Registry struct {
	cats      []core.Category
	listeners []func()
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Subscribe registers a callback invoked after every mutation.
func (r *Registry) Subscribe(fn func()) {
	r.listeners = append(r.listeners, fn)
}

func (r *Registry) notify() {
	for _, fn := range r.listeners {
		fn()
	}
}

// Restore replaces the definitions with persisted ones. Startup only;
// does not notify listeners.
func (r *Registry) Restore(cats []core.Category) {
	r.cats = append([]core.Category(nil), cats...)
}

// Categories returns a copy of the definitions in enumeration order.
func (r *Registry) Categories() []core.Category {
	return append([]core.Category(nil), r.cats...)
}

// Lookup finds a category by id.
func (r *Registry) Lookup(id string) (core.Category, bool) {
	for _, c := range r.cats {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}

// DisplayName resolves a category reference for display. Orphaned
// references (the category was deleted) fall back to the raw id.
func (r *Registry) DisplayName(id string) string {
	if c, ok := r.Lookup(id); ok {
		return c.Name
	}
	return id
}

// Slug normalizes a display name into a category id: lowercased, with
// whitespace runs collapsed to a single dash.
func Slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// Add creates a category whose id is derived from the name.
func (r *Registry) Add(name, color string) (core.Category, error) {
	id := Slug(name)
	if id == "" {
		return core.Category{}, &core.ValidationError{Field: "name", Reason: "required"}
	}
	if _, ok := r.Lookup(id); ok {
		return core.Category{}, &core.DuplicateError{ID: id}
	}
	cat := core.Category{ID: id, Name: strings.TrimSpace(name), Color: color}
	r.cats = append(r.cats, cat)
	r.notify()
	return cat, nil
}

// Rename changes the display label. The id stays stable; records
// referencing it are unaffected.
func (r *Registry) Rename(id, name string) error {
	for i, c := range r.cats {
		if c.ID == id {
			r.cats[i].Name = name
			r.notify()
			return nil
		}
	}
	return &core.NotFoundError{Kind: "category", ID: id}
}

// Recolor changes the display color token.
func (r *Registry) Recolor(id, color string) error {
	for i, c := range r.cats {
		if c.ID == id {
			r.cats[i].Color = color
			r.notify()
			return nil
		}
	}
	return &core.NotFoundError{Kind: "category", ID: id}
}

// Remove deletes the definition only. Records referencing the id keep
// it as an orphaned reference; removal never cascades. Removing an
// absent id is a no-op.
func (r *Registry) Remove(id string) {
	for i, c := range r.cats {
		if c.ID == id {
			r.cats = append(r.cats[:i], r.cats[i+1:]...)
			r.notify()
			return
		}
	}
}
