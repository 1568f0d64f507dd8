package core

import "fmt"

// ValidationError reports bad user input to add or update. It names
// the offending field so callers can attach the message to a form.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an operation referencing a nonexistent id.
type NotFoundError struct {
	Kind string // "record" or "category"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// DuplicateError reports a category id collision.
type DuplicateError struct {
	ID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("category %q already exists", e.ID)
}

// ImportError reports interchange text that is structurally unreadable
// as a whole. Individual malformed rows degrade instead (see the
// interchange package) and never produce an ImportError.
type ImportError struct {
	Reason string
}

func (e *ImportError) Error() string {
	return "import failed: " + e.Reason
}
