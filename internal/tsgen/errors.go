package tsgen

import (
	"errors"
	"strings"
)

var (
	// ErrSchemaCycle is returned when an inline schema contains itself.
	ErrSchemaCycle = errors.New("schema cycle detected")

	// ErrUnindexedSchema is returned for schema nodes that never went through Document.Index.
	ErrUnindexedSchema = errors.New("schema has no identifier")
)

// CycleError reports the chain of type names that led back to a schema still being
// synthesized. Cycles through $ref are legal and never produce this error.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return ErrSchemaCycle.Error() + ": " + strings.Join(e.Path, " -> ")
}

func (e *CycleError) Unwrap() error {
	return ErrSchemaCycle
}
