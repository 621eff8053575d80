package storage

import "fmt"

// SchemaError covers arity mismatch, unknown column, ambiguous column (§7).
type SchemaError struct{ Msg string }

func (e *SchemaError) Error() string { return "schema error: " + e.Msg }

// TypeError covers an impossible coercion encountered while writing a row.
type TypeError struct{ Msg string }

func (e *TypeError) Error() string { return "type error: " + e.Msg }

// ConstraintViolation covers NOT NULL, UNIQUE/PK, CHECK failures.
type ConstraintViolation struct{ Msg string }

func (e *ConstraintViolation) Error() string { return "constraint violation: " + e.Msg }

func errArity(want, got int) error {
	return &SchemaError{Msg: fmt.Sprintf("expected %d values, got %d", want, got)}
}

func errUnknownColumn(name string) error {
	return &SchemaError{Msg: fmt.Sprintf("unknown column %q", name)}
}
