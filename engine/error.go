package engine

import (
	"github.com/vegasq/memsql/catalog"
	"github.com/vegasq/memsql/exec"
	"github.com/vegasq/memsql/sql"
	"github.com/vegasq/memsql/storage"
	"github.com/vegasq/memsql/txnlog"
)

// ErrorKind classifies an engine error into one of spec §7's kinds, so a
// caller can switch on category without string-matching messages.
type ErrorKind int

const (
	KindLex ErrorKind = iota
	KindParse
	KindCatalog
	KindSchema
	KindType
	KindConstraint
	KindPlan
	KindRuntime
	KindTxn
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindLex:
		return "LexError"
	case KindParse:
		return "ParseError"
	case KindCatalog:
		return "CatalogError"
	case KindSchema:
		return "SchemaError"
	case KindType:
		return "TypeError"
	case KindConstraint:
		return "ConstraintViolation"
	case KindPlan:
		return "PlanError"
	case KindRuntime:
		return "RuntimeError"
	case KindTxn:
		return "TxnError"
	default:
		return "UnknownError"
	}
}

// Error is the interface every error this package returns satisfies,
// mirroring the plain-error-plus-type-switch style rather than a
// panic/recover design.
type Error interface {
	error
	Kind() ErrorKind
}

type engineError struct {
	err  error
	kind ErrorKind
}

func (e *engineError) Error() string { return e.err.Error() }
func (e *engineError) Kind() ErrorKind { return e.kind }
func (e *engineError) Unwrap() error { return e.err }

// wrapError classifies err by its concrete type, one case per C1-C10
// component error, and returns nil for a nil input.
func wrapError(err error) Error {
	if err == nil {
		return nil
	}
	switch err.(type) {
	case *sql.LexError:
		return &engineError{err, KindLex}
	case *sql.ParseError:
		return &engineError{err, KindParse}
	case *catalog.ErrExists, *catalog.ErrNotFound, *catalog.ErrWrongKind:
		return &engineError{err, KindCatalog}
	case *storage.SchemaError:
		return &engineError{err, KindSchema}
	case *storage.TypeError:
		return &engineError{err, KindType}
	case *storage.ConstraintViolation:
		return &engineError{err, KindConstraint}
	case *exec.PlanError:
		return &engineError{err, KindPlan}
	case *exec.RuntimeError:
		return &engineError{err, KindRuntime}
	case *txnlog.ErrUnknownSavepoint:
		return &engineError{err, KindTxn}
	}
	switch err {
	case txnlog.ErrNoTransaction, txnlog.ErrInTransaction:
		return &engineError{err, KindTxn}
	}
	return &engineError{err, KindUnknown}
}
