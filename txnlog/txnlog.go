// Package txnlog implements C9: undo-log-based transactions over the
// catalog/storage layer. There is no MVCC: a transaction simply records
// enough information to undo each mutation it performed, in order, and
// ROLLBACK replays that log backwards. Grounded on the general shape of
// the query/executor.go statement dispatch (a single Execute
// entry point mutating shared state) combined with
// original_source/src/sql/executor.rs's placeholder Begin/Commit/Rollback
// arms, extended here into the full undo-log semantics spec §5.6
// requires (BEGIN/COMMIT/ROLLBACK/SAVEPOINT/RELEASE/ROLLBACK TO and
// auto-commit wrapping of implicit statements).
package txnlog

import (
	"fmt"

	"github.com/google/uuid"
)

// Undoer is one recorded mutation capable of reversing itself.
type Undoer interface {
	Undo() error
}

// ErrNoTransaction is returned by COMMIT/ROLLBACK/SAVEPOINT/RELEASE when no
// transaction is active.
var ErrNoTransaction = fmt.Errorf("no transaction is active")

// ErrInTransaction is returned by BEGIN when a transaction is already
// active (nested BEGIN is not supported; use SAVEPOINT instead).
var ErrInTransaction = fmt.Errorf("a transaction is already active")

// ErrUnknownSavepoint is returned by RELEASE/ROLLBACK TO for a name that
// was never established in the current transaction.
type ErrUnknownSavepoint struct{ Name string }

func (e *ErrUnknownSavepoint) Error() string {
	return fmt.Sprintf("no such savepoint: %s", e.Name)
}

type savepoint struct {
	name string
	mark int // index into log at the time the savepoint was taken
}

// Manager owns the single process-global transaction (spec §5.6: one
// active transaction at a time, no nesting of BEGIN itself).
type Manager struct {
	active     bool
	id         uuid.UUID
	log        []Undoer
	savepoints []savepoint
}

// NewManager returns a manager with no active transaction.
func NewManager() *Manager { return &Manager{} }

// InTransaction reports whether a BEGIN is currently open.
func (m *Manager) InTransaction() bool { return m.active }

// ID returns the current transaction's identifier, used by EXPLAIN and
// diagnostic logging to correlate statements with the transaction that
// contained them. The zero UUID when no transaction is active.
func (m *Manager) ID() uuid.UUID { return m.id }

// Begin opens a new transaction.
func (m *Manager) Begin() error {
	if m.active {
		return ErrInTransaction
	}
	m.active = true
	m.id = uuid.New()
	m.log = m.log[:0]
	m.savepoints = m.savepoints[:0]
	return nil
}

// Commit discards the undo log, making all recorded mutations permanent.
func (m *Manager) Commit() error {
	if !m.active {
		return ErrNoTransaction
	}
	m.active = false
	m.log = nil
	m.savepoints = nil
	return nil
}

// Rollback undoes every recorded mutation, in reverse order, and closes
// the transaction.
func (m *Manager) Rollback() error {
	if !m.active {
		return ErrNoTransaction
	}
	if err := m.undoTo(0); err != nil {
		return err
	}
	m.active = false
	m.log = nil
	m.savepoints = nil
	return nil
}

// Savepoint marks the current log position under name. Re-using a name
// shadows the earlier mark (RELEASE/ROLLBACK TO resolve to the most
// recent one, matching common SQL engine behavior).
func (m *Manager) Savepoint(name string) error {
	if !m.active {
		return ErrNoTransaction
	}
	m.savepoints = append(m.savepoints, savepoint{name: name, mark: len(m.log)})
	return nil
}

// Release forgets a savepoint (and any later ones) without undoing
// anything; its mutations merge into the enclosing transaction.
func (m *Manager) Release(name string) error {
	if !m.active {
		return ErrNoTransaction
	}
	idx := m.findSavepoint(name)
	if idx < 0 {
		return &ErrUnknownSavepoint{Name: name}
	}
	m.savepoints = m.savepoints[:idx]
	return nil
}

// RollbackTo undoes every mutation recorded since the named savepoint,
// then keeps the transaction open positioned at that point (the
// savepoint itself, and any later ones, are dropped; per common SQL
// engine behavior the savepoint may be re-established for a later
// ROLLBACK TO of the same name).
func (m *Manager) RollbackTo(name string) error {
	if !m.active {
		return ErrNoTransaction
	}
	idx := m.findSavepoint(name)
	if idx < 0 {
		return &ErrUnknownSavepoint{Name: name}
	}
	mark := m.savepoints[idx].mark
	if err := m.undoTo(mark); err != nil {
		return err
	}
	m.savepoints = m.savepoints[:idx]
	return nil
}

func (m *Manager) findSavepoint(name string) int {
	for i := len(m.savepoints) - 1; i >= 0; i-- {
		if m.savepoints[i].name == name {
			return i
		}
	}
	return -1
}

// undoTo replays m.log[mark:] backwards and truncates it to mark.
func (m *Manager) undoTo(mark int) error {
	for i := len(m.log) - 1; i >= mark; i-- {
		if err := m.log[i].Undo(); err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
	}
	m.log = m.log[:mark]
	return nil
}

// Record appends a mutation to the open transaction's undo log. It is a
// no-op when no transaction is active (auto-commit mode: the statement's
// own execution is the only record of it, nothing to undo later).
func (m *Manager) Record(u Undoer) {
	if m.active {
		m.log = append(m.log, u)
	}
}

// AutoCommit runs fn under the currently open transaction if there is
// one, or wraps it in an implicit BEGIN/COMMIT (rolled back on error) when
// there is not, matching spec §5.6's auto-commit rule for standalone
// statements.
func (m *Manager) AutoCommit(fn func() error) error {
	if m.active {
		return fn()
	}
	if err := m.Begin(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		_ = m.Rollback()
		return err
	}
	return m.Commit()
}

// UndoFunc adapts a plain closure to the Undoer interface.
type UndoFunc func() error

func (f UndoFunc) Undo() error { return f() }
