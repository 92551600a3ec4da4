// Package txn provides a single-level, process-wide transaction manager
// layered over catalog.Database snapshots. Only one transaction may be
// in progress at a time; BEGIN while one is active, or COMMIT/ROLLBACK
// with none active, are reported as errors rather than panics.
package txn

import (
	"errors"

	"github.com/google/uuid"

	"github.com/Chahine-tech/rowql/pkg/catalog"
)

var (
	// ErrAlreadyInProgress is returned by Begin when a transaction is
	// already active.
	ErrAlreadyInProgress = errors.New("Transaction already in progress")
	// ErrNoneInProgress is returned by Commit/Rollback when there is no
	// active transaction to resolve.
	ErrNoneInProgress = errors.New("No transaction in progress")
)

// Manager tracks at most one in-flight transaction for a *catalog.Database.
// It is not safe for concurrent use without an external lock; callers
// (pkg/session) serialize access with their own mutex.
type Manager struct {
	snapshot *catalog.Database
	id       uuid.UUID
}

// New returns a Manager with no active transaction.
func New() *Manager {
	return &Manager{}
}

// Active reports whether a transaction is currently in progress.
func (m *Manager) Active() bool {
	return m.snapshot != nil
}

// ID returns the handle of the currently active transaction, and false if
// none is in progress. Correlated into audit log entries by pkg/session so
// every statement run inside a transaction can be traced back to it.
func (m *Manager) ID() (uuid.UUID, bool) {
	if !m.Active() {
		return uuid.UUID{}, false
	}
	return m.id, true
}

// Begin snapshots db so that Rollback can later restore it, and marks a
// transaction as active. Returns ErrAlreadyInProgress if one already is.
func (m *Manager) Begin(db *catalog.Database) error {
	if m.Active() {
		return ErrAlreadyInProgress
	}
	m.snapshot = db.Clone()
	m.id = uuid.New()
	return nil
}

// Commit discards the snapshot, keeping whatever mutations were made to
// db since Begin. Returns ErrNoneInProgress if there is nothing to commit.
func (m *Manager) Commit() error {
	if !m.Active() {
		return ErrNoneInProgress
	}
	m.snapshot = nil
	return nil
}

// Rollback restores db's tables to the state captured at Begin. Returns
// ErrNoneInProgress if there is nothing to roll back.
func (m *Manager) Rollback(db *catalog.Database) error {
	if !m.Active() {
		return ErrNoneInProgress
	}
	db.Tables = m.snapshot.Tables
	m.snapshot = nil
	return nil
}
