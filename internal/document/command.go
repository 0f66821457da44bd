package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/bethropolis/infograph/internal/logger"
)

// Command is an atomic document mutation. Apply records its changes through
// the Tx; the inverse is derived from those records, so commands never
// author their own undo. Apply may block (e.g. waiting on a resource).
type Command interface {
	Name() string
	Apply(ctx context.Context, tx *Tx) error
}

// Batchable is implemented by commands that declare whether they may take
// part in a multi-command batch. Commands without it are batchable.
type Batchable interface {
	Batchable() bool
}

// Committer is implemented by commands that act once their history entry is
// durable and published.
type Committer interface {
	Commit()
}

// IsBatchable reports the batchable marker of cmd.
func IsBatchable(cmd Command) bool {
	if b, ok := cmd.(Batchable); ok {
		return b.Batchable()
	}
	return true
}

// CommandFunc adapts a function into a Command.
type CommandFunc struct {
	Label string
	Fn    func(ctx context.Context, tx *Tx) error
}

func (c CommandFunc) Name() string { return c.Label }

func (c CommandFunc) Apply(ctx context.Context, tx *Tx) error { return c.Fn(ctx, tx) }

// Tx collects the changes applied on behalf of one history entry. Changes are
// applied immediately, so later commands in a batch observe earlier ones.
type Tx struct {
	m       *Manager
	base    Snapshot
	applied []Change
}

// Begin starts a transaction against m.
func (m *Manager) Begin() *Tx {
	return &Tx{m: m, base: m.Snapshot()}
}

// Snapshot returns the document as it stands inside the transaction.
func (tx *Tx) Snapshot() Snapshot { return tx.m.Snapshot() }

// Apply performs c and records the applied change.
func (tx *Tx) Apply(c Change) error {
	applied, err := tx.m.Apply(c)
	if err != nil {
		return err
	}
	tx.applied = append(tx.applied, applied)
	return nil
}

// Add inserts value at path.
func (tx *Tx) Add(path Path, value interface{}) error { return tx.Apply(Add(path, value)) }

// Remove deletes the value at path.
func (tx *Tx) Remove(path Path) error { return tx.Apply(Remove(path)) }

// Update replaces the value at path.
func (tx *Tx) Update(path Path, value interface{}) error { return tx.Apply(Update(path, value)) }

// Changes returns the applied changes in order.
func (tx *Tx) Changes() []Change {
	out := make([]Change, len(tx.applied))
	copy(out, tx.applied)
	return out
}

// Len returns the number of applied changes.
func (tx *Tx) Len() int { return len(tx.applied) }

// Rollback applies the inverses of every recorded change in reverse order.
// If an inverse fails the document is restored from the snapshot taken at
// Begin, so the state always ends where it started.
func (tx *Tx) Rollback() error {
	var err error
	for _, inv := range InvertAll(tx.applied) {
		if _, err = tx.m.Apply(inv); err != nil {
			break
		}
	}
	tx.applied = nil
	if err != nil {
		logger.Warnf("Document: Rollback inverse failed, restoring snapshot: %v", err)
		tx.m.Restore(tx.base)
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// ApplyAll applies changes in order through a fresh transaction and rolls
// every one of them back if any fails. It returns the applied records.
func (m *Manager) ApplyAll(changes []Change) ([]Change, error) {
	tx := m.Begin()
	for _, c := range changes {
		if err := tx.Apply(c); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, rbErr)
			}
			return nil, err
		}
	}
	return tx.Changes(), nil
}
