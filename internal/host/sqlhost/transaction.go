package sqlhost

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Sey56/Paracore-sub001/internal/host"
)

var _ host.Transaction = (*transaction)(nil)

type transaction struct {
	doc  *Document
	tx   *sql.Tx
	name string
	open bool

	added    []int64
	modified []int64
	deleted  []int64
}

func (t *transaction) Name() string { return t.name }

func (t *transaction) IsOpen() bool {
	t.doc.mu.Lock()
	defer t.doc.mu.Unlock()
	return t.open
}

func (t *transaction) exec(ctx context.Context, query string, args ...any) error {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %v", host.ErrNotFound, args[len(args)-1])
	}
	return nil
}

// close marks the transaction finished and detaches it from the document.
func (t *transaction) close() error {
	t.doc.mu.Lock()
	defer t.doc.mu.Unlock()
	if !t.open {
		return fmt.Errorf("%w: %q", host.ErrTransactionClosed, t.name)
	}
	t.open = false
	if t.doc.current == t {
		t.doc.current = nil
	}
	return nil
}

// Commit commits and then notifies subscribers of the changes.
func (t *transaction) Commit() error {
	if err := t.close(); err != nil {
		return err
	}
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction %q: %w", t.name, err)
	}
	t.doc.logger.Debug("Transaction committed", "name", t.name, "added", len(t.added))
	t.doc.notify(host.ChangeEvent{
		Transaction: t.name,
		Added:       nonNil(t.added),
		Modified:    nonNil(t.modified),
		Deleted:     nonNil(t.deleted),
	})
	return nil
}

// Rollback discards every change made in the transaction.
func (t *transaction) Rollback() error {
	if err := t.close(); err != nil {
		return err
	}
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("failed to roll back transaction %q: %w", t.name, err)
	}
	t.doc.logger.Debug("Transaction rolled back", "name", t.name)
	return nil
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
