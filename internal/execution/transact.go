package execution

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Sey56/Paracore-sub001/internal/host"
)

// ChangeSummary describes what one committed transaction changed.
type ChangeSummary struct {
	ExecutionID string    `json:"executionId"`
	ScriptName  string    `json:"scriptName"`
	Transaction string    `json:"transaction"`
	Added       []int64   `json:"added"`
	Modified    []int64   `json:"modified"`
	Deleted     []int64   `json:"deleted"`
	CommittedAt time.Time `json:"committedAt"`
}

// ChangePublisher republishes change summaries outside the process.
type ChangePublisher interface {
	PublishChange(ctx context.Context, summary ChangeSummary) error
}

// Transact runs action inside a named host transaction. The transaction is
// committed when action returns nil and rolled back when it returns an error
// or panics; the error or panic is passed on unchanged. Elements added by a
// committed transaction are merged into the working set.
//
// In read-only mode no transaction is opened, action is not called, and a
// warning is logged.
func (x *Context) Transact(ctx context.Context, name string, action func(doc host.Document) error) (err error) {
	if !x.isActive() {
		return ErrNotActive
	}
	if x.readOnly {
		x.logger.Warn("Transaction skipped in read-only mode", "transaction", name)
		return nil
	}
	if x.doc == nil {
		return fmt.Errorf("%w: no document", host.ErrNoTransaction)
	}

	var (
		mu     sync.Mutex
		events []host.ChangeEvent
	)
	unsubscribe := x.doc.Subscribe(func(ev host.ChangeEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	defer unsubscribe()

	tx, err := x.doc.Begin(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to start transaction %q: %w", name, err)
	}

	defer func() {
		if p := recover(); p != nil {
			x.rollback(tx)
			panic(p)
		}
	}()

	if err := action(x.doc); err != nil {
		x.rollback(tx)
		return err
	}
	if err := tx.Commit(); err != nil {
		x.rollback(tx)
		return fmt.Errorf("failed to commit transaction %q: %w", name, err)
	}

	mu.Lock()
	summary := x.summarize(name, events)
	mu.Unlock()

	x.logger.Debug("Transaction committed",
		"transaction", name,
		"added", len(summary.Added),
		"modified", len(summary.Modified),
		"deleted", len(summary.Deleted),
	)
	if len(summary.Added) > 0 {
		x.addToWorkingSet(summary.Added)
	}
	if x.publisher != nil {
		if err := x.publisher.PublishChange(ctx, summary); err != nil {
			x.logger.Warn("Failed to publish change summary", "transaction", name, "error", err)
		}
	}
	return nil
}

func (x *Context) rollback(tx host.Transaction) {
	if !tx.IsOpen() {
		return
	}
	if err := tx.Rollback(); err != nil && !errors.Is(err, host.ErrTransactionClosed) {
		x.logger.Error("Failed to roll back transaction", "transaction", tx.Name(), "error", err)
	}
}

func (x *Context) summarize(name string, events []host.ChangeEvent) ChangeSummary {
	s := ChangeSummary{
		ExecutionID: x.id,
		ScriptName:  x.scriptName,
		Transaction: name,
		Added:       []int64{},
		Modified:    []int64{},
		Deleted:     []int64{},
		CommittedAt: time.Now(),
	}
	for _, ev := range events {
		if ev.Transaction != name {
			continue
		}
		s.Added = appendUnique(s.Added, ev.Added)
		s.Modified = appendUnique(s.Modified, ev.Modified)
		s.Deleted = appendUnique(s.Deleted, ev.Deleted)
	}
	return s
}

func appendUnique(dst, ids []int64) []int64 {
	for _, id := range ids {
		if !slices.Contains(dst, id) {
			dst = append(dst, id)
		}
	}
	return dst
}
