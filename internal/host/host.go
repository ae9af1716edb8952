// Package host defines the document model scripts operate on. All calls
// into a Document must happen on the host thread; see package hostthread.
package host

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("element not found")
	ErrNoTransaction     = errors.New("no open transaction")
	ErrTransactionOpen   = errors.New("a transaction is already open")
	ErrTransactionClosed = errors.New("transaction is no longer open")
)

// Element is one object of a host document.
type Element struct {
	ID       int64             `json:"id"`
	Type     string            `json:"type"`
	Category string            `json:"category,omitempty"`
	Name     string            `json:"name"`
	Params   map[string]string `json:"params,omitempty"`
}

// ChangeEvent lists the elements touched by one committed transaction.
type ChangeEvent struct {
	Transaction string  `json:"transaction"`
	Added       []int64 `json:"added"`
	Modified    []int64 `json:"modified"`
	Deleted     []int64 `json:"deleted"`
}

// Transaction is a named, single-use unit of change.
type Transaction interface {
	Name() string
	Commit() error
	Rollback() error
	IsOpen() bool
}

// Document is the host document. Mutations require an open transaction.
type Document interface {
	Title() string
	DocumentType() string

	Elements(ctx context.Context, elementType, category string) ([]Element, error)
	Element(ctx context.Context, id int64) (Element, error)

	Begin(ctx context.Context, name string) (Transaction, error)
	Create(ctx context.Context, el Element) (int64, error)
	Rename(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error

	// Subscribe registers fn for change events raised on commit and returns
	// a function that removes the subscription.
	Subscribe(fn func(ChangeEvent)) (unsubscribe func())
}
