// Package sqlhost is a host.Document backed by SQLite. It stands in for a
// live host application: elements live in one table and every mutation runs
// inside a named database transaction.
package sqlhost

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/Sey56/Paracore-sub001/internal/host"
)

const schema = `
CREATE TABLE IF NOT EXISTS elements (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    element_type TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL DEFAULT '',
    params TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_elements_type ON elements (element_type, category);
`

var _ host.Document = (*Document)(nil)

// Document implements host.Document on a SQLite database.
type Document struct {
	db      *sql.DB
	title   string
	docType string
	logger  *slog.Logger

	mu      sync.Mutex
	current *transaction

	subMu   sync.Mutex
	subs    map[uint64]func(host.ChangeEvent)
	nextSub uint64
}

// Open opens (and if needed creates) a document database. dsn is passed to
// the sqlite driver, for example "file:model.db" or ":memory:".
func Open(dsn string, opts ...Option) (*Document, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises
	// access the same way the host thread does.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	if !strings.Contains(dsn, ":memory:") {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, errors.Join(fmt.Errorf("failed to set pragma %s: %w", p, err), db.Close())
		}
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create schema: %w", err), db.Close())
	}

	d := &Document{
		db:      db,
		title:   "Untitled",
		docType: "Project",
		logger:  slog.Default().WithGroup("sqlhost"),
		subs:    make(map[uint64]func(host.ChangeEvent)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Close closes the database. An open transaction is rolled back.
func (d *Document) Close() error {
	d.mu.Lock()
	tx := d.current
	d.mu.Unlock()
	if tx != nil && tx.IsOpen() {
		if err := tx.Rollback(); err != nil {
			d.logger.Warn("Failed to roll back open transaction on close", "error", err)
		}
	}
	return d.db.Close()
}

func (d *Document) Title() string        { return d.title }
func (d *Document) DocumentType() string { return d.docType }

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// reader returns the open transaction if there is one, so reads see
// uncommitted writes and never wait for the single connection.
func (d *Document) reader() queryer {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current != nil {
		return d.current.tx
	}
	return d.db
}

// Elements lists elements of elementType, optionally narrowed to category.
// Both filters are case-insensitive; an empty filter matches everything.
func (d *Document) Elements(ctx context.Context, elementType, category string) ([]host.Element, error) {
	rows, err := d.reader().QueryContext(ctx, `
SELECT id, element_type, category, name, params FROM elements
WHERE (? = '' OR element_type = ? COLLATE NOCASE)
  AND (? = '' OR category = ? COLLATE NOCASE)
ORDER BY id`, elementType, elementType, category, category)
	if err != nil {
		return nil, fmt.Errorf("failed to query elements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []host.Element
	for rows.Next() {
		el, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, rows.Err()
}

// Element returns the element with the given id.
func (d *Document) Element(ctx context.Context, id int64) (host.Element, error) {
	row := d.reader().QueryRowContext(ctx,
		`SELECT id, element_type, category, name, params FROM elements WHERE id = ?`, id)
	el, err := scanElement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return host.Element{}, fmt.Errorf("%w: %d", host.ErrNotFound, id)
	}
	return el, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanElement(s scanner) (host.Element, error) {
	var el host.Element
	var params string
	if err := s.Scan(&el.ID, &el.Type, &el.Category, &el.Name, &params); err != nil {
		return host.Element{}, err
	}
	if params != "" && params != "{}" {
		if err := json.Unmarshal([]byte(params), &el.Params); err != nil {
			return host.Element{}, fmt.Errorf("element %d has invalid params: %w", el.ID, err)
		}
	}
	return el, nil
}

// Begin opens a named transaction. Only one may be open at a time.
func (d *Document) Begin(ctx context.Context, name string) (host.Transaction, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current != nil {
		return nil, fmt.Errorf("%w: %q", host.ErrTransactionOpen, d.current.name)
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction %q: %w", name, err)
	}
	d.current = &transaction{doc: d, tx: tx, name: name, open: true}
	d.logger.Debug("Transaction started", "name", name)
	return d.current, nil
}

func (d *Document) active() (*transaction, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return nil, host.ErrNoTransaction
	}
	return d.current, nil
}

// Create inserts an element and returns its id.
func (d *Document) Create(ctx context.Context, el host.Element) (int64, error) {
	tx, err := d.active()
	if err != nil {
		return 0, err
	}
	params := "{}"
	if len(el.Params) > 0 {
		b, err := json.Marshal(el.Params)
		if err != nil {
			return 0, err
		}
		params = string(b)
	}
	res, err := tx.tx.ExecContext(ctx,
		`INSERT INTO elements (element_type, category, name, params) VALUES (?, ?, ?, ?)`,
		el.Type, el.Category, el.Name, params)
	if err != nil {
		return 0, fmt.Errorf("failed to create element: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	tx.added = append(tx.added, id)
	return id, nil
}

// Rename changes the name of an element.
func (d *Document) Rename(ctx context.Context, id int64, name string) error {
	tx, err := d.active()
	if err != nil {
		return err
	}
	if err := tx.exec(ctx, `UPDATE elements SET name = ? WHERE id = ?`, name, id); err != nil {
		return err
	}
	tx.modified = append(tx.modified, id)
	return nil
}

// Delete removes an element.
func (d *Document) Delete(ctx context.Context, id int64) error {
	tx, err := d.active()
	if err != nil {
		return err
	}
	if err := tx.exec(ctx, `DELETE FROM elements WHERE id = ?`, id); err != nil {
		return err
	}
	tx.deleted = append(tx.deleted, id)
	return nil
}

// Subscribe implements host.Document.
func (d *Document) Subscribe(fn func(host.ChangeEvent)) func() {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	return func() {
		d.subMu.Lock()
		defer d.subMu.Unlock()
		delete(d.subs, id)
	}
}

func (d *Document) notify(ev host.ChangeEvent) {
	d.subMu.Lock()
	fns := make([]func(host.ChangeEvent), 0, len(d.subs))
	for _, fn := range d.subs {
		fns = append(fns, fn)
	}
	d.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Seed inserts elements in a transaction of its own. It is meant for
// fixtures and the command line, not for scripts.
func (d *Document) Seed(ctx context.Context, elements ...host.Element) ([]int64, error) {
	tx, err := d.Begin(ctx, "Seed")
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(elements))
	for _, el := range elements {
		id, err := d.Create(ctx, el)
		if err != nil {
			return nil, errors.Join(err, tx.Rollback())
		}
		ids = append(ids, id)
	}
	return ids, tx.Commit()
}

// Count returns the number of elements in the document.
func (d *Document) Count(ctx context.Context) (int, error) {
	var n int
	err := d.reader().QueryRowContext(ctx, `SELECT COUNT(*) FROM elements`).Scan(&n)
	return n, err
}
