package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/strongbox/internal/layout"
)

// Tx is a slot-level view of one transaction. All reads and writes performed
// through a Tx see each other and commit or roll back together.
type Tx struct {
	tx  *sql.Tx
	ctx context.Context
}

// Querier is the subset of database/sql shared by DB and Tx. Collaborators
// that keep their own tables in the vault database accept it so the same
// statements run standalone or inside an open vault transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txContextKey struct{}

// Context returns the transaction's context with the open transaction
// attached. The database holds a single connection, so anything called
// while the transaction is open must join it through QuerierFrom rather
// than wait on the pool.
func (t *Tx) Context() context.Context {
	return context.WithValue(t.ctx, txContextKey{}, t.tx)
}

// QuerierFrom returns the open transaction carried by ctx, if any.
func QuerierFrom(ctx context.Context) (Querier, bool) {
	q, ok := ctx.Value(txContextKey{}).(Querier)
	return q, ok
}

// Word reads a scalar slot. A slot that has never been written reads as the
// zero word; absence and zero are indistinguishable on purpose.
func (t *Tx) Word(slot int) (layout.Word, error) {
	var raw []byte
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT value FROM slots WHERE slot = ?
	`, slot).Scan(&raw)
	if err == sql.ErrNoRows {
		return layout.ZeroWord, nil
	}
	if err != nil {
		return layout.ZeroWord, fmt.Errorf("read slot %d: %w", slot, err)
	}
	return wordFromRaw(raw, slot)
}

// SetWord writes a scalar slot, replacing any previous value.
func (t *Tx) SetWord(slot int, w layout.Word) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO slots (slot, value) VALUES (?, ?)
		ON CONFLICT(slot) DO UPDATE SET value = excluded.value
	`, slot, w[:])
	if err != nil {
		return fmt.Errorf("write slot %d: %w", slot, err)
	}
	return nil
}

// MapWord reads one entry of a mapping field. Never-written keys read as the
// zero word.
func (t *Tx) MapWord(slot int, key string) (layout.Word, error) {
	var raw []byte
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT value FROM map_slots WHERE slot = ? AND key = ?
	`, slot, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return layout.ZeroWord, nil
	}
	if err != nil {
		return layout.ZeroWord, fmt.Errorf("read map slot %d key %q: %w", slot, key, err)
	}
	return wordFromRaw(raw, slot)
}

// SetMapWord writes one entry of a mapping field. Writing the zero word
// keeps the row; a key that has ever been written stays materialized, which
// keeps account records alive at zero balance.
func (t *Tx) SetMapWord(slot int, key string, w layout.Word) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO map_slots (slot, key, value) VALUES (?, ?, ?)
		ON CONFLICT(slot, key) DO UPDATE SET value = excluded.value
	`, slot, key, w[:])
	if err != nil {
		return fmt.Errorf("write map slot %d key %q: %w", slot, key, err)
	}
	return nil
}

// MapKeys returns every materialized key of a mapping field in byte order.
func (t *Tx) MapKeys(slot int) ([]string, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT key FROM map_slots WHERE slot = ?
		ORDER BY key COLLATE BINARY ASC
	`, slot)
	if err != nil {
		return nil, fmt.Errorf("list map slot %d: %w", slot, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan map slot %d key: %w", slot, err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate map slot %d: %w", slot, err)
	}

	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

func wordFromRaw(raw []byte, slot int) (layout.Word, error) {
	var w layout.Word
	if len(raw) != len(w) {
		return w, fmt.Errorf("slot %d holds %d bytes, want %d", slot, len(raw), len(w))
	}
	copy(w[:], raw)
	return w, nil
}
