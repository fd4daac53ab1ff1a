package store

import (
	"context"
	"fmt"
)

// EventRecord is one persisted audit event. Fields holds canonical JSON text
// exactly as written, so traces built from records are byte-stable.
type EventRecord struct {
	Seq    int64  `json:"seq"`
	ID     string `json:"id"`
	At     int64  `json:"at"`
	Name   string `json:"name"`
	Fields string `json:"fields"`
}

// AppendEvent writes one audit event inside the current transaction. The
// event commits or rolls back with the state change it describes, so the log
// never records an operation that did not happen.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are
// silently ignored.
func (t *Tx) AppendEvent(id string, at int64, name string, fields map[string]any) error {
	fieldsJSON, err := marshalCanonical(fields)
	if err != nil {
		return fmt.Errorf("append event %s: %w", name, err)
	}

	_, err = t.tx.ExecContext(t.ctx, `
		INSERT INTO events (id, at, name, fields)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, at, name, fieldsJSON)
	if err != nil {
		return fmt.Errorf("append event %s: %w", name, err)
	}
	return nil
}

// ReadEvents returns the full audit log in append order.
func (s *Store) ReadEvents(ctx context.Context) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, at, name, fields
		FROM events
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []EventRecord
	for rows.Next() {
		var ev EventRecord
		if err := rows.Scan(&ev.Seq, &ev.ID, &ev.At, &ev.Name, &ev.Fields); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	if events == nil {
		events = []EventRecord{}
	}
	return events, nil
}
