package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/strongbox/internal/layout"
)

// Snapshot is a full copy of the slot tables at one point in time. Upgrade
// preservation tests take a snapshot before and after a logic replacement
// and require the two to be identical.
type Snapshot struct {
	Slots map[int]layout.Word
	Maps  map[int]map[string]layout.Word
}

// Snapshot reads every materialized slot and map entry.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		Slots: make(map[int]layout.Word),
		Maps:  make(map[int]map[string]layout.Word),
	}

	err := s.View(ctx, func(tx *Tx) error {
		rows, err := tx.tx.QueryContext(ctx, `SELECT slot, value FROM slots ORDER BY slot ASC`)
		if err != nil {
			return fmt.Errorf("query slots: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var slot int
			var raw []byte
			if err := rows.Scan(&slot, &raw); err != nil {
				return fmt.Errorf("scan slot: %w", err)
			}
			w, err := wordFromRaw(raw, slot)
			if err != nil {
				return err
			}
			snap.Slots[slot] = w
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate slots: %w", err)
		}

		mrows, err := tx.tx.QueryContext(ctx, `
			SELECT slot, key, value FROM map_slots
			ORDER BY slot ASC, key COLLATE BINARY ASC
		`)
		if err != nil {
			return fmt.Errorf("query map slots: %w", err)
		}
		defer mrows.Close()
		for mrows.Next() {
			var slot int
			var key string
			var raw []byte
			if err := mrows.Scan(&slot, &key, &raw); err != nil {
				return fmt.Errorf("scan map slot: %w", err)
			}
			w, err := wordFromRaw(raw, slot)
			if err != nil {
				return err
			}
			if snap.Maps[slot] == nil {
				snap.Maps[slot] = make(map[string]layout.Word)
			}
			snap.Maps[slot][key] = w
		}
		return mrows.Err()
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Equal reports whether two snapshots hold identical bytes.
func (a *Snapshot) Equal(b *Snapshot) bool {
	return len(a.Diff(b)) == 0
}

// Diff returns a human-readable description of every slot or map entry that
// differs between two snapshots. Empty means identical.
func (a *Snapshot) Diff(b *Snapshot) []string {
	var diffs []string

	for _, slot := range unionSlots(a.Slots, b.Slots) {
		av, aok := a.Slots[slot]
		bv, bok := b.Slots[slot]
		switch {
		case !aok:
			diffs = append(diffs, fmt.Sprintf("slot %d: added %x", slot, bv))
		case !bok:
			diffs = append(diffs, fmt.Sprintf("slot %d: removed (was %x)", slot, av))
		case av != bv:
			diffs = append(diffs, fmt.Sprintf("slot %d: %x -> %x", slot, av, bv))
		}
	}

	slotSet := make(map[int]bool)
	for s := range a.Maps {
		slotSet[s] = true
	}
	for s := range b.Maps {
		slotSet[s] = true
	}
	mapSlots := make([]int, 0, len(slotSet))
	for s := range slotSet {
		mapSlots = append(mapSlots, s)
	}
	sort.Ints(mapSlots)

	for _, slot := range mapSlots {
		keySet := make(map[string]bool)
		for k := range a.Maps[slot] {
			keySet[k] = true
		}
		for k := range b.Maps[slot] {
			keySet[k] = true
		}
		keys := make([]string, 0, len(keySet))
		for k := range keySet {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			av, aok := a.Maps[slot][k]
			bv, bok := b.Maps[slot][k]
			switch {
			case !aok:
				diffs = append(diffs, fmt.Sprintf("map slot %d key %q: added %x", slot, k, bv))
			case !bok:
				diffs = append(diffs, fmt.Sprintf("map slot %d key %q: removed (was %x)", slot, k, av))
			case av != bv:
				diffs = append(diffs, fmt.Sprintf("map slot %d key %q: %x -> %x", slot, k, av, bv))
			}
		}
	}

	return diffs
}

func unionSlots(a, b map[int]layout.Word) []int {
	set := make(map[int]bool, len(a)+len(b))
	for s := range a {
		set[s] = true
	}
	for s := range b {
		set[s] = true
	}
	slots := make([]int, 0, len(set))
	for s := range set {
		slots = append(slots, s)
	}
	sort.Ints(slots)
	return slots
}
