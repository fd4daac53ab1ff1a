package store

import (
	"context"
	"math/big"
	"testing"
)

func TestAppendEvent_CanonicalFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, func(tx *Tx) error {
		return tx.AppendEvent("ev-1", 100, "Deposited", map[string]any{
			"who":    "alice",
			"amount": big.NewInt(990),
			"fee":    big.NewInt(10),
		})
	})
	if err != nil {
		t.Fatalf("AppendEvent() failed: %v", err)
	}

	events, err := s.ReadEvents(ctx)
	if err != nil {
		t.Fatalf("ReadEvents() failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}

	// Canonical JSON has keys sorted and amounts as decimal strings.
	want := `{"amount":"990","fee":"10","who":"alice"}`
	if events[0].Fields != want {
		t.Errorf("fields = %q, want %q", events[0].Fields, want)
	}
	if events[0].Name != "Deposited" || events[0].At != 100 {
		t.Errorf("event = %+v", events[0])
	}
}

func TestAppendEvent_DuplicateIDIgnored(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := s.Update(ctx, func(tx *Tx) error {
			return tx.AppendEvent("ev-dup", int64(i), "PausedSet", map[string]any{"paused": true})
		})
		if err != nil {
			t.Fatalf("AppendEvent() %d failed: %v", i, err)
		}
	}

	events, err := s.ReadEvents(ctx)
	if err != nil {
		t.Fatalf("ReadEvents() failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("len(events) = %d, want 1 (duplicate ignored)", len(events))
	}
}

func TestAppendEvent_RejectsFloats(t *testing.T) {
	s := openTestStore(t)

	err := s.Update(context.Background(), func(tx *Tx) error {
		return tx.AppendEvent("ev-f", 1, "Bad", map[string]any{"rate": 0.05})
	})
	if err == nil {
		t.Fatal("AppendEvent() accepted a float field")
	}
}

func TestMarshalCanonical_NFCAndEscaping(t *testing.T) {
	// U+0065 U+0301 (e + combining acute) normalizes to U+00E9.
	got, err := marshalCanonical(map[string]any{"note": "café <&>"})
	if err != nil {
		t.Fatalf("marshalCanonical() failed: %v", err)
	}
	want := "{\"note\":\"café <&>\"}"
	if got != want {
		t.Errorf("canonical = %q, want %q", got, want)
	}
}
