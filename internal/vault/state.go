package vault

import (
	"fmt"
	"math/big"

	"github.com/roach88/strongbox/internal/layout"
	"github.com/roach88/strongbox/internal/store"
)

// RequestState is the stored state of a withdrawal request.
//
// Ready is deliberately absent: it is a derived predicate over RequestedAt
// and the withdrawal delay, evaluated at execute time, never written.
type RequestState uint64

const (
	RequestNone RequestState = iota
	RequestPending
	RequestExecuted
	RequestCancelled
)

// Terminal reports whether a new request may replace this one.
func (s RequestState) Terminal() bool {
	return s == RequestExecuted || s == RequestCancelled
}

// String implements fmt.Stringer.
func (s RequestState) String() string {
	switch s {
	case RequestNone:
		return "None"
	case RequestPending:
		return "Pending"
	case RequestExecuted:
		return "Executed"
	case RequestCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("RequestState(%d)", uint64(s))
	}
}

// Request is the view of an account's withdrawal request slot.
type Request struct {
	Owner       string
	Amount      *big.Int
	RequestedAt int64
	State       RequestState

	// Ready is derived: State is Pending and the delay has elapsed at the
	// time the view was taken.
	Ready bool
}

// Slot accessors. Each reads or writes exactly the field named by its
// layout constant; nothing below interprets a word it did not declare.

func storedVersion(tx *store.Tx) (uint64, error) {
	w, err := tx.Word(layout.SlotInitializedVersion)
	if err != nil {
		return 0, err
	}
	return w.Uint64(), nil
}

func setStoredVersion(tx *store.Tx, v uint64) error {
	return tx.SetWord(layout.SlotInitializedVersion, layout.WordFromUint64(v))
}

func readBalance(tx *store.Tx, account string) (*big.Int, error) {
	w, err := tx.MapWord(layout.SlotBalances, account)
	if err != nil {
		return nil, err
	}
	return w.Big(), nil
}

func writeBalance(tx *store.Tx, account string, v *big.Int) error {
	w, err := layout.WordFromBig(v)
	if err != nil {
		return fmt.Errorf("balance of %q: %w", account, err)
	}
	return tx.SetMapWord(layout.SlotBalances, account, w)
}

func readTotalDeposited(tx *store.Tx) (*big.Int, error) {
	w, err := tx.Word(layout.SlotTotalDeposited)
	if err != nil {
		return nil, err
	}
	return w.Big(), nil
}

func writeTotalDeposited(tx *store.Tx, v *big.Int) error {
	w, err := layout.WordFromBig(v)
	if err != nil {
		return fmt.Errorf("total deposited: %w", err)
	}
	return tx.SetWord(layout.SlotTotalDeposited, w)
}

func readFeeBps(tx *store.Tx) (uint64, error) {
	w, err := tx.Word(layout.SlotDepositFeeBps)
	if err != nil {
		return 0, err
	}
	return w.Uint64(), nil
}

func readYieldRateBps(tx *store.Tx) (uint64, error) {
	w, err := tx.Word(layout.SlotYieldRateBps)
	if err != nil {
		return 0, err
	}
	return w.Uint64(), nil
}

func readPaused(tx *store.Tx) (bool, error) {
	w, err := tx.Word(layout.SlotDepositsPaused)
	if err != nil {
		return false, err
	}
	return w.Bool(), nil
}

func readCheckpoint(tx *store.Tx, account string) (int64, error) {
	w, err := tx.MapWord(layout.SlotYieldCheckpoints, account)
	if err != nil {
		return 0, err
	}
	return int64(w.Uint64()), nil
}

func writeCheckpoint(tx *store.Tx, account string, at int64) error {
	return tx.SetMapWord(layout.SlotYieldCheckpoints, account, layout.WordFromUint64(uint64(at)))
}

func readDelay(tx *store.Tx) (uint64, error) {
	w, err := tx.Word(layout.SlotWithdrawalDelay)
	if err != nil {
		return 0, err
	}
	return w.Uint64(), nil
}

func readRequest(tx *store.Tx, owner string) (amount *big.Int, requestedAt int64, state RequestState, err error) {
	aw, err := tx.MapWord(layout.SlotRequestAmounts, owner)
	if err != nil {
		return nil, 0, RequestNone, err
	}
	tw, err := tx.MapWord(layout.SlotRequestTimes, owner)
	if err != nil {
		return nil, 0, RequestNone, err
	}
	sw, err := tx.MapWord(layout.SlotRequestStates, owner)
	if err != nil {
		return nil, 0, RequestNone, err
	}
	return aw.Big(), int64(tw.Uint64()), RequestState(sw.Uint64()), nil
}

func writeRequest(tx *store.Tx, owner string, amount *big.Int, requestedAt int64, state RequestState) error {
	aw, err := layout.WordFromBig(amount)
	if err != nil {
		return fmt.Errorf("request amount of %q: %w", owner, err)
	}
	if err := tx.SetMapWord(layout.SlotRequestAmounts, owner, aw); err != nil {
		return err
	}
	if err := tx.SetMapWord(layout.SlotRequestTimes, owner, layout.WordFromUint64(uint64(requestedAt))); err != nil {
		return err
	}
	return tx.SetMapWord(layout.SlotRequestStates, owner, layout.WordFromUint64(uint64(state)))
}

// earmarked returns the amount locked under a Pending request. Accounts
// without a request, and accounts whose last request is terminal, read zero.
// Before version 3 the request slots have never been written, so this reads
// zero words and the earmark is naturally nil.
func earmarked(tx *store.Tx, owner string) (*big.Int, error) {
	amount, _, state, err := readRequest(tx, owner)
	if err != nil {
		return nil, err
	}
	if state != RequestPending {
		return new(big.Int), nil
	}
	return amount, nil
}

// available returns balance minus the earmarked amount: the funds eligible
// for withdrawal, new requests, and yield accrual.
func available(tx *store.Tx, owner string) (*big.Int, error) {
	bal, err := readBalance(tx, owner)
	if err != nil {
		return nil, err
	}
	locked, err := earmarked(tx, owner)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Sub(bal, locked), nil
}
