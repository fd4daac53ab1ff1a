package vault

import (
	"math/big"

	"github.com/roach88/strongbox/internal/layout"
	"github.com/roach88/strongbox/internal/store"
)

// v3Logic adds the delayed-withdrawal state machine on top of v2.
//
// Per account: None -> Pending -> (Executed | Cancelled). Ready is derived
// from elapsed time at execute, never stored. A terminal request frees the
// slot for a new one. At most one Pending request exists per owner.
type v3Logic struct {
	v2Logic
}

func (v3Logic) version() uint64 { return 3 }

// setup is version 3's one-shot initialization: the fixed withdrawal delay.
func (v3Logic) setup(c *Core, tx *store.Tx, env Env, p InitParams) error {
	const op = "initializeV3"

	current, err := storedVersion(tx)
	if err != nil {
		return err
	}
	if current >= 3 {
		return opErr(CodeAlreadyInitialized, op, env.Caller, "vault is at version %d", current)
	}
	if current < 2 {
		return opErr(CodeNotYetAtPriorVersion, op, env.Caller, "vault is at version %d, version 2 setup has not run", current)
	}

	if err := tx.SetWord(layout.SlotWithdrawalDelay, layout.WordFromUint64(p.DelaySeconds)); err != nil {
		return err
	}
	if err := setStoredVersion(tx, 3); err != nil {
		return err
	}

	return c.emit(tx, env, "Initialized", map[string]any{
		"version":      uint64(3),
		"delaySeconds": p.DelaySeconds,
	})
}

func (v3Logic) requestWithdrawal(c *Core, tx *store.Tx, env Env, amount *big.Int) error {
	const op = "requestWithdrawal"

	if err := checkAmount(op, env.Caller, amount); err != nil {
		return err
	}

	_, _, state, err := readRequest(tx, env.Caller)
	if err != nil {
		return err
	}
	if state == RequestPending {
		return opErr(CodeDuplicateWithdrawalRequest, op, env.Caller, "an outstanding request exists")
	}

	// Settle before earmarking so the pre-request accrual window is
	// credited on the full balance; afterwards the earmarked amount
	// stops accruing.
	if _, err := settleYield(c, tx, env, env.Caller); err != nil {
		return err
	}

	avail, err := available(tx, env.Caller)
	if err != nil {
		return err
	}
	if amount.Cmp(avail) > 0 {
		return opErr(CodeInsufficientBalance, op, env.Caller, "available %s, requested %s", avail, amount)
	}

	if err := writeRequest(tx, env.Caller, amount, env.Now, RequestPending); err != nil {
		return err
	}

	return c.emit(tx, env, "WithdrawalRequested", map[string]any{
		"account":     env.Caller,
		"amount":      amount,
		"requestedAt": env.Now,
	})
}

func (v3Logic) executeWithdrawal(c *Core, tx *store.Tx, env Env) (*big.Int, error) {
	const op = "executeWithdrawal"

	amount, requestedAt, state, err := readRequest(tx, env.Caller)
	if err != nil {
		return nil, err
	}
	if state != RequestPending {
		return nil, opErr(CodeNoPendingWithdrawal, op, env.Caller, "no outstanding request")
	}
	delay, err := readDelay(tx)
	if err != nil {
		return nil, err
	}
	readyAt := requestedAt + int64(delay)
	if env.Now < readyAt {
		return nil, opErr(CodeWithdrawalNotReady, op, env.Caller, "ready at %d, now %d", readyAt, env.Now)
	}

	if err := payOutRequest(c, tx, env, op, amount, RequestExecuted); err != nil {
		return nil, err
	}
	err = c.emit(tx, env, "WithdrawalExecuted", map[string]any{
		"account": env.Caller,
		"amount":  amount,
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

// emergencyWithdraw bypasses the delay entirely and cancels the request.
// No penalty applies; the only fee a depositor ever pays is the deposit fee.
func (v3Logic) emergencyWithdraw(c *Core, tx *store.Tx, env Env) (*big.Int, error) {
	const op = "emergencyWithdraw"

	amount, _, state, err := readRequest(tx, env.Caller)
	if err != nil {
		return nil, err
	}
	if state != RequestPending {
		return nil, opErr(CodeNoPendingWithdrawal, op, env.Caller, "no outstanding request")
	}

	if err := payOutRequest(c, tx, env, op, amount, RequestCancelled); err != nil {
		return nil, err
	}
	err = c.emit(tx, env, "WithdrawalCancelled", map[string]any{
		"account": env.Caller,
		"amount":  amount,
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

// payOutRequest settles yield, debits the earmarked amount, transfers it
// out, and moves the request to a terminal state. The request's amount and
// timestamp are kept for audit; the terminal state is what frees the slot.
func payOutRequest(c *Core, tx *store.Tx, env Env, op string, amount *big.Int, terminal RequestState) error {
	// The earmarked amount was excluded from accrual; settle whatever the
	// rest of the balance earned.
	if _, err := settleYield(c, tx, env, env.Caller); err != nil {
		return err
	}

	bal, err := readBalance(tx, env.Caller)
	if err != nil {
		return err
	}
	if err := writeBalance(tx, env.Caller, bal.Sub(bal, amount)); err != nil {
		return err
	}
	total, err := readTotalDeposited(tx)
	if err != nil {
		return err
	}
	if err := writeTotalDeposited(tx, total.Sub(total, amount)); err != nil {
		return err
	}

	_, requestedAt, _, err := readRequest(tx, env.Caller)
	if err != nil {
		return err
	}
	if err := writeRequest(tx, env.Caller, amount, requestedAt, terminal); err != nil {
		return err
	}

	ok, err := c.ledger.Transfer(tx.Context(), env.Caller, amount)
	if err != nil {
		return opErr(CodeTransferFailed, op, env.Caller, "token ledger: %v", err)
	}
	if !ok {
		return opErr(CodeTransferFailed, op, env.Caller, "token ledger refused transfer of %s", amount)
	}
	return nil
}
