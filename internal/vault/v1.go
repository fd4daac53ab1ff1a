package vault

import (
	"math/big"

	"github.com/roach88/strongbox/internal/access"
	"github.com/roach88/strongbox/internal/layout"
	"github.com/roach88/strongbox/internal/store"
)

// bpsDenominator converts basis points to a fraction.
const bpsDenominator = 10_000

// v1Logic is the vault ledger: deposits with a fee, withdrawals, balances.
type v1Logic struct{}

func (v1Logic) version() uint64 { return 1 }

// setup is version 1's one-shot initialization: roles to the admin, the
// deposit fee, and an explicit zero total.
func (v1Logic) setup(c *Core, tx *store.Tx, env Env, p InitParams) error {
	const op = "initialize"

	current, err := storedVersion(tx)
	if err != nil {
		return err
	}
	if current >= 1 {
		return opErr(CodeAlreadyInitialized, op, env.Caller, "vault is at version %d", current)
	}

	if err := c.grantRole(tx, env, access.DefaultAdminRole, p.Admin); err != nil {
		return err
	}
	if err := c.grantRole(tx, env, access.UpgraderRole, p.Admin); err != nil {
		return err
	}

	if p.FeeBps > bpsDenominator {
		return opErr(CodeInvalidAmount, op, env.Caller, "fee %d bps exceeds %d", p.FeeBps, bpsDenominator)
	}
	if err := tx.SetWord(layout.SlotDepositFeeBps, layout.WordFromUint64(p.FeeBps)); err != nil {
		return err
	}
	if err := writeTotalDeposited(tx, new(big.Int)); err != nil {
		return err
	}
	if err := setStoredVersion(tx, 1); err != nil {
		return err
	}

	return c.emit(tx, env, "Initialized", map[string]any{
		"version": uint64(1),
		"admin":   p.Admin,
		"feeBps":  p.FeeBps,
	})
}

func (v1Logic) deposit(c *Core, tx *store.Tx, env Env, amount *big.Int) (*DepositReceipt, error) {
	const op = "deposit"

	if err := checkAmount(op, env.Caller, amount); err != nil {
		return nil, err
	}

	// Pull first. The credit must not occur unless the pull succeeded;
	// an external ledger may keep its side effect even when the vault
	// transaction rolls back, so the pull stays the first side effect.
	ok, err := c.ledger.TransferFrom(tx.Context(), env.Caller, c.account, amount)
	if err != nil {
		return nil, opErr(CodeTransferFailed, op, env.Caller, "token ledger: %v", err)
	}
	if !ok {
		return nil, opErr(CodeTransferFailed, op, env.Caller, "token ledger refused transfer of %s", amount)
	}

	feeBps, err := readFeeBps(tx)
	if err != nil {
		return nil, err
	}
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(feeBps))
	fee.Div(fee, big.NewInt(bpsDenominator))
	credited := new(big.Int).Sub(amount, fee)

	bal, err := readBalance(tx, env.Caller)
	if err != nil {
		return nil, err
	}
	if err := writeBalance(tx, env.Caller, bal.Add(bal, credited)); err != nil {
		return nil, err
	}
	total, err := readTotalDeposited(tx)
	if err != nil {
		return nil, err
	}
	if err := writeTotalDeposited(tx, total.Add(total, credited)); err != nil {
		return nil, err
	}

	err = c.emit(tx, env, "Deposited", map[string]any{
		"account":  env.Caller,
		"amount":   amount,
		"fee":      fee,
		"credited": credited,
	})
	if err != nil {
		return nil, err
	}
	return &DepositReceipt{Credited: credited, Fee: fee}, nil
}

func (v1Logic) withdraw(c *Core, tx *store.Tx, env Env, amount *big.Int) error {
	const op = "withdraw"

	if err := checkAmount(op, env.Caller, amount); err != nil {
		return err
	}

	avail, err := available(tx, env.Caller)
	if err != nil {
		return err
	}
	if amount.Cmp(avail) > 0 {
		return opErr(CodeInsufficientBalance, op, env.Caller, "available %s, requested %s", avail, amount)
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

	ok, err := c.ledger.Transfer(tx.Context(), env.Caller, amount)
	if err != nil {
		return opErr(CodeTransferFailed, op, env.Caller, "token ledger: %v", err)
	}
	if !ok {
		return opErr(CodeTransferFailed, op, env.Caller, "token ledger refused transfer of %s", amount)
	}

	return c.emit(tx, env, "Withdrawn", map[string]any{
		"account": env.Caller,
		"amount":  amount,
	})
}

// Version 2+ entry points do not exist at version 1.

func (v1Logic) claimYield(c *Core, tx *store.Tx, env Env) (*big.Int, error) {
	return nil, opErr(CodeNotSupported, "claimYield", env.Caller, "requires version 2, vault is at version 1")
}

func (v1Logic) setDepositPaused(c *Core, tx *store.Tx, env Env, paused bool) error {
	return opErr(CodeNotSupported, "setDepositPaused", env.Caller, "requires version 2, vault is at version 1")
}

func (v1Logic) requestWithdrawal(c *Core, tx *store.Tx, env Env, amount *big.Int) error {
	return notSupportedV3("requestWithdrawal", env.Caller, 1)
}

func (v1Logic) executeWithdrawal(c *Core, tx *store.Tx, env Env) (*big.Int, error) {
	return nil, notSupportedV3("executeWithdrawal", env.Caller, 1)
}

func (v1Logic) emergencyWithdraw(c *Core, tx *store.Tx, env Env) (*big.Int, error) {
	return nil, notSupportedV3("emergencyWithdraw", env.Caller, 1)
}

func notSupportedV3(op, caller string, at uint64) *OpError {
	return opErr(CodeNotSupported, op, caller, "requires version 3, vault is at version %d", at)
}

func checkAmount(op, caller string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return opErr(CodeInvalidAmount, op, caller, "amount must be positive")
	}
	return nil
}
