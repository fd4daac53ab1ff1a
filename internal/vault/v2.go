package vault

import (
	"math/big"

	"github.com/roach88/strongbox/internal/access"
	"github.com/roach88/strongbox/internal/layout"
	"github.com/roach88/strongbox/internal/store"
)

// YearSeconds is the accrual year: 365 days.
const YearSeconds = 31_536_000

// v2Logic adds linear yield accrual and a deposit pause on top of the v1
// ledger. Withdrawals are never paused.
type v2Logic struct {
	v1Logic
}

func (v2Logic) version() uint64 { return 2 }

// setup is version 2's one-shot initialization. It writes only fields the
// v2 layout appended; every v1 slot is left byte-identical.
func (v2Logic) setup(c *Core, tx *store.Tx, env Env, p InitParams) error {
	const op = "initializeV2"

	current, err := storedVersion(tx)
	if err != nil {
		return err
	}
	if current >= 2 {
		return opErr(CodeAlreadyInitialized, op, env.Caller, "vault is at version %d", current)
	}
	if current < 1 {
		return opErr(CodeNotYetAtPriorVersion, op, env.Caller, "vault is at version %d, version 1 setup has not run", current)
	}

	if p.YieldRateBps > bpsDenominator {
		return opErr(CodeInvalidAmount, op, env.Caller, "yield rate %d bps exceeds %d", p.YieldRateBps, bpsDenominator)
	}
	if err := tx.SetWord(layout.SlotYieldRateBps, layout.WordFromUint64(p.YieldRateBps)); err != nil {
		return err
	}
	if err := c.grantRole(tx, env, access.PauserRole, p.Pauser); err != nil {
		return err
	}
	if err := setStoredVersion(tx, 2); err != nil {
		return err
	}

	return c.emit(tx, env, "Initialized", map[string]any{
		"version":      uint64(2),
		"yieldRateBps": p.YieldRateBps,
		"pauser":       p.Pauser,
	})
}

// accrued computes the yield an account has earned since its checkpoint,
// truncated toward zero. Accounts with no checkpoint (never touched since
// v2) accrue nothing until their first balance-affecting action records one.
func accrued(tx *store.Tx, account string, now int64) (*big.Int, error) {
	cp, err := readCheckpoint(tx, account)
	if err != nil {
		return nil, err
	}
	if cp == 0 || now <= cp {
		return new(big.Int), nil
	}
	rate, err := readYieldRateBps(tx)
	if err != nil {
		return nil, err
	}
	eligible, err := available(tx, account)
	if err != nil {
		return nil, err
	}

	// eligible * rateBps * elapsed / (10000 * YearSeconds)
	y := new(big.Int).Mul(eligible, new(big.Int).SetUint64(rate))
	y.Mul(y, big.NewInt(now-cp))
	y.Div(y, new(big.Int).Mul(big.NewInt(bpsDenominator), big.NewInt(YearSeconds)))
	return y, nil
}

// settleYield credits any accrued yield to the account and moves its
// checkpoint to now. Every balance-affecting action calls this first so no
// accrual window is ever counted twice or stretched over a changed balance.
func settleYield(c *Core, tx *store.Tx, env Env, account string) (*big.Int, error) {
	y, err := accrued(tx, account, env.Now)
	if err != nil {
		return nil, err
	}
	if y.Sign() > 0 {
		bal, err := readBalance(tx, account)
		if err != nil {
			return nil, err
		}
		if err := writeBalance(tx, account, bal.Add(bal, y)); err != nil {
			return nil, err
		}
		total, err := readTotalDeposited(tx)
		if err != nil {
			return nil, err
		}
		if err := writeTotalDeposited(tx, total.Add(total, y)); err != nil {
			return nil, err
		}
	}

	cp, err := readCheckpoint(tx, account)
	if err != nil {
		return nil, err
	}
	if env.Now > cp {
		if err := writeCheckpoint(tx, account, env.Now); err != nil {
			return nil, err
		}
	}
	return y, nil
}

func (v v2Logic) deposit(c *Core, tx *store.Tx, env Env, amount *big.Int) (*DepositReceipt, error) {
	paused, err := readPaused(tx)
	if err != nil {
		return nil, err
	}
	if paused {
		return nil, opErr(CodeDepositsPaused, "deposit", env.Caller, "deposits are paused")
	}
	if _, err := settleYield(c, tx, env, env.Caller); err != nil {
		return nil, err
	}
	return v.v1Logic.deposit(c, tx, env, amount)
}

func (v v2Logic) withdraw(c *Core, tx *store.Tx, env Env, amount *big.Int) error {
	if _, err := settleYield(c, tx, env, env.Caller); err != nil {
		return err
	}
	return v.v1Logic.withdraw(c, tx, env, amount)
}

// claimYield settles accrual into the caller's balance. Yield does not pass
// through the deposit fee. A zero accrual succeeds as a no-op.
func (v2Logic) claimYield(c *Core, tx *store.Tx, env Env) (*big.Int, error) {
	y, err := settleYield(c, tx, env, env.Caller)
	if err != nil {
		return nil, err
	}
	err = c.emit(tx, env, "YieldClaimed", map[string]any{
		"account": env.Caller,
		"amount":  y,
	})
	if err != nil {
		return nil, err
	}
	return y, nil
}

func (v2Logic) setDepositPaused(c *Core, tx *store.Tx, env Env, paused bool) error {
	const op = "setDepositPaused"

	if err := c.requireRole(tx, op, env.Caller, access.PauserRole); err != nil {
		return err
	}
	if err := tx.SetWord(layout.SlotDepositsPaused, layout.WordFromBool(paused)); err != nil {
		return err
	}
	return c.emit(tx, env, "DepositPausedSet", map[string]any{
		"paused": paused,
		"by":     env.Caller,
	})
}
