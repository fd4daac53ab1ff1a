package vault

import (
	"context"
	"log/slog"
	"math/big"
	"sync"

	"github.com/roach88/strongbox/internal/access"
	"github.com/roach88/strongbox/internal/store"
	"github.com/roach88/strongbox/internal/token"
)

// Core is the single-writer vault.
//
// Every public entry point takes the writer lock, opens one transaction,
// re-derives the active logic binding from the stored version ordinal, and
// re-validates every guard before mutating anything. An operation commits or
// rolls back as a unit; there is no partial visibility across callers.
//
// Thread-safety model:
//   - mutating entry points: serialized by mu
//   - views: safe from any goroutine, each reads one consistent transaction
//
// INVARIANTS:
//   - totalDeposited equals the sum of all account balances at all times
//   - the stored version ordinal only ever increases, by exactly one
//   - slots released by version N are never written by version > N setup
type Core struct {
	store   *store.Store
	ledger  token.Ledger
	clock   Clock
	ids     EventIDGenerator
	account string // the vault's own account on the external token ledger

	mu sync.Mutex
}

// Option configures a Core.
type Option func(*Core)

// WithEventIDs replaces the audit event ID generator.
// Tests use NewFixedGenerator for deterministic golden traces.
func WithEventIDs(g EventIDGenerator) Option {
	return func(c *Core) { c.ids = g }
}

// WithVaultAccount sets the vault's own account id on the token ledger.
// Default: "vault".
func WithVaultAccount(account string) Option {
	return func(c *Core) { c.account = account }
}

// New creates a Core over an opened store and an external token ledger.
// The active logic version is whatever the store's version ordinal says; a
// process restart picks up exactly where the last upgrade left off.
func New(s *store.Store, ledger token.Ledger, clock Clock, opts ...Option) *Core {
	c := &Core{
		store:   s,
		ledger:  ledger,
		clock:   clock,
		ids:     UUIDv7Generator{},
		account: "vault",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Account returns the vault's own account id on the external token ledger.
func (c *Core) Account() string {
	return c.account
}

// run executes one mutating entry point: lock, one transaction, logic bound
// to the stored ordinal, guards re-validated inside.
func (c *Core) run(ctx context.Context, caller string, fn func(tx *store.Tx, l logic, env Env) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	env := Env{Caller: caller, Now: c.clock.Now()}
	return c.store.Update(ctx, func(tx *store.Tx) error {
		v, err := storedVersion(tx)
		if err != nil {
			return err
		}
		return fn(tx, logicFor(v), env)
	})
}

// view executes a consistent read.
func (c *Core) view(ctx context.Context, fn func(tx *store.Tx) error) error {
	return c.store.View(ctx, fn)
}

// Initialize runs version 1's one-shot setup: grants the admin and upgrader
// roles to admin and fixes the deposit fee. Fails with ALREADY_INITIALIZED
// if any setup has run.
func (c *Core) Initialize(ctx context.Context, admin string, feeBps uint64) error {
	err := c.run(ctx, admin, func(tx *store.Tx, l logic, env Env) error {
		return v1Logic{}.setup(c, tx, env, InitParams{Admin: admin, FeeBps: feeBps})
	})
	if err != nil {
		return err
	}
	slog.Info("vault initialized", "admin", admin, "feeBps", feeBps)
	return nil
}

// Upgrade replaces the active logic with the target version and runs its
// one-shot setup, as one atomic step. The caller must hold UPGRADER_ROLE;
// that check is enforced unconditionally before anything else.
func (c *Core) Upgrade(ctx context.Context, caller string, target uint64, p InitParams) error {
	const op = "upgrade"

	err := c.run(ctx, caller, func(tx *store.Tx, l logic, env Env) error {
		if err := c.requireRole(tx, op, caller, access.UpgraderRole); err != nil {
			return err
		}
		if target < 2 || target > maxVersion {
			return opErr(CodeNotSupported, op, caller, "unknown logic version %d", target)
		}
		if err := logicFor(target).setup(c, tx, env, p); err != nil {
			return err
		}
		return c.emit(tx, env, "Upgraded", map[string]any{
			"version": target,
			"by":      caller,
		})
	})
	if err != nil {
		return err
	}
	slog.Info("logic upgraded", "target", target, "by", caller)
	return nil
}

// Deposit pulls amount from the caller's token account and credits the
// caller's balance net of the deposit fee.
func (c *Core) Deposit(ctx context.Context, caller string, amount *big.Int) (*DepositReceipt, error) {
	var receipt *DepositReceipt
	err := c.run(ctx, caller, func(tx *store.Tx, l logic, env Env) error {
		var err error
		receipt, err = l.deposit(c, tx, env, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// Withdraw debits the caller's available balance and pays out immediately.
// Withdraw is never paused.
func (c *Core) Withdraw(ctx context.Context, caller string, amount *big.Int) error {
	return c.run(ctx, caller, func(tx *store.Tx, l logic, env Env) error {
		return l.withdraw(c, tx, env, amount)
	})
}

// ClaimYield settles the caller's accrued yield into their balance and
// returns the credited amount. Zero accrual is a successful no-op.
func (c *Core) ClaimYield(ctx context.Context, caller string) (*big.Int, error) {
	var claimed *big.Int
	err := c.run(ctx, caller, func(tx *store.Tx, l logic, env Env) error {
		var err error
		claimed, err = l.claimYield(c, tx, env)
		return err
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// SetDepositPaused toggles the deposit pause. Requires PAUSER_ROLE.
func (c *Core) SetDepositPaused(ctx context.Context, caller string, paused bool) error {
	return c.run(ctx, caller, func(tx *store.Tx, l logic, env Env) error {
		return l.setDepositPaused(c, tx, env, paused)
	})
}

// RequestWithdrawal earmarks amount under a new Pending request.
func (c *Core) RequestWithdrawal(ctx context.Context, caller string, amount *big.Int) error {
	return c.run(ctx, caller, func(tx *store.Tx, l logic, env Env) error {
		return l.requestWithdrawal(c, tx, env, amount)
	})
}

// ExecuteWithdrawal pays out the caller's request once the delay elapsed.
func (c *Core) ExecuteWithdrawal(ctx context.Context, caller string) (*big.Int, error) {
	var amount *big.Int
	err := c.run(ctx, caller, func(tx *store.Tx, l logic, env Env) error {
		var err error
		amount, err = l.executeWithdrawal(c, tx, env)
		return err
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

// EmergencyWithdraw pays out the caller's request immediately, bypassing the
// delay, and cancels it. No penalty applies.
func (c *Core) EmergencyWithdraw(ctx context.Context, caller string) (*big.Int, error) {
	var amount *big.Int
	err := c.run(ctx, caller, func(tx *store.Tx, l logic, env Env) error {
		var err error
		amount, err = l.emergencyWithdraw(c, tx, env)
		return err
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

// GrantRole grants role to principal. The caller must hold the role's
// administering role.
func (c *Core) GrantRole(ctx context.Context, caller string, role access.Role, principal string) error {
	const op = "grantRole"
	return c.run(ctx, caller, func(tx *store.Tx, l logic, env Env) error {
		if err := c.requireRole(tx, op, caller, access.AdminOf(role)); err != nil {
			return err
		}
		return c.grantRole(tx, env, role, principal)
	})
}

// RevokeRole revokes role from principal. The caller must hold the role's
// administering role.
func (c *Core) RevokeRole(ctx context.Context, caller string, role access.Role, principal string) error {
	const op = "revokeRole"
	return c.run(ctx, caller, func(tx *store.Tx, l logic, env Env) error {
		if err := c.requireRole(tx, op, caller, access.AdminOf(role)); err != nil {
			return err
		}
		if err := access.Revoke(tx, role, principal); err != nil {
			return err
		}
		return c.emit(tx, env, "RoleRevoked", map[string]any{
			"role":      string(role),
			"principal": principal,
			"by":        env.Caller,
		})
	})
}

// requireRole fails with UNAUTHORIZED unless caller holds role.
func (c *Core) requireRole(tx *store.Tx, op, caller string, role access.Role) error {
	ok, err := access.Has(tx, role, caller)
	if err != nil {
		return err
	}
	if !ok {
		return opErr(CodeUnauthorized, op, caller, "missing role %s", role)
	}
	return nil
}

// grantRole writes the grant and its audit event. Authorization is the
// caller's concern; setup paths grant without an admin existing yet.
func (c *Core) grantRole(tx *store.Tx, env Env, role access.Role, principal string) error {
	if err := access.Grant(tx, role, principal); err != nil {
		return err
	}
	return c.emit(tx, env, "RoleGranted", map[string]any{
		"role":      string(role),
		"principal": principal,
		"by":        env.Caller,
	})
}

// emit appends one audit event to the transaction.
func (c *Core) emit(tx *store.Tx, env Env, name string, fields map[string]any) error {
	return tx.AppendEvent(c.ids.Generate(), env.Now, name, fields)
}
