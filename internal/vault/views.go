package vault

import (
	"context"
	"math/big"

	"github.com/roach88/strongbox/internal/access"
	"github.com/roach88/strongbox/internal/store"
)

// Version reports the stored logic version ordinal. Zero means uninitialized.
func (c *Core) Version(ctx context.Context) (uint64, error) {
	var v uint64
	err := c.view(ctx, func(tx *store.Tx) error {
		var err error
		v, err = storedVersion(tx)
		return err
	})
	return v, err
}

// BalanceOf reports account's full recorded balance, earmarked funds
// included, accrued-but-unsettled yield excluded.
func (c *Core) BalanceOf(ctx context.Context, account string) (*big.Int, error) {
	var bal *big.Int
	err := c.view(ctx, func(tx *store.Tx) error {
		var err error
		bal, err = readBalance(tx, account)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bal, nil
}

// AvailableOf reports account's balance minus any pending earmark.
func (c *Core) AvailableOf(ctx context.Context, account string) (*big.Int, error) {
	var bal *big.Int
	err := c.view(ctx, func(tx *store.Tx) error {
		var err error
		bal, err = available(tx, account)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bal, nil
}

// TotalDeposited reports the vault-wide balance sum.
func (c *Core) TotalDeposited(ctx context.Context) (*big.Int, error) {
	var total *big.Int
	err := c.view(ctx, func(tx *store.Tx) error {
		var err error
		total, err = readTotalDeposited(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return total, nil
}

// FeeBps reports the deposit fee in basis points.
func (c *Core) FeeBps(ctx context.Context) (uint64, error) {
	var fee uint64
	err := c.view(ctx, func(tx *store.Tx) error {
		var err error
		fee, err = readFeeBps(tx)
		return err
	})
	return fee, err
}

// YieldRateBps reports the annual yield rate in basis points.
func (c *Core) YieldRateBps(ctx context.Context) (uint64, error) {
	var rate uint64
	err := c.view(ctx, func(tx *store.Tx) error {
		var err error
		rate, err = readYieldRateBps(tx)
		return err
	})
	return rate, err
}

// Paused reports whether deposits are paused.
func (c *Core) Paused(ctx context.Context) (bool, error) {
	var paused bool
	err := c.view(ctx, func(tx *store.Tx) error {
		var err error
		paused, err = readPaused(tx)
		return err
	})
	return paused, err
}

// WithdrawalDelay reports the request-to-execute delay in seconds.
func (c *Core) WithdrawalDelay(ctx context.Context) (uint64, error) {
	var delay uint64
	err := c.view(ctx, func(tx *store.Tx) error {
		var err error
		delay, err = readDelay(tx)
		return err
	})
	return delay, err
}

// AccruedYield reports account's yield accrued since its checkpoint,
// computed at the current clock reading without settling anything.
func (c *Core) AccruedYield(ctx context.Context, account string) (*big.Int, error) {
	now := c.clock.Now()
	var y *big.Int
	err := c.view(ctx, func(tx *store.Tx) error {
		var err error
		y, err = accrued(tx, account, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return y, nil
}

// RequestOf reports owner's withdrawal request. Ready is derived from the
// current clock reading; it is never stored. A never-requested owner gets
// a zero-valued Request with state RequestNone.
func (c *Core) RequestOf(ctx context.Context, owner string) (Request, error) {
	now := c.clock.Now()
	var req Request
	err := c.view(ctx, func(tx *store.Tx) error {
		amount, requestedAt, state, err := readRequest(tx, owner)
		if err != nil {
			return err
		}
		delay, err := readDelay(tx)
		if err != nil {
			return err
		}
		req = Request{
			Owner:       owner,
			Amount:      amount,
			RequestedAt: requestedAt,
			State:       state,
		}
		if state == RequestPending {
			req.Ready = now >= requestedAt+int64(delay)
		}
		return nil
	})
	if err != nil {
		return Request{}, err
	}
	return req, nil
}

// HasRole reports whether principal holds role.
func (c *Core) HasRole(ctx context.Context, role access.Role, principal string) (bool, error) {
	var ok bool
	err := c.view(ctx, func(tx *store.Tx) error {
		var err error
		ok, err = access.Has(tx, role, principal)
		return err
	})
	return ok, err
}
