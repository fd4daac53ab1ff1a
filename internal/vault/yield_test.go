package vault

import (
	"context"
	"math/big"
	"testing"

	"github.com/roach88/strongbox/internal/store"
	"github.com/roach88/strongbox/internal/testutil"
	"github.com/roach88/strongbox/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupV2 initializes and upgrades a fresh vault to version 2 with no
// deposit fee, a 5% annual yield rate, and alice as admin and pauser.
func setupV2(t *testing.T) (*Core, *token.MemoryLedger, *testutil.ManualClock, *store.Store) {
	t.Helper()
	c, ledger, clock, s := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, c.Initialize(ctx, "alice", 0))
	require.NoError(t, c.Upgrade(ctx, "alice", 2, InitParams{
		YieldRateBps: 500,
		Pauser:       "alice",
	}))
	return c, ledger, clock, s
}

func TestYield_LinearAccrualOverOneYear(t *testing.T) {
	c, ledger, clock, _ := setupV2(t)
	ctx := context.Background()

	fund(t, ledger, "bob", 1000)
	_, err := c.Deposit(ctx, "bob", big.NewInt(1000))
	require.NoError(t, err)

	clock.Advance(YearSeconds)

	accruedY, err := c.AccruedYield(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50), accruedY, "1000 at 5%% over one year")

	claimed, err := c.ClaimYield(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50), claimed)

	bal, err := c.BalanceOf(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1050), bal)

	// Yield credits keep the vault-wide total in step with balances.
	total, err := c.TotalDeposited(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1050), total)
}

func TestYield_TruncatesTowardZero(t *testing.T) {
	c, ledger, clock, _ := setupV2(t)
	ctx := context.Background()

	fund(t, ledger, "bob", 3)
	_, err := c.Deposit(ctx, "bob", big.NewInt(3))
	require.NoError(t, err)

	// 3 * 500 * half-year / (10000 * year) = 0.075 -> 0.
	clock.Advance(YearSeconds / 2)
	accruedY, err := c.AccruedYield(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, accruedY.Sign())
}

func TestYield_ClaimWithNoAccrualIsNoOp(t *testing.T) {
	c, ledger, _, _ := setupV2(t)
	ctx := context.Background()

	fund(t, ledger, "bob", 100)
	_, err := c.Deposit(ctx, "bob", big.NewInt(100))
	require.NoError(t, err)

	// Clock has not moved since the deposit's settlement.
	claimed, err := c.ClaimYield(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, claimed.Sign())

	bal, err := c.BalanceOf(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), bal)
}

func TestYield_SettledBeforeDepositChangesBalance(t *testing.T) {
	c, ledger, clock, _ := setupV2(t)
	ctx := context.Background()

	fund(t, ledger, "bob", 2000)
	_, err := c.Deposit(ctx, "bob", big.NewInt(1000))
	require.NoError(t, err)

	clock.Advance(YearSeconds)

	// The second deposit settles the 50 earned on the first 1000 before
	// crediting; the new principal must not inflate the old window.
	_, err = c.Deposit(ctx, "bob", big.NewInt(1000))
	require.NoError(t, err)

	bal, err := c.BalanceOf(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2050), bal)

	// The window was consumed; nothing further accrues at the same instant.
	accruedY, err := c.AccruedYield(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, accruedY.Sign())
}

func TestYield_SettledBeforeWithdraw(t *testing.T) {
	c, ledger, clock, _ := setupV2(t)
	ctx := context.Background()

	fund(t, ledger, "bob", 1000)
	_, err := c.Deposit(ctx, "bob", big.NewInt(1000))
	require.NoError(t, err)

	clock.Advance(YearSeconds)

	// Withdrawing the full principal still pays the year's yield into the
	// remaining balance.
	require.NoError(t, c.Withdraw(ctx, "bob", big.NewInt(1000)))

	bal, err := c.BalanceOf(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50), bal)
}

func TestYield_NoAccrualBeforeFirstCheckpoint(t *testing.T) {
	c, ledger, clock, _ := newTestVault(t)
	ctx := context.Background()

	// Deposit at version 1, then upgrade: the pre-upgrade balance has no
	// checkpoint and accrues nothing until bob's first v2 action.
	require.NoError(t, c.Initialize(ctx, "alice", 0))
	fund(t, ledger, "bob", 1000)
	_, err := c.Deposit(ctx, "bob", big.NewInt(1000))
	require.NoError(t, err)

	require.NoError(t, c.Upgrade(ctx, "alice", 2, InitParams{YieldRateBps: 500, Pauser: "alice"}))
	clock.Advance(YearSeconds)

	accruedY, err := c.AccruedYield(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, accruedY.Sign())

	// The first claim records the checkpoint; accrual starts from there.
	claimed, err := c.ClaimYield(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, claimed.Sign())

	clock.Advance(YearSeconds)
	accruedY, err = c.AccruedYield(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50), accruedY)
}

func TestPause_BlocksDepositsNotWithdrawals(t *testing.T) {
	c, ledger, _, _ := setupV2(t)
	ctx := context.Background()

	fund(t, ledger, "bob", 2000)
	_, err := c.Deposit(ctx, "bob", big.NewInt(1000))
	require.NoError(t, err)

	require.NoError(t, c.SetDepositPaused(ctx, "alice", true))

	paused, err := c.Paused(ctx)
	require.NoError(t, err)
	assert.True(t, paused)

	_, err = c.Deposit(ctx, "bob", big.NewInt(100))
	require.Error(t, err)
	assert.Equal(t, CodeDepositsPaused, CodeOf(err))

	require.NoError(t, c.Withdraw(ctx, "bob", big.NewInt(500)))

	require.NoError(t, c.SetDepositPaused(ctx, "alice", false))
	_, err = c.Deposit(ctx, "bob", big.NewInt(100))
	require.NoError(t, err)
}

func TestPause_RequiresPauserRole(t *testing.T) {
	c, _, _, _ := setupV2(t)

	err := c.SetDepositPaused(context.Background(), "bob", true)
	require.Error(t, err)
	assert.Equal(t, CodeUnauthorized, CodeOf(err))
}
