package vault

import (
	"context"
	"math/big"
	"testing"

	"github.com/roach88/strongbox/internal/access"
	"github.com/roach88/strongbox/internal/store"
	"github.com/roach88/strongbox/internal/testutil"
	"github.com/roach88/strongbox/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEpoch = 1_700_000_000

// newTestVault creates a Core over a real SQLite store with an in-memory
// token ledger and a manual clock fixed at testEpoch.
func newTestVault(t *testing.T) (*Core, *token.MemoryLedger, *testutil.ManualClock, *store.Store) {
	t.Helper()
	s, err := store.Open(t.TempDir() + "/vault.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ledger := token.NewMemoryLedger("vault")
	clock := testutil.NewManualClock(testEpoch)
	c := New(s, ledger, clock, WithEventIDs(NewFixedGenerator("evt")))
	return c, ledger, clock, s
}

// fund gives account tokens and approves the vault to pull them.
func fund(t *testing.T, ledger *token.MemoryLedger, account string, amount int64) {
	t.Helper()
	ledger.Mint(account, big.NewInt(amount))
	ledger.Approve(account, "vault", big.NewInt(amount))
}

func TestInitialize_GrantsRolesAndSetsFee(t *testing.T) {
	c, _, _, _ := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, c.Initialize(ctx, "alice", 100))

	v, err := c.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	fee, err := c.FeeBps(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), fee)

	for _, role := range []access.Role{access.DefaultAdminRole, access.UpgraderRole} {
		ok, err := c.HasRole(ctx, role, "alice")
		require.NoError(t, err)
		assert.True(t, ok, "alice should hold %s", role)
	}

	total, err := c.TotalDeposited(ctx)
	require.NoError(t, err)
	assert.Zero(t, total.Sign())
}

func TestInitialize_SecondCallRejected(t *testing.T) {
	c, _, _, _ := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, c.Initialize(ctx, "alice", 100))

	err := c.Initialize(ctx, "mallory", 0)
	require.Error(t, err)
	assert.Equal(t, CodeAlreadyInitialized, CodeOf(err))

	// The failed attempt must not have granted mallory anything.
	ok, err := c.HasRole(ctx, access.DefaultAdminRole, "mallory")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInitialize_FeeAboveDenominatorRejected(t *testing.T) {
	c, _, _, _ := newTestVault(t)

	err := c.Initialize(context.Background(), "alice", 10_001)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidAmount, CodeOf(err))
}

func TestDeposit_FeeMath(t *testing.T) {
	c, ledger, _, _ := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, c.Initialize(ctx, "alice", 100)) // 1%
	fund(t, ledger, "bob", 1000)

	receipt, err := c.Deposit(ctx, "bob", big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(990), receipt.Credited)
	assert.Equal(t, big.NewInt(10), receipt.Fee)

	bal, err := c.BalanceOf(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(990), bal)

	total, err := c.TotalDeposited(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(990), total)

	// The full gross amount left bob's token account.
	tb, err := ledger.BalanceOf(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, tb.Sign())
}

func TestDeposit_FeeTruncatesTowardZero(t *testing.T) {
	c, ledger, _, _ := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, c.Initialize(ctx, "alice", 25)) // 0.25%
	fund(t, ledger, "bob", 399)

	// 399 * 25 / 10000 = 0.9975 -> fee 0, everything credited.
	receipt, err := c.Deposit(ctx, "bob", big.NewInt(399))
	require.NoError(t, err)
	assert.Zero(t, receipt.Fee.Sign())
	assert.Equal(t, big.NewInt(399), receipt.Credited)
}

func TestDeposit_InvalidAmounts(t *testing.T) {
	c, ledger, _, _ := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, c.Initialize(ctx, "alice", 0))
	fund(t, ledger, "bob", 100)

	for _, amount := range []*big.Int{nil, big.NewInt(0), big.NewInt(-5)} {
		_, err := c.Deposit(ctx, "bob", amount)
		require.Error(t, err)
		assert.Equal(t, CodeInvalidAmount, CodeOf(err))
	}
}

func TestDeposit_LedgerRefusalLeavesNoState(t *testing.T) {
	c, _, _, _ := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, c.Initialize(ctx, "alice", 0))

	// bob has no tokens and no allowance.
	_, err := c.Deposit(ctx, "bob", big.NewInt(100))
	require.Error(t, err)
	assert.Equal(t, CodeTransferFailed, CodeOf(err))

	bal, err := c.BalanceOf(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, bal.Sign())
}

func TestWithdraw_RoundTrip(t *testing.T) {
	c, ledger, _, _ := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, c.Initialize(ctx, "alice", 0))
	fund(t, ledger, "bob", 1000)

	_, err := c.Deposit(ctx, "bob", big.NewInt(1000))
	require.NoError(t, err)

	require.NoError(t, c.Withdraw(ctx, "bob", big.NewInt(400)))

	bal, err := c.BalanceOf(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), bal)

	total, err := c.TotalDeposited(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), total)

	tb, err := ledger.BalanceOf(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(400), tb)
}

func TestWithdraw_InsufficientBalance(t *testing.T) {
	c, ledger, _, _ := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, c.Initialize(ctx, "alice", 0))
	fund(t, ledger, "bob", 100)

	_, err := c.Deposit(ctx, "bob", big.NewInt(100))
	require.NoError(t, err)

	err = c.Withdraw(ctx, "bob", big.NewInt(101))
	require.Error(t, err)
	assert.Equal(t, CodeInsufficientBalance, CodeOf(err))

	// Failed withdrawal changed nothing.
	bal, err := c.BalanceOf(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), bal)
}

func TestV1_LaterVersionOpsNotSupported(t *testing.T) {
	c, _, _, _ := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, c.Initialize(ctx, "alice", 0))

	_, err := c.ClaimYield(ctx, "bob")
	assert.Equal(t, CodeNotSupported, CodeOf(err))

	err = c.SetDepositPaused(ctx, "alice", true)
	assert.Equal(t, CodeNotSupported, CodeOf(err))

	err = c.RequestWithdrawal(ctx, "bob", big.NewInt(1))
	assert.Equal(t, CodeNotSupported, CodeOf(err))

	_, err = c.ExecuteWithdrawal(ctx, "bob")
	assert.Equal(t, CodeNotSupported, CodeOf(err))

	_, err = c.EmergencyWithdraw(ctx, "bob")
	assert.Equal(t, CodeNotSupported, CodeOf(err))
}

func TestTotalDeposited_TracksBalanceSum(t *testing.T) {
	c, ledger, _, s := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, c.Initialize(ctx, "alice", 50)) // 0.5%
	fund(t, ledger, "bob", 2000)
	fund(t, ledger, "carol", 3000)

	_, err := c.Deposit(ctx, "bob", big.NewInt(2000))
	require.NoError(t, err)
	_, err = c.Deposit(ctx, "carol", big.NewInt(3000))
	require.NoError(t, err)
	require.NoError(t, c.Withdraw(ctx, "carol", big.NewInt(1500)))

	assertTotalIsBalanceSum(t, ctx, c, s)
}

// assertTotalIsBalanceSum checks the ledger invariant directly against the
// stored balance map.
func assertTotalIsBalanceSum(t *testing.T, ctx context.Context, c *Core, s *store.Store) {
	t.Helper()
	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)

	sum := new(big.Int)
	for _, w := range snap.Maps[3] {
		sum.Add(sum, w.Big())
	}
	total, err := c.TotalDeposited(ctx)
	require.NoError(t, err)
	assert.Zero(t, total.Cmp(sum), "totalDeposited %s != balance sum %s", total, sum)
}

func TestRoles_GrantAndRevoke(t *testing.T) {
	c, _, _, _ := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, c.Initialize(ctx, "alice", 0))

	// Only the administering role may grant.
	err := c.GrantRole(ctx, "bob", access.PauserRole, "bob")
	require.Error(t, err)
	assert.Equal(t, CodeUnauthorized, CodeOf(err))

	require.NoError(t, c.GrantRole(ctx, "alice", access.PauserRole, "bob"))
	ok, err := c.HasRole(ctx, access.PauserRole, "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.RevokeRole(ctx, "alice", access.PauserRole, "bob"))
	ok, err = c.HasRole(ctx, access.PauserRole, "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvents_AppendedInOrder(t *testing.T) {
	c, ledger, _, s := newTestVault(t)
	ctx := context.Background()

	require.NoError(t, c.Initialize(ctx, "alice", 0))
	fund(t, ledger, "bob", 100)
	_, err := c.Deposit(ctx, "bob", big.NewInt(100))
	require.NoError(t, err)

	events, err := s.ReadEvents(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, events)

	var names []string
	for _, e := range events {
		names = append(names, e.Name)
	}
	// Initialize grants two roles then records itself; the deposit follows.
	assert.Equal(t, []string{"RoleGranted", "RoleGranted", "Initialized", "Deposited"}, names)
}
