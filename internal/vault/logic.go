package vault

import (
	"math/big"

	"github.com/roach88/strongbox/internal/store"
)

// Env is the execution environment of one operation: who called it and what
// time the substrate supplied. Guards compare against Env.Now; nothing in
// the core reads the system clock directly.
type Env struct {
	Caller string
	Now    int64
}

// InitParams carries the one-shot setup parameters for each logic version.
// Each version reads only its own fields.
type InitParams struct {
	// Version 1.
	Admin  string
	FeeBps uint64

	// Version 2.
	YieldRateBps uint64
	Pauser       string

	// Version 3.
	DelaySeconds uint64
}

// DepositReceipt reports the outcome of a deposit.
type DepositReceipt struct {
	Credited *big.Int
	Fee      *big.Int
}

// logic is one version's behavior over the shared slot store.
//
// The interface and every implementation are unexported: the only way to run
// a version's one-shot setup is through Core.Initialize or Core.Upgrade, so
// a freshly constructed logic value cannot be initialized directly by an
// attacker to seize roles.
//
// Later versions embed earlier ones and shadow the entry points they change,
// so version N's behavior is version N-1 plus its own amendments.
type logic interface {
	version() uint64
	setup(c *Core, tx *store.Tx, env Env, p InitParams) error

	deposit(c *Core, tx *store.Tx, env Env, amount *big.Int) (*DepositReceipt, error)
	withdraw(c *Core, tx *store.Tx, env Env, amount *big.Int) error
	claimYield(c *Core, tx *store.Tx, env Env) (*big.Int, error)
	setDepositPaused(c *Core, tx *store.Tx, env Env, paused bool) error
	requestWithdrawal(c *Core, tx *store.Tx, env Env, amount *big.Int) error
	executeWithdrawal(c *Core, tx *store.Tx, env Env) (*big.Int, error)
	emergencyWithdraw(c *Core, tx *store.Tx, env Env) (*big.Int, error)
}

// logicFor binds the stored version ordinal to a behavior. The binding is
// re-derived inside every operation's transaction rather than cached, so a
// concurrent upgrade can never leave a caller running old logic over new
// state or vice versa.
func logicFor(version uint64) logic {
	switch {
	case version >= 3:
		return v3Logic{}
	case version == 2:
		return v2Logic{}
	default:
		return v1Logic{}
	}
}

// maxVersion is the newest logic version this build knows how to run.
const maxVersion = 3
