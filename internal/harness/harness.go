package harness

import (
	"context"
	"fmt"
	"math/big"

	"github.com/roach88/strongbox/internal/access"
	"github.com/roach88/strongbox/internal/store"
	"github.com/roach88/strongbox/internal/testutil"
	"github.com/roach88/strongbox/internal/token"
	"github.com/roach88/strongbox/internal/vault"
)

// DefaultEpoch is the starting clock reading when a scenario does not set
// its own. 2023-11-14T22:13:20Z, chosen for nothing but stability.
const DefaultEpoch = 1_700_000_000

// Result is the outcome of one scenario run.
type Result struct {
	Scenario *Scenario

	// Steps records one outcome per flow step, advances included.
	Steps []StepOutcome

	// Events is the full audit trail after the flow finished.
	Events []store.EventRecord

	core  *vault.Core
	store *store.Store
}

// Close releases the underlying store. Assertions via Check must happen
// before Close.
func (r *Result) Close() error {
	return r.store.Close()
}

// StepOutcome records what one step actually did.
type StepOutcome struct {
	Index int
	Op    string

	// Err is the operation's failure, nil on success. An expected
	// failure is still recorded here; matching it against the step's
	// Expect clause happened during the run.
	Err error

	// Code is the failure code, empty on success.
	Code vault.Code

	// Credited and Fee are set for successful deposits.
	Credited *big.Int
	Fee      *big.Int

	// Amount is set for successful claim_yield, execute_withdrawal, and
	// emergency_withdraw steps.
	Amount *big.Int
}

// Run executes one scenario against a fresh vault stored at dbPath. Setup
// failures and expectation mismatches abort the run with an error naming
// the step; assertion checking is a separate pass via Result.Check, after
// which the caller must Close the result.
func Run(dbPath string, sc *Scenario) (result *Result, err error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	ctx := context.Background()

	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	start := sc.Start
	if start == 0 {
		start = DefaultEpoch
	}
	clock := testutil.NewManualClock(start)
	ledger := token.NewMemoryLedger("vault")
	core := vault.New(s, ledger, clock, vault.WithEventIDs(vault.NewFixedGenerator("evt")))

	if err := core.Initialize(ctx, sc.Init.Admin, sc.Init.FeeBps); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	for i, up := range sc.Upgrades {
		err := core.Upgrade(ctx, up.By, up.Version, vault.InitParams{
			YieldRateBps: up.YieldRateBps,
			Pauser:       up.Pauser,
			DelaySeconds: up.DelaySeconds,
		})
		if err != nil {
			return nil, fmt.Errorf("upgrades[%d] to version %d: %w", i, up.Version, err)
		}
	}
	for _, acct := range sc.Accounts {
		amount, _ := parseAmount(acct.Mint)
		ledger.Mint(acct.Name, amount)
		ledger.Approve(acct.Name, core.Account(), amount)
	}

	result = &Result{Scenario: sc, core: core, store: s}
	for i, step := range sc.Steps {
		outcome, err := runStep(ctx, core, clock, i, step)
		if err != nil {
			return nil, err
		}
		result.Steps = append(result.Steps, outcome)
	}

	result.Events, err = s.ReadEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return result, nil
}

func runStep(ctx context.Context, core *vault.Core, clock *testutil.ManualClock, i int, step Step) (StepOutcome, error) {
	outcome := StepOutcome{Index: i, Op: step.Op}

	var err error
	switch step.Op {
	case OpAdvance:
		clock.Advance(step.Seconds)
		return outcome, nil

	case OpDeposit:
		amount, _ := parseAmount(step.Amount)
		var receipt *vault.DepositReceipt
		receipt, err = core.Deposit(ctx, step.Caller, amount)
		if receipt != nil {
			outcome.Credited = receipt.Credited
			outcome.Fee = receipt.Fee
		}

	case OpWithdraw:
		amount, _ := parseAmount(step.Amount)
		err = core.Withdraw(ctx, step.Caller, amount)

	case OpClaimYield:
		outcome.Amount, err = core.ClaimYield(ctx, step.Caller)

	case OpSetPaused:
		err = core.SetDepositPaused(ctx, step.Caller, step.Paused)

	case OpRequestWithdrawal:
		amount, _ := parseAmount(step.Amount)
		err = core.RequestWithdrawal(ctx, step.Caller, amount)

	case OpExecuteWithdrawal:
		outcome.Amount, err = core.ExecuteWithdrawal(ctx, step.Caller)

	case OpEmergencyWithdraw:
		outcome.Amount, err = core.EmergencyWithdraw(ctx, step.Caller)

	case OpGrantRole:
		err = core.GrantRole(ctx, step.Caller, access.Role(step.Role), step.Principal)

	case OpRevokeRole:
		err = core.RevokeRole(ctx, step.Caller, access.Role(step.Role), step.Principal)

	case OpUpgrade:
		up := step.Upgrade
		err = core.Upgrade(ctx, step.Caller, up.Version, vault.InitParams{
			YieldRateBps: up.YieldRateBps,
			Pauser:       up.Pauser,
			DelaySeconds: up.DelaySeconds,
		})

	default:
		return outcome, fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
	}

	outcome.Err = err
	outcome.Code = vault.CodeOf(err)

	if err := checkExpect(i, step, outcome); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// checkExpect matches a step outcome against its Expect clause.
func checkExpect(i int, step Step, outcome StepOutcome) error {
	want := step.Expect
	if want == nil || want.Error == "" {
		if outcome.Err != nil {
			return fmt.Errorf("steps[%d] %s: unexpected failure: %w", i, step.Op, outcome.Err)
		}
	} else {
		if outcome.Err == nil {
			return fmt.Errorf("steps[%d] %s: expected %s, succeeded", i, step.Op, want.Error)
		}
		if string(outcome.Code) != want.Error {
			return fmt.Errorf("steps[%d] %s: expected %s, got %s (%v)", i, step.Op, want.Error, outcome.Code, outcome.Err)
		}
		return nil
	}
	if want == nil {
		return nil
	}

	if want.Credited != "" {
		expected, _ := parseAmount(want.Credited)
		if outcome.Credited == nil || outcome.Credited.Cmp(expected) != 0 {
			return fmt.Errorf("steps[%d] %s: credited %s, want %s", i, step.Op, outcome.Credited, expected)
		}
	}
	if want.Fee != "" {
		expected, _ := parseAmount(want.Fee)
		if outcome.Fee == nil || outcome.Fee.Cmp(expected) != 0 {
			return fmt.Errorf("steps[%d] %s: fee %s, want %s", i, step.Op, outcome.Fee, expected)
		}
	}
	if want.Amount != "" {
		expected, _ := parseAmount(want.Amount)
		if outcome.Amount == nil || outcome.Amount.Cmp(expected) != 0 {
			return fmt.Errorf("steps[%d] %s: amount %s, want %s", i, step.Op, outcome.Amount, expected)
		}
	}
	return nil
}
