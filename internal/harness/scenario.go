package harness

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden traces are stored
	// under this name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Init describes the version 1 setup. Required.
	Init *InitSpec `yaml:"init"`

	// Upgrades is the ladder to climb before the flow runs, in order.
	Upgrades []UpgradeSpec `yaml:"upgrades,omitempty"`

	// Accounts funds token accounts and approves the vault to pull.
	Accounts []AccountSpec `yaml:"accounts,omitempty"`

	// Steps is the main flow. Each step either invokes one vault
	// operation or advances the clock.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and the audit trail.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Start is the scenario's starting unix time. Zero means the
	// harness default epoch.
	Start int64 `yaml:"start,omitempty"`
}

// InitSpec is the version 1 setup.
type InitSpec struct {
	Admin  string `yaml:"admin"`
	FeeBps uint64 `yaml:"feeBps"`
}

// UpgradeSpec is one rung of the upgrade ladder.
type UpgradeSpec struct {
	Version uint64 `yaml:"version"`
	By      string `yaml:"by"`

	// Version 2 parameters.
	YieldRateBps uint64 `yaml:"yieldRateBps,omitempty"`
	Pauser       string `yaml:"pauser,omitempty"`

	// Version 3 parameters.
	DelaySeconds uint64 `yaml:"delaySeconds,omitempty"`
}

// AccountSpec funds one token account before the flow runs.
type AccountSpec struct {
	Name string `yaml:"name"`

	// Mint is a decimal token amount. The same amount is approved for
	// the vault to pull.
	Mint string `yaml:"mint"`
}

// Step is one entry in the flow.
type Step struct {
	// Op names the operation: deposit, withdraw, claim_yield,
	// set_paused, request_withdrawal, execute_withdrawal,
	// emergency_withdraw, grant_role, revoke_role, upgrade, advance.
	Op string `yaml:"op"`

	Caller string `yaml:"caller,omitempty"`

	// Amount is a decimal amount for deposit, withdraw, and
	// request_withdrawal.
	Amount string `yaml:"amount,omitempty"`

	// Paused is the set_paused argument.
	Paused bool `yaml:"paused,omitempty"`

	// Role and Principal are the grant_role/revoke_role arguments.
	Role      string `yaml:"role,omitempty"`
	Principal string `yaml:"principal,omitempty"`

	// Upgrade holds the upgrade step parameters.
	Upgrade *UpgradeSpec `yaml:"upgrade,omitempty"`

	// Seconds is the advance step's clock movement.
	Seconds int64 `yaml:"seconds,omitempty"`

	// Expect specifies the expected outcome. Nil means the step must
	// succeed with no further checks.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies a step's expected outcome.
type Expect struct {
	// Error is the expected failure code (e.g. INSUFFICIENT_BALANCE).
	// Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`

	// Credited and Fee check a deposit receipt, decimal strings.
	Credited string `yaml:"credited,omitempty"`
	Fee      string `yaml:"fee,omitempty"`

	// Amount checks a claim_yield, execute_withdrawal, or
	// emergency_withdraw payout.
	Amount string `yaml:"amount,omitempty"`
}

// Assertion validates final state or the audit trail.
type Assertion struct {
	// Type: balance, available, total, version, paused, request_state,
	// event_order, event_count.
	Type string `yaml:"type"`

	// Account scopes balance, available, and request_state.
	Account string `yaml:"account,omitempty"`

	// Equals is the expected value as a string: a decimal amount for
	// balance/available/total, an ordinal for version, true/false for
	// paused.
	Equals string `yaml:"equals,omitempty"`

	// State is the expected request state name for request_state.
	State string `yaml:"state,omitempty"`

	// Names is the expected full event name sequence for event_order.
	Names []string `yaml:"names,omitempty"`

	// Name and Count are the event_count parameters.
	Name  string `yaml:"name,omitempty"`
	Count int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertBalance      = "balance"
	AssertAvailable    = "available"
	AssertTotal        = "total"
	AssertVersion      = "version"
	AssertPaused       = "paused"
	AssertRequestState = "request_state"
	AssertEventOrder   = "event_order"
	AssertEventCount   = "event_count"
)

// Step op constants.
const (
	OpDeposit           = "deposit"
	OpWithdraw          = "withdraw"
	OpClaimYield        = "claim_yield"
	OpSetPaused         = "set_paused"
	OpRequestWithdrawal = "request_withdrawal"
	OpExecuteWithdrawal = "execute_withdrawal"
	OpEmergencyWithdraw = "emergency_withdraw"
	OpGrantRole         = "grant_role"
	OpRevokeRole        = "revoke_role"
	OpUpgrade           = "upgrade"
	OpAdvance           = "advance"
)

var knownOps = map[string]bool{
	OpDeposit:           true,
	OpWithdraw:          true,
	OpClaimYield:        true,
	OpSetPaused:         true,
	OpRequestWithdrawal: true,
	OpExecuteWithdrawal: true,
	OpEmergencyWithdraw: true,
	OpGrantRole:         true,
	OpRevokeRole:        true,
	OpUpgrade:           true,
	OpAdvance:           true,
}

var knownAssertions = map[string]bool{
	AssertBalance:      true,
	AssertAvailable:    true,
	AssertTotal:        true,
	AssertVersion:      true,
	AssertPaused:       true,
	AssertRequestState: true,
	AssertEventOrder:   true,
	AssertEventCount:   true,
}

// LoadScenario reads and validates one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

// LoadScenarioDir loads every .yaml scenario under dir, sorted by filename.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		sc, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// Validate checks structural soundness before any execution.
func (sc *Scenario) Validate() error {
	if sc.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if sc.Init == nil {
		return fmt.Errorf("init section is required")
	}
	if sc.Init.Admin == "" {
		return fmt.Errorf("init.admin is required")
	}

	prev := uint64(1)
	for i, up := range sc.Upgrades {
		if up.Version != prev+1 {
			return fmt.Errorf("upgrades[%d]: version %d does not follow %d", i, up.Version, prev)
		}
		if up.By == "" {
			return fmt.Errorf("upgrades[%d]: by is required", i)
		}
		prev = up.Version
	}

	for i, acct := range sc.Accounts {
		if acct.Name == "" {
			return fmt.Errorf("accounts[%d]: name is required", i)
		}
		if _, err := parseAmount(acct.Mint); err != nil {
			return fmt.Errorf("accounts[%d]: mint: %w", i, err)
		}
	}

	for i, step := range sc.Steps {
		if !knownOps[step.Op] {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		switch step.Op {
		case OpAdvance:
			if step.Seconds <= 0 {
				return fmt.Errorf("steps[%d]: advance needs positive seconds", i)
			}
		case OpDeposit, OpWithdraw, OpRequestWithdrawal:
			if step.Caller == "" {
				return fmt.Errorf("steps[%d]: %s needs a caller", i, step.Op)
			}
			if _, err := parseAmount(step.Amount); err != nil {
				return fmt.Errorf("steps[%d]: amount: %w", i, err)
			}
		case OpGrantRole, OpRevokeRole:
			if step.Caller == "" || step.Role == "" || step.Principal == "" {
				return fmt.Errorf("steps[%d]: %s needs caller, role, and principal", i, step.Op)
			}
		case OpUpgrade:
			if step.Upgrade == nil {
				return fmt.Errorf("steps[%d]: upgrade needs an upgrade block", i)
			}
			if step.Caller == "" {
				return fmt.Errorf("steps[%d]: upgrade needs a caller", i)
			}
		default:
			if step.Caller == "" {
				return fmt.Errorf("steps[%d]: %s needs a caller", i, step.Op)
			}
		}
	}

	for i, a := range sc.Assertions {
		if !knownAssertions[a.Type] {
			return fmt.Errorf("assertions[%d]: unknown type %q", i, a.Type)
		}
		switch a.Type {
		case AssertBalance, AssertAvailable, AssertRequestState:
			if a.Account == "" {
				return fmt.Errorf("assertions[%d]: %s needs an account", i, a.Type)
			}
		case AssertEventOrder:
			if len(a.Names) == 0 {
				return fmt.Errorf("assertions[%d]: event_order needs names", i)
			}
		case AssertEventCount:
			if a.Name == "" {
				return fmt.Errorf("assertions[%d]: event_count needs a name", i)
			}
		}
	}
	return nil
}

// parseAmount parses a non-negative decimal amount.
func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("amount is required")
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not a decimal amount", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("amount %s is negative", s)
	}
	return v, nil
}
