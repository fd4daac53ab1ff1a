package harness

import (
	"context"
	"errors"
	"fmt"
	"math/big"
)

// Check evaluates every assertion in the scenario against the final state
// and the audit trail. All failures are collected, not just the first.
func (r *Result) Check() error {
	ctx := context.Background()
	var errs []error
	for i, a := range r.Scenario.Assertions {
		if err := r.checkOne(ctx, a); err != nil {
			errs = append(errs, fmt.Errorf("assertions[%d] %s: %w", i, a.Type, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Result) checkOne(ctx context.Context, a Assertion) error {
	switch a.Type {
	case AssertBalance:
		got, err := r.core.BalanceOf(ctx, a.Account)
		if err != nil {
			return err
		}
		return compareAmount(a.Account, got, a.Equals)

	case AssertAvailable:
		got, err := r.core.AvailableOf(ctx, a.Account)
		if err != nil {
			return err
		}
		return compareAmount(a.Account, got, a.Equals)

	case AssertTotal:
		got, err := r.core.TotalDeposited(ctx)
		if err != nil {
			return err
		}
		return compareAmount("total", got, a.Equals)

	case AssertVersion:
		got, err := r.core.Version(ctx)
		if err != nil {
			return err
		}
		if fmt.Sprintf("%d", got) != a.Equals {
			return fmt.Errorf("version %d, want %s", got, a.Equals)
		}
		return nil

	case AssertPaused:
		got, err := r.core.Paused(ctx)
		if err != nil {
			return err
		}
		if fmt.Sprintf("%t", got) != a.Equals {
			return fmt.Errorf("paused %t, want %s", got, a.Equals)
		}
		return nil

	case AssertRequestState:
		req, err := r.core.RequestOf(ctx, a.Account)
		if err != nil {
			return err
		}
		if req.State.String() != a.State {
			return fmt.Errorf("request of %s is %s, want %s", a.Account, req.State, a.State)
		}
		return nil

	case AssertEventOrder:
		return r.checkEventOrder(a.Names)

	case AssertEventCount:
		var n int
		for _, e := range r.Events {
			if e.Name == a.Name {
				n++
			}
		}
		if n != a.Count {
			return fmt.Errorf("%d %s events, want %d", n, a.Name, a.Count)
		}
		return nil

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// checkEventOrder requires names to appear in the audit trail in order,
// as a subsequence. Events between named ones are ignored.
func (r *Result) checkEventOrder(names []string) error {
	next := 0
	for _, e := range r.Events {
		if next < len(names) && e.Name == names[next] {
			next++
		}
	}
	if next != len(names) {
		return fmt.Errorf("event %q not found in order (matched %d of %d)", names[next], next, len(names))
	}
	return nil
}

func compareAmount(label string, got *big.Int, want string) error {
	expected, err := parseAmount(want)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	if got.Cmp(expected) != 0 {
		return fmt.Errorf("%s is %s, want %s", label, got, expected)
	}
	return nil
}
