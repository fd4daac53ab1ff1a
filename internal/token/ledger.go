// Package token defines the narrow contract the vault consumes from the
// external fungible-token ledger, plus two stand-in implementations: an
// in-memory ledger for tests and a SQLite-persisted one for local CLI runs.
//
// The real ledger is an external collaborator; the vault only ever calls
// Transfer, TransferFrom, and BalanceOf and treats amounts as opaque
// non-negative integers in the token's smallest unit.
package token

import (
	"context"
	"math/big"
)

// Ledger is the external token ledger seen from the vault's account.
//
// A false return means the token ledger refused the movement (insufficient
// balance or allowance); a non-nil error means the call itself failed. The
// vault treats both as a failed transfer and rolls back.
type Ledger interface {
	// Transfer moves amount from the vault's own account to `to`.
	Transfer(ctx context.Context, to string, amount *big.Int) (bool, error)

	// TransferFrom moves amount from `from` to `to`, spending the
	// allowance `from` granted to the vault.
	TransferFrom(ctx context.Context, from, to string, amount *big.Int) (bool, error)

	// BalanceOf returns the token balance of an account.
	BalanceOf(ctx context.Context, account string) (*big.Int, error)
}

func validAmount(amount *big.Int) bool {
	return amount != nil && amount.Sign() >= 0
}
