package cli

import (
	"fmt"
	"math/big"
	"os"

	"github.com/roach88/strongbox/internal/store"
	"github.com/roach88/strongbox/internal/token"
	"github.com/roach88/strongbox/internal/vault"
)

// vaultAccount is the vault's account id on the persisted token ledger.
const vaultAccount = "vault"

// App bundles the opened stack for one command invocation.
type App struct {
	Store  *store.Store
	Ledger *token.SQLiteLedger
	Vault  *vault.Core
}

// Close releases the underlying database.
func (a *App) Close() error {
	return a.Store.Close()
}

// openApp opens the vault database and wires the persisted token ledger and
// the core. When create is false, a missing database file is a command
// error rather than a silently created empty vault.
func openApp(opts *RootOptions, create bool) (*App, error) {
	if !create {
		if _, err := os.Stat(opts.DB); os.IsNotExist(err) {
			return nil, &ExitError{
				Code:    ExitCommandError,
				Message: fmt.Sprintf("vault database %s does not exist (run strongbox init first)", opts.DB),
			}
		}
	}

	s, err := store.Open(opts.DB)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "open vault database", Err: err}
	}

	ledger, err := token.NewSQLiteLedger(s.DB(), vaultAccount)
	if err != nil {
		s.Close()
		return nil, &ExitError{Code: ExitCommandError, Message: "open token ledger", Err: err}
	}

	var clock vault.Clock = vault.WallClock{}
	if opts.Now != 0 {
		clock = vault.FixedClock(opts.Now)
	}

	core := vault.New(s, ledger, clock, vault.WithVaultAccount(vaultAccount))
	return &App{Store: s, Ledger: ledger, Vault: core}, nil
}

// requireCaller enforces the --as flag for operations acting on behalf of a
// principal.
func requireCaller(opts *RootOptions) (string, error) {
	if opts.Caller == "" {
		return "", &ExitError{Code: ExitCommandError, Message: "--as <principal> is required"}
	}
	return opts.Caller, nil
}

// parseAmount parses a positive decimal token amount.
func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("%q is not a decimal amount", s)}
	}
	return v, nil
}
