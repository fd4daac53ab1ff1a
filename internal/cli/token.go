package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewTokenCommand creates `strongbox token` with mint/approve/balance
// subcommands against the persisted stand-in token ledger. These exist so a
// local vault can be exercised end to end without an external token system.
func NewTokenCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Operate the local stand-in token ledger",
	}
	cmd.AddCommand(newTokenMintCommand(opts))
	cmd.AddCommand(newTokenApproveCommand(opts))
	cmd.AddCommand(newTokenBalanceCommand(opts))
	return cmd
}

func newTokenMintCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mint <account> <amount>",
		Short: "Credit tokens to an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts)

			amount, err := parseAmount(args[1])
			if err != nil {
				return out.Failure(err)
			}

			app, err := openApp(opts, false)
			if err != nil {
				return out.Failure(err)
			}
			defer app.Close()

			if err := app.Ledger.Mint(cmd.Context(), args[0], amount); err != nil {
				return out.Failure(err)
			}
			return out.Success(fmt.Sprintf("minted %s to %s", amount, args[0]))
		},
	}
}

func newTokenApproveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <amount>",
		Short: "Allow the vault to pull tokens from the caller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts)

			caller, err := requireCaller(opts)
			if err != nil {
				return out.Failure(err)
			}
			amount, err := parseAmount(args[0])
			if err != nil {
				return out.Failure(err)
			}

			app, err := openApp(opts, false)
			if err != nil {
				return out.Failure(err)
			}
			defer app.Close()

			if err := app.Ledger.Approve(cmd.Context(), caller, vaultAccount, amount); err != nil {
				return out.Failure(err)
			}
			return out.Success(fmt.Sprintf("approved %s for the vault", amount))
		},
	}
}

func newTokenBalanceCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account>",
		Short: "Show an account's token balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts)

			app, err := openApp(opts, false)
			if err != nil {
				return out.Failure(err)
			}
			defer app.Close()

			bal, err := app.Ledger.BalanceOf(cmd.Context(), args[0])
			if err != nil {
				return out.Failure(err)
			}
			if opts.Format == "json" {
				return out.Success(map[string]any{"account": args[0], "balance": bal.String()})
			}
			return out.Success(bal.String())
		},
	}
}
