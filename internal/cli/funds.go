package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDepositCommand creates `strongbox deposit`.
func NewDepositCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <amount>",
		Short: "Pull tokens from the caller and credit their balance net of fee",
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

			receipt, err := app.Vault.Deposit(cmd.Context(), caller, amount)
			if err != nil {
				return out.Failure(err)
			}
			if opts.Format == "json" {
				return out.Success(map[string]any{
					"credited": receipt.Credited.String(),
					"fee":      receipt.Fee.String(),
				})
			}
			return out.Success(fmt.Sprintf("credited %s (fee %s)", receipt.Credited, receipt.Fee))
		},
	}
}

// NewWithdrawCommand creates `strongbox withdraw`.
func NewWithdrawCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <amount>",
		Short: "Debit the caller's available balance and pay out immediately",
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

			if err := app.Vault.Withdraw(cmd.Context(), caller, amount); err != nil {
				return out.Failure(err)
			}
			return out.Success(fmt.Sprintf("withdrew %s", amount))
		},
	}
}

// NewBalanceCommand creates `strongbox balance`.
func NewBalanceCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account>",
		Short: "Show an account's balance, available funds, and accrued yield",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts)
			ctx := cmd.Context()

			app, err := openApp(opts, false)
			if err != nil {
				return out.Failure(err)
			}
			defer app.Close()

			account := args[0]
			bal, err := app.Vault.BalanceOf(ctx, account)
			if err != nil {
				return out.Failure(err)
			}
			avail, err := app.Vault.AvailableOf(ctx, account)
			if err != nil {
				return out.Failure(err)
			}

			fields := map[string]any{
				"account":   account,
				"balance":   bal.String(),
				"available": avail.String(),
			}
			version, err := app.Vault.Version(ctx)
			if err != nil {
				return out.Failure(err)
			}
			if version >= 2 {
				y, err := app.Vault.AccruedYield(ctx, account)
				if err != nil {
					return out.Failure(err)
				}
				fields["accruedYield"] = y.String()
			}

			if opts.Format == "json" {
				return out.Success(fields)
			}
			text := fmt.Sprintf("balance %s, available %s", bal, avail)
			if y, ok := fields["accruedYield"]; ok {
				text += fmt.Sprintf(", accrued yield %s", y)
			}
			return out.Success(text)
		},
	}
}
