package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewClaimCommand creates `strongbox claim`.
func NewClaimCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "claim",
		Short: "Settle the caller's accrued yield into their balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts)

			caller, err := requireCaller(opts)
			if err != nil {
				return out.Failure(err)
			}

			app, err := openApp(opts, false)
			if err != nil {
				return out.Failure(err)
			}
			defer app.Close()

			claimed, err := app.Vault.ClaimYield(cmd.Context(), caller)
			if err != nil {
				return out.Failure(err)
			}
			if opts.Format == "json" {
				return out.Success(map[string]any{"claimed": claimed.String()})
			}
			return out.Success(fmt.Sprintf("claimed %s", claimed))
		},
	}
}

// NewPauseCommand creates `strongbox pause`.
func NewPauseCommand(opts *RootOptions) *cobra.Command {
	var resume bool

	cmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause deposits (withdrawals keep working)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts)

			caller, err := requireCaller(opts)
			if err != nil {
				return out.Failure(err)
			}

			app, err := openApp(opts, false)
			if err != nil {
				return out.Failure(err)
			}
			defer app.Close()

			paused := !resume
			if err := app.Vault.SetDepositPaused(cmd.Context(), caller, paused); err != nil {
				return out.Failure(err)
			}
			if paused {
				return out.Success("deposits paused")
			}
			return out.Success("deposits resumed")
		},
	}

	cmd.Flags().BoolVar(&resume, "resume", false, "resume deposits instead of pausing")
	return cmd
}
