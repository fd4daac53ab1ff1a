package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates `strongbox status`.
func NewStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the vault's version and operating parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts)
			ctx := cmd.Context()

			app, err := openApp(opts, false)
			if err != nil {
				return out.Failure(err)
			}
			defer app.Close()

			version, err := app.Vault.Version(ctx)
			if err != nil {
				return out.Failure(err)
			}
			total, err := app.Vault.TotalDeposited(ctx)
			if err != nil {
				return out.Failure(err)
			}
			feeBps, err := app.Vault.FeeBps(ctx)
			if err != nil {
				return out.Failure(err)
			}

			fields := map[string]any{
				"version":        version,
				"totalDeposited": total.String(),
				"feeBps":         feeBps,
			}
			if version >= 2 {
				rate, err := app.Vault.YieldRateBps(ctx)
				if err != nil {
					return out.Failure(err)
				}
				paused, err := app.Vault.Paused(ctx)
				if err != nil {
					return out.Failure(err)
				}
				fields["yieldRateBps"] = rate
				fields["depositsPaused"] = paused
			}
			if version >= 3 {
				delay, err := app.Vault.WithdrawalDelay(ctx)
				if err != nil {
					return out.Failure(err)
				}
				fields["withdrawalDelaySeconds"] = delay
			}

			if opts.Format == "json" {
				return out.Success(fields)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "version:         %d\n", version)
			fmt.Fprintf(&b, "total deposited: %s\n", total)
			fmt.Fprintf(&b, "deposit fee:     %d bps", feeBps)
			if version >= 2 {
				fmt.Fprintf(&b, "\nyield rate:      %d bps", fields["yieldRateBps"])
				fmt.Fprintf(&b, "\ndeposits paused: %t", fields["depositsPaused"])
			}
			if version >= 3 {
				fmt.Fprintf(&b, "\nwithdrawal delay: %d s", fields["withdrawalDelaySeconds"])
			}
			return out.Success(b.String())
		},
	}
}
