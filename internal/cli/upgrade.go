package cli

import (
	"fmt"

	"github.com/roach88/strongbox/internal/vault"
	"github.com/spf13/cobra"
)

// NewUpgradeCommand creates `strongbox upgrade`.
func NewUpgradeCommand(opts *RootOptions) *cobra.Command {
	var (
		yieldRateBps uint64
		pauser       string
		delaySeconds uint64
	)

	cmd := &cobra.Command{
		Use:   "upgrade <version>",
		Short: "Replace the vault logic and run the new version's setup",
		Long: "Upgrades the vault to the target version and runs its one-shot setup\n" +
			"as a single atomic step. The caller must hold UPGRADER_ROLE and the\n" +
			"ladder must be climbed one version at a time.\n\n" +
			"Version 2 takes --yield-rate-bps and --pauser; version 3 takes\n" +
			"--delay-seconds.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts)

			caller, err := requireCaller(opts)
			if err != nil {
				return out.Failure(err)
			}

			var target uint64
			if _, err := fmt.Sscanf(args[0], "%d", &target); err != nil {
				return out.Failure(&ExitError{Code: ExitCommandError, Message: fmt.Sprintf("%q is not a version", args[0])})
			}

			app, err := openApp(opts, false)
			if err != nil {
				return out.Failure(err)
			}
			defer app.Close()

			p := vault.InitParams{
				YieldRateBps: yieldRateBps,
				Pauser:       pauser,
				DelaySeconds: delaySeconds,
			}
			if err := app.Vault.Upgrade(cmd.Context(), caller, target, p); err != nil {
				return out.Failure(err)
			}
			return out.Success(fmt.Sprintf("upgraded to version %d", target))
		},
	}

	cmd.Flags().Uint64Var(&yieldRateBps, "yield-rate-bps", 0, "annual yield rate in basis points (version 2)")
	cmd.Flags().StringVar(&pauser, "pauser", "", "principal granted the pauser role (version 2)")
	cmd.Flags().Uint64Var(&delaySeconds, "delay-seconds", 0, "withdrawal delay in seconds (version 3)")
	return cmd
}
