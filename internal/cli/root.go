// Package cli implements the strongbox command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by every command.
type RootOptions struct {
	DB      string // path to the vault database file
	Caller  string // principal invoking the operation
	Now     int64  // clock override, unix seconds; 0 means wall clock
	Format  string // "json" | "text"
	Verbose bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the strongbox root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "strongbox",
		Short: "An upgradeable token vault on a slot-addressed store",
		Long: "Strongbox keeps token deposits in an append-only slot store and\n" +
			"replaces its logic in place: version 1 is a fee-charging ledger,\n" +
			"version 2 adds linear yield and a deposit pause, version 3 adds a\n" +
			"delayed-withdrawal gate. State written by one version survives\n" +
			"every later upgrade untouched.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DB, "db", "strongbox.db", "vault database file")
	cmd.PersistentFlags().StringVar(&opts.Caller, "as", "", "principal invoking the operation")
	cmd.PersistentFlags().Int64Var(&opts.Now, "now", 0, "clock override as unix seconds (default: wall clock)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewDepositCommand(opts))
	cmd.AddCommand(NewWithdrawCommand(opts))
	cmd.AddCommand(NewBalanceCommand(opts))
	cmd.AddCommand(NewClaimCommand(opts))
	cmd.AddCommand(NewPauseCommand(opts))
	cmd.AddCommand(NewRequestCommand(opts))
	cmd.AddCommand(NewExecuteCommand(opts))
	cmd.AddCommand(NewEmergencyCommand(opts))
	cmd.AddCommand(NewRoleCommand(opts))
	cmd.AddCommand(NewUpgradeCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewLayoutCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
