package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInitCommand creates `strongbox init`.
func NewInitCommand(opts *RootOptions) *cobra.Command {
	var feeBps uint64

	cmd := &cobra.Command{
		Use:   "init <admin>",
		Short: "Create the vault and run version 1 setup",
		Long: "Creates the vault database, grants the admin and upgrader roles to\n" +
			"<admin>, and fixes the deposit fee. Runs exactly once per vault.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts)

			app, err := openApp(opts, true)
			if err != nil {
				return out.Failure(err)
			}
			defer app.Close()

			admin := args[0]
			if err := app.Vault.Initialize(cmd.Context(), admin, feeBps); err != nil {
				return out.Failure(err)
			}
			return out.Success(fmt.Sprintf("vault initialized at version 1 (admin=%s, fee=%d bps)", admin, feeBps))
		},
	}

	cmd.Flags().Uint64Var(&feeBps, "fee-bps", 0, "deposit fee in basis points")
	return cmd
}
