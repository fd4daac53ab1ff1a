package cli

import (
	"fmt"

	"github.com/roach88/strongbox/internal/access"
	"github.com/spf13/cobra"
)

// NewRoleCommand creates `strongbox role` with grant/revoke/has subcommands.
func NewRoleCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Manage the vault's role registry",
	}
	cmd.AddCommand(newRoleGrantCommand(opts))
	cmd.AddCommand(newRoleRevokeCommand(opts))
	cmd.AddCommand(newRoleHasCommand(opts))
	return cmd
}

func newRoleGrantCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "grant <role> <principal>",
		Short: "Grant a role (caller must hold the administering role)",
		Args:  cobra.ExactArgs(2),
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

			role, principal := access.Role(args[0]), args[1]
			if err := app.Vault.GrantRole(cmd.Context(), caller, role, principal); err != nil {
				return out.Failure(err)
			}
			return out.Success(fmt.Sprintf("granted %s to %s", role, principal))
		},
	}
}

func newRoleRevokeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <role> <principal>",
		Short: "Revoke a role (caller must hold the administering role)",
		Args:  cobra.ExactArgs(2),
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

			role, principal := access.Role(args[0]), args[1]
			if err := app.Vault.RevokeRole(cmd.Context(), caller, role, principal); err != nil {
				return out.Failure(err)
			}
			return out.Success(fmt.Sprintf("revoked %s from %s", role, principal))
		},
	}
}

func newRoleHasCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "has <role> <principal>",
		Short: "Check whether a principal holds a role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts)

			app, err := openApp(opts, false)
			if err != nil {
				return out.Failure(err)
			}
			defer app.Close()

			role, principal := access.Role(args[0]), args[1]
			ok, err := app.Vault.HasRole(cmd.Context(), role, principal)
			if err != nil {
				return out.Failure(err)
			}
			if opts.Format == "json" {
				return out.Success(map[string]any{"role": string(role), "principal": principal, "held": ok})
			}
			return out.Success(fmt.Sprintf("%t", ok))
		},
	}
}
