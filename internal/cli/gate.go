package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRequestCommand creates `strongbox request`.
func NewRequestCommand(opts *RootOptions) *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "request [amount]",
		Short: "Request a delayed withdrawal, or show the current request",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts)
			ctx := cmd.Context()

			caller, err := requireCaller(opts)
			if err != nil {
				return out.Failure(err)
			}

			app, err := openApp(opts, false)
			if err != nil {
				return out.Failure(err)
			}
			defer app.Close()

			if show || len(args) == 0 {
				req, err := app.Vault.RequestOf(ctx, caller)
				if err != nil {
					return out.Failure(err)
				}
				if opts.Format == "json" {
					return out.Success(map[string]any{
						"owner":       req.Owner,
						"amount":      req.Amount.String(),
						"requestedAt": req.RequestedAt,
						"state":       req.State.String(),
						"ready":       req.Ready,
					})
				}
				return out.Success(fmt.Sprintf("request: %s, amount %s, ready %t", req.State, req.Amount, req.Ready))
			}

			amount, err := parseAmount(args[0])
			if err != nil {
				return out.Failure(err)
			}
			if err := app.Vault.RequestWithdrawal(ctx, caller, amount); err != nil {
				return out.Failure(err)
			}
			return out.Success(fmt.Sprintf("requested withdrawal of %s", amount))
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "show the caller's request instead of creating one")
	return cmd
}

// NewExecuteCommand creates `strongbox execute`.
func NewExecuteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "execute",
		Short: "Execute the caller's withdrawal request after the delay",
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

			amount, err := app.Vault.ExecuteWithdrawal(cmd.Context(), caller)
			if err != nil {
				return out.Failure(err)
			}
			return out.Success(fmt.Sprintf("executed withdrawal of %s", amount))
		},
	}
}

// NewEmergencyCommand creates `strongbox emergency`.
func NewEmergencyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "emergency",
		Short: "Pay out the caller's request immediately, bypassing the delay",
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

			amount, err := app.Vault.EmergencyWithdraw(cmd.Context(), caller)
			if err != nil {
				return out.Failure(err)
			}
			return out.Success(fmt.Sprintf("emergency withdrawal of %s", amount))
		},
	}
}
