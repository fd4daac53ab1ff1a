package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewTraceCommand creates `strongbox trace`.
func NewTraceCommand(opts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print the audit trail in append order",
		Long: "Every state-changing operation appends an event inside its own\n" +
			"transaction, so the trail never records an operation that rolled\n" +
			"back. Fields are canonical JSON and byte-stable across runs.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts)

			app, err := openApp(opts, false)
			if err != nil {
				return out.Failure(err)
			}
			defer app.Close()

			events, err := app.Store.ReadEvents(cmd.Context())
			if err != nil {
				return out.Failure(err)
			}
			if limit > 0 && len(events) > limit {
				events = events[len(events)-limit:]
			}

			if opts.Format == "json" {
				return out.Success(events)
			}
			for _, e := range events {
				fmt.Fprintf(cmd.OutOrStdout(), "%d %d %s %s\n", e.Seq, e.At, e.Name, e.Fields)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "show only the last N events")
	return cmd
}
