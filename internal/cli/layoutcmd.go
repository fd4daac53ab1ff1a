package cli

import (
	"fmt"
	"strings"

	"github.com/roach88/strongbox/internal/layout"
	"github.com/spf13/cobra"
)

// NewLayoutCommand creates `strongbox layout` with check/show subcommands.
func NewLayoutCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Inspect and verify the storage layout",
	}
	cmd.AddCommand(newLayoutCheckCommand(opts))
	cmd.AddCommand(newLayoutShowCommand(opts))
	return cmd
}

func newLayoutCheckCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the released layouts form a valid append-only chain",
		Long: "Checks every released layout against its schema and against its\n" +
			"predecessor: fields are only ever appended, existing fields keep\n" +
			"their slot and kind, and the reserved gap shrinks by exactly the\n" +
			"number of appended fields.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts)

			if err := layout.Chain(); err != nil {
				return out.Failure(err)
			}
			released := layout.Released()
			return out.Success(fmt.Sprintf("%d released layouts verified (latest: version %d)",
				len(released), layout.Latest().Version))
		},
	}
}

func newLayoutShowCommand(opts *RootOptions) *cobra.Command {
	var version int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a released layout's fields and reserved gap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts)

			var l layout.Layout
			found := false
			for _, candidate := range layout.Released() {
				if version == 0 && candidate.Version == layout.Latest().Version {
					l, found = candidate, true
				}
				if version != 0 && candidate.Version == version {
					l, found = candidate, true
				}
			}
			if !found {
				return out.Failure(&ExitError{
					Code:    ExitCommandError,
					Message: fmt.Sprintf("no released layout has version %d", version),
				})
			}

			if opts.Format == "json" {
				return out.Success(l.Doc())
			}
			var b strings.Builder
			fmt.Fprintf(&b, "layout version %d (%d slots, gap %d)\n", l.Version, layout.TotalSlots, l.Gap)
			for _, f := range l.Fields {
				fmt.Fprintf(&b, "  slot %-2d %-20s %s\n", f.Slot, f.Name, f.Kind)
			}
			return out.Success(strings.TrimRight(b.String(), "\n"))
		},
	}

	cmd.Flags().IntVar(&version, "version", 0, "layout version to show (default: latest)")
	return cmd
}
