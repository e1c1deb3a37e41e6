package cli

import (
	"context"

	"github.com/spf13/cobra"

	"braid.dev/braid/internal/actions"
	"braid.dev/braid/internal/cli/common"
	"braid.dev/braid/internal/runtime"
)

// newStatusCmd creates the status command
func newStatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"s"},
		Short:   "Show the stack tree, or a machine-readable report with --json",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return common.Run(cmd, func(ctx context.Context, rt *runtime.Context) error {
				return actions.StatusAction(ctx, rt, actions.StatusOptions{JSON: asJSON})
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON: per branch its parent, restack state, diff stats and PR")

	return cmd
}
