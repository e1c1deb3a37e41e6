package cli

import (
	"context"

	"github.com/spf13/cobra"

	"braid.dev/braid/internal/actions"
	"braid.dev/braid/internal/cli/common"
	"braid.dev/braid/internal/runtime"
)

// newAbortCmd creates the abort command
func newAbortCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "abort",
		Short: "Abort a conflicted restack and roll back everything it touched",
		Long: `Abort a conflicted restack: the in-flight rebase is aborted and every
branch the suspended operation already moved is restored to where it started.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return common.Run(cmd, func(ctx context.Context, rt *runtime.Context) error {
				return actions.AbortAction(ctx, rt, actions.AbortOptions{Force: force})
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Abort without confirmation")

	return cmd
}
