package cli

import (
	"context"

	"github.com/spf13/cobra"

	"braid.dev/braid/internal/actions"
	"braid.dev/braid/internal/cli/common"
	"braid.dev/braid/internal/runtime"
)

// newCascadeCmd creates the cascade command
func newCascadeCmd() *cobra.Command {
	var (
		autoStash bool
		noPush    bool
	)

	cmd := &cobra.Command{
		Use:   "cascade",
		Short: "Restack the current stack and push every branch that moved",
		Long: `Restack the whole stack containing the current branch, bottom up, then push
each restacked branch to the remote with --force-with-lease.

From the trunk, cascade covers every tracked branch. Pushing can be skipped
with --no-push.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return common.Run(cmd, func(ctx context.Context, rt *runtime.Context) error {
				return actions.CascadeAction(ctx, rt, actions.CascadeOptions{
					NoPush:    noPush,
					AutoStash: autoStash,
				})
			})
		},
	}

	cmd.Flags().BoolVar(&autoStash, "auto-stash", false, "Stash uncommitted changes before cascading and restore them afterwards")
	cmd.Flags().BoolVar(&noPush, "no-push", false, "Restack only; do not push")

	return cmd
}
