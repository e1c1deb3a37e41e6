package cli

import (
	"context"

	"github.com/spf13/cobra"

	"braid.dev/braid/internal/actions"
	"braid.dev/braid/internal/cli/common"
	"braid.dev/braid/internal/runtime"
)

// newSyncCmd creates the sync command
func newSyncCmd() *cobra.Command {
	var (
		force   bool
		noClean bool
		restack bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the repository with the remote",
		Long: `Fetch the remote, fast-forward the trunk, and delete local branches whose
work has landed upstream. Children of a deleted branch are re-pointed at its
parent.

If the trunk has diverged from the remote, --force resets it to the remote
version. With --restack, every branch left behind by the sync is restacked
onto its new base.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return common.Run(cmd, func(ctx context.Context, rt *runtime.Context) error {
				return actions.SyncAction(ctx, rt, actions.SyncOptions{
					Restack: restack,
					Force:   force,
					NoClean: noClean,
				})
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Reset a diverged trunk to the remote and delete landed branches without prompting")
	cmd.Flags().BoolVar(&noClean, "no-clean", false, "Skip deleting branches whose work has landed")
	cmd.Flags().BoolVar(&restack, "restack", false, "Restack branches left behind by the sync")

	return cmd
}
