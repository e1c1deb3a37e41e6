package branch

import (
	"context"

	"github.com/spf13/cobra"

	"braid.dev/braid/internal/actions"
	"braid.dev/braid/internal/cli/common"
	"braid.dev/braid/internal/runtime"
)

// NewTrackCmd creates the track command
func NewTrackCmd() *cobra.Command {
	var (
		force  bool
		parent string
	)

	cmd := &cobra.Command{
		Use:   "track [branch]",
		Short: "Start tracking a branch as part of a stack",
		Long: `Start tracking a branch by recording its parent in the stack metadata.

If no branch is named, the current branch is tracked. If no parent is given,
you are prompted to pick one from the tracked branches.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: common.CompleteBranches,
		RunE: func(cmd *cobra.Command, args []string) error {
			branchName := ""
			if len(args) > 0 {
				branchName = args[0]
			}

			return common.Run(cmd, func(ctx context.Context, rt *runtime.Context) error {
				return actions.TrackAction(ctx, rt, actions.TrackOptions{
					BranchName: branchName,
					Parent:     parent,
					Force:      force,
				})
			})
		},
	}

	cmd.Flags().StringVarP(&parent, "parent", "p", "", "The parent branch to stack on")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Track even when the parent is not an ancestor of the branch")

	return cmd
}
