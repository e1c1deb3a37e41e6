package branch

import (
	"context"

	"github.com/spf13/cobra"

	"braid.dev/braid/internal/actions"
	"braid.dev/braid/internal/cli/common"
	"braid.dev/braid/internal/runtime"
)

// NewUntrackCmd creates the untrack command
func NewUntrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "untrack [branch]",
		Short: "Stop tracking a branch, leaving the branch itself alone",
		Long: `Stop tracking a branch by removing its stack metadata. The git branch is
left untouched. Branches with tracked children cannot be untracked; re-parent
or untrack the children first.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: common.CompleteBranches,
		RunE: func(cmd *cobra.Command, args []string) error {
			branchName := ""
			if len(args) > 0 {
				branchName = args[0]
			}

			return common.Run(cmd, func(ctx context.Context, rt *runtime.Context) error {
				return actions.UntrackAction(ctx, rt, actions.UntrackOptions{
					BranchName: branchName,
				})
			})
		},
	}

	return cmd
}
