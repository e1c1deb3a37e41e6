package branch

import (
	"context"

	"github.com/spf13/cobra"

	"braid.dev/braid/internal/actions"
	"braid.dev/braid/internal/cli/common"
	"braid.dev/braid/internal/runtime"
)

// NewDeleteCmd creates the delete command
func NewDeleteCmd() *cobra.Command {
	var (
		force bool
	)

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a branch and its braid metadata (local-only)",
		Long: `Delete a branch and its braid metadata (local-only).

Children are re-pointed at the deleted branch's parent so the stack around it
stays intact. If the branch is not merged into the trunk, deletion requires
--force.

This command does not touch the remote. If the branch has an open pull
request, close it manually.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: common.CompleteBranches,
		RunE: func(cmd *cobra.Command, args []string) error {
			return common.Run(cmd, func(ctx context.Context, rt *runtime.Context) error {
				return actions.DeleteAction(ctx, rt, actions.DeleteOptions{
					BranchName: args[0],
					Force:      force,
				})
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete the branch even if it is not merged into the trunk")

	return cmd
}
