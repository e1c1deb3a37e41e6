package branch

import (
	"context"

	"github.com/spf13/cobra"

	"braid.dev/braid/internal/actions"
	"braid.dev/braid/internal/cli/common"
	"braid.dev/braid/internal/runtime"
)

// NewRenameCmd creates the rename command
func NewRenameCmd() *cobra.Command {
	var (
		force bool
	)

	cmd := &cobra.Command{
		Use:   "rename <new-name>",
		Short: "Rename the current branch and update metadata",
		Long: `Rename the current branch and update all stack metadata referencing it.

Renaming drops any recorded pull request association, as pull request branch
names are immutable; renaming a branch with a recorded pull request requires
--force.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return common.Run(cmd, func(ctx context.Context, rt *runtime.Context) error {
				return actions.RenameAction(ctx, rt, actions.RenameOptions{
					NewName: args[0],
					Force:   force,
				})
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Rename even when the branch has a recorded pull request")

	return cmd
}
