// Package branch provides CLI commands for managing branches in a stack.
package branch

import (
	"context"

	"github.com/spf13/cobra"

	"braid.dev/braid/internal/actions"
	"braid.dev/braid/internal/cli/common"
	"braid.dev/braid/internal/runtime"
)

// NewCreateCmd creates the create command
func NewCreateCmd() *cobra.Command {
	var (
		all     bool
		message string
	)

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new branch stacked on top of the current branch",
		Long: `Create a new branch stacked on top of the current branch and commit staged changes.

If no branch name is specified, one is generated from the commit message.
If nothing is staged, an empty branch is created.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			branchName := ""
			if len(args) > 0 {
				branchName = args[0]
			}

			return common.Run(cmd, func(ctx context.Context, rt *runtime.Context) error {
				return actions.CreateAction(ctx, rt, actions.CreateOptions{
					BranchName: branchName,
					Message:    message,
					All:        all,
				})
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Stage all changes, including untracked files, before creating the branch")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Specify a commit message")

	return cmd
}
