package cli

import (
	"github.com/spf13/cobra"

	"braid.dev/braid/internal/cli/branch"
)

// newBranchCmd groups the branch management subcommands.
func newBranchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "branch",
		Aliases: []string{"b"},
		Short:   "Manage the branches of a stack",
	}

	cmd.AddCommand(
		branch.NewCreateCmd(),
		branch.NewTrackCmd(),
		branch.NewUntrackCmd(),
		branch.NewDeleteCmd(),
		branch.NewRenameCmd(),
	)

	return cmd
}
