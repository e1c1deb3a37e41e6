package cli

import (
	"context"

	"github.com/spf13/cobra"

	"braid.dev/braid/internal/actions"
	"braid.dev/braid/internal/cli/common"
	"braid.dev/braid/internal/runtime"
)

// newLogCmd creates the log command
func newLogCmd() *cobra.Command {
	var (
		short         bool
		reverse       bool
		steps         int
		showUntracked bool
	)

	cmd := &cobra.Command{
		Use:     "log [branch]",
		Aliases: []string{"l"},
		Short:   "Log the tracked branches, showing how they stack",
		Long: `Log the tracked branches as a tree rooted at trunk, annotated with pull
request numbers and restack state. Pass a branch to root the tree there.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: common.CompleteBranches,
		RunE: func(cmd *cobra.Command, args []string) error {
			return common.Run(cmd, func(ctx context.Context, rt *runtime.Context) error {
				opts := actions.LogOptions{
					Short:         short,
					Reverse:       reverse,
					ShowUntracked: showUntracked,
				}
				if len(args) > 0 {
					opts.BranchName = args[0]
				}
				if cmd.Flags().Changed("steps") {
					opts.Steps = &steps
				}
				return actions.LogAction(ctx, rt, opts)
			})
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Render one line per branch")
	cmd.Flags().BoolVarP(&reverse, "reverse", "r", false, "Draw trunk at the top")
	cmd.Flags().IntVarP(&steps, "steps", "n", 0, "Limit how many levels are drawn in each direction")
	cmd.Flags().BoolVarP(&showUntracked, "show-untracked", "u", false, "Also list untracked branches")

	return cmd
}
