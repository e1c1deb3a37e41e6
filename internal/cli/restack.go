package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"braid.dev/braid/internal/actions"
	"braid.dev/braid/internal/cli/common"
	"braid.dev/braid/internal/engine"
	"braid.dev/braid/internal/runtime"
)

// newRestackCmd creates the restack command
func newRestackCmd() *cobra.Command {
	var (
		all       bool
		only      bool
		downstack bool
		upstack   bool
		autoStash bool
	)

	cmd := &cobra.Command{
		Use:     "restack [branch]",
		Aliases: []string{"rs"},
		Short:   "Rebase branches so each sits on its parent's current tip",
		Long: `Rebase branches so each sits on its parent's current tip, parents before
children. By default the whole stack around the given branch (or the current
branch) is restacked; the scope flags narrow it. On conflict the run stops:
resolve, then 'braid continue' finishes the remaining branches.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: common.CompleteBranches,
		RunE: func(cmd *cobra.Command, args []string) error {
			scopeFlags := 0
			for _, set := range []bool{only, downstack, upstack} {
				if set {
					scopeFlags++
				}
			}
			if scopeFlags > 1 {
				return fmt.Errorf("only one of --only, --downstack, or --upstack can be given")
			}
			if all && (scopeFlags > 0 || len(args) > 0) {
				return fmt.Errorf("--all cannot be combined with a branch or a scope flag")
			}

			return common.Run(cmd, func(ctx context.Context, rt *runtime.Context) error {
				opts := actions.RestackOptions{
					All:       all,
					AutoStash: autoStash,
					Scope: engine.Scope{
						RecursiveParents:  !only && !upstack,
						IncludeCurrent:    true,
						RecursiveChildren: !only && !downstack,
					},
				}
				if len(args) > 0 {
					opts.BranchName = args[0]
				}
				return actions.RestackAction(ctx, rt, opts)
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Restack every tracked branch")
	cmd.Flags().BoolVar(&only, "only", false, "Restack only this branch")
	cmd.Flags().BoolVar(&downstack, "downstack", false, "Restack this branch and its ancestors")
	cmd.Flags().BoolVar(&upstack, "upstack", false, "Restack this branch and its descendants")
	cmd.Flags().BoolVar(&autoStash, "auto-stash", false, "Stash uncommitted changes around the rebases and restore them after")

	return cmd
}
