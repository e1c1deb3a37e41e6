package cli

import (
	"context"

	"github.com/spf13/cobra"

	"braid.dev/braid/internal/actions"
	"braid.dev/braid/internal/cli/common"
	"braid.dev/braid/internal/runtime"
)

// newCheckoutCmd creates the checkout command
func newCheckoutCmd() *cobra.Command {
	var trunk bool

	cmd := &cobra.Command{
		Use:     "checkout [branch]",
		Aliases: []string{"co"},
		Short:   "Check out a branch, picking from the stack when none is named",
		Long: `Check out a branch. Without an argument an interactive picker lists the
trunk and every tracked branch in stack order.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: common.CompleteBranches,
		RunE: func(cmd *cobra.Command, args []string) error {
			return common.Run(cmd, func(ctx context.Context, rt *runtime.Context) error {
				opts := actions.CheckoutOptions{Trunk: trunk}
				if len(args) > 0 {
					opts.BranchName = args[0]
				}
				return actions.CheckoutAction(ctx, rt, opts)
			})
		},
	}

	cmd.Flags().BoolVarP(&trunk, "trunk", "t", false, "Check out the trunk branch")

	return cmd
}
