package cli

import (
	"context"

	"github.com/spf13/cobra"

	"braid.dev/braid/internal/actions"
	"braid.dev/braid/internal/cli/common"
	"braid.dev/braid/internal/runtime"
)

// newContinueCmd creates the continue command
func newContinueCmd() *cobra.Command {
	var addAll bool

	cmd := &cobra.Command{
		Use:   "continue",
		Short: "Resume a restack that stopped on a rebase conflict",
		Long: `Resume a restack that stopped on a rebase conflict. Requires the conflicts
to be resolved and staged; the remaining branches of the suspended run are
then restacked under the same operation.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return common.Run(cmd, func(ctx context.Context, rt *runtime.Context) error {
				return actions.ContinueAction(ctx, rt, actions.ContinueOptions{AddAll: addAll})
			})
		},
	}

	cmd.Flags().BoolVarP(&addAll, "all", "a", false, "Stage all changes before continuing")

	return cmd
}
