package cli

import (
	"context"

	"github.com/spf13/cobra"

	"braid.dev/braid/internal/actions"
	"braid.dev/braid/internal/cli/common"
	"braid.dev/braid/internal/runtime"
)

// newUndoCmd creates the undo command
func newUndoCmd() *cobra.Command {
	var (
		opID      string
		localOnly bool
	)

	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Undo the most recent braid operation",
		Long: `Undo the most recent braid operation (or a specific one by id), restoring
every branch it touched to its pre-operation state. Branches the operation
pushed are force-pushed back unless --local is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return common.Run(cmd, func(ctx context.Context, rt *runtime.Context) error {
				return actions.UndoAction(ctx, rt, actions.UndoOptions{
					OpID:      opID,
					LocalOnly: localOnly,
				})
			})
		},
	}

	cmd.Flags().StringVar(&opID, "op", "", "The id of the operation to undo (see 'braid ops')")
	cmd.Flags().BoolVar(&localOnly, "local", false, "Restore local branches only, never push")

	return cmd
}

// newRedoCmd creates the redo command
func newRedoCmd() *cobra.Command {
	var localOnly bool

	cmd := &cobra.Command{
		Use:   "redo",
		Short: "Replay the operation that was just undone",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return common.Run(cmd, func(ctx context.Context, rt *runtime.Context) error {
				return actions.RedoAction(ctx, rt, localOnly)
			})
		},
	}

	cmd.Flags().BoolVar(&localOnly, "local", false, "Restore local branches only, never push")

	return cmd
}

// newOpsCmd creates the ops command
func newOpsCmd() *cobra.Command {
	var prune bool

	cmd := &cobra.Command{
		Use:   "ops",
		Short: "List recorded operations and their receipts",
		Long: `List recorded operations newest first: what ran, which branches it touched,
and whether it finished, halted on a conflict, or failed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return common.Run(cmd, func(ctx context.Context, rt *runtime.Context) error {
				return actions.OpsAction(ctx, rt, actions.OpsOptions{Prune: prune})
			})
		},
	}

	cmd.Flags().BoolVar(&prune, "prune", false, "Delete receipts and backup refs of finished operations")

	return cmd
}
