package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"braid.dev/braid/internal/cli/common"
	"braid.dev/braid/internal/runtime"
	"braid.dev/braid/internal/tui"
)

// newTuiCmd creates the tui command
func newTuiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse the stack interactively",
		Long: `Open the interactive stack browser: the tracked branches on the left, the
diff of the selected branch against its parent on the right. j/k move the
selection, r restacks it, q quits.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !tui.IsTTY() {
				return fmt.Errorf("braid tui requires an interactive terminal")
			}

			return common.Run(cmd, func(ctx context.Context, rt *runtime.Context) error {
				return tui.RunBrowser(ctx, rt)
			})
		},
	}

	return cmd
}
