package cli

import (
	"github.com/spf13/cobra"

	"braid.dev/braid/internal/cli/branch"
)

// newCreateCmd exposes branch create at the top level, where most of its use
// happens.
func newCreateCmd() *cobra.Command {
	cmd := branch.NewCreateCmd()
	cmd.Aliases = []string{"c"}
	return cmd
}
