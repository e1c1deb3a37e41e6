package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "braid",
		Short: "Braid makes working with stacks of dependent branches fast & intuitive",
		Long: `Braid manages stacks of dependent branches: it records each branch's parent
in Git refs, rebases whole stacks when their parents move, and keeps a
receipt of every operation so any of them can be undone.`,
		Version:      fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress console output")
	rootCmd.PersistentFlags().Bool("debug", false, "Print debug messages")

	rootCmd.AddCommand(
		newInitCmd(),
		newLogCmd(),
		newStatusCmd(),
		newCreateCmd(),
		newBranchCmd(),
		newCheckoutCmd(),
		newRestackCmd(),
		newContinueCmd(),
		newAbortCmd(),
		newUndoCmd(),
		newRedoCmd(),
		newOpsCmd(),
		newSyncCmd(),
		newCascadeCmd(),
		newTuiCmd(),
	)

	return rootCmd
}
