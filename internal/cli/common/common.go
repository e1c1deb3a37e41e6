// Package common provides shared helper functions for CLI commands.
package common

import (
	"context"

	"github.com/spf13/cobra"

	"braid.dev/braid/internal/git"
	"braid.dev/braid/internal/runtime"
)

// Run builds the runtime context and hands it to the command body. Global
// verbosity flags are applied first, and the context's log file is closed
// when the body returns.
func Run(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime.Context) error) error {
	rt, err := runtime.GetContext()
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	flags := cmd.Root().PersistentFlags()
	if quiet, err := flags.GetBool("quiet"); err == nil && quiet {
		rt.Splog.SetQuiet(true)
	}
	if debug, err := flags.GetBool("debug"); err == nil && debug {
		rt.Splog.SetDebug(true)
	}

	return fn(cmd.Context(), rt)
}

// CompleteBranches is a helper for cobra.ValidArgsFunction and
// RegisterFlagCompletionFunc that returns all branch names in the repository.
func CompleteBranches(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	if err := git.InitDefaultRepo(); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	branches, err := git.GetAllBranchNames()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return branches, cobra.ShellCompDirectiveNoFileComp
}
