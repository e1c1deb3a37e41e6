package main

import (
	"errors"
	"os"

	"braid.dev/braid/internal/cli"
	braiderrors "braid.dev/braid/internal/errors"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Check for passthrough commands before processing with cobra
	if cli.HandlePassthrough(os.Args) {
		return // HandlePassthrough already exited
	}

	rootCmd := cli.NewRootCmd(version, commit, date)
	if err := rootCmd.Execute(); err != nil {
		// A halted rebase is a suspension, not a failure: resolve and run
		// braid continue. Scripts can tell the two apart by exit code.
		if errors.Is(err, braiderrors.ErrRebaseConflict) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
