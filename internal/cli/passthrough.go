package cli

import (
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
)

var gitCommandAllowlist = []string{
	"add",
	"am",
	"apply",
	"archive",
	"bisect",
	"blame",
	"bundle",
	"cherry-pick",
	"clean",
	"clone",
	"diff",
	"difftool",
	"fetch",
	"format-patch",
	"fsck",
	"grep",
	"merge",
	"mv",
	"notes",
	"pull",
	"push",
	"range-diff",
	"rebase",
	"reflog",
	"remote",
	"request-pull",
	"reset",
	"restore",
	"revert",
	"rm",
	"show",
	"send-email",
	"sparse-checkout",
	"stash",
	// "status" removed - braid has its own status command
	"submodule",
	"switch",
	"tag",
}

// HandlePassthrough checks if the command should be passed through to git
// and executes it if so. Returns true if the command was handled (and the program should exit).
func HandlePassthrough(args []string) bool {
	if len(args) < 2 {
		return false
	}

	command := args[1]
	if !slices.Contains(gitCommandAllowlist, command) {
		return false
	}

	// Build the git command
	gitArgs := args[1:]
	gitCmd := exec.Command("git", gitArgs...)
	gitCmd.Stdin = os.Stdin
	gitCmd.Stdout = os.Stdout
	gitCmd.Stderr = os.Stderr

	// Print passthrough message
	fmt.Fprintf(os.Stderr, "\033[90mPassing command through to git...\033[0m\n")
	fmt.Fprintf(os.Stderr, "\033[90mRunning: \"git %s\"\033[0m\n\n", strings.Join(gitArgs, " "))

	// Execute git command
	err := gitCmd.Run()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			os.Exit(exitError.ExitCode())
		}
		os.Exit(1)
	}
	os.Exit(0)
	return true
}
