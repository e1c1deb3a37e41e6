package actions

import (
	"context"
	"fmt"

	"braid.dev/braid/internal/output"
	"braid.dev/braid/internal/runtime"
)

// PrintConflictStatus explains a stalled rebase: which branch conflicted,
// which files are unmerged, and how to resume or cancel. The dir is the
// worktree the rebase is suspended in ("" = here).
func PrintConflictStatus(ctx context.Context, rt *runtime.Context, branchName, dir string) {
	splog := rt.Splog

	splog.Info("%s", output.ColorRed(fmt.Sprintf("Hit conflict restacking %s", branchName)))
	if dir != "" {
		splog.Info("The rebase is suspended in worktree %s.", output.ColorCyan(dir))
	}
	splog.Newline()

	unmergedFiles, err := rt.Runner.GetUnmergedFiles(ctx)
	if err == nil && len(unmergedFiles) > 0 {
		splog.Info("%s", output.ColorYellow("Unmerged files:"))
		for _, file := range unmergedFiles {
			splog.Info("%s", output.ColorRed(file))
		}
		splog.Newline()
	}

	if rebaseHead, err := rt.Runner.GetRebaseHead(); err == nil && rebaseHead != "" {
		if len(rebaseHead) > 7 {
			rebaseHead = rebaseHead[:7]
		}
		splog.Info("%s", output.ColorYellow(fmt.Sprintf("You are here (resolving %s):", rebaseHead)))
		splog.Newline()
	}

	splog.Info("%s", output.ColorYellow("To fix and continue your previous braid command:"))
	splog.Info("(1) resolve the listed merge conflicts")
	splog.Info("(2) mark them as resolved with %s", output.ColorCyan("git add ."))
	splog.Info("(3) run %s to continue executing your previous braid command", output.ColorCyan("braid continue"))
	splog.Info("To cancel the operation and restore the previous state, run %s.", output.ColorCyan("braid abort"))
}
