package actions

import (
	"context"

	braiderrors "braid.dev/braid/internal/errors"
	"braid.dev/braid/internal/output"
	"braid.dev/braid/internal/runtime"
)

// UntrackOptions contains options for the untrack command
type UntrackOptions struct {
	// BranchName is the branch to untrack; empty means the current branch
	BranchName string
}

// UntrackAction drops a branch from the stack metadata without touching the
// branch itself. Branches with tracked children are refused so the forest
// never holds an edge to an untracked parent; re-parent or untrack the
// children first.
func UntrackAction(ctx context.Context, rt *runtime.Context, opts UntrackOptions) error {
	eng := rt.Engine

	branchName := opts.BranchName
	if branchName == "" {
		branchName = eng.CurrentBranch()
	}
	if branchName == "" {
		return braiderrors.ErrNotOnBranch
	}

	if err := eng.UntrackBranch(branchName); err != nil {
		return err
	}

	rt.Splog.Info("Stopped tracking %s. The branch itself is untouched.",
		output.ColorBranchName(branchName, false))
	return nil
}
