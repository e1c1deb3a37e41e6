package actions

import (
	"context"
	"errors"
	"fmt"

	braiderrors "braid.dev/braid/internal/errors"
	"braid.dev/braid/internal/output"
	"braid.dev/braid/internal/runtime"
)

// DeleteOptions contains options for the delete command
type DeleteOptions struct {
	// BranchName is the branch to delete
	BranchName string
	// Force deletes even when the branch is not merged into trunk
	Force bool
}

// DeleteAction deletes a branch and re-points its children at the deleted
// branch's parent, so the stack around it stays intact. A branch checked out
// in a worktree is refused rather than deleted out from under it.
func DeleteAction(ctx context.Context, rt *runtime.Context, opts DeleteOptions) error {
	eng := rt.Engine
	splog := rt.Splog

	branchName := opts.BranchName
	if branchName == "" {
		return fmt.Errorf("a branch name is required")
	}
	if eng.IsTrunk(branchName) {
		return fmt.Errorf("cannot delete trunk: %w", braiderrors.ErrTrunkOperation)
	}
	if branchName == eng.CurrentBranch() {
		return fmt.Errorf("cannot delete the checked-out branch %s; checkout another branch first", branchName)
	}

	wt, err := rt.Runner.WorktreeForBranch(ctx, branchName)
	if err != nil {
		return err
	}
	if wt != nil {
		return fmt.Errorf("branch %s is checked out in worktree %s; switch or remove that worktree first",
			branchName, wt.Path)
	}

	if !opts.Force {
		merged, err := eng.IsMergedIntoTrunk(ctx, branchName)
		if err != nil && !errors.Is(err, braiderrors.ErrBranchNotFound) {
			return fmt.Errorf("failed to check whether %s is merged: %w", branchName, err)
		}
		if err == nil && !merged {
			if !output.IsInteractive() {
				return fmt.Errorf("branch %s is not merged into %s (use --force to delete anyway)",
					branchName, eng.Trunk())
			}
			confirmed, err := output.PromptConfirm(
				fmt.Sprintf("Branch %s is not merged into %s. Delete it anyway?", branchName, eng.Trunk()), false)
			if err != nil {
				return err
			}
			if !confirmed {
				splog.Info("Delete canceled.")
				return nil
			}
		}
	}

	children := eng.GetChildren(branchName)
	newParent := eng.GetParent(branchName)
	if newParent == "" {
		newParent = eng.Trunk()
	}

	branches := append([]string{branchName}, children...)
	tx, err := rt.Ops.Begin(ctx, "delete", branches)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}

	if err := eng.DeleteBranch(ctx, branchName); err != nil {
		_ = tx.FinishErr(err)
		return err
	}

	recordBranchStates(tx, branches)
	if err := tx.FinishOK(); err != nil {
		splog.Debug("Failed to finalize receipt for %s: %v", tx.ID(), err)
	}

	for _, child := range children {
		splog.Info("Re-pointed %s at %s.",
			output.ColorBranchName(child, false), output.ColorBranchName(newParent, false))
	}
	splog.Info("Deleted %s.", output.ColorBranchName(branchName, false))
	if len(children) > 0 {
		splog.Tip("Run %s to rebase the re-pointed branches onto %s.",
			output.ColorCyan("braid restack"), output.ColorBranchName(newParent, false))
	}
	return nil
}
