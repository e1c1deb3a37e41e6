package actions

import (
	"context"
	"fmt"

	braiderrors "braid.dev/braid/internal/errors"
	"braid.dev/braid/internal/output"
	"braid.dev/braid/internal/runtime"
	"braid.dev/braid/internal/utils"
)

// RenameOptions contains options for the rename command
type RenameOptions struct {
	// NewName is the name to rename the current branch to
	NewName string
	// Force renames even when the branch has a recorded pull request
	Force bool
}

// RenameAction renames the current branch. The metadata ref moves along and
// every child is re-pointed at the new name, so the stack survives the
// rename. Recorded parent tips are untouched since no commits move.
func RenameAction(ctx context.Context, rt *runtime.Context, opts RenameOptions) error {
	eng := rt.Engine
	splog := rt.Splog

	currentBranch := eng.CurrentBranch()
	if currentBranch == "" {
		return braiderrors.ErrNotOnBranch
	}
	if eng.IsTrunk(currentBranch) {
		return fmt.Errorf("cannot rename trunk: %w", braiderrors.ErrTrunkOperation)
	}

	newName := opts.NewName
	if newName == "" {
		if !output.IsInteractive() {
			return fmt.Errorf("a new branch name is required")
		}
		var err error
		newName, err = output.PromptInput("Enter new branch name:", currentBranch)
		if err != nil {
			return err
		}
	}
	newName = utils.SanitizeBranchName(newName)
	if newName == "" {
		return fmt.Errorf("invalid branch name")
	}
	if newName == currentBranch {
		splog.Info("Branch is already named %s.", output.ColorBranchName(newName, true))
		return nil
	}

	// GitHub identifies a pull request by its head branch name, so a rename
	// orphans any recorded PR
	if prInfo := eng.GetPrInfo(currentBranch); prInfo != nil && prInfo.Number != nil {
		if !opts.Force {
			return fmt.Errorf("branch %s is associated with PR #%d; renaming breaks that link (use --force to rename anyway)",
				currentBranch, *prInfo.Number)
		}
		splog.Warn("Dropping the association with PR #%d; pull request head branches cannot be renamed.", *prInfo.Number)
		if err := eng.UpsertPrInfo(currentBranch, nil); err != nil {
			return fmt.Errorf("failed to clear PR info: %w", err)
		}
	}

	// Children are part of the receipt because their metadata is rewritten to
	// name the new parent
	children := eng.GetChildren(currentBranch)
	branches := append([]string{currentBranch, newName}, children...)

	tx, err := rt.Ops.Begin(ctx, "rename", branches)
	if err != nil {
		return fmt.Errorf("failed to begin rename: %w", err)
	}

	if err := eng.RenameBranch(ctx, currentBranch, newName); err != nil {
		_ = tx.FinishErr(err)
		return err
	}

	recordBranchStates(tx, branches)
	if err := tx.FinishOK(); err != nil {
		splog.Debug("Failed to finalize receipt for %s: %v", tx.ID(), err)
	}

	splog.Info("Renamed %s to %s.",
		output.ColorBranchName(currentBranch, false), output.ColorBranchName(newName, true))
	return nil
}
