package actions

import (
	"context"
	"fmt"

	"braid.dev/braid/internal/config"
	braiderrors "braid.dev/braid/internal/errors"
	"braid.dev/braid/internal/output"
	"braid.dev/braid/internal/runtime"
	"braid.dev/braid/internal/utils"
)

// CreateOptions contains options for the create command
type CreateOptions struct {
	// BranchName names the new branch; empty generates one from the message
	// using the configured branch name pattern
	BranchName string
	// Message is the commit message for the staged changes
	Message string
	// All stages every change before committing
	All bool
}

// CreateAction creates a new branch stacked on the current branch, commits
// the staged changes onto it, and tracks it. The current branch becomes the
// recorded parent, so the new branch starts out not needing a restack.
func CreateAction(ctx context.Context, rt *runtime.Context, opts CreateOptions) error {
	eng := rt.Engine
	splog := rt.Splog

	parent := eng.CurrentBranch()
	if parent == "" {
		return braiderrors.ErrNotOnBranch
	}
	if !eng.IsTrunk(parent) && !eng.IsBranchTracked(parent) {
		return fmt.Errorf("the current branch %s is not tracked; run %s first so the new branch has a place in the stack",
			parent, output.ColorCyan("braid branch track"))
	}

	if opts.All {
		if err := rt.Runner.StageAll(ctx); err != nil {
			return fmt.Errorf("failed to stage changes: %w", err)
		}
	}
	hasStaged, err := rt.Runner.HasStagedChanges(ctx)
	if err != nil {
		return fmt.Errorf("failed to check staged changes: %w", err)
	}

	branchName := opts.BranchName
	if branchName == "" {
		if opts.Message == "" {
			return fmt.Errorf("a branch name or a commit message (-m) is required")
		}
		patternStr, err := config.GetBranchNamePattern(rt.GitDir)
		if err != nil {
			return err
		}
		pattern, err := config.NewBranchPattern(patternStr)
		if err != nil {
			return err
		}
		branchName, err = pattern.GetBranchName(ctx, opts.Message)
		if err != nil {
			return err
		}
	} else {
		branchName = utils.SanitizeBranchName(branchName)
		if branchName == "" {
			return fmt.Errorf("invalid branch name")
		}
	}

	tx, err := rt.Ops.Begin(ctx, "create", []string{branchName})
	if err != nil {
		return fmt.Errorf("failed to begin create: %w", err)
	}

	if err := rt.Runner.CreateAndCheckoutBranch(ctx, branchName); err != nil {
		_ = tx.FinishErr(err)
		return err
	}

	if hasStaged {
		message := opts.Message
		if message == "" {
			message = branchName
		}
		if err := rt.Runner.Commit(ctx, message); err != nil {
			_ = tx.FinishErr(err)
			return fmt.Errorf("failed to commit staged changes: %w", err)
		}
	}

	if err := eng.TrackBranch(ctx, branchName, parent); err != nil {
		_ = tx.FinishErr(err)
		return fmt.Errorf("failed to track %s: %w", branchName, err)
	}

	_ = tx.RecordAfter(branchName)
	if err := tx.FinishOK(); err != nil {
		splog.Debug("Failed to finalize receipt for %s: %v", tx.ID(), err)
	}

	if hasStaged {
		splog.Info("Created %s on %s and committed the staged changes.",
			output.ColorBranchName(branchName, true), output.ColorBranchName(parent, false))
	} else {
		splog.Info("Created %s on %s.",
			output.ColorBranchName(branchName, true), output.ColorBranchName(parent, false))
		splog.Tip("Commit your work here; new commits on %s stay stacked on %s.",
			output.ColorBranchName(branchName, false), output.ColorBranchName(parent, false))
	}
	return nil
}
