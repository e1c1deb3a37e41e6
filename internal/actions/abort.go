package actions

import (
	"context"
	"fmt"

	"braid.dev/braid/internal/config"
	"braid.dev/braid/internal/ops"
	"braid.dev/braid/internal/output"
	"braid.dev/braid/internal/runtime"
)

// AbortOptions contains options for the abort command
type AbortOptions struct {
	// Force skips the confirmation prompt
	Force bool
}

// AbortAction cancels a conflict-suspended braid command. The in-progress
// rebase is aborted and every branch the operation already rewrote is rolled
// back through its receipt, so no branch records a parent tip it was never
// actually rebased onto.
func AbortAction(ctx context.Context, rt *runtime.Context, opts AbortOptions) error {
	splog := rt.Splog

	continuation, err := config.GetContinuationState(rt.GitDir)
	if err != nil {
		return err
	}
	if continuation == nil {
		if rt.Runner.IsRebaseInProgress(ctx) {
			return fmt.Errorf("this rebase was not started by braid; run %s directly",
				output.ColorCyan("git rebase --abort"))
		}
		splog.Info("No braid operation in progress to abort.")
		return nil
	}

	if !opts.Force {
		msg := fmt.Sprintf("Abort the suspended %s? Every branch it touched will be rolled back to where it started.", continuation.Kind)
		confirmed, err := output.PromptConfirm(msg, false)
		if err != nil {
			return err
		}
		if !confirmed {
			splog.Info("Abort canceled.")
			return nil
		}
	}

	if rt.Runner.IsRebaseInProgressIn(ctx, continuation.WorktreeDir) {
		splog.Info("Aborting rebase of %s...", output.ColorBranchName(continuation.ConflictBranch, false))
		if err := rt.Runner.RebaseAbortIn(ctx, continuation.WorktreeDir); err != nil {
			return fmt.Errorf("failed to abort rebase: %w", err)
		}
	}

	if continuation.PendingStashPop {
		if err := rt.Runner.StashPop(ctx, continuation.WorktreeDir); err != nil {
			splog.Warn("Restoring your stashed changes conflicted; they are still stashed. Apply them with %s once you are ready.",
				output.ColorCyan("git stash pop"))
		}
	}

	if continuation.OpID != "" {
		result, err := rt.Ops.Undo(ctx, ops.UndoOptions{OpID: continuation.OpID})
		if err != nil {
			return fmt.Errorf("failed to roll back operation %s: %w", continuation.OpID, err)
		}
		reportUndoOutcomes(splog, result)
	}

	if err := config.ClearContinuationState(rt.GitDir); err != nil {
		splog.Debug("Failed to clear continuation state: %v", err)
	}

	restoreCheckout(ctx, rt, continuation.CurrentBranchOverride)
	splog.Info("Aborted. The repository is back to its state before the %s started.", continuation.Kind)
	return nil
}

// reportUndoOutcomes summarizes per-branch restore results, warning about
// branches that could not be rolled back
func reportUndoOutcomes(splog *output.Splog, result *ops.Result) {
	for _, outcome := range result.Outcomes {
		if outcome.Err != nil {
			splog.Warn("Could not restore %s: %v", output.ColorBranchName(outcome.Branch, false), outcome.Err)
		}
	}
	if result.Partial {
		splog.Warn("Some branches could not be restored. The backup refs under %s are still in place.",
			output.ColorCyan("refs/braid/backup/"+result.OpID))
	}
}
