package actions

import (
	"context"
	"errors"
	"fmt"

	"braid.dev/braid/internal/config"
	"braid.dev/braid/internal/engine"
	braiderrors "braid.dev/braid/internal/errors"
	"braid.dev/braid/internal/output"
	"braid.dev/braid/internal/runtime"
)

// ContinueOptions contains options for the continue command
type ContinueOptions struct {
	// AddAll stages all changes before continuing the rebase
	AddAll bool
}

// ContinueAction resumes a braid command that stopped on a rebase conflict.
// The conflicted branch is finished first, then the persisted work list runs
// to completion under the original operation's receipt, so the whole thing
// stays one undoable unit.
func ContinueAction(ctx context.Context, rt *runtime.Context, opts ContinueOptions) error {
	eng := rt.Engine
	splog := rt.Splog

	continuation, err := config.GetContinuationState(rt.GitDir)
	if err != nil {
		return err
	}
	if continuation == nil {
		if rt.Runner.IsRebaseInProgress(ctx) {
			return fmt.Errorf("this rebase was not started by braid; run %s directly",
				output.ColorCyan("git rebase --continue"))
		}
		return fmt.Errorf("nothing to continue: %w", braiderrors.ErrRebaseNotInProgress)
	}

	if opts.AddAll {
		if err := rt.Runner.StageAll(ctx); err != nil {
			return fmt.Errorf("failed to stage changes: %w", err)
		}
	}

	result, err := eng.ContinueRebase(ctx, engine.ContinueOptions{
		BranchName:        continuation.ConflictBranch,
		RebasedBranchBase: continuation.RebasedBranchBase,
		WorktreeDir:       continuation.WorktreeDir,
		Detached:          continuation.Detached,
	})
	if err != nil {
		if errors.Is(err, braiderrors.ErrRebaseNotInProgress) {
			// The rebase was finished or aborted outside braid; the suspended
			// state no longer describes anything real
			_ = config.ClearContinuationState(rt.GitDir)
			return fmt.Errorf("the suspended rebase of %s is gone (finished or aborted outside braid); run %s to restack from scratch",
				continuation.ConflictBranch, output.ColorCyan("braid restack"))
		}
		return fmt.Errorf("failed to continue rebase: %w", err)
	}

	if result.Result == engine.RestackConflict {
		// Still conflicted further along the same rebase; the continuation
		// state on disk stays valid as-is
		PrintConflictStatus(ctx, rt, continuation.ConflictBranch, continuation.WorktreeDir)
		return braiderrors.NewRebaseConflictError(continuation.ConflictBranch, "not yet resolved")
	}

	tx, err := rt.Ops.Resume(continuation.OpID)
	if err != nil {
		return fmt.Errorf("failed to reopen operation %s: %w", continuation.OpID, err)
	}
	if err := tx.RecordAfter(continuation.ConflictBranch); err != nil {
		return fmt.Errorf("failed to record %s in the operation receipt: %w", continuation.ConflictBranch, err)
	}

	splog.Info("Resolved rebase conflict for %s.",
		output.ColorBranchName(continuation.ConflictBranch, true))

	if continuation.PendingStashPop {
		if err := rt.Runner.StashPop(ctx, continuation.WorktreeDir); err != nil {
			splog.Warn("Restoring your stashed changes conflicted; they are still stashed. Apply them with %s once you are ready.",
				output.ColorCyan("git stash pop"))
		}
	}

	run := restackRun{
		Kind:           continuation.Kind,
		AutoStash:      continuation.AutoStash,
		PushOnComplete: continuation.PushOnComplete,
		ReturnTo:       continuation.CurrentBranchOverride,
	}

	if run.PushOnComplete {
		if err := pushRestackedBranch(ctx, rt, tx, continuation.ConflictBranch); err != nil {
			_ = tx.FinishErr(err)
			_ = config.ClearContinuationState(rt.GitDir)
			return err
		}
	}

	if len(continuation.BranchesToRestack) > 0 {
		if err := restackBranches(ctx, rt, tx, continuation.BranchesToRestack, run); err != nil {
			if !errors.Is(err, braiderrors.ErrRebaseConflict) {
				_ = tx.FinishErr(err)
				_ = config.ClearContinuationState(rt.GitDir)
			}
			// On a fresh conflict the driver has already written new
			// continuation state over the old one
			return err
		}
	}

	if err := tx.FinishOK(); err != nil {
		splog.Debug("Failed to finalize receipt for %s: %v", tx.ID(), err)
	}
	if err := config.ClearContinuationState(rt.GitDir); err != nil {
		splog.Debug("Failed to clear continuation state: %v", err)
	}

	if run.PushOnComplete {
		refreshStoredPrInfo(ctx, rt, append([]string{continuation.ConflictBranch}, continuation.BranchesToRestack...))
	}

	restoreCheckout(ctx, rt, run.ReturnTo)
	return nil
}

// restoreCheckout returns the user to the branch they were on when the
// suspended command started. Best effort: a branch that no longer exists or
// cannot be checked out just leaves the checkout where it is.
func restoreCheckout(ctx context.Context, rt *runtime.Context, branchName string) {
	if branchName == "" {
		return
	}
	current, err := rt.Runner.GetCurrentBranch()
	if err == nil && current == branchName {
		return
	}
	if _, err := rt.Runner.GetRevision(branchName); err != nil {
		return
	}
	if err := rt.Runner.CheckoutBranch(ctx, branchName); err != nil {
		rt.Splog.Debug("Failed to restore checkout of %s: %v", branchName, err)
	}
}
