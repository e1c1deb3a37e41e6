package actions

import (
	"context"
	"errors"
	"fmt"

	"braid.dev/braid/internal/config"
	"braid.dev/braid/internal/engine"
	braiderrors "braid.dev/braid/internal/errors"
	"braid.dev/braid/internal/git"
	"braid.dev/braid/internal/ops"
	"braid.dev/braid/internal/output"
	"braid.dev/braid/internal/runtime"
)

// RestackOptions contains options for the restack command
type RestackOptions struct {
	// BranchName anchors the scope; empty means the current branch
	BranchName string
	// Scope selects which branches around the anchor are restacked
	Scope engine.Scope
	// All restacks every tracked branch instead of a scope
	All bool
	// AutoStash stashes uncommitted changes before the rebases and restores
	// them afterwards
	AutoStash bool
}

// restackRun carries the settings shared by every command that drives the
// restack work list: plain restack, sync --restack, cascade, and continue.
type restackRun struct {
	// Kind names the operation in receipts and continuation state
	Kind string
	// AutoStash is forwarded to every rebase in the list
	AutoStash bool
	// PushOnComplete pushes each branch right after its restack lands
	PushOnComplete bool
	// ReturnTo is the branch the user was on when the command started. It is
	// persisted on conflict so continue can restore the checkout at the end.
	ReturnTo string
}

// RestackAction rebases a scope of branches onto their parents' current tips,
// parents before children, under one transaction. A conflict suspends the
// run: the untouched remainder of the work list is persisted so continue
// resumes at the same position, and the receipt is halted so undo can roll
// the whole operation back.
func RestackAction(ctx context.Context, rt *runtime.Context, opts RestackOptions) error {
	eng := rt.Engine

	var branches []string
	if opts.All {
		branches = eng.GetRelativeStack(eng.Trunk(), engine.Scope{RecursiveChildren: true})
	} else {
		branchName := opts.BranchName
		if branchName == "" {
			branchName = eng.CurrentBranch()
		}
		if branchName == "" {
			return braiderrors.ErrNotOnBranch
		}
		if !eng.IsTrunk(branchName) && !eng.IsBranchTracked(branchName) {
			return fmt.Errorf("cannot restack %s: %w", branchName, braiderrors.ErrBranchNotTracked)
		}
		branches = eng.GetRelativeStack(branchName, opts.Scope)
	}

	if len(branches) == 0 {
		rt.Splog.Info("No branches to restack.")
		return nil
	}

	run := restackRun{
		Kind:      "restack",
		AutoStash: opts.AutoStash,
		ReturnTo:  eng.CurrentBranch(),
	}

	tx, err := rt.Ops.Begin(ctx, run.Kind, branches)
	if err != nil {
		return fmt.Errorf("failed to begin restack: %w", err)
	}

	if err := restackBranches(ctx, rt, tx, branches, run); err != nil {
		if !errors.Is(err, braiderrors.ErrRebaseConflict) {
			_ = tx.FinishErr(err)
		}
		return err
	}
	return tx.FinishOK()
}

// restackBranches walks the work list in order under an open transaction.
// Every branch the list covers gets its post-state recorded, including the
// ones a conflict or error leaves untouched, so the receipt is always
// complete enough for undo and redo.
func restackBranches(ctx context.Context, rt *runtime.Context, tx *ops.Tx, branches []string, run restackRun) error {
	eng := rt.Engine
	splog := rt.Splog

	for i, branchName := range branches {
		if eng.IsTrunk(branchName) {
			splog.Info("%s does not need to be restacked.", output.ColorBranchName(branchName, false))
			continue
		}

		if eng.GetRestackStatus(branchName) == engine.StatusParentMissing {
			_ = tx.RecordAfter(branchName)
			splog.Warn("Skipping %s: its parent %s no longer exists. Run %s on it to pick a new parent.",
				output.ColorBranchName(branchName, false),
				output.ColorBranchName(eng.GetRecordedParent(branchName), false),
				output.ColorCyan("braid branch track"))
			continue
		}

		result, err := eng.RestackBranch(ctx, branchName, run.AutoStash)
		if err != nil {
			recordBranchStates(tx, branches[i:])
			return fmt.Errorf("failed to restack %s: %w", branchName, err)
		}

		switch result.Result {
		case engine.RestackDone:
			if err := tx.RecordAfter(branchName); err != nil {
				return fmt.Errorf("failed to record %s in the operation receipt: %w", branchName, err)
			}
			splog.Info("Restacked %s on %s.",
				output.ColorBranchName(branchName, branchName == eng.CurrentBranch()),
				output.ColorBranchName(eng.GetParent(branchName), false))
			if result.StashPopConflict {
				splog.Warn("Restoring your stashed changes conflicted; they are still stashed. Apply them with %s once you are ready.",
					output.ColorCyan("git stash pop"))
			}

		case engine.RestackUnneeded:
			_ = tx.RecordAfter(branchName)
			splog.Info("%s does not need to be restacked on %s.",
				output.ColorBranchName(branchName, branchName == eng.CurrentBranch()),
				output.ColorBranchName(eng.GetParent(branchName), false))

		case engine.RestackConflict:
			recordBranchStates(tx, branches[i:])
			continuation := &config.ContinuationState{
				Kind:                  run.Kind,
				ConflictBranch:        branchName,
				RebasedBranchBase:     result.RebasedBranchBase,
				BranchesToRestack:     branches[i+1:],
				CurrentBranchOverride: run.ReturnTo,
				WorktreeDir:           result.WorktreeDir,
				Detached:              result.Detached,
				PendingStashPop:       result.PendingStashPop,
				AutoStash:             run.AutoStash,
				PushOnComplete:        run.PushOnComplete,
				OpID:                  tx.ID(),
			}
			if err := config.PersistContinuationState(rt.GitDir, continuation); err != nil {
				return fmt.Errorf("failed to persist continuation state: %w", err)
			}
			if err := tx.FinishHalted(branchName, "rebase conflict"); err != nil {
				splog.Debug("Failed to finalize receipt for %s: %v", tx.ID(), err)
			}
			PrintConflictStatus(ctx, rt, branchName, result.WorktreeDir)
			return braiderrors.NewRebaseConflictError(branchName, "")
		}

		if run.PushOnComplete {
			if err := pushRestackedBranch(ctx, rt, tx, branchName); err != nil {
				recordBranchStates(tx, branches[i+1:])
				return err
			}
		}
	}

	return nil
}

// pushRestackedBranch pushes one branch after its restack landed, skipping
// branches whose tip already matches the remote. Force-with-lease only: a
// stale lease means someone else moved the remote, which sync has to sort
// out first.
func pushRestackedBranch(ctx context.Context, rt *runtime.Context, tx *ops.Tx, branchName string) error {
	eng := rt.Engine
	splog := rt.Splog

	matches, err := eng.BranchMatchesRemote(branchName)
	if err != nil {
		return fmt.Errorf("failed to compare %s with its remote: %w", branchName, err)
	}
	if matches {
		splog.Info("%s is already up to date on %s.",
			output.ColorBranchName(branchName, false), rt.Remote)
		return nil
	}

	if err := rt.Runner.PushBranch(ctx, branchName, rt.Remote, false, true); err != nil {
		if errors.Is(err, git.ErrStaleRemoteInfo) {
			return fmt.Errorf("the remote %s branch moved since the last fetch; run %s first: %w",
				branchName, output.ColorCyan("braid sync"), err)
		}
		return err
	}
	if err := tx.MarkPushed(branchName); err != nil {
		splog.Debug("Failed to mark %s pushed in the receipt: %v", branchName, err)
	}
	splog.Info("Pushed %s to %s.", output.ColorBranchName(branchName, false), rt.Remote)
	return nil
}

// recordBranchStates captures post-states for branches a halt or failure
// leaves behind. Their tips have not moved, so redo replays them as no-ops
// instead of mistaking them for deletions.
func recordBranchStates(tx *ops.Tx, branchNames []string) {
	for _, name := range branchNames {
		_ = tx.RecordAfter(name)
	}
}
