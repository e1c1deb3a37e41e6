package actions

import (
	"context"
	"errors"
	"fmt"

	"braid.dev/braid/internal/engine"
	braiderrors "braid.dev/braid/internal/errors"
	"braid.dev/braid/internal/git"
	"braid.dev/braid/internal/github"
	"braid.dev/braid/internal/output"
	"braid.dev/braid/internal/runtime"
)

// CascadeOptions contains options for the cascade command
type CascadeOptions struct {
	// NoPush restacks without pushing
	NoPush bool
	// AutoStash stashes uncommitted changes around the rebases and restores
	// them afterwards
	AutoStash bool
}

// CascadeAction restacks the whole stack the current branch belongs to,
// bottom-up, pushing each branch as soon as its restack lands. Run from
// trunk it covers every tracked branch. A conflict suspends the run exactly
// like restack: resolve, then continue picks up the remaining branches and
// their pushes.
func CascadeAction(ctx context.Context, rt *runtime.Context, opts CascadeOptions) error {
	eng := rt.Engine
	splog := rt.Splog

	currentBranch := eng.CurrentBranch()
	if currentBranch == "" {
		return braiderrors.ErrNotOnBranch
	}
	if !eng.IsTrunk(currentBranch) && !eng.IsBranchTracked(currentBranch) {
		return fmt.Errorf("cannot cascade from %s: %w", currentBranch, braiderrors.ErrBranchNotTracked)
	}

	warnStaleTrunk(ctx, rt)

	var branches []string
	if eng.IsTrunk(currentBranch) {
		branches = eng.GetRelativeStack(currentBranch, engine.Scope{RecursiveChildren: true})
	} else {
		branches = eng.StackOf(currentBranch)
	}
	if len(branches) == 0 {
		splog.Info("No branches to cascade.")
		return nil
	}

	run := restackRun{
		Kind:           "cascade",
		AutoStash:      opts.AutoStash,
		PushOnComplete: !opts.NoPush,
		ReturnTo:       currentBranch,
	}

	tx, err := rt.Ops.Begin(ctx, run.Kind, branches)
	if err != nil {
		return fmt.Errorf("failed to begin cascade: %w", err)
	}

	if err := restackBranches(ctx, rt, tx, branches, run); err != nil {
		if !errors.Is(err, braiderrors.ErrRebaseConflict) {
			_ = tx.FinishErr(err)
		}
		return err
	}
	if err := tx.FinishOK(); err != nil {
		splog.Debug("Failed to finalize receipt for %s: %v", tx.ID(), err)
	}

	if run.PushOnComplete {
		refreshStoredPrInfo(ctx, rt, branches)
	}
	restoreCheckout(ctx, rt, currentBranch)
	return nil
}

// warnStaleTrunk warns when trunk is behind its cached remote counterpart.
// Cascade rebases onto whatever trunk the repository has; a stale trunk means
// redoing the work after the next sync.
func warnStaleTrunk(ctx context.Context, rt *runtime.Context) {
	trunk := rt.Engine.Trunk()
	remoteRef := fmt.Sprintf("refs/remotes/%s/%s", rt.Remote, trunk)

	behind, err := git.BehindCount(ctx, trunk, remoteRef)
	if err != nil {
		rt.Splog.Debug("Failed to compare %s with %s: %v", trunk, remoteRef, err)
		return
	}
	if behind > 0 {
		rt.Splog.Warn("%s is %d commit(s) behind %s/%s. Consider running %s first.",
			output.ColorBranchName(trunk, false), behind, rt.Remote, trunk,
			output.ColorCyan("braid sync"))
	}
}

// refreshStoredPrInfo re-reads PR state for the given branches after their
// tips moved. Read-only and best effort: without a client nothing happens.
func refreshStoredPrInfo(ctx context.Context, rt *runtime.Context, branchNames []string) {
	client := rt.GitHub(ctx)
	if client == nil {
		return
	}
	refreshed := github.RefreshPrInfo(ctx, client, rt.Engine, branchNames)
	rt.Splog.Debug("Refreshed PR state for %d branches.", refreshed)
}
