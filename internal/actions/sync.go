package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"braid.dev/braid/internal/engine"
	braiderrors "braid.dev/braid/internal/errors"
	"braid.dev/braid/internal/git"
	"braid.dev/braid/internal/github"
	"braid.dev/braid/internal/ops"
	"braid.dev/braid/internal/output"
	"braid.dev/braid/internal/runtime"
)

// SyncOptions contains options for the sync command
type SyncOptions struct {
	// Restack rebases the affected branches after the sync
	Restack bool
	// Force resets a diverged trunk to the remote and skips delete prompts
	Force bool
	// NoClean keeps branches whose work has landed instead of deleting them
	NoClean bool
}

// SyncAction brings the repository up to date with the remote: fetch,
// fast-forward trunk, refresh stored PR state, then delete branches whose
// work has landed, re-pointing their children. Deletions and the optional
// restack run under one transaction, so a sync that went wrong is one undo
// away. Trunk itself is not part of the transaction: it mirrors the remote,
// and undoing a sync does not rewind it.
func SyncAction(ctx context.Context, rt *runtime.Context, opts SyncOptions) error {
	eng := rt.Engine
	splog := rt.Splog

	if rt.Runner.HasUncommittedChanges(ctx) {
		return fmt.Errorf("you have uncommitted changes; commit or stash them before syncing: %w",
			braiderrors.ErrDirtyWorktree)
	}

	splog.Info("Fetching %s...", rt.Remote)
	if err := rt.Runner.Fetch(ctx, rt.Remote); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", rt.Remote, err)
	}
	if err := eng.PopulateRemoteShas(); err != nil {
		return fmt.Errorf("failed to read remote tracking refs: %w", err)
	}

	if err := syncTrunk(ctx, rt, opts.Force); err != nil {
		return err
	}

	// Stored PR state drives merged and closed detection, so refresh it
	// before planning the cleanup. Best effort: sync still works without a
	// token, falling back to merge detection against trunk.
	if client := rt.GitHub(ctx); client != nil {
		refreshed := github.RefreshPrInfo(ctx, client, eng, trackedBranchNames(eng))
		splog.Debug("Refreshed PR state for %d branches.", refreshed)
	}

	plan := &syncCleanupPlan{
		children: make(map[string][]string),
		reasons:  make(map[string]string),
	}
	if !opts.NoClean {
		var err error
		plan, err = planBranchCleanup(ctx, rt, opts.Force)
		if err != nil {
			return err
		}
	}

	var restackTargets []string
	if opts.Restack {
		restackTargets = collectSyncRestackTargets(eng, plan)
	}

	if len(plan.branches) == 0 && len(restackTargets) == 0 {
		if !opts.Restack && forestNeedsRestack(eng) {
			splog.Tip("Some branches have fallen behind. Run %s to rebase them.",
				output.ColorCyan("braid sync --restack"))
		} else {
			splog.Info("Everything is in sync.")
		}
		return nil
	}

	run := restackRun{
		Kind:     "sync",
		ReturnTo: eng.CurrentBranch(),
	}

	receiptBranches := plan.receiptBranches()
	for _, name := range restackTargets {
		receiptBranches = appendUnique(receiptBranches, name)
	}

	tx, err := rt.Ops.Begin(ctx, run.Kind, receiptBranches)
	if err != nil {
		return fmt.Errorf("failed to begin sync: %w", err)
	}

	// The engine refuses to delete the checked-out branch, so step off it
	// first. The receipt already recorded the original checkout, which is
	// what undo restores.
	if plan.contains(run.ReturnTo) {
		trunk := eng.Trunk()
		splog.Info("Switching to %s to delete %s.",
			output.ColorBranchName(trunk, false), output.ColorBranchName(run.ReturnTo, false))
		if err := rt.Runner.CheckoutBranch(ctx, trunk); err != nil {
			_ = tx.FinishErr(err)
			return fmt.Errorf("failed to checkout %s: %w", trunk, err)
		}
		run.ReturnTo = trunk
	}

	if err := executeCleanup(ctx, rt, tx, plan); err != nil {
		_ = tx.FinishErr(err)
		return err
	}

	if len(restackTargets) > 0 {
		if err := restackBranches(ctx, rt, tx, restackTargets, run); err != nil {
			if !errors.Is(err, braiderrors.ErrRebaseConflict) {
				_ = tx.FinishErr(err)
			}
			return err
		}
	}

	if err := tx.FinishOK(); err != nil {
		splog.Debug("Failed to finalize receipt for %s: %v", tx.ID(), err)
	}

	if !opts.Restack && forestNeedsRestack(eng) {
		splog.Tip("Some branches have fallen behind. Run %s to rebase them.",
			output.ColorCyan("braid sync --restack"))
	}
	return nil
}

// syncTrunk fast-forwards trunk to its remote counterpart. A diverged trunk
// is only overwritten with --force; otherwise it is reported and left alone.
func syncTrunk(ctx context.Context, rt *runtime.Context, force bool) error {
	eng := rt.Engine
	splog := rt.Splog
	trunk := eng.Trunk()

	result, err := eng.PullTrunk(ctx)
	if err != nil {
		return fmt.Errorf("failed to pull %s: %w", trunk, err)
	}

	switch result {
	case git.PullDone:
		splog.Info("%s fast-forwarded to %s.",
			output.ColorBranchName(trunk, false), output.ColorDim(shortTrunkRevision(eng)))
	case git.PullUnneeded:
		splog.Info("%s is up to date.", output.ColorBranchName(trunk, false))
	case git.PullConflict:
		if !force {
			splog.Warn("%s has diverged from %s and cannot be fast-forwarded. Use %s to overwrite it with the remote version.",
				output.ColorBranchName(trunk, false), rt.Remote, output.ColorCyan("braid sync --force"))
			return nil
		}
		if err := eng.ResetTrunkToRemote(ctx); err != nil {
			return fmt.Errorf("failed to reset %s: %w", trunk, err)
		}
		splog.Info("%s reset to %s.",
			output.ColorBranchName(trunk, false), output.ColorDim(shortTrunkRevision(eng)))
	}
	return nil
}

func shortTrunkRevision(eng engine.Engine) string {
	rev, err := eng.GetRevision(eng.Trunk())
	if err != nil {
		return "?"
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	return rev
}

// syncCleanupPlan is the outcome of deciding which branches to delete. The
// decision happens before the transaction begins so the receipt can cover
// every branch the deletions will touch.
type syncCleanupPlan struct {
	// branches to delete, parents before children
	branches []string
	// children records each branch's children at planning time; deleting the
	// branch re-points them
	children map[string][]string
	// reasons holds the human-readable justification per branch
	reasons map[string]string
}

func (p *syncCleanupPlan) contains(branchName string) bool {
	for _, name := range p.branches {
		if name == branchName {
			return true
		}
	}
	return false
}

// receiptBranches returns every branch the cleanup will touch: the deleted
// ones plus the children whose metadata is rewritten by re-pointing.
func (p *syncCleanupPlan) receiptBranches() []string {
	var result []string
	for _, name := range p.branches {
		result = appendUnique(result, name)
		for _, child := range p.children[name] {
			result = appendUnique(result, child)
		}
	}
	return result
}

// planBranchCleanup walks the forest parents-first and decides which branches
// to delete. Branches checked out in another worktree are kept with a
// warning. Without --force each deletion is confirmed; when prompts are
// unavailable the candidates are reported and kept.
func planBranchCleanup(ctx context.Context, rt *runtime.Context, force bool) (*syncCleanupPlan, error) {
	eng := rt.Engine
	splog := rt.Splog
	currentBranch := eng.CurrentBranch()

	plan := &syncCleanupPlan{
		children: make(map[string][]string),
		reasons:  make(map[string]string),
	}
	var skipped []string

	for name := range eng.BranchesDepthFirst("") {
		if eng.IsTrunk(name) {
			continue
		}

		landed, reason := branchHasLanded(ctx, rt, name)
		if !landed {
			continue
		}

		if name != currentBranch {
			wt, err := rt.Runner.WorktreeForBranch(ctx, name)
			if err != nil {
				return nil, err
			}
			if wt != nil {
				splog.Warn("Keeping %s (%s): it is checked out in worktree %s.",
					output.ColorBranchName(name, false), reason, wt.Path)
				continue
			}
		}

		if !force {
			if !output.IsInteractive() {
				skipped = append(skipped, name)
				continue
			}
			confirmed, err := output.PromptConfirm(
				fmt.Sprintf("Delete %s? (%s)", output.ColorBranchName(name, false), reason), true)
			if err != nil {
				return nil, err
			}
			if !confirmed {
				continue
			}
		}

		plan.branches = append(plan.branches, name)
		plan.children[name] = eng.GetChildren(name)
		plan.reasons[name] = reason
	}

	if len(skipped) > 0 {
		splog.Warn("Keeping %s: the work has landed but deletion needs confirmation. Run %s to delete without prompting.",
			strings.Join(skipped, ", "), output.ColorCyan("braid sync --force"))
	}
	return plan, nil
}

// branchHasLanded reports whether the branch's work is already upstream:
// its PR is merged or closed, it is merged into trunk (counting squashed
// equivalents), or it has a PR and no changes of its own left.
func branchHasLanded(ctx context.Context, rt *runtime.Context, branchName string) (bool, string) {
	eng := rt.Engine
	prInfo := eng.GetPrInfo(branchName)

	if prInfo != nil && prInfo.State != nil && prInfo.Number != nil {
		switch *prInfo.State {
		case github.StateMerged:
			return true, fmt.Sprintf("PR #%d was merged", *prInfo.Number)
		case github.StateClosed:
			return true, fmt.Sprintf("PR #%d was closed", *prInfo.Number)
		}
	}

	merged, err := eng.IsMergedIntoTrunk(ctx, branchName)
	if err != nil {
		rt.Splog.Debug("Failed to check merge state of %s: %v", branchName, err)
	} else if merged {
		return true, fmt.Sprintf("merged into %s", eng.Trunk())
	}

	if prInfo != nil && prInfo.Number != nil {
		empty, err := eng.IsBranchEmpty(ctx, branchName)
		if err != nil {
			rt.Splog.Debug("Failed to check whether %s is empty: %v", branchName, err)
		} else if empty {
			return true, "all its changes are upstream"
		}
	}

	return false, ""
}

// executeCleanup deletes the planned branches under the open transaction.
// The engine re-points each deleted branch's children to its parent, so the
// stacks above survive.
func executeCleanup(ctx context.Context, rt *runtime.Context, tx *ops.Tx, plan *syncCleanupPlan) error {
	eng := rt.Engine
	splog := rt.Splog

	for _, name := range plan.branches {
		newParent := eng.GetParent(name)
		if newParent == "" {
			newParent = eng.Trunk()
		}
		children := eng.GetChildren(name)

		if err := eng.DeleteBranch(ctx, name); err != nil {
			return fmt.Errorf("failed to delete %s: %w", name, err)
		}

		splog.Info("Deleted %s: %s.", output.ColorBranchName(name, false), plan.reasons[name])
		for _, child := range children {
			if plan.contains(child) {
				continue
			}
			splog.Info("Re-pointed %s at %s.",
				output.ColorBranchName(child, false), output.ColorBranchName(newParent, false))
		}
	}

	recordBranchStates(tx, plan.receiptBranches())
	return nil
}

// collectSyncRestackTargets gathers the branches a sync should rebase: the
// children re-pointed by deletions with their descendants, plus the stack the
// user is standing on (or every tracked branch when standing on trunk).
func collectSyncRestackTargets(eng engine.Engine, plan *syncCleanupPlan) []string {
	deleted := make(map[string]bool, len(plan.branches))
	for _, name := range plan.branches {
		deleted[name] = true
	}

	seen := make(map[string]bool)
	var targets []string
	add := func(name string) {
		if name == "" || deleted[name] || seen[name] || eng.IsTrunk(name) {
			return
		}
		seen[name] = true
		targets = append(targets, name)
	}

	for _, name := range plan.branches {
		for _, child := range plan.children[name] {
			add(child)
			for descendant := range eng.Descendants(child) {
				add(descendant)
			}
		}
	}

	currentBranch := eng.CurrentBranch()
	switch {
	case eng.IsTrunk(currentBranch):
		for _, name := range eng.GetRelativeStack(currentBranch, engine.Scope{RecursiveChildren: true}) {
			add(name)
		}
	case eng.IsBranchTracked(currentBranch):
		for _, name := range eng.StackOf(currentBranch) {
			add(name)
		}
	}

	return eng.SortBranchesTopologically(targets)
}

func forestNeedsRestack(eng engine.Engine) bool {
	for name := range eng.BranchesDepthFirst("") {
		if eng.IsTrunk(name) {
			continue
		}
		if eng.GetRestackStatus(name) == engine.StatusNeedsRestack {
			return true
		}
	}
	return false
}

func trackedBranchNames(eng engine.Engine) []string {
	var names []string
	for name := range eng.BranchesDepthFirst("") {
		if eng.IsTrunk(name) {
			continue
		}
		names = append(names, name)
	}
	return names
}

func appendUnique(names []string, name string) []string {
	for _, existing := range names {
		if existing == name {
			return names
		}
	}
	return append(names, name)
}
