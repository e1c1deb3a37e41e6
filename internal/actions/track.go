package actions

import (
	"context"
	"fmt"

	"braid.dev/braid/internal/engine"
	braiderrors "braid.dev/braid/internal/errors"
	"braid.dev/braid/internal/output"
	"braid.dev/braid/internal/runtime"
)

// TrackOptions contains options for the track command
type TrackOptions struct {
	// BranchName is the branch to track; empty means the current branch
	BranchName string
	// Parent is the parent to record; empty prompts interactively (or
	// defaults to trunk when prompts are unavailable)
	Parent string
	// Force skips the check that the parent is an ancestor of the branch
	Force bool
}

// TrackAction records a branch in the stack metadata under a parent. Tracking
// an already-tracked branch with --parent moves it under the new parent
// instead, resetting its recorded parent tip to the merge base so it reports
// as needing restack until it is actually rebased there.
func TrackAction(ctx context.Context, rt *runtime.Context, opts TrackOptions) error {
	eng := rt.Engine
	splog := rt.Splog

	branchName := opts.BranchName
	if branchName == "" {
		branchName = eng.CurrentBranch()
	}
	if branchName == "" {
		return braiderrors.ErrNotOnBranch
	}
	if eng.IsTrunk(branchName) {
		return fmt.Errorf("cannot track trunk: %w", braiderrors.ErrTrunkOperation)
	}

	if eng.IsBranchTracked(branchName) && opts.Parent == "" {
		splog.Info("%s is already tracked under %s.",
			output.ColorBranchName(branchName, false),
			output.ColorBranchName(eng.GetParent(branchName), false))
		return nil
	}

	parent := opts.Parent
	if parent == "" {
		var err error
		parent, err = selectParentBranch(rt, branchName)
		if err != nil {
			return err
		}
	}

	if !opts.Force {
		if err := checkParentIsAncestor(rt, parent, branchName); err != nil {
			return err
		}
	}

	if eng.IsBranchTracked(branchName) {
		if err := eng.SetParent(ctx, branchName, parent); err != nil {
			return err
		}
		splog.Info("Moved %s under %s.",
			output.ColorBranchName(branchName, false), output.ColorBranchName(parent, false))
	} else {
		if err := eng.TrackBranch(ctx, branchName, parent); err != nil {
			return err
		}
		splog.Info("Tracked %s with parent %s.",
			output.ColorBranchName(branchName, false), output.ColorBranchName(parent, false))
	}

	if eng.GetRestackStatus(branchName) == engine.StatusNeedsRestack {
		splog.Tip("Run %s to bring %s up to date with its parent.",
			output.ColorCyan("braid restack"), output.ColorBranchName(branchName, false))
	}
	return nil
}

// selectParentBranch picks a parent for tracking: interactively from trunk
// and the tracked branches, or trunk when prompts are unavailable
func selectParentBranch(rt *runtime.Context, branchName string) (string, error) {
	eng := rt.Engine
	trunk := eng.Trunk()

	if !output.IsInteractive() {
		return trunk, nil
	}

	options := []string{trunk}
	for name := range eng.BranchesDepthFirst("") {
		if name == trunk || name == branchName {
			continue
		}
		options = append(options, name)
	}
	if len(options) == 1 {
		return trunk, nil
	}

	return output.PromptSelect(
		fmt.Sprintf("Select parent for %s:", branchName), options, trunk)
}

// checkParentIsAncestor rejects parents whose commits the branch does not
// contain, since a restack onto such a parent would replay foreign history
func checkParentIsAncestor(rt *runtime.Context, parent, branchName string) error {
	parentRev, err := rt.Runner.GetRevision(parent)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", parent, err)
	}
	branchRev, err := rt.Runner.GetRevision(branchName)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", branchName, err)
	}
	isAncestor, err := rt.Runner.IsAncestor(parentRev, branchRev)
	if err != nil {
		return fmt.Errorf("failed to check ancestry of %s and %s: %w", parent, branchName, err)
	}
	if !isAncestor {
		return fmt.Errorf("%s is not an ancestor of %s; restack after tracking would replay unrelated commits (use --force to track anyway)",
			parent, branchName)
	}
	return nil
}
