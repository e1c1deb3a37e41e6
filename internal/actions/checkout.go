package actions

import (
	"context"
	"fmt"

	"braid.dev/braid/internal/engine"
	"braid.dev/braid/internal/output"
	"braid.dev/braid/internal/runtime"
)

// CheckoutOptions contains options for the checkout command
type CheckoutOptions struct {
	// BranchName is the branch to check out; empty prompts for one
	BranchName string
	// Trunk checks out the trunk branch directly
	Trunk bool
}

// CheckoutAction switches to another branch, prompting with the stack when no
// branch is named.
func CheckoutAction(ctx context.Context, rt *runtime.Context, opts CheckoutOptions) error {
	eng := rt.Engine
	splog := rt.Splog

	branchName := opts.BranchName
	switch {
	case opts.Trunk:
		branchName = eng.Trunk()
	case branchName == "":
		selected, err := selectCheckoutBranch(rt)
		if err != nil {
			return err
		}
		branchName = selected
	}

	currentBranch := eng.CurrentBranch()
	if branchName == currentBranch {
		splog.Info("Already on %s.", output.ColorBranchName(branchName, true))
		return nil
	}

	if err := rt.Runner.CheckoutBranch(ctx, branchName); err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", branchName, err)
	}

	splog.Info("Checked out %s.", output.ColorBranchName(branchName, true))
	printCheckoutHints(rt, branchName)
	return nil
}

// selectCheckoutBranch prompts for a branch, listing the trunk and every
// tracked branch in stack order.
func selectCheckoutBranch(rt *runtime.Context) (string, error) {
	eng := rt.Engine

	options := []string{eng.Trunk()}
	for name := range eng.BranchesDepthFirst("") {
		if eng.IsTrunk(name) {
			continue
		}
		options = append(options, name)
	}
	if len(options) == 1 && options[0] == "" {
		return "", fmt.Errorf("no branches available to checkout")
	}

	defaultBranch := eng.CurrentBranch()
	if defaultBranch == "" {
		defaultBranch = eng.Trunk()
	}

	return output.PromptSelect("Checkout a branch:", options, defaultBranch)
}

// printCheckoutHints reports stack state that would surprise someone landing
// on the branch: untracked, fallen behind its parent, or orphaned.
func printCheckoutHints(rt *runtime.Context, branchName string) {
	eng := rt.Engine
	splog := rt.Splog

	if eng.IsTrunk(branchName) {
		return
	}
	if !eng.IsBranchTracked(branchName) {
		splog.Info("This branch is not tracked; run %s to add it to a stack.",
			output.ColorCyan("braid branch track"))
		return
	}

	switch eng.GetRestackStatus(branchName) {
	case engine.StatusNeedsRestack:
		parent := eng.GetParent(branchName)
		splog.Info("This branch has fallen behind %s; run %s to catch it up.",
			output.ColorBranchName(parent, false), output.ColorCyan("braid restack"))
	case engine.StatusParentMissing:
		splog.Warn("The parent of this branch no longer exists. Run %s to pick a new one.",
			output.ColorCyan("braid branch track"))
	}
}
