package actions

import (
	"context"
	"fmt"
	"strings"

	"braid.dev/braid/internal/engine"
	braiderrors "braid.dev/braid/internal/errors"
	"braid.dev/braid/internal/output"
	"braid.dev/braid/internal/runtime"
)

// LogOptions contains options for the log command
type LogOptions struct {
	// Short renders one line per branch instead of the full tree
	Short bool
	// Reverse draws trunk at the top
	Reverse bool
	// Steps limits how many levels are drawn in each direction
	Steps *int
	// BranchName roots the tree somewhere other than trunk
	BranchName string
	// ShowUntracked appends branches that are not part of any stack
	ShowUntracked bool
}

// LogAction renders the tracked branch forest as a tree, annotated with PR
// numbers and restack state.
func LogAction(ctx context.Context, rt *runtime.Context, opts LogOptions) error {
	eng := rt.Engine

	branchName := opts.BranchName
	if branchName == "" {
		branchName = eng.Trunk()
	}
	if !eng.IsTrunk(branchName) && !eng.IsBranchTracked(branchName) {
		if !branchExists(eng, branchName) {
			return braiderrors.NewBranchNotFoundError(branchName)
		}
		return fmt.Errorf("%s: %w", branchName, braiderrors.ErrBranchNotTracked)
	}

	renderer := newAnnotatedTreeRenderer(rt)
	lines := renderer.RenderStack(branchName, output.TreeRenderOptions{
		Short:   opts.Short,
		Reverse: opts.Reverse,
		Steps:   opts.Steps,
	})

	if opts.ShowUntracked {
		untracked := untrackedBranchNames(eng)
		if len(untracked) > 0 {
			lines = append(lines, "", "Untracked branches:")
			for _, name := range untracked {
				lines = append(lines, "  "+output.ColorDim(name))
			}
		}
	}

	rt.Splog.Page(strings.Join(lines, "\n"))
	rt.Splog.Newline()
	return nil
}

// newAnnotatedTreeRenderer builds a tree renderer with every tracked branch
// annotated from the stack model: restack state plus any recorded PR.
func newAnnotatedTreeRenderer(rt *runtime.Context) *output.StackTreeRenderer {
	eng := rt.Engine

	renderer := output.NewStackTreeRenderer(
		eng.CurrentBranch(),
		eng.Trunk(),
		eng.GetChildren,
		eng.GetParent,
		eng.IsTrunk,
	)

	annotations := make(map[string]output.BranchAnnotation)
	for name := range eng.BranchesDepthFirst("") {
		if eng.IsTrunk(name) {
			continue
		}
		annotation := output.BranchAnnotation{}
		switch eng.GetRestackStatus(name) {
		case engine.StatusNeedsRestack:
			annotation.NeedsRestack = true
		case engine.StatusParentMissing:
			annotation.ParentMissing = true
		}
		if prInfo := eng.GetPrInfo(name); prInfo != nil {
			annotation.PRNumber = prInfo.Number
			if prInfo.State != nil {
				annotation.PRState = *prInfo.State
			}
			if prInfo.IsDraft != nil {
				annotation.IsDraft = *prInfo.IsDraft
			}
		}
		annotations[name] = annotation
	}
	renderer.SetAnnotations(annotations)

	return renderer
}

func untrackedBranchNames(eng engine.Engine) []string {
	var untracked []string
	for _, name := range eng.AllBranchNames() {
		if !eng.IsTrunk(name) && !eng.IsBranchTracked(name) {
			untracked = append(untracked, name)
		}
	}
	return untracked
}

func branchExists(eng engine.Engine, branchName string) bool {
	for _, name := range eng.AllBranchNames() {
		if name == branchName {
			return true
		}
	}
	return false
}
