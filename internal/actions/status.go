package actions

import (
	"context"
	"encoding/json"
	"fmt"

	"braid.dev/braid/internal/diffcache"
	"braid.dev/braid/internal/engine"
	"braid.dev/braid/internal/runtime"
)

// StatusOptions contains options for the status command
type StatusOptions struct {
	// JSON emits machine-readable output instead of the tree
	JSON bool
}

type statusPR struct {
	Number int    `json:"number"`
	State  string `json:"state,omitempty"`
	URL    string `json:"url,omitempty"`
}

type statusBranch struct {
	Name         string    `json:"name"`
	Parent       string    `json:"parent"`
	NeedsRestack bool      `json:"needs_restack"`
	LinesAdded   int       `json:"lines_added"`
	LinesDeleted int       `json:"lines_deleted"`
	PR           *statusPR `json:"pr,omitempty"`
}

type statusReport struct {
	Trunk    string         `json:"trunk"`
	Branches []statusBranch `json:"branches"`
}

// StatusAction renders the stack tree, or with JSON a per-branch report of
// parent, restack state, diff size against the parent, and any recorded PR.
func StatusAction(ctx context.Context, rt *runtime.Context, opts StatusOptions) error {
	if !opts.JSON {
		return LogAction(ctx, rt, LogOptions{})
	}

	eng := rt.Engine
	report := statusReport{
		Trunk:    eng.Trunk(),
		Branches: []statusBranch{},
	}

	for name := range eng.BranchesDepthFirst("") {
		if eng.IsTrunk(name) {
			continue
		}

		branch := statusBranch{
			Name:         name,
			Parent:       eng.GetParent(name),
			NeedsRestack: eng.GetRestackStatus(name) == engine.StatusNeedsRestack,
		}

		added, deleted, err := branchDiffStats(ctx, rt, name, branch.Parent)
		if err != nil {
			rt.Splog.Debug("Failed to compute diff stats for %s: %v", name, err)
		} else {
			branch.LinesAdded = added
			branch.LinesDeleted = deleted
		}

		if prInfo := eng.GetPrInfo(name); prInfo != nil && prInfo.Number != nil {
			pr := &statusPR{Number: *prInfo.Number}
			if prInfo.State != nil {
				pr.State = *prInfo.State
			}
			if prInfo.URL != nil {
				pr.URL = *prInfo.URL
			}
			branch.PR = pr
		}

		report.Branches = append(report.Branches, branch)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	rt.Splog.Page(string(data))
	rt.Splog.Newline()
	return nil
}

// branchDiffStats returns the added and deleted line counts of a branch
// against its parent, going through the diff cache keyed on both tips.
func branchDiffStats(ctx context.Context, rt *runtime.Context, branchName, parent string) (int, int, error) {
	if parent == "" {
		return 0, 0, fmt.Errorf("branch %s has no parent", branchName)
	}
	parentTip, err := rt.Engine.GetRevision(parent)
	if err != nil {
		return 0, 0, err
	}
	branchTip, err := rt.Engine.GetRevision(branchName)
	if err != nil {
		return 0, 0, err
	}
	entry, err := rt.Diffs.GetOrCompute(parentTip, branchTip, func() (*diffcache.Entry, error) {
		return diffcache.ComputeEntry(ctx, rt.Runner, parentTip, branchTip)
	})
	if err != nil {
		return 0, 0, err
	}
	return entry.Added, entry.Deleted, nil
}
