package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ContinueFileName is the continuation state file, relative to the git dir
const ContinueFileName = ".braid_continue"

// ContinuationState is what a conflict-suspended operation persists so that
// "braid continue" can resume it and "braid abort" can roll it back.
type ContinuationState struct {
	// Kind is the operation that was suspended ("restack", "sync", "cascade")
	Kind string `json:"kind,omitempty"`
	// ConflictBranch is the branch whose rebase stopped on conflicts
	ConflictBranch string `json:"conflictBranch,omitempty"`
	// RebasedBranchBase is the parent tip the conflicted branch was being
	// rebased onto; it becomes the branch's recorded parent revision once the
	// rebase completes
	RebasedBranchBase string `json:"rebasedBranchBase,omitempty"`
	// BranchesToRestack is the remaining work list, in order, not including
	// the conflicted branch
	BranchesToRestack []string `json:"branchesToRestack,omitempty"`
	// CurrentBranchOverride is the checkout to restore when the operation
	// finally completes
	CurrentBranchOverride string `json:"currentBranchOverride,omitempty"`
	// WorktreeDir is the worktree the conflicted rebase is running in, empty
	// for the main worktree
	WorktreeDir string `json:"worktreeDir,omitempty"`
	// Detached is set when the rebase ran on a detached HEAD because the
	// branch was checked out elsewhere; continue must move the branch ref
	// itself after the rebase finishes
	Detached bool `json:"detached,omitempty"`
	// PendingStashPop is set when --auto-stash stashed changes that still
	// need popping in WorktreeDir
	PendingStashPop bool `json:"pendingStashPop,omitempty"`
	// AutoStash carries the flag into the resumed work list
	AutoStash bool `json:"autoStash,omitempty"`
	// PushOnComplete makes the resumed operation push each branch it
	// restacks, for suspended cascades
	PushOnComplete bool `json:"pushOnComplete,omitempty"`
	// OpID names the halted operation's receipt, which abort undoes
	OpID string `json:"opId,omitempty"`
}

func continuePath(gitDir string) string {
	return filepath.Join(gitDir, ContinueFileName)
}

// GetContinuationState reads the continuation state from disk. Returns nil
// without error when no operation is suspended.
func GetContinuationState(gitDir string) (*ContinuationState, error) {
	data, err := os.ReadFile(continuePath(gitDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read continuation state: %w", err)
	}

	var state ContinuationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse continuation state: %w", err)
	}
	return &state, nil
}

// PersistContinuationState writes the continuation state to disk
func PersistContinuationState(gitDir string, state *ContinuationState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal continuation state: %w", err)
	}
	return os.WriteFile(continuePath(gitDir), data, 0600)
}

// ClearContinuationState removes the continuation state file. Clearing an
// absent file is not an error.
func ClearContinuationState(gitDir string) error {
	err := os.Remove(continuePath(gitDir))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear continuation state: %w", err)
	}
	return nil
}
