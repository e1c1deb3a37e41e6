package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	braiderrors "braid.dev/braid/internal/errors"
)

// RebaseStatus classifies how a rebase attempt ended
type RebaseStatus int

const (
	// RebaseDone indicates the rebase was successful
	RebaseDone RebaseStatus = iota
	// RebaseConflict indicates a conflict occurred and on-disk rebase state was left behind
	RebaseConflict
)

// RebaseOptions describes a single branch rebase
type RebaseOptions struct {
	// BranchName is the branch being rebased
	BranchName string
	// Onto is the revision (or branch) the commits are replayed onto
	Onto string
	// From is the old base revision; commits after it belong to the branch
	From string
	// AutoStash stashes a dirty target worktree before rebasing and pops after
	AutoStash bool
}

// RebaseResult describes the outcome of a rebase attempt
type RebaseResult struct {
	Status RebaseStatus
	// WorktreeDir is the directory the rebase executed in. Empty means the
	// invoking worktree.
	WorktreeDir string
	// Detached is true when the rebase ran on a detached HEAD, so the branch
	// ref must be moved manually once the rebase completes.
	Detached bool
	// PendingStash is true when an auto-stash entry was pushed and could not
	// be popped because the rebase stopped on a conflict.
	PendingStash bool
	// StashPopConflict is true when the rebase succeeded but popping the
	// auto-stash conflicted. The stash entry is preserved.
	StashPopConflict bool
}

// Rebase replays a branch onto a new base. When the branch is checked out in
// another worktree the rebase executes inside that worktree, since its ref
// cannot be moved from here without git refusing with "already used by
// worktree". Otherwise the rebase runs detached in the invoking worktree and
// the branch ref is updated afterwards, leaving the current checkout alone.
func Rebase(ctx context.Context, opts RebaseOptions) (RebaseResult, error) {
	result := RebaseResult{Status: RebaseConflict}

	wt, err := WorktreeForBranch(ctx, opts.BranchName)
	if err != nil {
		return result, err
	}

	hereRoot, err := GetRepoRoot()
	if err != nil {
		hereRoot = GetWorkingDir()
	}

	if wt != nil && !SamePath(wt.Path, hereRoot) {
		return rebaseInWorktree(ctx, opts, wt.Path)
	}
	return rebaseDetached(ctx, opts, hereRoot)
}

// rebaseInWorktree rebases a branch inside the worktree that has it checked out
func rebaseInWorktree(ctx context.Context, opts RebaseOptions, dir string) (RebaseResult, error) {
	result := RebaseResult{Status: RebaseConflict, WorktreeDir: dir}

	dirty, err := IsWorktreeDirty(ctx, dir)
	if err != nil {
		return result, err
	}

	stashed := false
	if dirty {
		if !opts.AutoStash {
			return result, braiderrors.NewDirtyWorktreeError(opts.BranchName, dir)
		}
		if _, err := StashPush(ctx, dir, fmt.Sprintf("braid: restack %s", opts.BranchName)); err != nil {
			return result, err
		}
		stashed = true
	}

	_, err = RunGitCommandInDirWithContext(ctx, dir, "rebase", "--onto", opts.Onto, opts.From, opts.BranchName)
	if err != nil {
		if IsRebaseInProgressIn(ctx, dir) {
			result.PendingStash = stashed
			return result, nil
		}
		_, _ = RunGitCommandInDirWithContext(ctx, dir, "rebase", "--abort")
		if stashed {
			_ = StashPop(ctx, dir)
		}
		return result, fmt.Errorf("failed to rebase %s in %s: %w", opts.BranchName, dir, err)
	}

	result.Status = RebaseDone
	if stashed {
		if err := StashPop(ctx, dir); err != nil {
			// pop conflicted; git keeps the entry, the user resolves by hand
			result.StashPopConflict = true
		}
	}
	return result, nil
}

// rebaseDetached rebases a branch in the invoking worktree on a detached
// HEAD, then moves the branch ref and restores the original checkout
func rebaseDetached(ctx context.Context, opts RebaseOptions, dir string) (RebaseResult, error) {
	result := RebaseResult{Status: RebaseConflict, Detached: true}

	dirty, err := IsWorktreeDirty(ctx, dir)
	if err != nil {
		return result, err
	}

	stashed := false
	if dirty {
		if !opts.AutoStash {
			return result, braiderrors.NewDirtyWorktreeError(opts.BranchName, dir)
		}
		if _, err := StashPush(ctx, dir, fmt.Sprintf("braid: restack %s", opts.BranchName)); err != nil {
			return result, err
		}
		stashed = true
	}

	// Save current branch or detached revision so it can be restored
	currentBranch, err := GetCurrentBranch()
	var currentRev string
	if err != nil {
		currentBranch = ""
		currentRev, _ = RunGitCommandWithContext(ctx, "rev-parse", "HEAD")
	}

	branchRev, err := RunGitCommandWithContext(ctx, "rev-parse", opts.BranchName)
	if err != nil {
		return result, fmt.Errorf("failed to get revision for %s: %w", opts.BranchName, err)
	}

	// git rebase --onto <onto> <from> <sha> detaches HEAD at the rebased tip
	_, err = RunGitCommandWithContext(ctx, "rebase", "--onto", opts.Onto, opts.From, branchRev)
	if err != nil {
		if IsRebaseInProgress(ctx) {
			result.PendingStash = stashed
			return result, nil
		}
		_, _ = RunGitCommandWithContext(ctx, "rebase", "--abort")
		if currentBranch != "" {
			_ = CheckoutBranch(ctx, currentBranch)
		} else if currentRev != "" {
			_ = CheckoutDetached(ctx, currentRev)
		}
		if stashed {
			_ = StashPop(ctx, dir)
		}
		return result, fmt.Errorf("failed to rebase %s: %w", opts.BranchName, err)
	}

	newRev, err := RunGitCommandWithContext(ctx, "rev-parse", "HEAD")
	if err != nil {
		return result, fmt.Errorf("failed to get new revision after rebase: %w", err)
	}

	if err := UpdateBranchRef(opts.BranchName, newRev); err != nil {
		return result, fmt.Errorf("failed to update branch reference %s: %w", opts.BranchName, err)
	}

	// Restore original state
	if currentBranch != "" {
		if err := CheckoutBranch(ctx, currentBranch); err != nil {
			_ = CheckoutDetached(ctx, currentBranch)
		}
	} else if currentRev != "" {
		_ = CheckoutDetached(ctx, currentRev)
	}

	result.Status = RebaseDone
	if stashed {
		if err := StashPop(ctx, dir); err != nil {
			result.StashPopConflict = true
		}
	}
	return result, nil
}

// IsRebaseInProgress checks if a rebase is in progress in the invoking worktree
func IsRebaseInProgress(ctx context.Context) bool {
	return IsRebaseInProgressIn(ctx, "")
}

// IsRebaseInProgressIn checks if a rebase is in progress in the given
// worktree directory. An empty dir means the invoking worktree.
func IsRebaseInProgressIn(ctx context.Context, dir string) bool {
	// .git/rebase-merge and .git/rebase-apply are more reliable than
	// REBASE_HEAD, which can persist after a rebase finishes
	var gitDir string
	var err error
	if dir == "" {
		gitDir, err = RunGitCommandWithContext(ctx, "rev-parse", "--absolute-git-dir")
	} else {
		gitDir, err = RunGitCommandInDirWithContext(ctx, dir, "rev-parse", "--absolute-git-dir")
	}
	if err != nil {
		return false
	}

	if _, err := os.Stat(filepath.Join(gitDir, "rebase-merge")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(gitDir, "rebase-apply")); err == nil {
		return true
	}
	return false
}

// IsMergeInProgress checks if a merge is in progress in the invoking worktree
func IsMergeInProgress(ctx context.Context) bool {
	gitDir, err := RunGitCommandWithContext(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(gitDir, "MERGE_HEAD"))
	return err == nil
}

// MergeAbort aborts an in-progress merge
func MergeAbort(ctx context.Context) error {
	_, err := RunGitCommandWithContext(ctx, "merge", "--abort")
	if err != nil {
		return fmt.Errorf("merge abort failed: %w", err)
	}
	return nil
}

// RebaseContinue continues an in-progress rebase in the invoking worktree
func RebaseContinue(ctx context.Context) (RebaseResult, error) {
	return RebaseContinueIn(ctx, "")
}

// RebaseContinueIn continues an in-progress rebase in the given worktree
// directory. core.editor is disabled so the continuation never opens an
// editor for the replayed commit messages.
func RebaseContinueIn(ctx context.Context, dir string) (RebaseResult, error) {
	result := RebaseResult{Status: RebaseConflict, WorktreeDir: dir}

	var err error
	if dir == "" {
		_, err = RunGitCommandWithContext(ctx, "-c", "core.editor=true", "rebase", "--continue")
	} else {
		_, err = RunGitCommandInDirWithContext(ctx, dir, "-c", "core.editor=true", "rebase", "--continue")
	}
	if err != nil {
		// Another conflict further along the same rebase
		if IsRebaseInProgressIn(ctx, dir) {
			return result, nil
		}
		return result, fmt.Errorf("rebase continue failed: %w", err)
	}

	result.Status = RebaseDone
	return result, nil
}

// RebaseAbort aborts an in-progress rebase in the invoking worktree
func RebaseAbort(ctx context.Context) error {
	return RebaseAbortIn(ctx, "")
}

// RebaseAbortIn aborts an in-progress rebase in the given worktree directory
func RebaseAbortIn(ctx context.Context, dir string) error {
	var err error
	if dir == "" {
		_, err = RunGitCommandWithContext(ctx, "rebase", "--abort")
	} else {
		_, err = RunGitCommandInDirWithContext(ctx, dir, "rebase", "--abort")
	}
	if err != nil {
		return fmt.Errorf("rebase abort failed: %w", err)
	}
	return nil
}

// GetRebaseHead returns the commit being rebased (REBASE_HEAD)
func GetRebaseHead() (string, error) {
	repo, err := GetDefaultRepo()
	if err != nil {
		return "", err
	}

	for _, refName := range []string{
		"refs/rebase-merge/head",
		"refs/rebase-apply/head",
		"REBASE_HEAD",
	} {
		ref, err := repo.GetReference(refName)
		if err == nil {
			return ref.Hash().String(), nil
		}
	}

	return "", fmt.Errorf("rebase head not found")
}
