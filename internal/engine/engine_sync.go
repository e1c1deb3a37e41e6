package engine

import (
	"context"
	"fmt"

	braiderrors "braid.dev/braid/internal/errors"
	"braid.dev/braid/internal/git"
)

// PopulateRemoteShas caches the remote tracking tips for every branch. It
// reads the local refs/remotes namespace, so callers fetch first when they
// need fresh data.
func (e *engineImpl) PopulateRemoteShas() error {
	remote := e.runner.GetRemote()
	shas, err := e.runner.FetchRemoteShas(remote)
	if err != nil {
		return fmt.Errorf("failed to read remote refs: %w", err)
	}
	e.mu.Lock()
	e.remoteShas = shas
	e.mu.Unlock()
	return nil
}

// BranchMatchesRemote reports whether the branch tip equals its cached remote
// tip. A branch that was never pushed does not match.
func (e *engineImpl) BranchMatchesRemote(branchName string) (bool, error) {
	e.mu.RLock()
	remoteSha, ok := e.remoteShas[branchName]
	e.mu.RUnlock()
	if !ok {
		return false, nil
	}
	local, err := e.runner.GetRevision(branchName)
	if err != nil {
		return false, err
	}
	return local == remoteSha, nil
}

// PullTrunk fast-forwards trunk to its remote tip. Trunk checked out in
// another worktree is updated there; trunk not checked out anywhere is moved
// by a plain ref update. A trunk that has diverged reports PullConflict
// without being touched.
func (e *engineImpl) PullTrunk(ctx context.Context) (git.PullResult, error) {
	remote := e.runner.GetRemote()
	result, err := e.runner.PullBranch(ctx, remote, e.trunk)
	if err != nil {
		return result, err
	}
	if result == git.PullDone {
		e.mu.Lock()
		err = e.rebuildInternal(false)
		e.mu.Unlock()
		if err != nil {
			return result, fmt.Errorf("failed to rebuild after pull: %w", err)
		}
	}
	return result, nil
}

// ResetTrunkToRemote discards local trunk commits and moves trunk to the
// remote tip. Only called when the user explicitly forces it.
func (e *engineImpl) ResetTrunkToRemote(ctx context.Context) error {
	remote := e.runner.GetRemote()
	remoteSha, err := e.runner.GetRemoteSha(remote, e.trunk)
	if err != nil {
		return fmt.Errorf("failed to get remote tip of %s: %w", e.trunk, err)
	}
	if err := e.runner.ResetBranchTo(ctx, e.trunk, remoteSha, "braid sync: reset to remote"); err != nil {
		return fmt.Errorf("failed to reset %s to %s: %w", e.trunk, remoteSha, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rebuildInternal(false)
}

// RestackBranch rebases one branch onto its parent's current tip. The commits
// replayed are the ones after the recorded parent tip, so commits the parent
// gained and then dropped are never duplicated. On conflict the on-disk
// rebase state is left for continue/abort and the returned result carries
// everything the continuation state needs.
func (e *engineImpl) RestackBranch(ctx context.Context, branchName string, autoStash bool) (RestackBranchResult, error) {
	e.mu.RLock()
	if branchName == e.trunk {
		e.mu.RUnlock()
		return RestackBranchResult{Result: RestackUnneeded}, nil
	}
	meta := e.metaMap[branchName]
	parent, tracked := e.parentMap[branchName]
	missingParent, parentGone := e.missingParents[branchName]
	e.mu.RUnlock()

	if !tracked || meta == nil || meta.ParentName() == "" {
		return RestackBranchResult{}, fmt.Errorf("branch %s is not tracked: %w", branchName, braiderrors.ErrBranchNotTracked)
	}
	if parentGone {
		return RestackBranchResult{}, braiderrors.NewParentMissingError(branchName, missingParent)
	}

	parentTip, err := e.runner.GetRevision(parent)
	if err != nil {
		return RestackBranchResult{}, fmt.Errorf("failed to resolve parent %s: %w", parent, err)
	}
	// Re-check the predicate against the live tip; earlier branches in the
	// same run may just have moved it
	if meta.ParentRevision() == parentTip {
		return RestackBranchResult{Result: RestackUnneeded}, nil
	}

	from := meta.ParentRevision()
	if from == "" {
		from, err = e.runner.GetMergeBase(parent, branchName)
		if err != nil {
			return RestackBranchResult{}, fmt.Errorf("failed to compute merge base of %s and %s: %w", parent, branchName, err)
		}
	}

	rebase, err := e.runner.Rebase(ctx, git.RebaseOptions{
		BranchName: branchName,
		Onto:       parentTip,
		From:       from,
		AutoStash:  autoStash,
	})
	if err != nil {
		return RestackBranchResult{}, err
	}

	result := RestackBranchResult{
		RebasedBranchBase: parentTip,
		WorktreeDir:       rebase.WorktreeDir,
		Detached:          rebase.Detached,
		PendingStashPop:   rebase.PendingStash,
		StashPopConflict:  rebase.StashPopConflict,
	}
	if rebase.Status == git.RebaseConflict {
		result.Result = RestackConflict
		return result, nil
	}

	result.Result = RestackDone
	if err := e.recordParentRevision(branchName, parent, parentTip); err != nil {
		return result, err
	}
	return result, nil
}

// ContinueRebase resumes a conflicted rebase after the user staged their
// resolution. On completion the branch ref is moved if the rebase ran
// detached, and the branch's recorded parent tip advances to the base it was
// rebased onto. Another conflict in a later commit reports RestackConflict
// again with the same options still valid.
func (e *engineImpl) ContinueRebase(ctx context.Context, opts ContinueOptions) (ContinueRebaseResult, error) {
	if !e.runner.IsRebaseInProgressIn(ctx, opts.WorktreeDir) {
		return ContinueRebaseResult{}, braiderrors.ErrRebaseNotInProgress
	}

	rebase, err := e.runner.RebaseContinueIn(ctx, opts.WorktreeDir)
	if err != nil {
		return ContinueRebaseResult{}, err
	}
	if rebase.Status == git.RebaseConflict {
		return ContinueRebaseResult{Result: RestackConflict}, nil
	}

	branchName := opts.BranchName
	if opts.Detached {
		head, err := e.runner.GetRevision("HEAD")
		if err != nil {
			return ContinueRebaseResult{}, fmt.Errorf("failed to resolve rebased tip: %w", err)
		}
		if err := e.runner.UpdateBranchRefWithReason(branchName, head, "braid continue: restack "+branchName); err != nil {
			return ContinueRebaseResult{}, fmt.Errorf("failed to move %s to rebased tip: %w", branchName, err)
		}
	}

	e.mu.RLock()
	parent := e.metaMap[branchName].ParentName()
	e.mu.RUnlock()
	if parent == "" {
		parent = e.trunk
	}
	if err := e.recordParentRevision(branchName, parent, opts.RebasedBranchBase); err != nil {
		return ContinueRebaseResult{}, err
	}

	return ContinueRebaseResult{Result: RestackDone, BranchName: branchName}, nil
}

// recordParentRevision persists a fresh parent tip after a successful rebase
func (e *engineImpl) recordParentRevision(branchName, parent, revision string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	meta := e.metaMap[branchName]
	if meta == nil {
		meta = &git.Meta{}
	}
	meta.SetParent(parent, revision)
	if err := e.store.Write(branchName, meta); err != nil {
		return fmt.Errorf("failed to record parent revision for %s: %w", branchName, err)
	}
	e.metaMap[branchName] = meta
	return nil
}
