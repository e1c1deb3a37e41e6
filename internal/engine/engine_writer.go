package engine

import (
	"context"
	"fmt"
	"strings"

	braiderrors "braid.dev/braid/internal/errors"
	"braid.dev/braid/internal/git"
)

// TrackBranch adds a branch to the forest under the given parent. An empty
// parent defaults to trunk. The initial recorded parent tip is the merge base
// of parent and branch, so a branch cut from an older parent tip correctly
// reports as needing restack.
func (e *engineImpl) TrackBranch(ctx context.Context, branchName string, parentBranchName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if branchName == e.trunk {
		return fmt.Errorf("cannot track trunk: %w", braiderrors.ErrTrunkOperation)
	}
	if parentBranchName == "" {
		parentBranchName = e.trunk
	}
	if branchName == parentBranchName {
		return fmt.Errorf("branch %s cannot be its own parent", branchName)
	}

	if !e.branchSet[branchName] {
		// The branch may have been created after the engine loaded
		if err := e.refreshBranchesInternal(); err != nil {
			return err
		}
		if !e.branchSet[branchName] {
			return fmt.Errorf("branch %s does not exist: %w", branchName, braiderrors.ErrBranchNotFound)
		}
	}
	if !e.branchSet[parentBranchName] {
		return fmt.Errorf("parent branch %s does not exist: %w", parentBranchName, braiderrors.ErrBranchNotFound)
	}
	if parentBranchName != e.trunk {
		if _, tracked := e.parentMap[parentBranchName]; !tracked {
			return fmt.Errorf("parent branch %s is not tracked: %w", parentBranchName, braiderrors.ErrBranchNotTracked)
		}
	}

	mergeBase, err := e.runner.GetMergeBase(parentBranchName, branchName)
	if err != nil {
		return fmt.Errorf("failed to compute merge base of %s and %s: %w", parentBranchName, branchName, err)
	}

	meta := e.metaMap[branchName]
	if meta == nil {
		meta = &git.Meta{}
	}
	meta.SetParent(parentBranchName, mergeBase)
	if err := e.store.Write(branchName, meta); err != nil {
		return fmt.Errorf("failed to write metadata for %s: %w", branchName, err)
	}
	e.metaMap[branchName] = meta
	e.linkInternal(branchName, parentBranchName)

	if current, err := e.runner.GetCurrentBranch(); err == nil {
		e.currentBranch = current
	}
	return nil
}

// UntrackBranch removes a branch from the forest, keeping the branch itself.
// Branches with tracked children must be re-parented or untracked first so
// the forest never holds an edge to an untracked parent.
func (e *engineImpl) UntrackBranch(branchName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if branchName == e.trunk {
		return fmt.Errorf("cannot untrack trunk: %w", braiderrors.ErrTrunkOperation)
	}
	if _, tracked := e.parentMap[branchName]; !tracked {
		return fmt.Errorf("branch %s is not tracked: %w", branchName, braiderrors.ErrBranchNotTracked)
	}
	if children := e.childrenMap[branchName]; len(children) > 0 {
		return fmt.Errorf("branch %s has tracked children (%s); re-parent or untrack them first",
			branchName, strings.Join(children, ", "))
	}

	// An explicit forget, so a failed delete is an error, unlike the
	// opportunistic pruning during load
	if err := e.store.Delete(branchName); err != nil {
		return fmt.Errorf("failed to delete metadata for %s: %w", branchName, err)
	}
	delete(e.metaMap, branchName)
	e.unlinkInternal(branchName)
	return nil
}

// SetParent moves a branch under a new parent. The recorded parent tip resets
// to the merge base with the new parent, so the branch reports as needing
// restack until it is actually rebased there.
func (e *engineImpl) SetParent(ctx context.Context, branchName string, parentBranchName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if branchName == e.trunk {
		return fmt.Errorf("cannot reparent trunk: %w", braiderrors.ErrTrunkOperation)
	}
	if _, tracked := e.parentMap[branchName]; !tracked {
		return fmt.Errorf("branch %s is not tracked: %w", branchName, braiderrors.ErrBranchNotTracked)
	}
	if parentBranchName == "" {
		parentBranchName = e.trunk
	}
	if branchName == parentBranchName {
		return fmt.Errorf("branch %s cannot be its own parent", branchName)
	}
	if !e.branchSet[parentBranchName] {
		return fmt.Errorf("parent branch %s does not exist: %w", parentBranchName, braiderrors.ErrBranchNotFound)
	}
	if parentBranchName != e.trunk {
		if _, tracked := e.parentMap[parentBranchName]; !tracked {
			return fmt.Errorf("parent branch %s is not tracked: %w", parentBranchName, braiderrors.ErrBranchNotTracked)
		}
	}
	for _, descendant := range e.descendantsInternal(branchName) {
		if descendant == parentBranchName {
			return fmt.Errorf("cannot set %s as parent of %s: it is a descendant of %s",
				parentBranchName, branchName, branchName)
		}
	}

	mergeBase, err := e.runner.GetMergeBase(parentBranchName, branchName)
	if err != nil {
		return fmt.Errorf("failed to compute merge base of %s and %s: %w", parentBranchName, branchName, err)
	}

	meta := e.metaMap[branchName]
	if meta == nil {
		meta = &git.Meta{}
	}
	meta.SetParent(parentBranchName, mergeBase)
	if err := e.store.Write(branchName, meta); err != nil {
		return fmt.Errorf("failed to write metadata for %s: %w", branchName, err)
	}
	e.metaMap[branchName] = meta
	e.linkInternal(branchName, parentBranchName)
	return nil
}

// DeleteBranch deletes a branch and re-points its children at the deleted
// branch's parent. Each child's recorded parent tip resets to the merge base
// with the new parent so the children correctly report as needing restack.
func (e *engineImpl) DeleteBranch(ctx context.Context, branchName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if branchName == e.trunk {
		return fmt.Errorf("cannot delete trunk: %w", braiderrors.ErrTrunkOperation)
	}
	if !e.branchSet[branchName] {
		return braiderrors.NewBranchNotFoundError(branchName)
	}
	if branchName == e.currentBranch {
		return fmt.Errorf("cannot delete the checked-out branch %s; checkout another branch first", branchName)
	}

	newParent := e.parentMap[branchName]
	if newParent == "" {
		newParent = e.trunk
	}

	// Re-point children before the branch goes away so their metadata never
	// names a missing parent
	children := make([]string, len(e.childrenMap[branchName]))
	copy(children, e.childrenMap[branchName])
	for _, child := range children {
		mergeBase, err := e.runner.GetMergeBase(newParent, child)
		if err != nil {
			return fmt.Errorf("failed to compute merge base of %s and %s: %w", newParent, child, err)
		}
		meta := e.metaMap[child]
		if meta == nil {
			meta = &git.Meta{}
		}
		meta.SetParent(newParent, mergeBase)
		if err := e.store.Write(child, meta); err != nil {
			return fmt.Errorf("failed to write metadata for %s: %w", child, err)
		}
		e.metaMap[child] = meta
		e.linkInternal(child, newParent)
	}

	if err := e.runner.DeleteBranch(ctx, branchName); err != nil {
		return err
	}
	if err := e.store.Delete(branchName); err != nil {
		return fmt.Errorf("failed to delete metadata for %s: %w", branchName, err)
	}
	delete(e.metaMap, branchName)
	e.unlinkInternal(branchName)
	e.branches = removeString(e.branches, branchName)
	delete(e.branchSet, branchName)
	return nil
}

// RenameBranch renames a branch and moves its metadata ref along, re-pointing
// every child at the new name. Recorded parent tips are untouched since a
// rename moves no commits.
func (e *engineImpl) RenameBranch(ctx context.Context, oldName, newName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if oldName == e.trunk {
		return fmt.Errorf("cannot rename trunk: %w", braiderrors.ErrTrunkOperation)
	}
	if !e.branchSet[oldName] {
		return braiderrors.NewBranchNotFoundError(oldName)
	}
	if e.branchSet[newName] {
		return fmt.Errorf("branch %s already exists", newName)
	}

	if err := e.runner.RenameBranch(ctx, oldName, newName); err != nil {
		return err
	}

	if meta, tracked := e.metaMap[oldName]; tracked {
		if err := e.store.Write(newName, meta); err != nil {
			return fmt.Errorf("failed to write metadata for %s: %w", newName, err)
		}
		if err := e.store.Delete(oldName); err != nil {
			// The rename itself landed; the stale entry gets pruned on the
			// next load
			e.log.Warn("failed to delete metadata for renamed branch",
				"branch", oldName, "error", err)
		}
		e.metaMap[newName] = meta
		delete(e.metaMap, oldName)
	}

	for _, child := range e.childrenMap[oldName] {
		meta := e.metaMap[child]
		if meta == nil {
			meta = &git.Meta{}
		}
		meta.ParentBranchName = &newName
		if err := e.store.Write(child, meta); err != nil {
			return fmt.Errorf("failed to write metadata for %s: %w", child, err)
		}
		e.metaMap[child] = meta
		e.parentMap[child] = newName
	}
	e.childrenMap[newName] = e.childrenMap[oldName]
	delete(e.childrenMap, oldName)

	if parent, tracked := e.parentMap[oldName]; tracked {
		e.childrenMap[parent] = removeString(e.childrenMap[parent], oldName)
		e.childrenMap[parent] = insertSorted(e.childrenMap[parent], newName)
		e.parentMap[newName] = parent
		delete(e.parentMap, oldName)
	}
	if gone, ok := e.missingParents[oldName]; ok {
		e.missingParents[newName] = gone
		delete(e.missingParents, oldName)
	}

	e.branches = removeString(e.branches, oldName)
	e.branches = append(e.branches, newName)
	delete(e.branchSet, oldName)
	e.branchSet[newName] = true
	if e.currentBranch == oldName {
		e.currentBranch = newName
	}
	return nil
}

// UpsertPrInfo records pull request bookkeeping for a branch, merging it into
// whatever metadata already exists
func (e *engineImpl) UpsertPrInfo(branchName string, prInfo *git.PrInfo) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	meta := e.metaMap[branchName]
	if meta == nil {
		meta = &git.Meta{}
	}
	meta.PrInfo = prInfo
	if err := e.store.Write(branchName, meta); err != nil {
		return fmt.Errorf("failed to write metadata for %s: %w", branchName, err)
	}
	e.metaMap[branchName] = meta
	return nil
}

// refreshBranchesInternal re-reads the local branch list; callers hold the
// write lock
func (e *engineImpl) refreshBranchesInternal() error {
	branches, err := e.runner.GetAllBranchNames()
	if err != nil {
		return fmt.Errorf("failed to get branches: %w", err)
	}
	e.branches = branches
	e.branchSet = make(map[string]bool, len(branches))
	for _, name := range branches {
		e.branchSet[name] = true
	}
	return nil
}
