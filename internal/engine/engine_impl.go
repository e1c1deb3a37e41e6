package engine

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sort"
	"sync"
	"time"

	braiderrors "braid.dev/braid/internal/errors"
	"braid.dev/braid/internal/git"
)

// NewEngine builds the branch forest for one repository. The trunk name comes
// from the repo config; the store and runner are injected so tests can
// substitute their own. A nil store defaults to the ref-backed one, a nil
// runner to the real git runner, a nil log to slog.Default().
func NewEngine(repoRoot, trunk string, store MetadataStore, runner git.Runner, log *slog.Logger) (Engine, error) {
	if trunk == "" {
		return nil, fmt.Errorf("no trunk branch configured; run 'braid init' first")
	}
	if log == nil {
		log = slog.Default()
	}
	if runner == nil {
		runner = git.NewRealRunner()
	}
	if store == nil {
		store = git.NewMetadataStore(log)
	}

	e := &engineImpl{
		repoRoot: repoRoot,
		trunk:    trunk,
		store:    store,
		runner:   runner,
		log:      log,
	}

	currentBranch, err := runner.GetCurrentBranch()
	if err != nil {
		// Detached HEAD is fine, the engine just has no current branch
		currentBranch = ""
	}
	e.currentBranch = currentBranch

	if err := e.rebuild(); err != nil {
		return nil, err
	}
	if !e.branchSet[trunk] {
		return nil, fmt.Errorf("trunk branch %s does not exist: %w", trunk, braiderrors.ErrBranchNotFound)
	}

	return e, nil
}

// engineImpl holds the in-memory forest. parentMap carries the effective
// parent used for traversal, which is trunk for branches whose recorded
// parent no longer exists; metaMap carries the stored metadata untouched.
type engineImpl struct {
	repoRoot      string
	trunk         string
	currentBranch string

	store  MetadataStore
	runner git.Runner
	log    *slog.Logger

	branches       []string
	branchSet      map[string]bool
	parentMap      map[string]string    // branch -> effective parent
	childrenMap    map[string][]string  // branch -> children, sorted
	metaMap        map[string]*git.Meta // branch -> stored metadata
	missingParents map[string]string    // branch -> recorded parent that is gone
	remoteShas     map[string]string    // branch -> remote SHA (PopulateRemoteShas)

	mu sync.RWMutex
}

// rebuild loads all branches and their metadata from the repository
func (e *engineImpl) rebuild() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rebuildInternal(false)
}

// Rebuild reloads the forest and refreshes the current branch
func (e *engineImpl) Rebuild() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rebuildInternal(true)
}

// rebuildInternal is the load path; callers hold the write lock.
// refreshCurrentBranch re-reads the checkout, needed after operations that
// may have switched branches underneath the engine.
func (e *engineImpl) rebuildInternal(refreshCurrentBranch bool) error {
	branches, err := e.runner.GetAllBranchNames()
	if err != nil {
		return fmt.Errorf("failed to get branches: %w", err)
	}
	e.branches = branches
	e.branchSet = make(map[string]bool, len(branches))
	for _, name := range branches {
		e.branchSet[name] = true
	}

	if refreshCurrentBranch {
		currentBranch, err := e.runner.GetCurrentBranch()
		if err != nil {
			e.currentBranch = ""
		} else {
			e.currentBranch = currentBranch
		}
	}

	entries, err := e.store.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read branch metadata: %w", err)
	}

	e.parentMap = make(map[string]string)
	e.childrenMap = make(map[string][]string)
	e.metaMap = make(map[string]*git.Meta, len(entries))
	e.missingParents = make(map[string]string)

	for name, meta := range entries {
		if !e.branchSet[name] {
			// The branch was deleted outside braid. Prune the entry from the
			// forest and opportunistically drop the stored metadata.
			if err := e.store.Delete(name); err != nil {
				e.log.Warn("failed to prune metadata for deleted branch",
					"branch", name, "error", err)
			}
			continue
		}
		e.metaMap[name] = meta
		if name == e.trunk {
			if meta.ParentName() != "" {
				e.log.Debug("ignoring parent metadata on trunk", "parent", meta.ParentName())
			}
			continue
		}
		parent := meta.ParentName()
		if parent == "" {
			continue
		}
		if parent != e.trunk && !e.branchSet[parent] {
			// Recorded parent is gone. Traverse this branch as a child of
			// trunk but leave the stored metadata alone so the situation
			// stays visible.
			e.missingParents[name] = parent
			e.parentMap[name] = e.trunk
			e.childrenMap[e.trunk] = append(e.childrenMap[e.trunk], name)
			continue
		}
		e.parentMap[name] = parent
		e.childrenMap[parent] = append(e.childrenMap[parent], name)
	}

	// An existing but untracked branch can appear as a parent if metadata was
	// written by another clone. Hang it under trunk so its descendants stay
	// reachable in the forest.
	for parent := range e.childrenMap {
		if parent == e.trunk {
			continue
		}
		if _, tracked := e.parentMap[parent]; !tracked {
			e.childrenMap[e.trunk] = append(e.childrenMap[e.trunk], parent)
		}
	}

	// Sort children by name for deterministic traversal
	for _, children := range e.childrenMap {
		sort.Strings(children)
	}

	if chain := e.findCycle(); chain != nil {
		return braiderrors.NewCycleError(chain)
	}

	return nil
}

// findCycle walks every parent chain and returns the offending chain when a
// branch is revisited on the current path, nil when the forest is sound.
func (e *engineImpl) findCycle() []string {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(e.parentMap))

	starts := make([]string, 0, len(e.parentMap))
	for name := range e.parentMap {
		starts = append(starts, name)
	}
	sort.Strings(starts)

	for _, start := range starts {
		if color[start] != white {
			continue
		}
		var path []string
		node := start
		for node != e.trunk && color[node] != black {
			if color[node] == grey {
				// grey nodes are only ever on the current path
				for i, seen := range path {
					if seen == node {
						return append(path[i:], node)
					}
				}
			}
			color[node] = grey
			path = append(path, node)
			parent, ok := e.parentMap[node]
			if !ok {
				break
			}
			node = parent
		}
		for _, n := range path {
			color[n] = black
		}
	}
	return nil
}

// AllBranchNames returns every local branch, tracked or not
func (e *engineImpl) AllBranchNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, len(e.branches))
	copy(out, e.branches)
	return out
}

// CurrentBranch returns the checked-out branch, or "" on a detached HEAD
func (e *engineImpl) CurrentBranch() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.currentBranch
}

// Trunk returns the configured trunk branch
func (e *engineImpl) Trunk() string {
	return e.trunk
}

// RepoRoot returns the repository root the engine was built for
func (e *engineImpl) RepoRoot() string {
	return e.repoRoot
}

// IsTrunk reports whether the branch is the configured trunk
func (e *engineImpl) IsTrunk(branchName string) bool {
	return branchName == e.trunk
}

// IsBranchTracked reports whether the branch is part of the forest
func (e *engineImpl) IsBranchTracked(branchName string) bool {
	if branchName == e.trunk {
		return true
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.parentMap[branchName]
	return ok
}

// GetParent returns the effective parent used for traversal, "" for trunk and
// untracked branches
func (e *engineImpl) GetParent(branchName string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.parentMap[branchName]
}

// GetRecordedParent returns the parent as stored in metadata, even when that
// branch no longer exists locally
func (e *engineImpl) GetRecordedParent(branchName string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.metaMap[branchName].ParentName()
}

// GetParentRevision returns the parent tip recorded at the last sync
func (e *engineImpl) GetParentRevision(branchName string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.metaMap[branchName].ParentRevision()
}

// GetChildren returns the branch's children, sorted by name
func (e *engineImpl) GetChildren(branchName string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	children := e.childrenMap[branchName]
	out := make([]string, len(children))
	copy(out, children)
	return out
}

// GetPrInfo returns the stored pull request info, nil when none is recorded
func (e *engineImpl) GetPrInfo(branchName string) *git.PrInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	meta := e.metaMap[branchName]
	if meta == nil {
		return nil
	}
	return meta.PrInfo
}

// GetRestackStatus is the single source of truth for "does this branch need
// restacking": needs-restack iff the recorded parent tip differs from the
// parent's current tip. Trunk and untracked branches are always up to date.
func (e *engineImpl) GetRestackStatus(branchName string) RestackStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.restackStatusInternal(branchName)
}

func (e *engineImpl) restackStatusInternal(branchName string) RestackStatus {
	if branchName == e.trunk {
		return StatusUpToDate
	}
	if _, gone := e.missingParents[branchName]; gone {
		return StatusParentMissing
	}
	meta := e.metaMap[branchName]
	if meta == nil || meta.ParentName() == "" {
		return StatusUpToDate
	}
	parentTip, err := e.runner.GetRevision(meta.ParentName())
	if err != nil {
		return StatusNeedsRestack
	}
	if meta.ParentRevision() == parentTip {
		return StatusUpToDate
	}
	return StatusNeedsRestack
}

// Ancestors yields the chain from trunk down to, excluding, the branch.
// Ranging over it restarts from trunk each time.
func (e *engineImpl) Ancestors(branchName string) iter.Seq[string] {
	return func(yield func(string) bool) {
		e.mu.RLock()
		chain := e.ancestorChainInternal(branchName)
		e.mu.RUnlock()
		for _, name := range chain {
			if !yield(name) {
				return
			}
		}
	}
}

// ancestorChainInternal returns [trunk, ..., parent]; callers hold a lock
func (e *engineImpl) ancestorChainInternal(branchName string) []string {
	var chain []string
	node := branchName
	for node != e.trunk {
		parent, ok := e.parentMap[node]
		if !ok {
			break
		}
		chain = append(chain, parent)
		node = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Descendants yields every branch below the given one in pre-order, so a
// parent always appears before any of its children
func (e *engineImpl) Descendants(branchName string) iter.Seq[string] {
	return func(yield func(string) bool) {
		e.mu.RLock()
		order := e.descendantsInternal(branchName)
		e.mu.RUnlock()
		for _, name := range order {
			if !yield(name) {
				return
			}
		}
	}
}

// descendantsInternal returns the pre-order below a branch; callers hold a lock
func (e *engineImpl) descendantsInternal(branchName string) []string {
	var out []string
	var walk func(string)
	walk = func(name string) {
		for _, child := range e.childrenMap[name] {
			out = append(out, child)
			walk(child)
		}
	}
	walk(branchName)
	return out
}

// StackOf returns the branch's whole stack: the stack's root child of trunk
// followed by every descendant of that root, in pre-order. Returns nil for
// trunk, which belongs to every stack and none.
func (e *engineImpl) StackOf(branchName string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if branchName == e.trunk {
		return nil
	}
	root := branchName
	for {
		parent, ok := e.parentMap[root]
		if !ok || parent == e.trunk {
			break
		}
		root = parent
	}
	return append([]string{root}, e.descendantsInternal(root)...)
}

// GetRelativeStack returns the branches selected by the scope, ordered so
// every parent precedes its children. Trunk is never included.
func (e *engineImpl) GetRelativeStack(branchName string, scope Scope) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []string
	if scope.RecursiveParents {
		for _, name := range e.ancestorChainInternal(branchName) {
			if name == e.trunk {
				continue
			}
			out = append(out, name)
		}
	}
	if scope.IncludeCurrent && branchName != e.trunk {
		out = append(out, branchName)
	}
	if scope.RecursiveChildren {
		out = append(out, e.descendantsInternal(branchName)...)
	}
	return out
}

// BranchesDepthFirst yields branch and depth over the forest below start,
// start itself first at depth zero. An empty start begins at trunk.
func (e *engineImpl) BranchesDepthFirst(start string) iter.Seq2[string, int] {
	return func(yield func(string, int) bool) {
		type node struct {
			name  string
			depth int
		}
		e.mu.RLock()
		root := start
		if root == "" {
			root = e.trunk
		}
		var order []node
		var walk func(string, int)
		walk = func(name string, depth int) {
			order = append(order, node{name, depth})
			for _, child := range e.childrenMap[name] {
				walk(child, depth+1)
			}
		}
		walk(root, 0)
		e.mu.RUnlock()
		for _, n := range order {
			if !yield(n.name, n.depth) {
				return
			}
		}
	}
}

// SortBranchesTopologically orders the given branches so parents come before
// children. Branches outside the forest sort last, alphabetically.
func (e *engineImpl) SortBranchesTopologically(branchNames []string) []string {
	e.mu.RLock()
	index := make(map[string]int)
	pos := 0
	var walk func(string)
	walk = func(name string) {
		index[name] = pos
		pos++
		for _, child := range e.childrenMap[name] {
			walk(child)
		}
	}
	walk(e.trunk)
	e.mu.RUnlock()

	out := make([]string, len(branchNames))
	copy(out, branchNames)
	sort.SliceStable(out, func(i, j int) bool {
		ii, iKnown := index[out[i]]
		jj, jKnown := index[out[j]]
		if iKnown != jKnown {
			return iKnown
		}
		if !iKnown {
			return out[i] < out[j]
		}
		return ii < jj
	})
	return out
}

// GetRevision returns the current tip of a branch
func (e *engineImpl) GetRevision(branchName string) (string, error) {
	return e.runner.GetRevision(branchName)
}

// GetCommitDate returns the committer date of the branch tip
func (e *engineImpl) GetCommitDate(branchName string) (time.Time, error) {
	return e.runner.GetCommitDate(branchName)
}

// GetCommitAuthor returns the author of the branch tip
func (e *engineImpl) GetCommitAuthor(branchName string) (string, error) {
	return e.runner.GetCommitAuthor(branchName)
}

// IsMergedIntoTrunk reports whether every commit of the branch is already in
// trunk, counting squashed or rebased equivalents
func (e *engineImpl) IsMergedIntoTrunk(ctx context.Context, branchName string) (bool, error) {
	return e.runner.IsMerged(ctx, branchName, e.trunk)
}

// IsBranchEmpty reports whether the branch carries no changes of its own
// relative to its parent
func (e *engineImpl) IsBranchEmpty(ctx context.Context, branchName string) (bool, error) {
	e.mu.RLock()
	parent := e.parentMap[branchName]
	e.mu.RUnlock()
	if parent == "" {
		parent = e.trunk
	}
	base, err := e.runner.GetMergeBase(parent, branchName)
	if err != nil {
		return false, fmt.Errorf("failed to compute merge base of %s and %s: %w", parent, branchName, err)
	}
	return e.runner.IsDiffEmpty(ctx, branchName, base)
}

// linkInternal points a branch at a new parent in the in-memory maps,
// detaching it from its previous parent first. Callers hold the write lock
// and have already persisted the change.
func (e *engineImpl) linkInternal(branchName, parent string) {
	if old, ok := e.parentMap[branchName]; ok {
		e.childrenMap[old] = removeString(e.childrenMap[old], branchName)
	}
	e.parentMap[branchName] = parent
	e.childrenMap[parent] = insertSorted(e.childrenMap[parent], branchName)
	delete(e.missingParents, branchName)
}

// unlinkInternal removes a branch from the forest maps entirely
func (e *engineImpl) unlinkInternal(branchName string) {
	if old, ok := e.parentMap[branchName]; ok {
		e.childrenMap[old] = removeString(e.childrenMap[old], branchName)
	}
	delete(e.parentMap, branchName)
	delete(e.missingParents, branchName)
	delete(e.childrenMap, branchName)
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

func insertSorted(list []string, s string) []string {
	i := sort.SearchStrings(list, s)
	if i < len(list) && list[i] == s {
		return list
	}
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = s
	return list
}
