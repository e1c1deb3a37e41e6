// Package diffcache memoizes branch diffs for interactive browsing.
//
// Entries are keyed by the pair (parent tip, branch tip), so a rebase or new
// commit on either side misses naturally. The cache holds nothing else: no
// timestamps, no eviction, no persistence. Owners clear it wholesale whenever
// they reload the branch model.
package diffcache

import (
	"context"
	"fmt"
	"sync"

	"braid.dev/braid/internal/git"
)

type key struct {
	parentTip string
	branchTip string
}

// Entry is one cached diff: the unified diff text of a branch against its
// fork point plus line counts
type Entry struct {
	Diff    string
	Added   int
	Deleted int
}

// Cache memoizes diff computations. Safe for concurrent use; a concurrent
// miss on the same key may compute twice, the second result wins.
type Cache struct {
	mu      sync.Mutex
	entries map[key]*Entry
}

// New returns an empty cache
func New() *Cache {
	return &Cache{entries: make(map[key]*Entry)}
}

// GetOrCompute returns the cached entry for (parentTip, branchTip) or runs
// compute and caches its result. Errors are returned, never cached.
func (c *Cache) GetOrCompute(parentTip, branchTip string, compute func() (*Entry, error)) (*Entry, error) {
	k := key{parentTip: parentTip, branchTip: branchTip}

	c.mu.Lock()
	if entry, ok := c.entries[k]; ok {
		c.mu.Unlock()
		return entry, nil
	}
	c.mu.Unlock()

	// Compute without the lock held, it shells out to git
	entry, err := compute()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[k] = entry
	c.mu.Unlock()
	return entry, nil
}

// InvalidateAll drops every entry
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[key]*Entry)
	c.mu.Unlock()
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// ComputeEntry produces an Entry for a branch against its parent the standard
// way: diff from the merge base of the two tips to the branch tip
func ComputeEntry(ctx context.Context, runner git.Runner, parentTip, branchTip string) (*Entry, error) {
	base, err := runner.GetMergeBase(parentTip, branchTip)
	if err != nil {
		return nil, fmt.Errorf("failed to find merge base of %s and %s: %w", parentTip, branchTip, err)
	}

	diff, err := runner.ShowDiff(ctx, base, branchTip, false)
	if err != nil {
		return nil, err
	}
	added, deleted, err := runner.DiffStat(ctx, base, branchTip)
	if err != nil {
		return nil, err
	}

	return &Entry{Diff: diff, Added: added, Deleted: deleted}, nil
}
