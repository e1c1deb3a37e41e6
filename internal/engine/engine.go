package engine

import (
	"context"
	"iter"
	"time"

	"braid.dev/braid/internal/git"
)

// BranchReader provides read-only access to the branch forest.
// Thread-safe: all methods are safe for concurrent use.
type BranchReader interface {
	// State queries
	AllBranchNames() []string
	CurrentBranch() string
	Trunk() string
	RepoRoot() string
	IsTrunk(branchName string) bool
	IsBranchTracked(branchName string) bool
	GetParent(branchName string) string         // effective parent used for traversal ("" if none)
	GetRecordedParent(branchName string) string // parent as stored in metadata, even if gone
	GetParentRevision(branchName string) string // parent tip recorded at last sync ("" if none)
	GetChildren(branchName string) []string
	GetPrInfo(branchName string) *git.PrInfo

	// The restack predicate. Every consumer of "does this branch need
	// restacking" goes through here, never reimplements the comparison.
	GetRestackStatus(branchName string) RestackStatus

	// Traversal
	Ancestors(branchName string) iter.Seq[string]   // trunk down to, excluding, the branch
	Descendants(branchName string) iter.Seq[string] // pre-order, excluding the branch
	StackOf(branchName string) []string             // the branch's whole trunk-rooted stack
	GetRelativeStack(branchName string, scope Scope) []string
	BranchesDepthFirst(start string) iter.Seq2[string, int] // branch, depth; "" starts at trunk
	SortBranchesTopologically(branchNames []string) []string

	// Commit information
	GetRevision(branchName string) (string, error)
	GetCommitDate(branchName string) (time.Time, error)
	GetCommitAuthor(branchName string) (string, error)

	// Comparisons against trunk and parent
	IsMergedIntoTrunk(ctx context.Context, branchName string) (bool, error)
	IsBranchEmpty(ctx context.Context, branchName string) (bool, error)
}

// BranchWriter provides write operations for branch management.
// Every mutation persists through the metadata store before the in-memory
// forest is updated.
type BranchWriter interface {
	TrackBranch(ctx context.Context, branchName string, parentBranchName string) error
	UntrackBranch(branchName string) error
	SetParent(ctx context.Context, branchName string, parentBranchName string) error
	DeleteBranch(ctx context.Context, branchName string) error
	RenameBranch(ctx context.Context, oldName, newName string) error

	// Rebuild reloads the forest from the repository, refreshing the current
	// branch. Used after operations that move branches underneath the engine.
	Rebuild() error
}

// PRManager stores pull request bookkeeping alongside the stack metadata
type PRManager interface {
	UpsertPrInfo(branchName string, prInfo *git.PrInfo) error
}

// SyncManager provides operations for syncing and restacking branches
type SyncManager interface {
	// Remote state
	PopulateRemoteShas() error
	BranchMatchesRemote(branchName string) (bool, error)

	// Trunk updates
	PullTrunk(ctx context.Context) (git.PullResult, error)
	ResetTrunkToRemote(ctx context.Context) error

	// Restacking
	RestackBranch(ctx context.Context, branchName string, autoStash bool) (RestackBranchResult, error)
	ContinueRebase(ctx context.Context, opts ContinueOptions) (ContinueRebaseResult, error)
}

// Engine is the core interface for branch state management.
// Thread-safe: all methods are safe for concurrent use.
type Engine interface {
	BranchReader
	BranchWriter
	PRManager
	SyncManager
}

// FindCommonlyNamedTrunk returns the first conventionally named trunk branch
// present in the list, or "" when none matches. Used by init when the remote
// HEAD gives no answer.
func FindCommonlyNamedTrunk(branchNames []string) string {
	for _, candidate := range []string{"main", "master", "trunk", "develop"} {
		for _, name := range branchNames {
			if name == candidate {
				return candidate
			}
		}
	}
	return ""
}
