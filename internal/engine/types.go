package engine

// Scope specifies the scope for stack operations
type Scope struct {
	RecursiveParents  bool
	IncludeCurrent    bool
	RecursiveChildren bool
}

// RestackStatus classifies a branch against its recorded parent tip
type RestackStatus int

const (
	// StatusUpToDate indicates the recorded parent tip matches the parent's current tip
	StatusUpToDate RestackStatus = iota
	// StatusNeedsRestack indicates the parent has moved since the last sync
	StatusNeedsRestack
	// StatusParentMissing indicates the recorded parent branch no longer exists locally
	StatusParentMissing
)

func (s RestackStatus) String() string {
	switch s {
	case StatusUpToDate:
		return "up to date"
	case StatusNeedsRestack:
		return "needs restack"
	case StatusParentMissing:
		return "parent missing"
	default:
		return "unknown"
	}
}

// RestackResult represents the result of restacking a branch
type RestackResult int

const (
	// RestackDone indicates the restack was successful
	RestackDone RestackResult = iota
	// RestackUnneeded indicates no restack was needed
	RestackUnneeded
	// RestackConflict indicates a conflict occurred during restack
	RestackConflict
)

// RestackBranchResult describes the outcome of restacking a single branch.
// RebasedBranchBase is the parent tip the branch was replayed onto; on
// conflict it is recorded in the continuation state so the metadata can be
// updated once the rebase completes.
type RestackBranchResult struct {
	Result            RestackResult
	RebasedBranchBase string
	// WorktreeDir is the directory the rebase ran in ("" = the invoking
	// worktree). A conflicted rebase must be continued or aborted there.
	WorktreeDir string
	// Detached is true when the rebase ran on a detached HEAD, so the branch
	// ref still has to be moved once the rebase completes.
	Detached bool
	// PendingStashPop is true when an auto-stash entry is still waiting to be
	// popped after the conflicted rebase finishes.
	PendingStashPop bool
	// StashPopConflict is true when the rebase succeeded but popping the
	// auto-stash conflicted. The stash entry is preserved.
	StashPopConflict bool
}

// ContinueOptions carries the persisted state needed to resume a suspended rebase
type ContinueOptions struct {
	// BranchName is the branch whose rebase stopped on a conflict
	BranchName string
	// RebasedBranchBase is the parent tip recorded once the rebase lands
	RebasedBranchBase string
	// WorktreeDir is the directory the rebase is suspended in ("" = here)
	WorktreeDir string
	// Detached is true when the rebase ran detached and the branch ref must
	// be moved manually on completion
	Detached bool
}

// ContinueRebaseResult represents the result of continuing a rebase
type ContinueRebaseResult struct {
	Result RestackResult
	// BranchName is the branch whose rebase completed (set when Result is RestackDone)
	BranchName string
}
