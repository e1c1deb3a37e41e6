package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Worktree describes one entry of `git worktree list`
type Worktree struct {
	// Path is the worktree's root directory
	Path string
	// Head is the commit currently checked out
	Head string
	// Branch is the checked-out branch name, empty when detached or bare
	Branch string
	// Detached is true for a detached HEAD checkout
	Detached bool
	// Bare is true for the bare repository entry
	Bare bool
}

// AddWorktree adds a new worktree at the specified path with the given
// branch checked out
func AddWorktree(ctx context.Context, path string, branch string) error {
	args := []string{"worktree", "add", path}
	if branch != "" {
		args = append(args, branch)
	}

	_, err := RunGitCommandWithContext(ctx, args...)
	if err != nil {
		return fmt.Errorf("failed to add worktree at %s: %w", path, err)
	}
	return nil
}

// RemoveWorktree removes the worktree at the specified path
func RemoveWorktree(ctx context.Context, path string) error {
	_, err := RunGitCommandWithContext(ctx, "worktree", "remove", "--force", path)
	if err != nil {
		return fmt.Errorf("failed to remove worktree at %s: %w", path, err)
	}
	return nil
}

// ListWorktrees returns all worktrees of the repository, parsed from the
// porcelain listing. Entries are blank-line separated blocks of
// "key value" lines.
func ListWorktrees(ctx context.Context) ([]Worktree, error) {
	output, err := RunGitCommandRawWithContext(ctx, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("failed to list worktrees: %w", err)
	}

	var worktrees []Worktree
	var current *Worktree
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, "worktree "):
			if current != nil {
				worktrees = append(worktrees, *current)
			}
			current = &Worktree{Path: strings.TrimPrefix(line, "worktree ")}
		case current == nil:
			continue
		case strings.HasPrefix(line, "HEAD "):
			current.Head = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			ref := strings.TrimPrefix(line, "branch ")
			current.Branch = strings.TrimPrefix(ref, "refs/heads/")
		case line == "detached":
			current.Detached = true
		case line == "bare":
			current.Bare = true
		}
	}
	if current != nil {
		worktrees = append(worktrees, *current)
	}
	return worktrees, nil
}

// WorktreeForBranch returns the worktree that has the given branch checked
// out, or nil if no worktree does
func WorktreeForBranch(ctx context.Context, branchName string) (*Worktree, error) {
	worktrees, err := ListWorktrees(ctx)
	if err != nil {
		return nil, err
	}
	for i := range worktrees {
		if worktrees[i].Branch == branchName {
			return &worktrees[i], nil
		}
	}
	return nil, nil
}

// IsWorktreeDirty reports whether the worktree at dir has staged, unstaged
// or untracked changes. An empty dir means the invoking worktree.
func IsWorktreeDirty(ctx context.Context, dir string) (bool, error) {
	var output string
	var err error
	if dir == "" {
		output, err = RunGitCommandWithContext(ctx, "status", "--porcelain")
	} else {
		output, err = RunGitCommandInDirWithContext(ctx, dir, "status", "--porcelain")
	}
	if err != nil {
		return false, fmt.Errorf("failed to check worktree status: %w", err)
	}
	return strings.TrimSpace(output) != "", nil
}

// SamePath reports whether two directory paths refer to the same location,
// resolving symlinks so temp dirs on systems like macOS compare equal
func SamePath(a, b string) bool {
	if a == b {
		return true
	}
	ra, errA := filepath.EvalSymlinks(a)
	rb, errB := filepath.EvalSymlinks(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return filepath.Clean(ra) == filepath.Clean(rb)
}
