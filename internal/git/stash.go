package git

import (
	"context"
	"fmt"
)

// StashPush stashes working tree changes (including untracked files) in the
// worktree at dir. An empty dir means the invoking worktree.
func StashPush(ctx context.Context, dir, message string) (string, error) {
	args := []string{"stash", "push", "-u"}
	if message != "" {
		args = append(args, "-m", message)
	}

	var output string
	var err error
	if dir == "" {
		output, err = RunGitCommandWithContext(ctx, args...)
	} else {
		output, err = RunGitCommandInDirWithContext(ctx, dir, args...)
	}
	if err != nil {
		return "", fmt.Errorf("stash push failed: %w", err)
	}
	return output, nil
}

// StashPop pops the most recent stash in the worktree at dir. When the pop
// conflicts git keeps the stash entry; the returned error reports the
// conflict and the entry stays recoverable via `git stash`.
func StashPop(ctx context.Context, dir string) error {
	var err error
	if dir == "" {
		_, err = RunGitCommandWithContext(ctx, "stash", "pop")
	} else {
		_, err = RunGitCommandInDirWithContext(ctx, dir, "stash", "pop")
	}
	if err != nil {
		return fmt.Errorf("stash pop failed: %w", err)
	}
	return nil
}

// HasStashEntries reports whether the stash has any entries in the worktree
// at dir
func HasStashEntries(ctx context.Context, dir string) (bool, error) {
	var output string
	var err error
	if dir == "" {
		output, err = RunGitCommandWithContext(ctx, "stash", "list")
	} else {
		output, err = RunGitCommandInDirWithContext(ctx, dir, "stash", "list")
	}
	if err != nil {
		return false, fmt.Errorf("stash list failed: %w", err)
	}
	return output != "", nil
}
