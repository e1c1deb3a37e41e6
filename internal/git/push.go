package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	braiderrors "braid.dev/braid/internal/errors"
)

// PullResult represents the result of a pull operation
type PullResult int

const (
	// PullDone indicates the branch was fast-forwarded
	PullDone PullResult = iota
	// PullUnneeded indicates the branch was already up to date
	PullUnneeded
	// PullConflict indicates the branch has diverged from its remote
	PullConflict
)

// PushBranch pushes a branch to remote with optional force.
// forceWithLease uses --force-with-lease (safer); force uses --force.
// A --force-with-lease rejection surfaces as ErrStaleRemoteInfo so callers
// can retry with --force once the user has been warned.
func PushBranch(ctx context.Context, branchName, remote string, force, forceWithLease bool) error {
	args := []string{"push", "-u", remote}
	if force {
		args = append(args, "--force")
	} else if forceWithLease {
		args = append(args, "--force-with-lease")
	}
	args = append(args, branchName)

	_, err := RunGitCommandWithContext(ctx, args...)
	if err != nil {
		var cmdErr *braiderrors.GitCommandError
		if errors.As(err, &cmdErr) &&
			(strings.Contains(cmdErr.Stderr, "stale info") || strings.Contains(cmdErr.Stderr, "[rejected]")) {
			return fmt.Errorf("push of %s was rejected because the remote branch changed: %w", branchName, ErrStaleRemoteInfo)
		}
		return fmt.Errorf("failed to push branch %s: %w", branchName, err)
	}
	return nil
}

// DeleteRemoteBranch removes a branch on the remote
func DeleteRemoteBranch(ctx context.Context, branchName, remote string) error {
	_, err := RunGitCommandWithContext(ctx, "push", remote, "--delete", branchName)
	if err != nil {
		return fmt.Errorf("failed to delete remote branch %s: %w", branchName, err)
	}
	return nil
}

// Fetch updates remote-tracking refs from the remote
func Fetch(ctx context.Context, remote string) error {
	_, err := RunGitCommandWithContext(ctx, "fetch", "--prune", remote)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", remote, err)
	}
	return nil
}

// PullBranch fast-forwards a local branch to its remote-tracking ref.
// The branch does not need to be checked out in the invoking worktree: when
// it is checked out elsewhere the fast-forward merge runs in that worktree
// so its files update too, and when it is not checked out anywhere only the
// ref moves.
func PullBranch(ctx context.Context, remote, branchName string) (PullResult, error) {
	if err := Fetch(ctx, remote); err != nil {
		return PullConflict, err
	}

	localRev, err := GetRevision(branchName)
	if err != nil {
		return PullConflict, err
	}
	remoteRev, err := GetRemoteSha(remote, branchName)
	if err != nil {
		// No remote-tracking ref; nothing to pull
		return PullUnneeded, nil
	}

	if localRev == remoteRev {
		return PullUnneeded, nil
	}

	ff, err := IsAncestor(localRev, remoteRev)
	if err != nil {
		return PullConflict, err
	}
	if !ff {
		return PullConflict, nil
	}

	wt, err := WorktreeForBranch(ctx, branchName)
	if err != nil {
		return PullConflict, err
	}
	if wt == nil {
		if err := UpdateBranchRefWithReason(branchName, remoteRev, "braid sync: fast-forward"); err != nil {
			return PullConflict, err
		}
		return PullDone, nil
	}

	if _, err := RunGitCommandInDirWithContext(ctx, wt.Path, "merge", "--ff-only", remoteRev); err != nil {
		return PullConflict, nil
	}
	return PullDone, nil
}

// ResetBranchTo moves a branch to an arbitrary revision, updating the
// working tree of whichever worktree has it checked out. The reason lands in
// the reflog when the branch is moved by a plain ref update.
func ResetBranchTo(ctx context.Context, branchName, revision, reason string) error {
	wt, err := WorktreeForBranch(ctx, branchName)
	if err != nil {
		return err
	}
	if wt == nil {
		return UpdateBranchRefWithReason(branchName, revision, reason)
	}
	if _, err := RunGitCommandInDirWithContext(ctx, wt.Path, "reset", "--hard", revision); err != nil {
		return fmt.Errorf("failed to reset %s to %s: %w", branchName, revision, err)
	}
	return nil
}

// GetRemoteSha returns the cached remote-tracking SHA of a branch. This
// reads refs/remotes and does not touch the network; call Fetch first when
// freshness matters.
func GetRemoteSha(remote, branchName string) (string, error) {
	sha, err := RunGitCommand("rev-parse", fmt.Sprintf("refs/remotes/%s/%s", remote, branchName))
	if err != nil {
		return "", fmt.Errorf("failed to get remote SHA for %s/%s: %w", remote, branchName, err)
	}
	return sha, nil
}

// FetchRemoteShas returns all cached remote-tracking SHAs for a remote,
// keyed by branch name
func FetchRemoteShas(remote string) (map[string]string, error) {
	prefix := fmt.Sprintf("refs/remotes/%s/", remote)
	lines, err := RunGitCommandLines("for-each-ref", "--format=%(objectname) %(refname)", prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list remote refs for %s: %w", remote, err)
	}

	shas := make(map[string]string, len(lines))
	for _, line := range lines {
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimPrefix(parts[1], prefix)
		if name == "HEAD" {
			continue
		}
		shas[name] = parts[0]
	}
	return shas, nil
}

// BehindCount returns how many commits local is behind other
func BehindCount(ctx context.Context, local, other string) (int, error) {
	output, err := RunGitCommandWithContext(ctx, "rev-list", "--count", fmt.Sprintf("%s..%s", local, other))
	if err != nil {
		return 0, fmt.Errorf("failed to count commits between %s and %s: %w", local, other, err)
	}
	var count int
	if _, err := fmt.Sscanf(output, "%d", &count); err != nil {
		return 0, fmt.Errorf("unexpected rev-list output %q: %w", output, err)
	}
	return count, nil
}
