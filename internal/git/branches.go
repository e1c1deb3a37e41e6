package git

import (
	"context"
	"fmt"
	"strings"
)

// CreateAndCheckoutBranch creates and checks out a new branch
func CreateAndCheckoutBranch(ctx context.Context, branchName string) error {
	_, err := RunGitCommandWithContext(ctx, "checkout", "-b", branchName)
	if err != nil {
		return fmt.Errorf("failed to create and checkout branch %s: %w", branchName, err)
	}
	return nil
}

// CheckoutBranch checks out an existing branch
func CheckoutBranch(ctx context.Context, branchName string) error {
	_, err := RunGitCommandWithContext(ctx, "checkout", branchName)
	if err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", branchName, err)
	}
	return nil
}

// CheckoutDetached checks out a revision in detached HEAD state
func CheckoutDetached(ctx context.Context, rev string) error {
	_, err := RunGitCommandWithContext(ctx, "checkout", "--detach", rev)
	if err != nil {
		return fmt.Errorf("failed to checkout %s in detached state: %w", rev, err)
	}
	return nil
}

// CreateBranchAt creates a branch pointing at a revision without checking it out
func CreateBranchAt(ctx context.Context, branchName, revision string) error {
	_, err := RunGitCommandWithContext(ctx, "branch", branchName, revision)
	if err != nil {
		return fmt.Errorf("failed to create branch %s at %s: %w", branchName, revision, err)
	}
	return nil
}

// DeleteBranch deletes a branch
func DeleteBranch(ctx context.Context, branchName string) error {
	_, err := RunGitCommandWithContext(ctx, "branch", "-D", branchName)
	if err != nil {
		return fmt.Errorf("failed to delete branch %s: %w", branchName, err)
	}
	return nil
}

// RenameBranch renames a branch
func RenameBranch(ctx context.Context, oldName, newName string) error {
	_, err := RunGitCommandWithContext(ctx, "branch", "-m", oldName, newName)
	if err != nil {
		return fmt.Errorf("failed to rename branch %s to %s: %w", oldName, newName, err)
	}
	return nil
}

// UpdateBranchRef updates a branch reference to point to a new commit
func UpdateBranchRef(branchName, commitSHA string) error {
	_, err := RunGitCommandWithContext(context.Background(), "update-ref", "refs/heads/"+branchName, commitSHA)
	if err != nil {
		return fmt.Errorf("failed to update branch ref: %w", err)
	}
	return nil
}

// UpdateBranchRefWithReason updates a branch reference with a reflog message
func UpdateBranchRefWithReason(branchName, commitSHA, reason string) error {
	_, err := RunGitCommandWithContext(context.Background(), "update-ref", "-m", reason, "refs/heads/"+branchName, commitSHA)
	if err != nil {
		return fmt.Errorf("failed to update branch ref: %w", err)
	}
	return nil
}

// GetRevision returns the commit SHA a branch points at
func GetRevision(branchName string) (string, error) {
	rev, err := RunGitCommand("rev-parse", branchName)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", branchName, err)
	}
	return rev, nil
}

// BatchGetRevisions resolves many branches in one rev-parse invocation.
// Results are keyed by branch name; branches that failed to resolve are
// reported in the errors slice and absent from the map.
func BatchGetRevisions(branchNames []string) (map[string]string, []error) {
	revisions := make(map[string]string, len(branchNames))
	var errs []error

	if len(branchNames) == 0 {
		return revisions, nil
	}

	args := append([]string{"rev-parse"}, branchNames...)
	output, err := RunGitCommand(args...)
	if err != nil {
		// Fall back to one-by-one so a single bad name does not hide the rest
		for _, name := range branchNames {
			rev, revErr := GetRevision(name)
			if revErr != nil {
				errs = append(errs, revErr)
				continue
			}
			revisions[name] = rev
		}
		return revisions, errs
	}

	lines := strings.Split(output, "\n")
	for i, name := range branchNames {
		if i < len(lines) {
			revisions[name] = strings.TrimSpace(lines[i])
		}
	}
	return revisions, nil
}

// StageAll stages all changes including untracked files
func StageAll(ctx context.Context) error {
	_, err := RunGitCommandWithContext(ctx, "add", "-A")
	if err != nil {
		return fmt.Errorf("failed to stage all changes: %w", err)
	}
	return nil
}

// HasStagedChanges checks if there are staged changes
func HasStagedChanges(ctx context.Context) (bool, error) {
	output, err := RunGitCommandWithContext(ctx, "diff", "--cached", "--shortstat")
	if err != nil {
		return false, fmt.Errorf("failed to check staged changes: %w", err)
	}
	return strings.TrimSpace(output) != "", nil
}

// HasUncommittedChanges reports whether the working tree has staged,
// unstaged or untracked changes
func HasUncommittedChanges(ctx context.Context) bool {
	output, err := RunGitCommandWithContext(ctx, "status", "--porcelain")
	if err != nil {
		return false
	}
	return strings.TrimSpace(output) != ""
}

// GetUnmergedFiles returns paths that currently carry conflict markers
func GetUnmergedFiles(ctx context.Context) ([]string, error) {
	return RunGitCommandLinesWithContext(ctx, "diff", "--name-only", "--diff-filter=U")
}

// Commit records staged changes with the given message
func Commit(ctx context.Context, message string) error {
	_, err := RunGitCommandWithContext(ctx, "commit", "-m", message)
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// IsMerged checks whether all of branchName's changes are contained in target.
// A branch counts as merged when it is an ancestor of the target or when its
// patch applies as already-present (cherry-equivalent commits).
func IsMerged(ctx context.Context, branchName, target string) (bool, error) {
	ancestor, err := IsAncestor(branchName, target)
	if err == nil && ancestor {
		return true, nil
	}

	// git cherry prints '-' for commits whose changes exist in target
	output, err := RunGitCommandWithContext(ctx, "cherry", target, branchName)
	if err != nil {
		return false, fmt.Errorf("failed to check merge state of %s: %w", branchName, err)
	}
	if strings.TrimSpace(output) == "" {
		return true, nil
	}
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "+") {
			return false, nil
		}
	}
	return true, nil
}
