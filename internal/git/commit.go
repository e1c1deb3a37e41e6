package git

import (
	"fmt"
	"time"
)

// GetCommitDate returns the committer date of the tip commit of a branch
func GetCommitDate(branchName string) (time.Time, error) {
	repo, err := GetDefaultRepo()
	if err != nil {
		return time.Time{}, err
	}

	goGitMu.Lock()
	defer goGitMu.Unlock()

	hash, err := resolveRefHash(repo, branchName)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to resolve %s: %w", branchName, err)
	}

	commit, err := repo.CommitObject(hash)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read commit %s: %w", hash, err)
	}

	return commit.Committer.When, nil
}

// GetCommitAuthor returns the author name of the tip commit of a branch
func GetCommitAuthor(branchName string) (string, error) {
	repo, err := GetDefaultRepo()
	if err != nil {
		return "", err
	}

	goGitMu.Lock()
	defer goGitMu.Unlock()

	hash, err := resolveRefHash(repo, branchName)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", branchName, err)
	}

	commit, err := repo.CommitObject(hash)
	if err != nil {
		return "", fmt.Errorf("failed to read commit %s: %w", hash, err)
	}

	return commit.Author.Name, nil
}

// GetCommitSubject returns the first line of the tip commit message of a revision
func GetCommitSubject(rev string) (string, error) {
	out, err := RunGitCommand("log", "-1", "--format=%s", rev)
	if err != nil {
		return "", fmt.Errorf("failed to read commit subject of %s: %w", rev, err)
	}
	return out, nil
}
