package git

import (
	"context"
	"fmt"
	"strings"
)

// PruneRemote prunes stale remote-tracking branches. Pruning is not
// critical, so failures are swallowed.
func PruneRemote(remote string) error {
	_, _ = RunGitCommand("remote", "prune", remote)
	return nil
}

// GetRemote returns the remote name configured for the current branch,
// falling back to "origin"
func GetRemote() string {
	branch, err := GetCurrentBranch()
	if err == nil && branch != "" {
		remote, err := RunGitCommand("config", "--get", fmt.Sprintf("branch.%s.remote", branch))
		if err == nil && remote != "" {
			return remote
		}
	}
	return "origin"
}

// FindRemoteHeadBranch returns the branch the remote's HEAD points at, or ""
// when the remote HEAD ref is not cached locally. Reads the symbolic ref only
// and never touches the network.
func FindRemoteHeadBranch(ctx context.Context, remote string) string {
	ref, err := RunGitCommandWithContext(ctx, "symbolic-ref", fmt.Sprintf("refs/remotes/%s/HEAD", remote))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.TrimSpace(ref), fmt.Sprintf("refs/remotes/%s/", remote))
}

// RemoteOwnerRepo parses the remote URL into owner and repository name.
// Both https and ssh remote formats are handled.
func RemoteOwnerRepo(ctx context.Context, remote string) (string, string, error) {
	url, err := RunGitCommandWithContext(ctx, "config", "--get", fmt.Sprintf("remote.%s.url", remote))
	if err != nil {
		return "", "", fmt.Errorf("no url configured for remote %s: %w", remote, err)
	}

	url = strings.TrimSuffix(url, ".git")
	parts := strings.Split(url, "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("invalid remote URL %q", url)
	}

	repoName := parts[len(parts)-1]
	var owner string
	if strings.Contains(url, "@") {
		// SSH format: git@github.com:owner/repo
		sshParts := strings.Split(url, ":")
		if len(sshParts) < 2 {
			return "", "", fmt.Errorf("invalid SSH remote URL %q", url)
		}
		pathParts := strings.Split(sshParts[1], "/")
		if len(pathParts) < 2 {
			return "", "", fmt.Errorf("invalid SSH remote URL %q", url)
		}
		owner = pathParts[0]
	} else {
		// HTTPS format: https://github.com/owner/repo
		owner = parts[len(parts)-2]
	}

	return owner, repoName, nil
}
