package github_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	githubpkg "braid.dev/braid/internal/github"
	"braid.dev/braid/testhelpers"
)

func TestParseRemoteURL(t *testing.T) {
	t.Run("parses HTTPS github.com URL", func(t *testing.T) {
		info, err := githubpkg.ParseRemoteURL("https://github.com/owner/repo.git")
		require.NoError(t, err)
		require.NotNil(t, info)
		require.Equal(t, "github.com", info.Hostname)
		require.Equal(t, "owner", info.Owner)
		require.Equal(t, "repo", info.Repo)
	})

	t.Run("parses HTTPS github.com URL without .git suffix", func(t *testing.T) {
		info, err := githubpkg.ParseRemoteURL("https://github.com/owner/repo")
		require.NoError(t, err)
		require.NotNil(t, info)
		require.Equal(t, "github.com", info.Hostname)
		require.Equal(t, "owner", info.Owner)
		require.Equal(t, "repo", info.Repo)
	})

	t.Run("parses SSH github.com URL", func(t *testing.T) {
		info, err := githubpkg.ParseRemoteURL("git@github.com:owner/repo.git")
		require.NoError(t, err)
		require.NotNil(t, info)
		require.Equal(t, "github.com", info.Hostname)
		require.Equal(t, "owner", info.Owner)
		require.Equal(t, "repo", info.Repo)
	})

	t.Run("parses HTTPS GitHub Enterprise URL", func(t *testing.T) {
		info, err := githubpkg.ParseRemoteURL("https://github.company.com/owner/repo.git")
		require.NoError(t, err)
		require.NotNil(t, info)
		require.Equal(t, "github.company.com", info.Hostname)
		require.Equal(t, "owner", info.Owner)
		require.Equal(t, "repo", info.Repo)
	})

	t.Run("parses SSH GitHub Enterprise URL", func(t *testing.T) {
		info, err := githubpkg.ParseRemoteURL("git@github.company.com:owner/repo.git")
		require.NoError(t, err)
		require.NotNil(t, info)
		require.Equal(t, "github.company.com", info.Hostname)
		require.Equal(t, "owner", info.Owner)
		require.Equal(t, "repo", info.Repo)
	})

	t.Run("handles URLs with extra path segments", func(t *testing.T) {
		info, err := githubpkg.ParseRemoteURL("https://github.company.com/org/team/repo.git")
		require.NoError(t, err)
		require.NotNil(t, info)
		require.Equal(t, "github.company.com", info.Hostname)
		require.Equal(t, "team", info.Owner) // Second-to-last segment
		require.Equal(t, "repo", info.Repo)  // Last segment
	})

	t.Run("handles URLs with whitespace", func(t *testing.T) {
		info, err := githubpkg.ParseRemoteURL("  https://github.com/owner/repo.git  ")
		require.NoError(t, err)
		require.NotNil(t, info)
		require.Equal(t, "github.com", info.Hostname)
		require.Equal(t, "owner", info.Owner)
		require.Equal(t, "repo", info.Repo)
	})

	t.Run("returns error for invalid SSH URL format", func(t *testing.T) {
		info, err := githubpkg.ParseRemoteURL("git@github.com")
		require.Error(t, err)
		require.Nil(t, info)
		require.Contains(t, err.Error(), "invalid SSH remote URL")
	})

	t.Run("returns error for invalid HTTPS URL format", func(t *testing.T) {
		info, err := githubpkg.ParseRemoteURL("https://github.com")
		require.Error(t, err)
		require.Nil(t, info)
		require.Contains(t, err.Error(), "invalid HTTPS remote URL")
	})

	t.Run("returns error for empty URL", func(t *testing.T) {
		info, err := githubpkg.ParseRemoteURL("")
		require.Error(t, err)
		require.Nil(t, info)
	})

	t.Run("returns error for URL missing owner", func(t *testing.T) {
		info, err := githubpkg.ParseRemoteURL("https://github.com/repo.git")
		require.Error(t, err)
		require.Nil(t, info)
	})
}

func TestGetPullRequestByBranch(t *testing.T) {
	t.Run("returns the pull request for a branch", func(t *testing.T) {
		config := testhelpers.NewMockGitHubServerConfig()
		config.PRs["feature-branch"] = testhelpers.NewSamplePullRequest(testhelpers.DefaultPRData())
		apiClient, owner, repo := testhelpers.NewMockGitHubClient(t, config)

		client := githubpkg.NewClientWithRepo(apiClient, owner, repo)

		pr, err := client.GetPullRequestByBranch(context.Background(), "feature-branch")
		require.NoError(t, err)
		require.NotNil(t, pr)
		require.Equal(t, 123, pr.Number)
		require.Equal(t, "Test Pull Request", pr.Title)
		require.Equal(t, "main", pr.Base)
		require.Equal(t, "feature-branch", pr.Head)
		require.Equal(t, githubpkg.StateOpen, pr.State)
		require.False(t, pr.Draft)
	})

	t.Run("returns nil for a branch without a pull request", func(t *testing.T) {
		config := testhelpers.NewMockGitHubServerConfig()
		apiClient, owner, repo := testhelpers.NewMockGitHubClient(t, config)

		client := githubpkg.NewClientWithRepo(apiClient, owner, repo)

		pr, err := client.GetPullRequestByBranch(context.Background(), "no-such-branch")
		require.NoError(t, err)
		require.Nil(t, pr)
	})

	t.Run("reports merged pull requests as MERGED", func(t *testing.T) {
		config := testhelpers.NewMockGitHubServerConfig()
		config.PRs["feature-branch"] = testhelpers.NewSamplePullRequest(testhelpers.MergedPRData())
		apiClient, owner, repo := testhelpers.NewMockGitHubClient(t, config)

		client := githubpkg.NewClientWithRepo(apiClient, owner, repo)

		pr, err := client.GetPullRequestByBranch(context.Background(), "feature-branch")
		require.NoError(t, err)
		require.NotNil(t, pr)
		require.Equal(t, githubpkg.StateMerged, pr.State)
	})

	t.Run("reports unmerged closed pull requests as CLOSED", func(t *testing.T) {
		config := testhelpers.NewMockGitHubServerConfig()
		config.PRs["feature-branch"] = testhelpers.NewSamplePullRequest(testhelpers.ClosedPRData())
		apiClient, owner, repo := testhelpers.NewMockGitHubClient(t, config)

		client := githubpkg.NewClientWithRepo(apiClient, owner, repo)

		pr, err := client.GetPullRequestByBranch(context.Background(), "feature-branch")
		require.NoError(t, err)
		require.NotNil(t, pr)
		require.Equal(t, githubpkg.StateClosed, pr.State)
	})

	t.Run("carries the draft flag through", func(t *testing.T) {
		config := testhelpers.NewMockGitHubServerConfig()
		config.PRs["feature-branch"] = testhelpers.NewSamplePullRequest(testhelpers.DraftPRData())
		apiClient, owner, repo := testhelpers.NewMockGitHubClient(t, config)

		client := githubpkg.NewClientWithRepo(apiClient, owner, repo)

		pr, err := client.GetPullRequestByBranch(context.Background(), "feature-branch")
		require.NoError(t, err)
		require.NotNil(t, pr)
		require.Equal(t, githubpkg.StateOpen, pr.State)
		require.True(t, pr.Draft)
	})

	t.Run("returns errors from the API", func(t *testing.T) {
		config := testhelpers.NewMockGitHubServerConfig()
		config.FailList = true
		apiClient, owner, repo := testhelpers.NewMockGitHubClient(t, config)

		client := githubpkg.NewClientWithRepo(apiClient, owner, repo)

		pr, err := client.GetPullRequestByBranch(context.Background(), "feature-branch")
		require.Error(t, err)
		require.Nil(t, pr)
	})

	t.Run("reports the owner and repo it serves", func(t *testing.T) {
		config := testhelpers.NewMockGitHubServerConfig()
		apiClient, owner, repo := testhelpers.NewMockGitHubClient(t, config)

		client := githubpkg.NewClientWithRepo(apiClient, owner, repo)

		gotOwner, gotRepo := client.GetOwnerRepo()
		require.Equal(t, "owner", gotOwner)
		require.Equal(t, "repo", gotRepo)
	})
}
