// Package github looks up pull request state for stack branches. Braid never
// creates or edits pull requests; it records what it finds in the branch
// metadata so sync and cascade can reason about merged and closed branches.
package github

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

// Pull request states as braid records them
const (
	StateOpen   = "OPEN"
	StateClosed = "CLOSED"
	StateMerged = "MERGED"
)

// PullRequestInfo is the subset of pull request state braid cares about.
// This is a simplified struct to avoid coupling callers to the go-github types.
type PullRequestInfo struct {
	Number  int
	HTMLURL string
	Title   string
	Body    string
	State   string // StateOpen, StateClosed or StateMerged
	Draft   bool
	Base    string
	Head    string
}

// Client is the read-only GitHub surface used by sync and cascade
type Client interface {
	// GetPullRequestByBranch returns the most recent pull request whose head
	// is the given branch, or nil when the branch has none.
	GetPullRequestByBranch(ctx context.Context, branchName string) (*PullRequestInfo, error)

	// GetOwnerRepo returns the repository owner and name
	GetOwnerRepo() (owner, repo string)
}

// RESTClient implements Client against the GitHub REST API
type RESTClient struct {
	client *github.Client
	owner  string
	repo   string
}

// NewClient builds a RESTClient for the repository behind the given remote.
// The token comes from BRAID_GITHUB_TOKEN, GITHUB_TOKEN, or the gh CLI, in
// that order.
func NewClient(ctx context.Context, remote string) (*RESTClient, error) {
	token, err := getToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get GitHub token: %w", err)
	}

	info, err := repoInfoForRemote(ctx, remote)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository info: %w", err)
	}

	client, err := newAPIClient(ctx, info.Hostname, token)
	if err != nil {
		return nil, err
	}

	return &RESTClient{client: client, owner: info.Owner, repo: info.Repo}, nil
}

// NewClientWithRepo wraps an already configured API client. Tests use it to
// point a RESTClient at a mock server.
func NewClientWithRepo(client *github.Client, owner, repo string) *RESTClient {
	return &RESTClient{client: client, owner: owner, repo: repo}
}

// GetOwnerRepo returns the repository owner and name
func (c *RESTClient) GetOwnerRepo() (string, string) {
	return c.owner, c.repo
}

// GetPullRequestByBranch returns the pull request for a branch, or nil when
// the branch has none
func (c *RESTClient) GetPullRequestByBranch(ctx context.Context, branchName string) (*PullRequestInfo, error) {
	prs, _, err := c.client.PullRequests.List(ctx, c.owner, c.repo, &github.PullRequestListOptions{
		Head:  fmt.Sprintf("%s:%s", c.owner, branchName),
		State: "all",
		ListOptions: github.ListOptions{
			PerPage: 1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests: %w", err)
	}

	if len(prs) == 0 {
		return nil, nil
	}

	return toPullRequestInfo(prs[0]), nil
}

// newAPIClient creates a go-github client configured for the given hostname.
// Supports both github.com and GitHub Enterprise instances.
func newAPIClient(ctx context.Context, hostname, token string) (*github.Client, error) {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	// GitHub Enterprise serves the REST API under /api/v3/ and uploads
	// under /api/uploads/
	if hostname != "github.com" {
		baseURL, err := url.Parse(fmt.Sprintf("https://%s/api/v3/", hostname))
		if err != nil {
			return nil, fmt.Errorf("failed to parse base URL for hostname %s: %w", hostname, err)
		}
		uploadURL, err := url.Parse(fmt.Sprintf("https://%s/api/uploads/", hostname))
		if err != nil {
			return nil, fmt.Errorf("failed to parse upload URL for hostname %s: %w", hostname, err)
		}

		client.BaseURL = baseURL
		client.UploadURL = uploadURL
	}
	// For github.com, the default URLs are already correct

	return client, nil
}

// getToken finds a GitHub token in the environment or via the gh CLI
func getToken(ctx context.Context) (string, error) {
	if token := os.Getenv("BRAID_GITHUB_TOKEN"); token != "" {
		return token, nil
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}

	out, err := exec.CommandContext(ctx, "gh", "auth", "token").Output()
	if err != nil {
		return "", fmt.Errorf("no token in BRAID_GITHUB_TOKEN or GITHUB_TOKEN and gh CLI unavailable: %w", err)
	}

	token := strings.TrimSpace(string(out))
	if token == "" {
		return "", fmt.Errorf("empty GitHub token")
	}

	return token, nil
}

// toPullRequestInfo converts a go-github pull request. The REST API reports
// state open/closed only; merged pull requests are detected through MergedAt,
// which list responses populate.
func toPullRequestInfo(pr *github.PullRequest) *PullRequestInfo {
	if pr == nil {
		return nil
	}

	info := &PullRequestInfo{}

	if pr.Number != nil {
		info.Number = *pr.Number
	}
	if pr.HTMLURL != nil {
		info.HTMLURL = *pr.HTMLURL
	}
	if pr.Title != nil {
		info.Title = *pr.Title
	}
	if pr.Body != nil {
		info.Body = *pr.Body
	}
	if pr.State != nil {
		info.State = strings.ToUpper(*pr.State)
	}
	if pr.MergedAt != nil || (pr.Merged != nil && *pr.Merged) {
		info.State = StateMerged
	}
	if pr.Draft != nil {
		info.Draft = *pr.Draft
	}
	if pr.Base != nil && pr.Base.Ref != nil {
		info.Base = *pr.Base.Ref
	}
	if pr.Head != nil && pr.Head.Ref != nil {
		info.Head = *pr.Head.Ref
	}

	return info
}
