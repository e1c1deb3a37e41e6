package testhelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-github/v62/github"
)

// MockGitHubServerConfig configures the behavior of a mock GitHub server.
// Braid only reads pull request state, so the server answers list queries and
// nothing else.
type MockGitHubServerConfig struct {
	// PRs maps branch names to the pull request returned for that head
	PRs map[string]*github.PullRequest
	// FailList makes the list endpoint return a 500 for every request
	FailList bool
	// ListCalls counts list requests, including failed ones
	ListCalls int
	// Owner and Repo for the mock server
	Owner string
	Repo  string
}

// NewMockGitHubServerConfig creates a new mock server config with defaults
func NewMockGitHubServerConfig() *MockGitHubServerConfig {
	return &MockGitHubServerConfig{
		PRs:   make(map[string]*github.PullRequest),
		Owner: "owner",
		Repo:  "repo",
	}
}

// NewMockGitHubServer creates an httptest server that mocks the pull request
// list endpoint braid queries
func NewMockGitHubServer(t *testing.T, config *MockGitHubServerConfig) *httptest.Server {
	if config == nil {
		config = NewMockGitHubServerConfig()
	}

	mux := http.NewServeMux()
	basePath := "/repos/" + config.Owner + "/" + config.Repo + "/pulls"

	mux.HandleFunc(basePath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		config.ListCalls++
		if config.FailList {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}

		// The head filter arrives as "owner:branch"
		head := r.URL.Query().Get("head")
		branchName := strings.TrimPrefix(head, config.Owner+":")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		pr, ok := config.PRs[branchName]
		if head == "" || !ok {
			_ = json.NewEncoder(w).Encode([]*github.PullRequest{})
			return
		}
		_ = json.NewEncoder(w).Encode([]*github.PullRequest{pr})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(func() { server.Close() })
	return server
}

// NewMockGitHubClient creates a go-github client configured to use a mock
// server, returning the client plus the owner and repo it serves
func NewMockGitHubClient(t *testing.T, config *MockGitHubServerConfig) (*github.Client, string, string) {
	if config == nil {
		config = NewMockGitHubServerConfig()
	}
	server := NewMockGitHubServer(t, config)
	client := github.NewClient(nil)
	baseURL, _ := url.Parse(server.URL + "/")
	client.BaseURL = baseURL
	client.UploadURL = baseURL

	return client, config.Owner, config.Repo
}
