package testhelpers

import (
	"time"

	"github.com/google/go-github/v62/github"
)

// SamplePRData provides common pull request data for testing
type SamplePRData struct {
	Number  int
	Title   string
	Body    string
	Head    string
	Base    string
	HTMLURL string
	Draft   bool
	State   string
	// Merged marks the pull request as merged; the API reports this through
	// a closed state plus a merge timestamp.
	Merged bool
}

// NewSamplePullRequest creates a github.PullRequest from sample data
func NewSamplePullRequest(data SamplePRData) *github.PullRequest {
	pr := &github.PullRequest{
		Number:  github.Int(data.Number),
		Title:   github.String(data.Title),
		Body:    github.String(data.Body),
		Head:    &github.PullRequestBranch{Ref: github.String(data.Head)},
		Base:    &github.PullRequestBranch{Ref: github.String(data.Base)},
		HTMLURL: github.String(data.HTMLURL),
		Draft:   github.Bool(data.Draft),
		State:   github.String(data.State),
	}

	if data.Merged {
		pr.MergedAt = &github.Timestamp{Time: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	}

	return pr
}

// DefaultPRData returns a default open pull request for testing
func DefaultPRData() SamplePRData {
	return SamplePRData{
		Number:  123,
		Title:   "Test Pull Request",
		Body:    "This is a test pull request",
		Head:    "feature-branch",
		Base:    "main",
		HTMLURL: "https://github.com/owner/repo/pull/123",
		Draft:   false,
		State:   "open",
	}
}

// DraftPRData returns pull request data for a draft PR
func DraftPRData() SamplePRData {
	data := DefaultPRData()
	data.Draft = true
	data.Title = "Draft: Test Pull Request"
	return data
}

// MergedPRData returns pull request data for a merged PR
func MergedPRData() SamplePRData {
	data := DefaultPRData()
	data.State = "closed"
	data.Merged = true
	return data
}

// ClosedPRData returns pull request data for a PR closed without merging
func ClosedPRData() SamplePRData {
	data := DefaultPRData()
	data.State = "closed"
	return data
}
