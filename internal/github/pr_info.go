package github

import (
	"context"
	"sync"

	"github.com/google/go-github/v62/github"

	"braid.dev/braid/internal/git"
)

// PrInfoStore records pull request bookkeeping for tracked branches. The
// engine satisfies it.
type PrInfoStore interface {
	UpsertPrInfo(branchName string, prInfo *git.PrInfo) error
}

// PrInfo converts the fetched state into the metadata representation
func (pr *PullRequestInfo) PrInfo() *git.PrInfo {
	if pr == nil {
		return nil
	}
	return &git.PrInfo{
		Number:  github.Int(pr.Number),
		Base:    github.String(pr.Base),
		URL:     github.String(pr.HTMLURL),
		Title:   github.String(pr.Title),
		Body:    github.String(pr.Body),
		State:   github.String(pr.State),
		IsDraft: github.Bool(pr.Draft),
	}
}

// RefreshPrInfo fetches pull request state for each branch and records it in
// the branch metadata. Lookups run in parallel; a branch whose lookup or
// write fails keeps its previous info. Returns the number of branches updated.
func RefreshPrInfo(ctx context.Context, client Client, store PrInfoStore, branchNames []string) int {
	var (
		mu      sync.Mutex
		updated int
	)

	var wg sync.WaitGroup
	for _, branchName := range branchNames {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()

			pr, err := client.GetPullRequestByBranch(ctx, name)
			if err != nil || pr == nil {
				return
			}

			if err := store.UpsertPrInfo(name, pr.PrInfo()); err != nil {
				return
			}

			mu.Lock()
			updated++
			mu.Unlock()
		}(branchName)
	}
	wg.Wait()

	return updated
}
