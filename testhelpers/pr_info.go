package testhelpers

import (
	"braid.dev/braid/internal/git"
)

// NewTestPrInfo creates a PrInfo for testing.
// Most common case: an open PR with just a number.
func NewTestPrInfo(number int) *git.PrInfo {
	state := "OPEN"
	return &git.PrInfo{
		Number: &number,
		State:  &state,
	}
}

// NewTestPrInfoMerged creates a PrInfo for a merged PR
func NewTestPrInfoMerged(number int, base string) *git.PrInfo {
	state := "MERGED"
	info := &git.PrInfo{
		Number: &number,
		State:  &state,
	}
	if base != "" {
		info.Base = &base
	}
	return info
}

// NewTestPrInfoClosed creates a PrInfo for a PR closed without merging
func NewTestPrInfoClosed(number int) *git.PrInfo {
	state := "CLOSED"
	return &git.PrInfo{
		Number: &number,
		State:  &state,
	}
}

// NewTestPrInfoDraft creates a PrInfo for an open draft PR
func NewTestPrInfoDraft(number int) *git.PrInfo {
	state := "OPEN"
	draft := true
	return &git.PrInfo{
		Number:  &number,
		State:   &state,
		IsDraft: &draft,
	}
}
