package engine

import "braid.dev/braid/internal/git"

// MetadataStore persists the parent/child bookkeeping for tracked branches.
// It is injected into the engine (and the transaction manager) rather than
// reached through package globals, so the backing storage can be swapped
// without touching callers. The production implementation is
// git.MetadataStore, which keeps one JSON blob per branch under
// refs/branch-metadata/.
type MetadataStore interface {
	// Read returns the metadata for one branch, or nil when none is stored
	Read(branchName string) (*git.Meta, error)
	// ReadAll enumerates every stored entry. A malformed entry is skipped
	// with a warning rather than failing the whole read.
	ReadAll() (map[string]*git.Meta, error)
	// Write persists the metadata for one branch. A failed ref update is an
	// error, never silently dropped.
	Write(branchName string, meta *git.Meta) error
	// Delete removes the metadata for one branch. Deleting an absent entry
	// is not an error.
	Delete(branchName string) error
	// RefSHA returns the blob SHA currently backing a branch's metadata ref,
	// or "" when none exists. Receipts use it to snapshot metadata state.
	RefSHA(branchName string) (string, error)
}
