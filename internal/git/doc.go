// Package git provides low-level Git operations.
//
// It wraps git command execution and go-git and provides a Go-friendly
// interface for:
//   - Branch management (create, delete, checkout, update-ref)
//   - Rebase, stash and worktree operations
//   - Repo state queries (status, diff, refs, merge-base)
//   - Remote operations (push, fetch, fast-forward pull)
//   - Branch metadata refs
//
// This package should be the only place where direct git commands are executed.
package git
