// Package config manages braid configuration and state persistence.
//
// It handles:
//   - Repository configuration (.braid_config in the shared git dir)
//   - Continuation state for operations suspended by a rebase conflict
//   - Branch name patterns for generated branch names
//
// All paths are rooted at the repository's common git dir so that every
// worktree of a repository sees the same configuration.
package config
