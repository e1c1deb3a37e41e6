// Package errors provides sentinel errors and custom error types for the braid application.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions
var (
	// ErrNotOnBranch indicates that HEAD is not on a branch
	ErrNotOnBranch = errors.New("not on a branch")

	// ErrBranchNotFound indicates that a branch does not exist
	ErrBranchNotFound = errors.New("branch not found")

	// ErrBranchNotTracked indicates that a branch has no stack metadata
	ErrBranchNotTracked = errors.New("branch not tracked")

	// ErrRebaseConflict indicates that a rebase operation encountered a conflict
	ErrRebaseConflict = errors.New("rebase conflict")

	// ErrRebaseNotInProgress indicates that no rebase is currently in progress
	ErrRebaseNotInProgress = errors.New("no rebase in progress")

	// ErrTrunkOperation indicates an invalid operation on the trunk branch
	ErrTrunkOperation = errors.New("invalid operation on trunk branch")

	// ErrStackCorrupt indicates that stored branch metadata cannot form a valid forest
	ErrStackCorrupt = errors.New("stack metadata corrupt")

	// ErrParentMissing indicates that a tracked branch's recorded parent no longer exists
	ErrParentMissing = errors.New("parent branch missing")

	// ErrDirtyWorktree indicates uncommitted changes where a clean tree is required
	ErrDirtyWorktree = errors.New("dirty worktree")

	// ErrNothingToUndo indicates that no completed operation is available to undo
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo indicates that no undone operation is available to redo
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrInteractiveDisabled indicates a prompt was needed but interactivity is off
	ErrInteractiveDisabled = errors.New("interactive prompts are disabled")
)

// BranchNotFoundError represents an error when a branch is not found
type BranchNotFoundError struct {
	BranchName string
}

func (e *BranchNotFoundError) Error() string {
	return fmt.Sprintf("branch %s does not exist", e.BranchName)
}

// Is returns true if the target error is ErrBranchNotFound
func (e *BranchNotFoundError) Is(target error) bool {
	return target == ErrBranchNotFound
}

// NewBranchNotFoundError creates a new BranchNotFoundError
func NewBranchNotFoundError(branchName string) *BranchNotFoundError {
	return &BranchNotFoundError{BranchName: branchName}
}

// RebaseConflictError represents an error when a rebase encounters a conflict
type RebaseConflictError struct {
	BranchName string
	Message    string
}

func (e *RebaseConflictError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("rebase conflict on branch %s: %s", e.BranchName, e.Message)
	}
	return fmt.Sprintf("rebase conflict on branch %s", e.BranchName)
}

// Is returns true if the target error is ErrRebaseConflict
func (e *RebaseConflictError) Is(target error) bool {
	return target == ErrRebaseConflict
}

// NewRebaseConflictError creates a new RebaseConflictError
func NewRebaseConflictError(branchName string, message string) *RebaseConflictError {
	return &RebaseConflictError{
		BranchName: branchName,
		Message:    message,
	}
}

// CycleError represents corrupt metadata whose parent pointers form a cycle.
// Chain lists the branches along the cycle in parent order, with the first
// branch repeated at the end.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("branch metadata contains a parent cycle: %s", strings.Join(e.Chain, " -> "))
}

// Is returns true if the target error is ErrStackCorrupt
func (e *CycleError) Is(target error) bool {
	return target == ErrStackCorrupt
}

// NewCycleError creates a new CycleError from the branches along the cycle
func NewCycleError(chain []string) *CycleError {
	return &CycleError{Chain: chain}
}

// ParentMissingError represents a tracked branch whose recorded parent no
// longer exists as a local branch
type ParentMissingError struct {
	BranchName string
	ParentName string
}

func (e *ParentMissingError) Error() string {
	return fmt.Sprintf("parent %s of branch %s no longer exists; re-track the branch or set a new parent", e.ParentName, e.BranchName)
}

// Is returns true if the target error is ErrParentMissing
func (e *ParentMissingError) Is(target error) bool {
	return target == ErrParentMissing
}

// NewParentMissingError creates a new ParentMissingError
func NewParentMissingError(branchName, parentName string) *ParentMissingError {
	return &ParentMissingError{BranchName: branchName, ParentName: parentName}
}

// DirtyWorktreeError represents uncommitted changes in the worktree that has
// the target branch checked out
type DirtyWorktreeError struct {
	BranchName string
	Dir        string
}

func (e *DirtyWorktreeError) Error() string {
	return fmt.Sprintf("branch %s is checked out in worktree %s which has uncommitted changes; commit or stash them, or re-run with --auto-stash", e.BranchName, e.Dir)
}

// Is returns true if the target error is ErrDirtyWorktree
func (e *DirtyWorktreeError) Is(target error) bool {
	return target == ErrDirtyWorktree
}

// NewDirtyWorktreeError creates a new DirtyWorktreeError
func NewDirtyWorktreeError(branchName, dir string) *DirtyWorktreeError {
	return &DirtyWorktreeError{BranchName: branchName, Dir: dir}
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}
