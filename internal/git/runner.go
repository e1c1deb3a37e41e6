package git

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	braiderrors "braid.dev/braid/internal/errors"
)

// DefaultCommandTimeout is the default timeout for git commands
const DefaultCommandTimeout = 5 * time.Minute

// ErrStaleRemoteInfo indicates that a push failed because the remote has changed
var ErrStaleRemoteInfo = errors.New("stale info")

// CommandRunner handles execution of git commands
type CommandRunner struct {
	workingDir string
}

// NewCommandRunner creates a new CommandRunner
func NewCommandRunner(workingDir string) *CommandRunner {
	return &CommandRunner{workingDir: workingDir}
}

// defaultRunner is the global runner used by the package-level functions
var defaultRunner = &CommandRunner{}

// SetWorkingDir sets the working directory for the default git runner.
func SetWorkingDir(dir string) {
	defaultRunner.workingDir = dir
}

// GetWorkingDir returns the current working directory setting for the default runner.
func GetWorkingDir() string {
	return defaultRunner.workingDir
}

// RunGitCommand executes a git command using the default runner and returns the output.
// It uses context.Background() with a default timeout.
func RunGitCommand(args ...string) (string, error) {
	return defaultRunner.Run(context.Background(), args...)
}

// RunGitCommandInDir executes a git command in a specific directory and returns the output.
func RunGitCommandInDir(dir string, args ...string) (string, error) {
	runner := &CommandRunner{workingDir: dir}
	return runner.Run(context.Background(), args...)
}

// RunGitCommandInDirWithContext executes a git command in a specific directory with the given context.
func RunGitCommandInDirWithContext(ctx context.Context, dir string, args ...string) (string, error) {
	runner := &CommandRunner{workingDir: dir}
	return runner.Run(ctx, args...)
}

// RunGitCommandWithContext executes a git command with the given context using the default runner.
func RunGitCommandWithContext(ctx context.Context, args ...string) (string, error) {
	return defaultRunner.Run(ctx, args...)
}

// runWithEnv executes a git command with environment variables
func (r *CommandRunner) runWithEnv(ctx context.Context, env []string, args ...string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCommandTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	if r.workingDir != "" {
		cmd.Dir = r.workingDir
	}
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return "", braiderrors.NewGitCommandError("git", args, stdout.String(), stderr.String(), err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Run executes a git command with the given context and returns the output
func (r *CommandRunner) Run(ctx context.Context, args ...string) (string, error) {
	return r.runInternal(ctx, "", true, args...)
}

// runInternal is the internal implementation that handles directory and input
func (r *CommandRunner) runInternal(ctx context.Context, input string, trim bool, args ...string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// If no timeout/deadline is set in the context, add the default one
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCommandTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	if r.workingDir != "" {
		cmd.Dir = r.workingDir
	}
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", braiderrors.NewGitCommandError("git", args, stdout.String(), stderr.String(), ctx.Err())
		}
		return "", braiderrors.NewGitCommandError("git", args, stdout.String(), stderr.String(), err)
	}
	if trim {
		return strings.TrimSpace(stdout.String()), nil
	}
	return stdout.String(), nil
}

// RunGitCommandRaw executes a git command using the default runner and returns the raw output (no trimming)
func RunGitCommandRaw(args ...string) (string, error) {
	return defaultRunner.runInternal(context.Background(), "", false, args...)
}

// RunGitCommandRawWithContext executes a git command using the default runner and returns the raw output (no trimming) with context
func RunGitCommandRawWithContext(ctx context.Context, args ...string) (string, error) {
	return defaultRunner.runInternal(ctx, "", false, args...)
}

// RunGitCommandLines executes a git command using the default runner and returns output as lines
func RunGitCommandLines(args ...string) ([]string, error) {
	output, err := RunGitCommand(args...)
	if err != nil {
		return nil, err
	}
	if output == "" {
		return []string{}, nil
	}
	return strings.Split(output, "\n"), nil
}

// RunGitCommandLinesWithContext executes a git command with context and returns output as lines
func RunGitCommandLinesWithContext(ctx context.Context, args ...string) ([]string, error) {
	output, err := RunGitCommandWithContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	if output == "" {
		return []string{}, nil
	}
	return strings.Split(output, "\n"), nil
}

// RunGitCommandWithInput executes a git command with input using the default runner and returns the output
func RunGitCommandWithInput(input string, args ...string) (string, error) {
	return defaultRunner.runInternal(context.Background(), input, true, args...)
}

// RunGitCommandWithInputAndContext executes a git command with input and context using the default runner
func RunGitCommandWithInputAndContext(ctx context.Context, input string, args ...string) (string, error) {
	return defaultRunner.runInternal(ctx, input, true, args...)
}

// RunGitCommandWithEnv executes a git command with environment variables
func RunGitCommandWithEnv(ctx context.Context, env []string, args ...string) (string, error) {
	return defaultRunner.runWithEnv(ctx, env, args...)
}

// Runner defines the interface for git operations used by the engine and the
// transaction manager. This allows both to be used with real git and with
// mock implementations.
type Runner interface {
	// Repository and Config
	InitDefaultRepo() error
	GetRemote() string
	FetchRemoteShas(remote string) (map[string]string, error)
	GetRemoteSha(remote, branchName string) (string, error)

	// Branch Management
	GetCurrentBranch() (string, error)
	GetAllBranchNames() ([]string, error)
	CheckoutBranch(ctx context.Context, branchName string) error
	CreateAndCheckoutBranch(ctx context.Context, branchName string) error
	CreateBranchAt(ctx context.Context, branchName, revision string) error
	DeleteBranch(ctx context.Context, branchName string) error
	RenameBranch(ctx context.Context, oldName, newName string) error
	UpdateBranchRef(branchName, revision string) error
	UpdateBranchRefWithReason(branchName, revision, reason string) error
	ResetBranchTo(ctx context.Context, branchName, revision, reason string) error

	// Commit and Revision Information
	GetRevision(branchName string) (string, error)
	BatchGetRevisions(branchNames []string) (map[string]string, []error)
	GetMergeBase(rev1, rev2 string) (string, error)
	IsAncestor(ancestor, descendant string) (bool, error)
	IsMerged(ctx context.Context, branchName, target string) (bool, error)
	GetCommitDate(branchName string) (time.Time, error)
	GetCommitAuthor(branchName string) (string, error)

	// Git Operations
	PullBranch(ctx context.Context, remote, branchName string) (PullResult, error)
	PushBranch(ctx context.Context, branchName, remote string, force, forceWithLease bool) error
	DeleteRemoteBranch(ctx context.Context, branchName, remote string) error
	Fetch(ctx context.Context, remote string) error
	Rebase(ctx context.Context, opts RebaseOptions) (RebaseResult, error)
	RebaseContinue(ctx context.Context) (RebaseResult, error)
	RebaseContinueIn(ctx context.Context, dir string) (RebaseResult, error)
	RebaseAbort(ctx context.Context) error
	RebaseAbortIn(ctx context.Context, dir string) error
	IsRebaseInProgress(ctx context.Context) bool
	IsRebaseInProgressIn(ctx context.Context, dir string) bool
	GetRebaseHead() (string, error)
	StashPush(ctx context.Context, dir, message string) (string, error)
	StashPop(ctx context.Context, dir string) error
	StageAll(ctx context.Context) error
	HasStagedChanges(ctx context.Context) (bool, error)
	HasUncommittedChanges(ctx context.Context) bool
	GetUnmergedFiles(ctx context.Context) ([]string, error)
	Commit(ctx context.Context, message string) error

	// Diff
	ShowDiff(ctx context.Context, left, right string, stat bool) (string, error)
	DiffStat(ctx context.Context, left, right string) (added, deleted int, err error)
	IsDiffEmpty(ctx context.Context, branchName, base string) (bool, error)

	// Worktree operations
	ListWorktrees(ctx context.Context) ([]Worktree, error)
	WorktreeForBranch(ctx context.Context, branchName string) (*Worktree, error)
	IsWorktreeDirty(ctx context.Context, dir string) (bool, error)
	AddWorktree(ctx context.Context, path string, branch string) error
	RemoveWorktree(ctx context.Context, path string) error

	// Runner state
	SetWorkingDir(dir string)
	GetWorkingDir() string

	// Low-level Commands
	RunGitCommand(args ...string) (string, error)
	RunGitCommandWithContext(ctx context.Context, args ...string) (string, error)
	RunGitCommandWithEnv(ctx context.Context, env []string, args ...string) (string, error)

	// Low-level Ref and Object Management
	GetRef(name string) (string, error)
	UpdateRef(name, sha string) error
	UpdateRefWithReason(name, sha, reason string) error
	DeleteRef(name string) error
	CreateBlob(content string) (string, error)
	ReadBlob(sha string) (string, error)
	ListRefs(prefix string) (map[string]string, error)
}

// NewRealRunner returns a standard implementation of Runner that calls
// the package-level git functions.
func NewRealRunner() Runner {
	return &realRunner{}
}

// NewRealRunnerWithDir returns a standard implementation of Runner that calls
// the package-level git functions in a specific directory.
func NewRealRunnerWithDir(dir string) Runner {
	return &realRunner{workingDir: dir}
}

// realRunner implements Runner by calling the actual git package functions
type realRunner struct {
	workingDir string
}

func (r *realRunner) SetWorkingDir(dir string) {
	r.workingDir = dir
}

func (r *realRunner) GetWorkingDir() string {
	return r.workingDir
}

func (r *realRunner) RunGitCommandWithContext(ctx context.Context, args ...string) (string, error) {
	if r.workingDir != "" {
		runner := &CommandRunner{workingDir: r.workingDir}
		return runner.Run(ctx, args...)
	}
	return RunGitCommandWithContext(ctx, args...)
}

func (r *realRunner) InitDefaultRepo() error {
	if r.workingDir != "" {
		_, err := RunGitCommandInDir(r.workingDir, "rev-parse", "--is-inside-work-tree")
		return err
	}
	return InitDefaultRepo()
}

func (r *realRunner) GetRemote() string {
	return GetRemote()
}

func (r *realRunner) FetchRemoteShas(remote string) (map[string]string, error) {
	return FetchRemoteShas(remote)
}

func (r *realRunner) GetRemoteSha(remote, branchName string) (string, error) {
	return GetRemoteSha(remote, branchName)
}

func (r *realRunner) GetCurrentBranch() (string, error) {
	return GetCurrentBranch()
}

func (r *realRunner) GetAllBranchNames() ([]string, error) {
	return GetAllBranchNames()
}

func (r *realRunner) CheckoutBranch(ctx context.Context, branchName string) error {
	return CheckoutBranch(ctx, branchName)
}

func (r *realRunner) CreateAndCheckoutBranch(ctx context.Context, branchName string) error {
	return CreateAndCheckoutBranch(ctx, branchName)
}

func (r *realRunner) CreateBranchAt(ctx context.Context, branchName, revision string) error {
	return CreateBranchAt(ctx, branchName, revision)
}

func (r *realRunner) DeleteBranch(ctx context.Context, branchName string) error {
	return DeleteBranch(ctx, branchName)
}

func (r *realRunner) RenameBranch(ctx context.Context, oldName, newName string) error {
	return RenameBranch(ctx, oldName, newName)
}

func (r *realRunner) UpdateBranchRef(branchName, revision string) error {
	return UpdateBranchRef(branchName, revision)
}

func (r *realRunner) UpdateBranchRefWithReason(branchName, revision, reason string) error {
	return UpdateBranchRefWithReason(branchName, revision, reason)
}

func (r *realRunner) ResetBranchTo(ctx context.Context, branchName, revision, reason string) error {
	return ResetBranchTo(ctx, branchName, revision, reason)
}

func (r *realRunner) GetRevision(branchName string) (string, error) {
	return GetRevision(branchName)
}

func (r *realRunner) BatchGetRevisions(branchNames []string) (map[string]string, []error) {
	return BatchGetRevisions(branchNames)
}

func (r *realRunner) GetMergeBase(rev1, rev2 string) (string, error) {
	return GetMergeBase(rev1, rev2)
}

func (r *realRunner) IsAncestor(ancestor, descendant string) (bool, error) {
	return IsAncestor(ancestor, descendant)
}

func (r *realRunner) IsMerged(ctx context.Context, branchName, target string) (bool, error) {
	return IsMerged(ctx, branchName, target)
}

func (r *realRunner) GetCommitDate(branchName string) (time.Time, error) {
	return GetCommitDate(branchName)
}

func (r *realRunner) GetCommitAuthor(branchName string) (string, error) {
	return GetCommitAuthor(branchName)
}

func (r *realRunner) PullBranch(ctx context.Context, remote, branchName string) (PullResult, error) {
	return PullBranch(ctx, remote, branchName)
}

func (r *realRunner) PushBranch(ctx context.Context, branchName, remote string, force, forceWithLease bool) error {
	return PushBranch(ctx, branchName, remote, force, forceWithLease)
}

func (r *realRunner) DeleteRemoteBranch(ctx context.Context, branchName, remote string) error {
	return DeleteRemoteBranch(ctx, branchName, remote)
}

func (r *realRunner) Fetch(ctx context.Context, remote string) error {
	return Fetch(ctx, remote)
}

func (r *realRunner) Rebase(ctx context.Context, opts RebaseOptions) (RebaseResult, error) {
	return Rebase(ctx, opts)
}

func (r *realRunner) RebaseContinue(ctx context.Context) (RebaseResult, error) {
	return RebaseContinue(ctx)
}

func (r *realRunner) RebaseContinueIn(ctx context.Context, dir string) (RebaseResult, error) {
	return RebaseContinueIn(ctx, dir)
}

func (r *realRunner) RebaseAbort(ctx context.Context) error {
	return RebaseAbort(ctx)
}

func (r *realRunner) RebaseAbortIn(ctx context.Context, dir string) error {
	return RebaseAbortIn(ctx, dir)
}

func (r *realRunner) IsRebaseInProgress(ctx context.Context) bool {
	return IsRebaseInProgress(ctx)
}

func (r *realRunner) IsRebaseInProgressIn(ctx context.Context, dir string) bool {
	return IsRebaseInProgressIn(ctx, dir)
}

func (r *realRunner) GetRebaseHead() (string, error) {
	return GetRebaseHead()
}

func (r *realRunner) StashPush(ctx context.Context, dir, message string) (string, error) {
	return StashPush(ctx, dir, message)
}

func (r *realRunner) StashPop(ctx context.Context, dir string) error {
	return StashPop(ctx, dir)
}

func (r *realRunner) StageAll(ctx context.Context) error {
	return StageAll(ctx)
}

func (r *realRunner) HasStagedChanges(ctx context.Context) (bool, error) {
	return HasStagedChanges(ctx)
}

func (r *realRunner) HasUncommittedChanges(ctx context.Context) bool {
	return HasUncommittedChanges(ctx)
}

func (r *realRunner) GetUnmergedFiles(ctx context.Context) ([]string, error) {
	return GetUnmergedFiles(ctx)
}

func (r *realRunner) Commit(ctx context.Context, message string) error {
	return Commit(ctx, message)
}

func (r *realRunner) ShowDiff(ctx context.Context, left, right string, stat bool) (string, error) {
	return ShowDiff(ctx, left, right, stat)
}

func (r *realRunner) DiffStat(ctx context.Context, left, right string) (int, int, error) {
	return DiffStat(ctx, left, right)
}

func (r *realRunner) IsDiffEmpty(ctx context.Context, branchName, base string) (bool, error) {
	return IsDiffEmpty(ctx, branchName, base)
}

func (r *realRunner) ListWorktrees(ctx context.Context) ([]Worktree, error) {
	return ListWorktrees(ctx)
}

func (r *realRunner) WorktreeForBranch(ctx context.Context, branchName string) (*Worktree, error) {
	return WorktreeForBranch(ctx, branchName)
}

func (r *realRunner) IsWorktreeDirty(ctx context.Context, dir string) (bool, error) {
	return IsWorktreeDirty(ctx, dir)
}

func (r *realRunner) AddWorktree(ctx context.Context, path string, branch string) error {
	return AddWorktree(ctx, path, branch)
}

func (r *realRunner) RemoveWorktree(ctx context.Context, path string) error {
	return RemoveWorktree(ctx, path)
}

func (r *realRunner) RunGitCommand(args ...string) (string, error) {
	return RunGitCommand(args...)
}

func (r *realRunner) RunGitCommandWithEnv(ctx context.Context, env []string, args ...string) (string, error) {
	return RunGitCommandWithEnv(ctx, env, args...)
}

func (r *realRunner) GetRef(name string) (string, error) {
	return GetRef(name)
}

func (r *realRunner) UpdateRef(name, sha string) error {
	return UpdateRef(name, sha)
}

func (r *realRunner) UpdateRefWithReason(name, sha, reason string) error {
	return UpdateRefWithReason(name, sha, reason)
}

func (r *realRunner) DeleteRef(name string) error {
	return DeleteRef(name)
}

func (r *realRunner) CreateBlob(content string) (string, error) {
	return CreateBlob(content)
}

func (r *realRunner) ReadBlob(sha string) (string, error) {
	return ReadBlob(sha)
}

func (r *realRunner) ListRefs(prefix string) (map[string]string, error) {
	return ListRefs(prefix)
}
