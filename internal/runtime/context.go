package runtime

import (
	stdcontext "context"
	"fmt"
	"sync"

	"braid.dev/braid/internal/config"
	"braid.dev/braid/internal/diffcache"
	"braid.dev/braid/internal/engine"
	"braid.dev/braid/internal/git"
	"braid.dev/braid/internal/github"
	"braid.dev/braid/internal/ops"
	"braid.dev/braid/internal/output"
)

// Context provides access to the engine, operations and output for commands
type Context struct {
	Engine   engine.Engine
	Ops      *ops.Manager
	Splog    *output.Splog
	Diffs    *diffcache.Cache
	Runner   git.Runner
	RepoRoot string
	GitDir   string
	Remote   string

	githubOnce sync.Once
	github     github.Client
}

// NewContext creates a bare context around an engine. Tests use it; commands
// go through GetContext.
func NewContext(eng engine.Engine) *Context {
	return &Context{
		Engine: eng,
		Splog:  output.NewSplog(),
		Diffs:  diffcache.New(),
		Runner: git.NewRealRunner(),
	}
}

// Discover locates the enclosing repository. It returns the worktree root the
// command runs in and the shared git dir, where braid keeps its repo-global
// state.
func Discover() (repoRoot, gitDir string, err error) {
	if err := git.InitDefaultRepo(); err != nil {
		return "", "", fmt.Errorf("not a git repository: %w", err)
	}

	repoRoot, err = git.GetRepoRoot()
	if err != nil {
		return "", "", fmt.Errorf("failed to get repo root: %w", err)
	}

	gitDir, err = git.GetCommonDir()
	if err != nil {
		return "", "", err
	}

	return repoRoot, gitDir, nil
}

// GetContext discovers the repository, checks that braid is initialized, and
// loads the engine. Every command except init goes through here.
func GetContext() (*Context, error) {
	repoRoot, gitDir, err := Discover()
	if err != nil {
		return nil, err
	}

	if !config.IsInitialized(gitDir) {
		return nil, fmt.Errorf("braid is not initialized in this repository. Run 'braid init' first")
	}

	splog, err := output.NewSplogWithFile(output.LogFilePath(gitDir))
	if err != nil {
		// File logging is a convenience; fall back to console-only
		splog = output.NewSplog()
	}

	trunk, err := config.GetTrunk(gitDir)
	if err != nil {
		return nil, err
	}

	remote, err := config.GetRemote(gitDir)
	if err != nil {
		return nil, err
	}

	store := git.NewMetadataStore(splog.FileLogger())
	runner := git.NewRealRunner()

	eng, err := engine.NewEngine(repoRoot, trunk, store, runner, splog.FileLogger())
	if err != nil {
		_ = splog.Close()
		return nil, err
	}

	return &Context{
		Engine:   eng,
		Ops:      ops.NewManager(gitDir, store, runner, splog.FileLogger()),
		Splog:    splog,
		Diffs:    diffcache.New(),
		Runner:   runner,
		RepoRoot: repoRoot,
		GitDir:   gitDir,
		Remote:   remote,
	}, nil
}

// GitHub returns the read-only GitHub client, built on first use. Returns nil
// when no token or parseable remote is available; callers treat that as "PR
// state unknown" and carry on.
func (c *Context) GitHub(ctx stdcontext.Context) github.Client {
	c.githubOnce.Do(func() {
		client, err := github.NewClient(ctx, c.Remote)
		if err != nil {
			c.Splog.Debug("GitHub client unavailable: %v", err)
			return
		}
		c.github = client
	})
	return c.github
}

// SetGitHub injects a GitHub client, for tests
func (c *Context) SetGitHub(client github.Client) {
	c.githubOnce.Do(func() {})
	c.github = client
}

// Close releases the context's resources, currently the rotated log file
func (c *Context) Close() error {
	if c.Splog != nil {
		return c.Splog.Close()
	}
	return nil
}
