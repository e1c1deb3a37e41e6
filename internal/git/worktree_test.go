package git_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"braid.dev/braid/internal/git"
	"braid.dev/braid/testhelpers"
)

func TestWorktree(t *testing.T) {
	t.Run("adds lists and removes a worktree", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		err := scene.Repo.CreateBranch("branch1")
		require.NoError(t, err)

		wtPath := filepath.Join(t.TempDir(), "worktree")
		require.NoError(t, git.AddWorktree(context.Background(), wtPath, "branch1"))

		_, err = os.Stat(filepath.Join(wtPath, ".git"))
		require.NoError(t, err)

		worktrees, err := git.ListWorktrees(context.Background())
		require.NoError(t, err)
		found := false
		for _, wt := range worktrees {
			if git.SamePath(wt.Path, wtPath) {
				found = true
				require.Equal(t, "branch1", wt.Branch)
				require.False(t, wt.Detached)
			}
		}
		require.True(t, found)

		require.NoError(t, git.RemoveWorktree(context.Background(), wtPath))

		worktrees, err = git.ListWorktrees(context.Background())
		require.NoError(t, err)
		for _, wt := range worktrees {
			require.False(t, git.SamePath(wt.Path, wtPath))
		}
	})

	t.Run("finds the worktree holding a branch", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		err := scene.Repo.CreateBranch("branch1")
		require.NoError(t, err)

		wtPath := filepath.Join(t.TempDir(), "worktree")
		require.NoError(t, git.AddWorktree(context.Background(), wtPath, "branch1"))

		wt, err := git.WorktreeForBranch(context.Background(), "branch1")
		require.NoError(t, err)
		require.NotNil(t, wt)
		require.True(t, git.SamePath(wt.Path, wtPath))

		// The invoking worktree counts too.
		wt, err = git.WorktreeForBranch(context.Background(), mainBranch)
		require.NoError(t, err)
		require.NotNil(t, wt)
		require.True(t, git.SamePath(wt.Path, scene.Dir))
	})

	t.Run("returns nil for a branch not checked out anywhere", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		err := scene.Repo.CreateBranch("idle")
		require.NoError(t, err)

		wt, err := git.WorktreeForBranch(context.Background(), "idle")
		require.NoError(t, err)
		require.Nil(t, wt)
	})
}

func TestIsWorktreeDirty(t *testing.T) {
	t.Run("reports clean and dirty states", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		dirty, err := git.IsWorktreeDirty(context.Background(), scene.Dir)
		require.NoError(t, err)
		require.False(t, dirty)

		err = scene.Repo.CreateChange("local edit", "init", true)
		require.NoError(t, err)

		dirty, err = git.IsWorktreeDirty(context.Background(), scene.Dir)
		require.NoError(t, err)
		require.True(t, dirty)
	})

	t.Run("counts untracked files as dirty", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		err := scene.Repo.CreateChange("brand new", "untracked", true)
		require.NoError(t, err)

		dirty, err := git.IsWorktreeDirty(context.Background(), scene.Dir)
		require.NoError(t, err)
		require.True(t, dirty)
	})
}
