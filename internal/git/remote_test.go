package git_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"braid.dev/braid/internal/git"
	"braid.dev/braid/testhelpers"
)

func TestGetRemote(t *testing.T) {
	t.Run("falls back to origin", func(t *testing.T) {
		_ = testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		require.Equal(t, "origin", git.GetRemote())
	})

	t.Run("honors the current branch's configured remote", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		err := scene.Repo.RunGitCommand("config", "branch.main.remote", "upstream")
		require.NoError(t, err)

		require.Equal(t, "upstream", git.GetRemote())
	})
}

func TestRemoteOwnerRepo(t *testing.T) {
	t.Run("parses an https remote url", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		err := scene.Repo.RunGitCommand("remote", "add", "origin", "https://github.com/acme/widgets.git")
		require.NoError(t, err)

		owner, repo, err := git.RemoteOwnerRepo(context.Background(), "origin")
		require.NoError(t, err)
		require.Equal(t, "acme", owner)
		require.Equal(t, "widgets", repo)
	})

	t.Run("parses an ssh remote url", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		err := scene.Repo.RunGitCommand("remote", "add", "origin", "git@github.com:acme/widgets.git")
		require.NoError(t, err)

		owner, repo, err := git.RemoteOwnerRepo(context.Background(), "origin")
		require.NoError(t, err)
		require.Equal(t, "acme", owner)
		require.Equal(t, "widgets", repo)
	})

	t.Run("fails without a configured remote", func(t *testing.T) {
		_ = testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		_, _, err := git.RemoteOwnerRepo(context.Background(), "origin")
		require.Error(t, err)
		require.Contains(t, err.Error(), "no url configured")
	})
}

func TestFindRemoteHeadBranch(t *testing.T) {
	t.Run("reads the cached remote head", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		_, err := scene.Repo.CreateBareRemote("origin")
		require.NoError(t, err)
		require.NoError(t, scene.Repo.PushBranch("origin", "main"))
		err = scene.Repo.RunGitCommand("symbolic-ref", "refs/remotes/origin/HEAD", "refs/remotes/origin/main")
		require.NoError(t, err)

		require.Equal(t, "main", git.FindRemoteHeadBranch(context.Background(), "origin"))
	})

	t.Run("returns empty when the remote head is not cached", func(t *testing.T) {
		_ = testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		require.Empty(t, git.FindRemoteHeadBranch(context.Background(), "origin"))
	})
}
