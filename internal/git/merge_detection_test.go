package git_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"braid.dev/braid/internal/git"
	"braid.dev/braid/testhelpers"
)

func TestIsMerged(t *testing.T) {
	t.Run("returns false for an unmerged branch", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		err := scene.Repo.CreateAndCheckoutBranch("branch1")
		require.NoError(t, err)
		err = scene.Repo.CreateChangeAndCommit("branch1 change", "b1")
		require.NoError(t, err)
		err = scene.Repo.CheckoutBranch("main")
		require.NoError(t, err)

		merged, err := git.IsMerged(context.Background(), "branch1", "main")
		require.NoError(t, err)
		require.False(t, merged)
	})

	t.Run("returns true after a merge", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		err := scene.Repo.CreateAndCheckoutBranch("branch1")
		require.NoError(t, err)
		err = scene.Repo.CreateChangeAndCommit("branch1 change", "b1")
		require.NoError(t, err)

		err = scene.Repo.MergeBranch("main", "branch1")
		require.NoError(t, err)

		merged, err := git.IsMerged(context.Background(), "branch1", "main")
		require.NoError(t, err)
		require.True(t, merged)
	})

	t.Run("detects a squash merge", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		err := scene.Repo.CreateAndCheckoutBranch("branch1")
		require.NoError(t, err)
		err = scene.Repo.CreateChangeAndCommit("branch1 change", "b1")
		require.NoError(t, err)

		// Squash merging rewrites the commit, so ancestry alone cannot see it.
		err = scene.Repo.CheckoutBranch("main")
		require.NoError(t, err)
		err = scene.Repo.RunGitCommand("merge", "--squash", "branch1")
		require.NoError(t, err)
		err = scene.Repo.RunGitCommand("commit", "-m", "branch1 squashed")
		require.NoError(t, err)

		merged, err := git.IsMerged(context.Background(), "branch1", "main")
		require.NoError(t, err)
		require.True(t, merged)
	})
}
