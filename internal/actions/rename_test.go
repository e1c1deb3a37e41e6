package actions_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"braid.dev/braid/internal/actions"
	braiderrors "braid.dev/braid/internal/errors"
	"braid.dev/braid/internal/git"
	"braid.dev/braid/internal/ops"
	"braid.dev/braid/testhelpers"
	"braid.dev/braid/testhelpers/scenario"
)

func TestRenameAction(t *testing.T) {
	ctx := context.Background()

	t.Run("renames the current branch and keeps the stack intact", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithStack(map[string]string{
			"branch1": "main",
			"branch2": "branch1",
		}).
			Checkout("branch1")

		err := actions.RenameAction(ctx, s.Context, actions.RenameOptions{NewName: "renamed"})
		require.NoError(t, err)

		current, err := s.Scene.Repo.CurrentBranchName()
		require.NoError(t, err)
		require.Equal(t, "renamed", current)

		branches, err := s.Scene.Repo.GetLocalBranches()
		require.NoError(t, err)
		require.NotContains(t, branches, "branch1")
		require.Contains(t, branches, "renamed")

		s.Rebuild()
		require.True(t, s.Engine.IsBranchTracked("renamed"))
		require.Equal(t, "main", s.Engine.GetParent("renamed"))
		require.Equal(t, "renamed", s.Engine.GetParent("branch2"))
		s.ExpectBranchUpToDate("renamed").
			ExpectBranchUpToDate("branch2")

		meta, err := git.NewMetadataStore(nil).Read("branch1")
		require.NoError(t, err)
		require.Nil(t, meta)

		receipts, err := s.Context.Ops.List()
		require.NoError(t, err)
		require.Len(t, receipts, 1)
		require.Equal(t, "rename", receipts[0].Kind)
		require.Equal(t, ops.StatusOK, receipts[0].Status)
		require.ElementsMatch(t, []string{"branch1", "renamed", "branch2"}, receipts[0].BranchNames())
	})

	t.Run("is a no-op when the name is unchanged", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithStack(map[string]string{"branch1": "main"}).
			Checkout("branch1")

		err := actions.RenameAction(ctx, s.Context, actions.RenameOptions{NewName: "branch1"})
		require.NoError(t, err)

		receipts, err := s.Context.Ops.List()
		require.NoError(t, err)
		require.Empty(t, receipts)
	})

	t.Run("refuses when a pull request is recorded", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithStack(map[string]string{"branch1": "main"}).
			Checkout("branch1")

		require.NoError(t, s.Engine.UpsertPrInfo("branch1", testhelpers.NewTestPrInfo(42)))

		err := actions.RenameAction(ctx, s.Context, actions.RenameOptions{NewName: "renamed"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "associated with PR #42")
		require.Contains(t, err.Error(), "--force")

		branches, err := s.Scene.Repo.GetLocalBranches()
		require.NoError(t, err)
		require.Contains(t, branches, "branch1")
	})

	t.Run("force rename drops the pull request link", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithStack(map[string]string{"branch1": "main"}).
			Checkout("branch1")

		require.NoError(t, s.Engine.UpsertPrInfo("branch1", testhelpers.NewTestPrInfo(42)))

		err := actions.RenameAction(ctx, s.Context, actions.RenameOptions{
			NewName: "renamed",
			Force:   true,
		})
		require.NoError(t, err)

		s.Rebuild()
		require.True(t, s.Engine.IsBranchTracked("renamed"))
		require.Nil(t, s.Engine.GetPrInfo("renamed"))
	})

	t.Run("refuses trunk", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		err := actions.RenameAction(ctx, s.Context, actions.RenameOptions{NewName: "other"})
		require.Error(t, err)
		require.ErrorIs(t, err, braiderrors.ErrTrunkOperation)
	})

	t.Run("requires a name when prompts are unavailable", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithStack(map[string]string{"branch1": "main"}).
			Checkout("branch1")

		err := actions.RenameAction(ctx, s.Context, actions.RenameOptions{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "a new branch name is required")
	})
}
