package actions_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"braid.dev/braid/internal/actions"
	braiderrors "braid.dev/braid/internal/errors"
	"braid.dev/braid/internal/git"
	"braid.dev/braid/testhelpers"
	"braid.dev/braid/testhelpers/scenario"
)

func TestTrackAction(t *testing.T) {
	ctx := context.Background()

	t.Run("tracks the current branch under an explicit parent", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit().
			CreateBranch("feature").
			CommitChange("feature", "feature change")

		err := actions.TrackAction(ctx, s.Context, actions.TrackOptions{Parent: "main"})
		require.NoError(t, err)

		s.Rebuild()
		require.True(t, s.Engine.IsBranchTracked("feature"))
		require.Equal(t, "main", s.Engine.GetParent("feature"))
		s.ExpectBranchUpToDate("feature")
	})

	t.Run("defaults to trunk when no parent is given", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit().
			CreateBranch("feature").
			CommitChange("feature", "feature change")

		err := actions.TrackAction(ctx, s.Context, actions.TrackOptions{})
		require.NoError(t, err)

		s.Rebuild()
		require.Equal(t, "main", s.Engine.GetParent("feature"))
	})

	t.Run("moves an already tracked branch under a new parent", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithStack(map[string]string{
			"branch1": "main",
			"branch2": "branch1",
		})

		err := actions.TrackAction(ctx, s.Context, actions.TrackOptions{
			BranchName: "branch2",
			Parent:     "main",
		})
		require.NoError(t, err)

		s.Rebuild()
		require.Equal(t, "main", s.Engine.GetParent("branch2"))
		require.Equal(t, "main", s.Engine.GetParent("branch1"))
	})

	t.Run("rejects a parent that is not an ancestor", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithStack(map[string]string{
			"branch1": "main",
			"branch2": "main",
		})

		err := actions.TrackAction(ctx, s.Context, actions.TrackOptions{
			BranchName: "branch2",
			Parent:     "branch1",
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "is not an ancestor of")
		require.Contains(t, err.Error(), "--force")

		s.Rebuild()
		require.Equal(t, "main", s.Engine.GetParent("branch2"))
	})

	t.Run("force moves under a sibling and flags the restack", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithStack(map[string]string{
			"branch1": "main",
			"branch2": "main",
		})

		err := actions.TrackAction(ctx, s.Context, actions.TrackOptions{
			BranchName: "branch2",
			Parent:     "branch1",
			Force:      true,
		})
		require.NoError(t, err)

		s.Rebuild()
		require.Equal(t, "branch1", s.Engine.GetParent("branch2"))
		s.ExpectBranchNeedsRestack("branch2")
	})

	t.Run("reports an already tracked branch without changing it", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithStack(map[string]string{"branch1": "main"})

		err := actions.TrackAction(ctx, s.Context, actions.TrackOptions{BranchName: "branch1"})
		require.NoError(t, err)

		s.Rebuild()
		require.Equal(t, "main", s.Engine.GetParent("branch1"))
	})

	t.Run("refuses trunk", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		err := actions.TrackAction(ctx, s.Context, actions.TrackOptions{BranchName: "main"})
		require.Error(t, err)
		require.ErrorIs(t, err, braiderrors.ErrTrunkOperation)
	})
}

func TestUntrackAction(t *testing.T) {
	ctx := context.Background()

	t.Run("drops the metadata and keeps the branch", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithStack(map[string]string{"branch1": "main"})

		err := actions.UntrackAction(ctx, s.Context, actions.UntrackOptions{BranchName: "branch1"})
		require.NoError(t, err)

		require.False(t, s.Engine.IsBranchTracked("branch1"))

		branches, err := s.Scene.Repo.GetLocalBranches()
		require.NoError(t, err)
		require.Contains(t, branches, "branch1")

		meta, err := git.NewMetadataStore(nil).Read("branch1")
		require.NoError(t, err)
		require.Nil(t, meta)
	})

	t.Run("refuses a branch with tracked children", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithStack(map[string]string{
			"branch1": "main",
			"branch2": "branch1",
		})

		err := actions.UntrackAction(ctx, s.Context, actions.UntrackOptions{BranchName: "branch1"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "has tracked children")

		require.True(t, s.Engine.IsBranchTracked("branch1"))
	})

	t.Run("fails on an untracked branch", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit().
			CreateBranch("loose")

		err := actions.UntrackAction(ctx, s.Context, actions.UntrackOptions{})
		require.Error(t, err)
		require.ErrorIs(t, err, braiderrors.ErrBranchNotTracked)
	})
}
