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

func TestUndoAction(t *testing.T) {
	ctx := context.Background()

	t.Run("rolls back a create", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		err := actions.CreateAction(ctx, s.Context, actions.CreateOptions{BranchName: "feature"})
		require.NoError(t, err)

		current, err := s.Scene.Repo.CurrentBranchName()
		require.NoError(t, err)
		require.Equal(t, "feature", current)

		err = actions.UndoAction(ctx, s.Context, actions.UndoOptions{})
		require.NoError(t, err)

		branches, err := s.Scene.Repo.GetLocalBranches()
		require.NoError(t, err)
		require.NotContains(t, branches, "feature")

		// The checkout is back where the create started
		current, err = s.Scene.Repo.CurrentBranchName()
		require.NoError(t, err)
		require.Equal(t, "main", current)

		require.False(t, s.Engine.IsBranchTracked("feature"))
		meta, err := git.NewMetadataStore(nil).Read("feature")
		require.NoError(t, err)
		require.Nil(t, meta)

		receipts, err := s.Context.Ops.List()
		require.NoError(t, err)
		require.Len(t, receipts, 1)
		require.Equal(t, "create", receipts[0].Kind)
		require.True(t, receipts[0].Undone)
	})

	t.Run("rolls back a delete and restores the stack", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithStack(map[string]string{
			"branch1": "main",
			"branch2": "branch1",
		}).Checkout("main")

		branch1Before, err := s.Engine.GetRevision("branch1")
		require.NoError(t, err)

		err = actions.DeleteAction(ctx, s.Context, actions.DeleteOptions{BranchName: "branch1", Force: true})
		require.NoError(t, err)

		branches, err := s.Scene.Repo.GetLocalBranches()
		require.NoError(t, err)
		require.NotContains(t, branches, "branch1")

		err = actions.UndoAction(ctx, s.Context, actions.UndoOptions{})
		require.NoError(t, err)

		branches, err = s.Scene.Repo.GetLocalBranches()
		require.NoError(t, err)
		require.Contains(t, branches, "branch1")

		restored, err := s.Engine.GetRevision("branch1")
		require.NoError(t, err)
		require.Equal(t, branch1Before, restored)

		// branch2 points back at branch1, with its original parent revision
		s.ExpectStackStructure(map[string]string{
			"branch1": "main",
			"branch2": "branch1",
		})
		s.ExpectBranchUpToDate("branch2")
	})

	t.Run("undoes the operation named by id", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		err := actions.CreateAction(ctx, s.Context, actions.CreateOptions{BranchName: "first"})
		require.NoError(t, err)
		s.Checkout("main")
		err = actions.CreateAction(ctx, s.Context, actions.CreateOptions{BranchName: "second"})
		require.NoError(t, err)

		receipts, err := s.Context.Ops.List()
		require.NoError(t, err)
		require.Len(t, receipts, 2)
		older := receipts[1]
		require.ElementsMatch(t, []string{"first"}, older.BranchNames())

		err = actions.UndoAction(ctx, s.Context, actions.UndoOptions{OpID: older.ID})
		require.NoError(t, err)

		branches, err := s.Scene.Repo.GetLocalBranches()
		require.NoError(t, err)
		require.NotContains(t, branches, "first")
		require.Contains(t, branches, "second")

		undone, err := s.Context.Ops.Get(older.ID)
		require.NoError(t, err)
		require.True(t, undone.Undone)

		newest, err := s.Context.Ops.Get(receipts[0].ID)
		require.NoError(t, err)
		require.False(t, newest.Undone)
	})

	t.Run("reports nothing to undo without operations", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		err := actions.UndoAction(ctx, s.Context, actions.UndoOptions{})
		require.NoError(t, err)
	})
}

func TestRedoAction(t *testing.T) {
	ctx := context.Background()

	t.Run("replays an undone create", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		err := actions.CreateAction(ctx, s.Context, actions.CreateOptions{BranchName: "feature"})
		require.NoError(t, err)
		created, err := s.Engine.GetRevision("feature")
		require.NoError(t, err)

		err = actions.UndoAction(ctx, s.Context, actions.UndoOptions{})
		require.NoError(t, err)
		err = actions.RedoAction(ctx, s.Context, false)
		require.NoError(t, err)

		branches, err := s.Scene.Repo.GetLocalBranches()
		require.NoError(t, err)
		require.Contains(t, branches, "feature")

		replayed, err := s.Engine.GetRevision("feature")
		require.NoError(t, err)
		require.Equal(t, created, replayed)

		require.True(t, s.Engine.IsBranchTracked("feature"))
		require.Equal(t, "main", s.Engine.GetParent("feature"))

		receipts, err := s.Context.Ops.List()
		require.NoError(t, err)
		require.Len(t, receipts, 1)
		require.False(t, receipts[0].Undone)
	})

	t.Run("reports nothing to redo without an undone operation", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		err := actions.CreateAction(ctx, s.Context, actions.CreateOptions{BranchName: "feature"})
		require.NoError(t, err)

		err = actions.RedoAction(ctx, s.Context, false)
		require.NoError(t, err)

		receipts, err := s.Context.Ops.List()
		require.NoError(t, err)
		require.Len(t, receipts, 1)
		require.False(t, receipts[0].Undone)
	})
}

func TestOpsAction(t *testing.T) {
	ctx := context.Background()

	t.Run("prunes finished operations and keeps halted ones", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithStack(map[string]string{
			"branch1": "main",
		}).
			Checkout("main").
			CommitChange("base", "main moves").
			Checkout("branch1")

		err := actions.RestackAction(ctx, s.Context, actions.RestackOptions{Scope: fullScope})
		require.NoError(t, err)

		receipts, err := s.Context.Ops.List()
		require.NoError(t, err)
		require.Len(t, receipts, 1)
		require.Equal(t, ops.StatusOK, receipts[0].Status)
		finishedID := receipts[0].ID

		s.CommitChange("conflict", "branch1 side").
			Checkout("main").
			CommitChange("conflict", "main side").
			Checkout("branch1")

		err = actions.RestackAction(ctx, s.Context, actions.RestackOptions{Scope: fullScope})
		require.ErrorIs(t, err, braiderrors.ErrRebaseConflict)

		receipts, err = s.Context.Ops.List()
		require.NoError(t, err)
		require.Len(t, receipts, 2)
		require.Equal(t, ops.StatusHalted, receipts[0].Status)
		haltedID := receipts[0].ID

		err = actions.OpsAction(ctx, s.Context, actions.OpsOptions{Prune: true})
		require.NoError(t, err)

		receipts, err = s.Context.Ops.List()
		require.NoError(t, err)
		require.Len(t, receipts, 1)
		require.Equal(t, haltedID, receipts[0].ID)

		refs, err := s.Context.Runner.ListRefs(ops.BackupRefPrefix)
		require.NoError(t, err)
		require.Contains(t, refs, haltedID+"/branch1")
		require.NotContains(t, refs, finishedID+"/branch1")
	})

	t.Run("reports nothing to prune without finished operations", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		err := actions.OpsAction(ctx, s.Context, actions.OpsOptions{Prune: true})
		require.NoError(t, err)
	})

	t.Run("lists recorded operations", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		err := actions.CreateAction(ctx, s.Context, actions.CreateOptions{BranchName: "feature"})
		require.NoError(t, err)

		err = actions.OpsAction(ctx, s.Context, actions.OpsOptions{})
		require.NoError(t, err)
	})
}
