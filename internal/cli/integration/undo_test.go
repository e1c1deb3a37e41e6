package integration

import (
	"testing"

	"github.com/stretchr/testify/require"

	"braid.dev/braid/testhelpers"
	"braid.dev/braid/testhelpers/scenario"
)

// =============================================================================
// Undo / Redo / Ops Integration Tests
//
// Every mutating braid command records a receipt. These tests roll commands
// back and forward through the binary and manage the receipts with braid ops.
// =============================================================================

func TestUndoWorkflow(t *testing.T) {
	t.Run("undo rolls back the last create and redo replays it", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		require.NoError(t, s.Scene.Repo.CreateChange("feature work", "feature", false))
		s.RunCli("create", "feature", "-m", "add feature")
		s.ExpectBranch("feature")

		s.RunCli("undo")

		s.ExpectBranch("main")
		branches, err := s.Scene.Repo.GetLocalBranches()
		require.NoError(t, err)
		require.NotContains(t, branches, "feature")

		s.RunCli("redo")

		branches, err = s.Scene.Repo.GetLocalBranches()
		require.NoError(t, err)
		require.Contains(t, branches, "feature")
		require.True(t, s.Engine.IsBranchTracked("feature"))
		require.Equal(t, "main", s.Engine.GetParent("feature"))

		receipts, err := s.Context.Ops.List()
		require.NoError(t, err)
		require.Len(t, receipts, 1)
		require.False(t, receipts[0].Undone)
	})

	t.Run("undo --op targets a specific operation", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		s.RunCli("create", "first", "-m", "first")
		s.RunCli("checkout", "main")
		s.RunCli("create", "second", "-m", "second")

		receipts, err := s.Context.Ops.List()
		require.NoError(t, err)
		require.Len(t, receipts, 2)
		older := receipts[1]
		require.Equal(t, []string{"first"}, older.BranchNames())

		s.RunCli("undo", "--op", older.ID)

		branches, err := s.Scene.Repo.GetLocalBranches()
		require.NoError(t, err)
		require.NotContains(t, branches, "first")
		require.Contains(t, branches, "second")

		undone, err := s.Context.Ops.Get(older.ID)
		require.NoError(t, err)
		require.True(t, undone.Undone)
	})

	t.Run("ops lists receipts and prune drops the finished ones", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		s.RunCli("create", "feature", "-m", "add feature")

		out, err := s.RunCliAndGetOutput("ops")
		require.NoError(t, err)
		require.Contains(t, out, "create")
		require.Contains(t, out, "feature")

		out, err = s.RunCliAndGetOutput("ops", "--prune")
		require.NoError(t, err)
		require.Contains(t, out, "Pruned 1 finished operation")

		receipts, err := s.Context.Ops.List()
		require.NoError(t, err)
		require.Empty(t, receipts)
	})
}
