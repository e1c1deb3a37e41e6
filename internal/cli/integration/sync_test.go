package integration

import (
	"testing"

	"github.com/stretchr/testify/require"

	"braid.dev/braid/testhelpers"
	"braid.dev/braid/testhelpers/scenario"
)

// =============================================================================
// Sync Workflow Integration Tests
//
// Sync pulls the trunk, deletes branches whose work has landed upstream, and
// re-points their children. With --restack it also rebases what is left.
// =============================================================================

func TestSyncWorkflow(t *testing.T) {
	t.Run("sync deletes a landed branch and reparents its child", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		_, err := s.Scene.Repo.CreateBareRemote("origin")
		require.NoError(t, err)

		s.WithStack(map[string]string{
			"branch1": "main",
			"branch2": "branch1",
		})

		require.NoError(t, s.Scene.Repo.MergeBranch("main", "branch1"))
		require.NoError(t, s.Scene.Repo.PushBranch("origin", "main"))

		s.RunCli("sync", "--force")

		branches, err := s.Scene.Repo.GetLocalBranches()
		require.NoError(t, err)
		require.NotContains(t, branches, "branch1")
		require.Contains(t, branches, "branch2")
		require.Equal(t, "main", s.Engine.GetParent("branch2"))

		receipts, err := s.Context.Ops.List()
		require.NoError(t, err)
		require.Len(t, receipts, 1)
		require.Equal(t, "sync", receipts[0].Kind)
	})

	t.Run("sync --restack rebases the stack onto the pulled trunk", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		_, err := s.Scene.Repo.CreateBareRemote("origin")
		require.NoError(t, err)

		s.WithStack(map[string]string{"branch1": "main"}).
			Checkout("main").
			CommitChange("trunk", "remote change")
		require.NoError(t, s.Scene.Repo.PushBranch("origin", "main"))
		s.RunGit("reset", "--hard", "HEAD~1").
			Checkout("branch1")

		s.RunCli("sync", "--restack", "--force")

		s.ExpectBranch("branch1").
			ExpectBranchUpToDate("branch1")

		messages, err := s.Scene.Repo.ListCurrentBranchCommitMessages()
		require.NoError(t, err)
		require.Contains(t, messages, "remote change")
	})
}
