package actions_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"braid.dev/braid/internal/actions"
	braiderrors "braid.dev/braid/internal/errors"
	"braid.dev/braid/internal/ops"
	"braid.dev/braid/testhelpers"
	"braid.dev/braid/testhelpers/scenario"
)

func TestSyncAction(t *testing.T) {
	ctx := context.Background()

	t.Run("fast-forwards trunk from the remote", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		_, err := s.Scene.Repo.CreateBareRemote("origin")
		require.NoError(t, err)

		s.CommitChange("trunk", "remote change")
		require.NoError(t, s.Scene.Repo.PushBranch("origin", "main"))
		remoteTip, err := s.Engine.GetRevision("main")
		require.NoError(t, err)

		// Rewind the local trunk so the remote is ahead
		s.RunGit("reset", "--hard", "HEAD~1").Rebuild()

		err = actions.SyncAction(ctx, s.Context, actions.SyncOptions{})
		require.NoError(t, err)

		current, err := s.Engine.GetRevision("main")
		require.NoError(t, err)
		require.Equal(t, remoteTip, current)

		// Nothing was deleted or restacked, so there is nothing to undo
		receipts, err := s.Context.Ops.List()
		require.NoError(t, err)
		require.Empty(t, receipts)
	})

	t.Run("deletes branches whose work has landed with force", func(t *testing.T) {
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
		s.Rebuild()

		err = actions.SyncAction(ctx, s.Context, actions.SyncOptions{Force: true})
		require.NoError(t, err)

		branches, err := s.Scene.Repo.GetLocalBranches()
		require.NoError(t, err)
		require.NotContains(t, branches, "branch1")
		require.Contains(t, branches, "branch2")

		s.Rebuild()
		require.Equal(t, "main", s.Engine.GetParent("branch2"))

		receipts, err := s.Context.Ops.List()
		require.NoError(t, err)
		require.Len(t, receipts, 1)
		require.Equal(t, "sync", receipts[0].Kind)
		require.Equal(t, ops.StatusOK, receipts[0].Status)
		require.ElementsMatch(t, []string{"branch1", "branch2"}, receipts[0].BranchNames())
		for _, state := range receipts[0].Branches {
			if state.Name == "branch1" {
				require.Empty(t, state.After)
			}
		}
	})

	t.Run("keeps landed branches without force when prompts are unavailable", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		_, err := s.Scene.Repo.CreateBareRemote("origin")
		require.NoError(t, err)

		s.WithStack(map[string]string{"branch1": "main"})

		require.NoError(t, s.Scene.Repo.MergeBranch("main", "branch1"))
		require.NoError(t, s.Scene.Repo.PushBranch("origin", "main"))
		s.Rebuild()

		err = actions.SyncAction(ctx, s.Context, actions.SyncOptions{})
		require.NoError(t, err)

		branches, err := s.Scene.Repo.GetLocalBranches()
		require.NoError(t, err)
		require.Contains(t, branches, "branch1")

		receipts, err := s.Context.Ops.List()
		require.NoError(t, err)
		require.Empty(t, receipts)
	})

	t.Run("no-clean keeps branches whose work has landed", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		_, err := s.Scene.Repo.CreateBareRemote("origin")
		require.NoError(t, err)

		s.WithStack(map[string]string{"branch1": "main"})

		require.NoError(t, s.Scene.Repo.MergeBranch("main", "branch1"))
		require.NoError(t, s.Scene.Repo.PushBranch("origin", "main"))
		s.Rebuild()

		err = actions.SyncAction(ctx, s.Context, actions.SyncOptions{Force: true, NoClean: true})
		require.NoError(t, err)

		branches, err := s.Scene.Repo.GetLocalBranches()
		require.NoError(t, err)
		require.Contains(t, branches, "branch1")
		require.True(t, s.Engine.IsBranchTracked("branch1"))
	})

	t.Run("deletes a branch whose recorded PR is merged", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		_, err := s.Scene.Repo.CreateBareRemote("origin")
		require.NoError(t, err)
		require.NoError(t, s.Scene.Repo.PushBranch("origin", "main"))

		s.WithStack(map[string]string{"branch1": "main"}).
			Checkout("main")

		require.NoError(t, s.Engine.UpsertPrInfo("branch1", testhelpers.NewTestPrInfoMerged(42, "main")))

		// branch1 carries its own commit, so only the PR state marks it landed
		err = actions.SyncAction(ctx, s.Context, actions.SyncOptions{Force: true})
		require.NoError(t, err)

		branches, err := s.Scene.Repo.GetLocalBranches()
		require.NoError(t, err)
		require.NotContains(t, branches, "branch1")
	})

	t.Run("deletes a branch whose recorded PR was closed", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		_, err := s.Scene.Repo.CreateBareRemote("origin")
		require.NoError(t, err)
		require.NoError(t, s.Scene.Repo.PushBranch("origin", "main"))

		s.WithStack(map[string]string{"branch1": "main"}).
			Checkout("main")

		require.NoError(t, s.Engine.UpsertPrInfo("branch1", testhelpers.NewTestPrInfoClosed(7)))

		err = actions.SyncAction(ctx, s.Context, actions.SyncOptions{Force: true})
		require.NoError(t, err)

		branches, err := s.Scene.Repo.GetLocalBranches()
		require.NoError(t, err)
		require.NotContains(t, branches, "branch1")

		s.Rebuild()
		require.False(t, s.Engine.IsBranchTracked("branch1"))
	})

	t.Run("restacks the stack after trunk moves", func(t *testing.T) {
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

		err = actions.SyncAction(ctx, s.Context, actions.SyncOptions{Restack: true, Force: true})
		require.NoError(t, err)

		s.Rebuild().ExpectBranchUpToDate("branch1")

		messages, err := s.Scene.Repo.ListCurrentBranchCommitMessages()
		require.NoError(t, err)
		require.Contains(t, messages, "remote change")

		receipts, err := s.Context.Ops.List()
		require.NoError(t, err)
		require.Len(t, receipts, 1)
		require.Equal(t, "sync", receipts[0].Kind)
		require.Equal(t, ops.StatusOK, receipts[0].Status)
	})

	t.Run("steps off a landed branch before deleting it", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		_, err := s.Scene.Repo.CreateBareRemote("origin")
		require.NoError(t, err)

		s.WithStack(map[string]string{"branch1": "main"})

		require.NoError(t, s.Scene.Repo.MergeBranch("main", "branch1"))
		require.NoError(t, s.Scene.Repo.PushBranch("origin", "main"))
		s.Checkout("branch1")

		err = actions.SyncAction(ctx, s.Context, actions.SyncOptions{Force: true})
		require.NoError(t, err)

		branches, err := s.Scene.Repo.GetLocalBranches()
		require.NoError(t, err)
		require.NotContains(t, branches, "branch1")

		current, err := s.Scene.Repo.CurrentBranchName()
		require.NoError(t, err)
		require.Equal(t, "main", current)
	})

	t.Run("warns and keeps a diverged trunk without force", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		_, err := s.Scene.Repo.CreateBareRemote("origin")
		require.NoError(t, err)

		s.CommitChange("trunk", "remote change")
		require.NoError(t, s.Scene.Repo.PushBranch("origin", "main"))
		s.RunGit("reset", "--hard", "HEAD~1").
			CommitChange("local", "local change")

		localTip, err := s.Engine.GetRevision("main")
		require.NoError(t, err)

		err = actions.SyncAction(ctx, s.Context, actions.SyncOptions{})
		require.NoError(t, err)

		current, err := s.Engine.GetRevision("main")
		require.NoError(t, err)
		require.Equal(t, localTip, current)
	})

	t.Run("force resets a trunk rewritten upstream", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		bareDir, err := s.Scene.Repo.CreateBareRemote("origin")
		require.NoError(t, err)

		s.CommitChange("trunk", "original change")
		require.NoError(t, s.Scene.Repo.PushBranch("origin", "main"))

		// A second clone rewrites trunk history and force-pushes it
		other, err := testhelpers.NewGitRepoFromURL(t.TempDir(), bareDir)
		require.NoError(t, err)
		require.NoError(t, other.RunGitCommand("reset", "--hard", "HEAD~1"))
		require.NoError(t, other.CreateChangeAndCommit("rewritten change", "rewrite"))
		require.NoError(t, other.ForcePushBranch("origin", "main"))
		remoteTip, err := other.GetRevision("main")
		require.NoError(t, err)

		err = actions.SyncAction(ctx, s.Context, actions.SyncOptions{Force: true})
		require.NoError(t, err)

		current, err := s.Engine.GetRevision("main")
		require.NoError(t, err)
		require.Equal(t, remoteTip, current)
	})

	t.Run("refuses a dirty worktree", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit().
			WithUncommittedChange("dirty")

		err := actions.SyncAction(ctx, s.Context, actions.SyncOptions{})
		require.Error(t, err)
		require.ErrorIs(t, err, braiderrors.ErrDirtyWorktree)
	})
}
