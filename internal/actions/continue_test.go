package actions_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"braid.dev/braid/internal/actions"
	"braid.dev/braid/internal/config"
	braiderrors "braid.dev/braid/internal/errors"
	"braid.dev/braid/internal/git"
	"braid.dev/braid/internal/ops"
	"braid.dev/braid/testhelpers"
	"braid.dev/braid/testhelpers/scenario"
)

func TestContinueAction(t *testing.T) {
	ctx := context.Background()

	t.Run("finishes the conflicted branch and the rest of the stack", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithStack(map[string]string{
			"branch1": "main",
			"branch2": "branch1",
		}).
			Checkout("branch1").
			CommitChange("conflict", "branch1 side").
			Checkout("main").
			CommitChange("conflict", "main side").
			Checkout("branch1")

		err := actions.RestackAction(ctx, s.Context, actions.RestackOptions{Scope: fullScope})
		require.ErrorIs(t, err, braiderrors.ErrRebaseConflict)

		continuation, err := config.GetContinuationState(s.Context.GitDir)
		require.NoError(t, err)
		require.NotNil(t, continuation)

		require.NoError(t, s.Scene.Repo.ResolveMergeConflicts())
		require.NoError(t, s.Scene.Repo.MarkMergeConflictsAsResolved())

		err = actions.ContinueAction(ctx, s.Context, actions.ContinueOptions{})
		require.NoError(t, err)
		require.False(t, git.IsRebaseInProgress(ctx))

		cleared, err := config.GetContinuationState(s.Context.GitDir)
		require.NoError(t, err)
		require.Nil(t, cleared)

		receipt, err := s.Context.Ops.Get(continuation.OpID)
		require.NoError(t, err)
		require.Equal(t, ops.StatusOK, receipt.Status)
		require.NotNil(t, receipt.FinishedAt)
		for _, state := range receipt.Branches {
			require.NotEmpty(t, state.After, "branch %s should have a recorded post-state", state.Name)
		}

		s.Rebuild().
			ExpectBranchUpToDate("branch1").
			ExpectBranchUpToDate("branch2")

		// The checkout returns to where the restack started
		current, err := s.Scene.Repo.CurrentBranchName()
		require.NoError(t, err)
		require.Equal(t, "branch1", current)

		s.Checkout("branch2")
		messages, err := s.Scene.Repo.ListCurrentBranchCommitMessages()
		require.NoError(t, err)
		require.Contains(t, messages, "main side")
		require.Contains(t, messages, "branch1 side")
		require.Contains(t, messages, "change on branch2")
	})

	t.Run("stages the resolution itself with add all", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithStack(map[string]string{"branch1": "main"}).
			Checkout("branch1").
			CommitChange("conflict", "branch1 side").
			Checkout("main").
			CommitChange("conflict", "main side").
			Checkout("branch1")

		err := actions.RestackAction(ctx, s.Context, actions.RestackOptions{Scope: fullScope})
		require.ErrorIs(t, err, braiderrors.ErrRebaseConflict)

		// Resolve the file but leave it unstaged
		require.NoError(t, s.Scene.Repo.ResolveMergeConflicts())

		err = actions.ContinueAction(ctx, s.Context, actions.ContinueOptions{AddAll: true})
		require.NoError(t, err)
		require.False(t, git.IsRebaseInProgress(ctx))

		s.Rebuild().ExpectBranchUpToDate("branch1")
	})

	t.Run("fails when there is nothing to continue", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		err := actions.ContinueAction(ctx, s.Context, actions.ContinueOptions{})
		require.Error(t, err)
		require.ErrorIs(t, err, braiderrors.ErrRebaseNotInProgress)
		require.Contains(t, err.Error(), "nothing to continue")
	})

	t.Run("refuses a rebase braid did not start", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit().
			CreateBranch("feature").
			CommitChange("conflict", "feature side").
			Checkout("main").
			CommitChange("conflict", "main side").
			Checkout("feature")

		err := s.Scene.Repo.RunGitCommand("rebase", "main")
		require.Error(t, err)
		require.True(t, git.IsRebaseInProgress(ctx))

		err = actions.ContinueAction(ctx, s.Context, actions.ContinueOptions{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "was not started by braid")
	})

	t.Run("clears stale state when the rebase finished outside braid", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithStack(map[string]string{"branch1": "main"}).
			Checkout("branch1").
			CommitChange("conflict", "branch1 side").
			Checkout("main").
			CommitChange("conflict", "main side").
			Checkout("branch1")

		err := actions.RestackAction(ctx, s.Context, actions.RestackOptions{Scope: fullScope})
		require.ErrorIs(t, err, braiderrors.ErrRebaseConflict)

		s.RunGit("rebase", "--abort")

		err = actions.ContinueAction(ctx, s.Context, actions.ContinueOptions{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "is gone")

		cleared, err := config.GetContinuationState(s.Context.GitDir)
		require.NoError(t, err)
		require.Nil(t, cleared)
	})
}
