package actions_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"braid.dev/braid/internal/actions"
	braiderrors "braid.dev/braid/internal/errors"
	"braid.dev/braid/testhelpers"
	"braid.dev/braid/testhelpers/scenario"
)

func TestCheckoutAction(t *testing.T) {
	ctx := context.Background()

	t.Run("switches to the named branch", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithStack(map[string]string{
			"branch1": "main",
		}).Checkout("main")

		err := actions.CheckoutAction(ctx, s.Context, actions.CheckoutOptions{BranchName: "branch1"})
		require.NoError(t, err)

		current, err := s.Scene.Repo.CurrentBranchName()
		require.NoError(t, err)
		require.Equal(t, "branch1", current)
	})

	t.Run("goes to the trunk with the trunk flag", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithStack(map[string]string{
			"branch1": "main",
		}).Checkout("branch1")

		err := actions.CheckoutAction(ctx, s.Context, actions.CheckoutOptions{Trunk: true})
		require.NoError(t, err)

		current, err := s.Scene.Repo.CurrentBranchName()
		require.NoError(t, err)
		require.Equal(t, "main", current)
	})

	t.Run("is a no-op on the current branch", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithStack(map[string]string{
			"branch1": "main",
		}).Checkout("branch1")

		err := actions.CheckoutAction(ctx, s.Context, actions.CheckoutOptions{BranchName: "branch1"})
		require.NoError(t, err)

		current, err := s.Scene.Repo.CurrentBranchName()
		require.NoError(t, err)
		require.Equal(t, "branch1", current)
	})

	t.Run("checks out an untracked branch", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit().
			CreateBranch("loose").
			Checkout("main")

		err := actions.CheckoutAction(ctx, s.Context, actions.CheckoutOptions{BranchName: "loose"})
		require.NoError(t, err)

		current, err := s.Scene.Repo.CurrentBranchName()
		require.NoError(t, err)
		require.Equal(t, "loose", current)
	})

	t.Run("fails for a branch that does not exist", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithInitialCommit()

		err := actions.CheckoutAction(ctx, s.Context, actions.CheckoutOptions{BranchName: "ghost"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to checkout branch ghost")
	})

	t.Run("requires a name when prompts are unavailable", func(t *testing.T) {
		s := scenario.NewScenario(t, testhelpers.BasicSceneSetup)
		s.WithStack(map[string]string{
			"branch1": "main",
		}).Checkout("main")

		err := actions.CheckoutAction(ctx, s.Context, actions.CheckoutOptions{})
		require.ErrorIs(t, err, braiderrors.ErrInteractiveDisabled)
	})
}
