package testhelpers_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"braid.dev/braid/testhelpers"
)

// TestGitRepoBasicOperations tests basic Git repository operations.
func TestGitRepoBasicOperations(t *testing.T) {
	scene := testhelpers.NewScene(t, nil)

	// Test creating a commit
	err := scene.Repo.CreateChangeAndCommit("test content", "test")
	require.NoError(t, err)

	// Test getting current branch
	branch, err := scene.Repo.CurrentBranchName()
	require.NoError(t, err)
	require.Equal(t, "main", branch)

	// Test listing commits
	messages, err := scene.Repo.ListCurrentBranchCommitMessages()
	require.NoError(t, err)
	require.Greater(t, len(messages), 0)
}

// TestSceneWithSetup demonstrates using a custom setup function.
func TestSceneWithSetup(t *testing.T) {
	customSetup := func(scene *testhelpers.Scene) error {
		// Create multiple commits
		if err := scene.Repo.CreateChangeAndCommit("commit 1", "1"); err != nil {
			return err
		}
		if err := scene.Repo.CreateChangeAndCommit("commit 2", "2"); err != nil {
			return err
		}
		return nil
	}

	scene := testhelpers.NewScene(t, customSetup)

	// Verify commits were created
	messages, err := scene.Repo.ListCurrentBranchCommitMessages()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(messages), 2)
}

// TestExpectBranches demonstrates the branch assertion helper.
func TestExpectBranches(t *testing.T) {
	scene := testhelpers.NewScene(t, nil)

	// Need at least one commit before creating branches
	err := scene.Repo.CreateChangeAndCommit("initial", "init")
	require.NoError(t, err)

	// Create branches manually
	err = scene.Repo.CreateAndCheckoutBranch("feature")
	require.NoError(t, err)
	err = scene.Repo.CreateAndCheckoutBranch("bugfix")
	require.NoError(t, err)
	err = scene.Repo.CheckoutBranch("main")
	require.NoError(t, err)

	// Assert branches exist
	testhelpers.ExpectBranches(t, scene.Repo, []string{"bugfix", "feature", "main"})
}
