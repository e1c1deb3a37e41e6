package git_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"braid.dev/braid/internal/git"
	"braid.dev/braid/testhelpers"
)

const mainBranch = "main"

func TestMetadataRead(t *testing.T) {
	t.Run("returns nil when no metadata ref exists", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		err := scene.Repo.CreateBranch("branch1")
		require.NoError(t, err)

		meta, err := git.NewMetadataStore(nil).Read("branch1")
		require.NoError(t, err)
		require.Nil(t, meta)
	})

	t.Run("round-trips parent name and revision", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		err := scene.Repo.CreateBranch("branch1")
		require.NoError(t, err)
		mainRev, err := scene.Repo.GetRef(mainBranch)
		require.NoError(t, err)

		store := git.NewMetadataStore(nil)
		meta := &git.Meta{}
		meta.SetParent(mainBranch, mainRev)
		require.NoError(t, store.Write("branch1", meta))

		read, err := store.Read("branch1")
		require.NoError(t, err)
		require.NotNil(t, read)
		require.Equal(t, mainBranch, read.ParentName())
		require.Equal(t, mainRev, read.ParentRevision())
	})

	t.Run("stores pull request details alongside the parent", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		err := scene.Repo.CreateBranch("branch1")
		require.NoError(t, err)
		mainRev, err := scene.Repo.GetRef(mainBranch)
		require.NoError(t, err)

		number := 42
		state := "OPEN"
		isDraft := true
		meta := &git.Meta{PrInfo: &git.PrInfo{
			Number:  &number,
			State:   &state,
			IsDraft: &isDraft,
		}}
		meta.SetParent(mainBranch, mainRev)

		store := git.NewMetadataStore(nil)
		require.NoError(t, store.Write("branch1", meta))

		read, err := store.Read("branch1")
		require.NoError(t, err)
		require.NotNil(t, read.PrInfo)
		require.Equal(t, 42, *read.PrInfo.Number)
		require.Equal(t, "OPEN", *read.PrInfo.State)
		require.True(t, *read.PrInfo.IsDraft)
		require.Equal(t, mainBranch, read.ParentName())
	})

	t.Run("fails on a malformed metadata blob", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		sha, err := git.RunGitCommandWithInput("not json", "hash-object", "-w", "--stdin")
		require.NoError(t, err)
		err = scene.Repo.RunGitCommand("update-ref", git.MetadataRefPrefix+"branch1", sha)
		require.NoError(t, err)

		_, err = git.NewMetadataStore(nil).Read("branch1")
		require.Error(t, err)
		require.Contains(t, err.Error(), "malformed metadata")
	})
}

func TestMetadataReadAll(t *testing.T) {
	t.Run("returns every branch with metadata", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		mainRev, err := scene.Repo.GetRef(mainBranch)
		require.NoError(t, err)

		store := git.NewMetadataStore(nil)
		for _, branch := range []string{"branch1", "branch2"} {
			require.NoError(t, scene.Repo.CreateBranch(branch))
			meta := &git.Meta{}
			meta.SetParent(mainBranch, mainRev)
			require.NoError(t, store.Write(branch, meta))
		}

		all, err := store.ReadAll()
		require.NoError(t, err)
		require.Len(t, all, 2)
		require.Equal(t, mainBranch, all["branch1"].ParentName())
		require.Equal(t, mainBranch, all["branch2"].ParentName())
	})

	t.Run("skips malformed entries without failing", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		mainRev, err := scene.Repo.GetRef(mainBranch)
		require.NoError(t, err)

		store := git.NewMetadataStore(nil)
		require.NoError(t, scene.Repo.CreateBranch("branch1"))
		meta := &git.Meta{}
		meta.SetParent(mainBranch, mainRev)
		require.NoError(t, store.Write("branch1", meta))

		// One bad blob must not take the whole listing down.
		sha, err := git.RunGitCommandWithInput("not json", "hash-object", "-w", "--stdin")
		require.NoError(t, err)
		err = scene.Repo.RunGitCommand("update-ref", git.MetadataRefPrefix+"branch2", sha)
		require.NoError(t, err)

		all, err := store.ReadAll()
		require.NoError(t, err)
		require.Contains(t, all, "branch1")
		require.NotContains(t, all, "branch2")
	})
}

func TestMetadataDelete(t *testing.T) {
	t.Run("removes the metadata ref", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		require.NoError(t, scene.Repo.CreateBranch("branch1"))
		mainRev, err := scene.Repo.GetRef(mainBranch)
		require.NoError(t, err)

		store := git.NewMetadataStore(nil)
		meta := &git.Meta{}
		meta.SetParent(mainBranch, mainRev)
		require.NoError(t, store.Write("branch1", meta))

		require.NoError(t, store.Delete("branch1"))

		read, err := store.Read("branch1")
		require.NoError(t, err)
		require.Nil(t, read)
	})

	t.Run("is a no-op when no metadata exists", func(t *testing.T) {
		_ = testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		require.NoError(t, git.NewMetadataStore(nil).Delete("never-tracked"))
	})
}

func TestMetadataRefSHA(t *testing.T) {
	t.Run("returns the blob sha receipts record", func(t *testing.T) {
		scene := testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		require.NoError(t, scene.Repo.CreateBranch("branch1"))
		mainRev, err := scene.Repo.GetRef(mainBranch)
		require.NoError(t, err)

		store := git.NewMetadataStore(nil)
		meta := &git.Meta{}
		meta.SetParent(mainBranch, mainRev)
		require.NoError(t, store.Write("branch1", meta))

		sha, err := store.RefSHA("branch1")
		require.NoError(t, err)
		refSha, err := scene.Repo.GetRef(git.MetadataRefPrefix + "branch1")
		require.NoError(t, err)
		require.Equal(t, refSha, sha)
	})

	t.Run("returns empty for a branch without metadata", func(t *testing.T) {
		_ = testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			return s.Repo.CreateChangeAndCommit("initial", "init")
		})
		git.ResetDefaultRepo()
		require.NoError(t, git.InitDefaultRepo())

		sha, err := git.NewMetadataStore(nil).RefSHA("branch1")
		require.NoError(t, err)
		require.Empty(t, sha)
	})
}
