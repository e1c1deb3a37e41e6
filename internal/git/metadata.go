package git

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// MetadataRefPrefix is the ref namespace holding one metadata blob per
// tracked branch. The refs travel with push/fetch refspecs, so a clone can
// reconstruct the whole stack forest from the repository alone.
const MetadataRefPrefix = "refs/branch-metadata/"

// Meta represents branch metadata stored in Git refs
type Meta struct {
	ParentBranchName     *string `json:"parentBranchName,omitempty"`
	ParentBranchRevision *string `json:"parentBranchRevision,omitempty"`
	PrInfo               *PrInfo `json:"prInfo,omitempty"`
}

// PrInfo represents pull request information recorded for a branch
type PrInfo struct {
	Number  *int    `json:"number,omitempty"`
	Base    *string `json:"base,omitempty"`
	URL     *string `json:"url,omitempty"`
	Title   *string `json:"title,omitempty"`
	Body    *string `json:"body,omitempty"`
	State   *string `json:"state,omitempty"`
	IsDraft *bool   `json:"isDraft,omitempty"`
}

// ParentName returns the recorded parent branch name, or "" when unset
func (m *Meta) ParentName() string {
	if m == nil || m.ParentBranchName == nil {
		return ""
	}
	return *m.ParentBranchName
}

// ParentRevision returns the parent tip recorded at the last sync, or ""
func (m *Meta) ParentRevision() string {
	if m == nil || m.ParentBranchRevision == nil {
		return ""
	}
	return *m.ParentBranchRevision
}

// SetParent records a new parent and the parent tip observed now
func (m *Meta) SetParent(name, revision string) {
	m.ParentBranchName = &name
	m.ParentBranchRevision = &revision
}

// MetadataStore reads and writes branch metadata refs. It satisfies the
// engine's store interface and is injected rather than accessed as a global
// so tests can substitute their own.
type MetadataStore struct {
	log *slog.Logger
}

// NewMetadataStore creates a store that logs through the given logger
func NewMetadataStore(log *slog.Logger) *MetadataStore {
	if log == nil {
		log = slog.Default()
	}
	return &MetadataStore{log: log}
}

// metadataRefName returns the full ref name for a branch
func metadataRefName(branchName string) string {
	return MetadataRefPrefix + branchName
}

// Read returns the metadata for a branch, or nil when the branch has no
// metadata ref. Malformed metadata is an error; ReadAll is the lenient path.
func (s *MetadataStore) Read(branchName string) (*Meta, error) {
	repo, err := GetDefaultRepo()
	if err != nil {
		return nil, err
	}

	ref, err := repo.Reference(plumbing.ReferenceName(metadataRefName(branchName)), false)
	if err != nil {
		return nil, nil
	}

	content, err := readBlobContent(repo, ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata blob for %s: %w", branchName, err)
	}

	var meta Meta
	if err := json.Unmarshal(content, &meta); err != nil {
		return nil, fmt.Errorf("malformed metadata for %s: %w", branchName, err)
	}
	return &meta, nil
}

// ReadAll returns metadata for every branch that has a metadata ref.
// Malformed entries are skipped with a warning so one bad blob cannot take
// the whole model down.
func (s *MetadataStore) ReadAll() (map[string]*Meta, error) {
	repo, err := GetDefaultRepo()
	if err != nil {
		return nil, err
	}

	refs, err := repo.References()
	if err != nil {
		return nil, fmt.Errorf("failed to get references: %w", err)
	}

	result := make(map[string]*Meta)
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		if !strings.HasPrefix(name, MetadataRefPrefix) {
			return nil
		}
		branchName := strings.TrimPrefix(name, MetadataRefPrefix)

		content, err := readBlobContent(repo, ref.Hash())
		if err != nil {
			s.log.Warn("skipping unreadable branch metadata", "branch", branchName, "error", err)
			return nil
		}

		var meta Meta
		if err := json.Unmarshal(content, &meta); err != nil {
			s.log.Warn("skipping malformed branch metadata", "branch", branchName, "error", err)
			return nil
		}
		result[branchName] = &meta
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Write stores metadata for a branch. The blob is written first and the ref
// update is the atomic commit point; a failed ref update is fatal to the
// operation that needed it.
func (s *MetadataStore) Write(branchName string, meta *Meta) error {
	jsonData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	sha, err := RunGitCommandWithInput(string(jsonData), "hash-object", "-w", "--stdin")
	if err != nil {
		return fmt.Errorf("failed to create metadata blob: %w", err)
	}

	if _, err := RunGitCommand("update-ref", metadataRefName(branchName), sha); err != nil {
		return fmt.Errorf("failed to write metadata ref for %s: %w", branchName, err)
	}
	return nil
}

// Delete removes a branch's metadata ref. Deleting an absent ref is not an
// error.
func (s *MetadataStore) Delete(branchName string) error {
	repo, err := GetDefaultRepo()
	if err != nil {
		return err
	}
	return repo.Storer.RemoveReference(plumbing.ReferenceName(metadataRefName(branchName)))
}

// RefSHA returns the blob SHA a branch's metadata ref points at, or "" when
// the branch has no metadata ref. Receipts store these so undo can restore
// metadata exactly.
func (s *MetadataStore) RefSHA(branchName string) (string, error) {
	repo, err := GetDefaultRepo()
	if err != nil {
		return "", err
	}

	ref, err := repo.Reference(plumbing.ReferenceName(metadataRefName(branchName)), false)
	if err != nil {
		return "", nil
	}
	return ref.Hash().String(), nil
}

// readBlobContent reads the raw bytes of a blob object
func readBlobContent(repo *Repository, hash plumbing.Hash) ([]byte, error) {
	obj, err := repo.Object(plumbing.AnyObject, hash)
	if err != nil {
		return nil, err
	}

	blob, ok := obj.(*object.Blob)
	if !ok {
		return nil, fmt.Errorf("object %s is not a blob", hash)
	}

	reader, err := blob.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}
