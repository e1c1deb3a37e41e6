package git

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// GetRef returns the SHA a ref points at, or "" when the ref does not exist
func GetRef(name string) (string, error) {
	repo, err := GetDefaultRepo()
	if err != nil {
		return "", err
	}

	ref, err := repo.Reference(plumbing.ReferenceName(name), false)
	if err != nil {
		return "", nil
	}
	return ref.Hash().String(), nil
}

// UpdateRef creates or moves a ref to the given SHA
func UpdateRef(name, sha string) error {
	_, err := RunGitCommand("update-ref", name, sha)
	if err != nil {
		return fmt.Errorf("failed to update ref %s: %w", name, err)
	}
	return nil
}

// UpdateRefWithReason creates or moves a ref with a reflog message
func UpdateRefWithReason(name, sha, reason string) error {
	_, err := RunGitCommand("update-ref", "-m", reason, name, sha)
	if err != nil {
		return fmt.Errorf("failed to update ref %s: %w", name, err)
	}
	return nil
}

// DeleteRef removes a ref. Deleting an absent ref is not an error.
func DeleteRef(name string) error {
	repo, err := GetDefaultRepo()
	if err != nil {
		return err
	}
	return repo.Storer.RemoveReference(plumbing.ReferenceName(name))
}

// CreateBlob writes content as a blob object and returns its SHA
func CreateBlob(content string) (string, error) {
	sha, err := RunGitCommandWithInput(content, "hash-object", "-w", "--stdin")
	if err != nil {
		return "", fmt.Errorf("failed to create blob: %w", err)
	}
	return sha, nil
}

// ReadBlob returns the content of a blob object
func ReadBlob(sha string) (string, error) {
	repo, err := GetDefaultRepo()
	if err != nil {
		return "", err
	}

	content, err := readBlobContent(repo, plumbing.NewHash(sha))
	if err != nil {
		return "", fmt.Errorf("failed to read blob %s: %w", sha, err)
	}
	return string(content), nil
}

// ListRefs returns all refs under a prefix, keyed by the name remainder
// after the prefix
func ListRefs(prefix string) (map[string]string, error) {
	repo, err := GetDefaultRepo()
	if err != nil {
		return nil, err
	}

	refs, err := repo.References()
	if err != nil {
		return nil, fmt.Errorf("failed to get references: %w", err)
	}

	result := make(map[string]string)
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		if strings.HasPrefix(name, prefix) {
			result[strings.TrimPrefix(name, prefix)] = ref.Hash().String()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
