package config

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"braid.dev/braid/internal/git"
)

// BranchPattern is a branch name pattern with placeholder substitution
type BranchPattern string

// DefaultBranchPattern is used when no pattern is configured
const DefaultBranchPattern BranchPattern = "{username}/{date}/{message}"

// NewBranchPattern creates a BranchPattern from a string. An empty string
// yields the default; a pattern without {message} is rejected.
func NewBranchPattern(pattern string) (BranchPattern, error) {
	if pattern == "" {
		return DefaultBranchPattern, nil
	}
	if !strings.Contains(pattern, "{message}") {
		return "", fmt.Errorf("branch name pattern must contain {message} placeholder")
	}
	return BranchPattern(pattern), nil
}

func (p BranchPattern) String() string {
	if p == "" {
		return string(DefaultBranchPattern)
	}
	return string(p)
}

// GetBranchName generates a branch name from the pattern and a commit
// message. The username and date are fetched only when the pattern asks for
// them.
func (p BranchPattern) GetBranchName(ctx context.Context, commitMessage string) (string, error) {
	pattern := p.String()

	placeholderFuncs := map[string]func() string{
		"{username}": func() string {
			username, err := git.GetUserName(ctx)
			if err != nil {
				return ""
			}
			return sanitizeBranchName(username)
		},
		"{date}": git.GetCurrentDate,
		"{message}": func() string {
			return generateBranchNameFromMessage(commitMessage)
		},
	}

	result := pattern
	for placeholder, replacementFn := range placeholderFuncs {
		if strings.Contains(result, placeholder) {
			result = strings.ReplaceAll(result, placeholder, replacementFn())
		}
	}

	branchName := sanitizeBranchName(result)
	if branchName == "" {
		return "", fmt.Errorf("failed to generate branch name from commit message")
	}
	return branchName, nil
}

// generateBranchNameFromMessage turns a commit subject into a branch name
// fragment. Duplicated from utils to avoid an import cycle.
func generateBranchNameFromMessage(message string) string {
	if message == "" {
		return ""
	}

	lines := strings.Split(message, "\n")
	subject := strings.TrimSpace(lines[0])

	// Strip conventional-commit prefixes, with optional scope
	subject = regexp.MustCompile(`^(feat|fix|chore|docs|style|refactor|perf|test|build|ci)(\([^)]+\))?:\s*`).ReplaceAllString(subject, "")

	// Keep room for username/date prefixes
	maxSubjectLength := 50
	if len(subject) > maxSubjectLength {
		truncated := subject[:maxSubjectLength]
		lastSpace := strings.LastIndex(truncated, " ")
		if lastSpace > maxSubjectLength/2 {
			subject = truncated[:lastSpace]
		} else {
			subject = truncated
		}
	}

	return sanitizeBranchName(subject)
}

func sanitizeBranchName(name string) string {
	const maxBranchNameByteLength = 234

	name = regexp.MustCompile(`[/.]*$`).ReplaceAllString(name, "")
	name = regexp.MustCompile(`[^-_/.a-zA-Z0-9]+`).ReplaceAllString(name, "-")
	name = regexp.MustCompile(`-+`).ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")

	if len(name) > maxBranchNameByteLength {
		name = name[:maxBranchNameByteLength]
		name = strings.TrimSuffix(name, "-")
	}
	return name
}
