package utils

import (
	"regexp"
	"strings"
)

// MaxBranchNameByteLength caps generated branch names. Metadata lives under
// refs/branch-metadata/<branch>, so the name must leave room for that prefix
// inside git's ref name limits.
const MaxBranchNameByteLength = 234

var (
	// branchNameReplaceRegex matches characters that are not valid in branch
	// names. Valid characters: letters, numbers, -, _, /, .
	branchNameReplaceRegex = regexp.MustCompile(`[^-_/.a-zA-Z0-9]+`)

	// branchNameIgnoreRegex matches trailing slashes and dots
	branchNameIgnoreRegex = regexp.MustCompile(`[/.]*$`)

	hyphenRunRegex = regexp.MustCompile(`-+`)

	conventionalPrefixRegex = regexp.MustCompile(`^(feat|fix|chore|docs|style|refactor|perf|test|build|ci)(\([^)]+\))?:\s*`)
)

// SanitizeBranchName replaces characters git would reject with hyphens and
// trims the result to a usable ref name
func SanitizeBranchName(name string) string {
	name = branchNameIgnoreRegex.ReplaceAllString(name, "")
	name = branchNameReplaceRegex.ReplaceAllString(name, "-")
	name = hyphenRunRegex.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")

	if len(name) > MaxBranchNameByteLength {
		name = name[:MaxBranchNameByteLength]
		name = strings.TrimSuffix(name, "-")
	}
	return name
}

// GenerateBranchNameFromMessage turns a commit subject line into a branch
// name fragment, dropping any conventional-commit prefix
func GenerateBranchNameFromMessage(message string) string {
	if message == "" {
		return ""
	}

	lines := strings.Split(message, "\n")
	subject := strings.TrimSpace(lines[0])
	subject = conventionalPrefixRegex.ReplaceAllString(subject, "")

	return SanitizeBranchName(subject)
}
