package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ShowDiff returns the diff between two revisions, optionally as a stat
// summary instead of a patch
func ShowDiff(ctx context.Context, left, right string, stat bool) (string, error) {
	args := []string{"diff"}
	if stat {
		args = append(args, "--stat")
	}
	args = append(args, left, right)

	output, err := RunGitCommandRawWithContext(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("failed to diff %s..%s: %w", left, right, err)
	}
	return output, nil
}

// DiffStat returns total lines added and deleted between two revisions,
// summed from git's numstat output. Binary files count as zero.
func DiffStat(ctx context.Context, left, right string) (int, int, error) {
	lines, err := RunGitCommandLinesWithContext(ctx, "diff", "--numstat", left, right)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to diff %s..%s: %w", left, right, err)
	}

	var added, deleted int
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if a, err := strconv.Atoi(fields[0]); err == nil {
			added += a
		}
		if d, err := strconv.Atoi(fields[1]); err == nil {
			deleted += d
		}
	}
	return added, deleted, nil
}

// IsDiffEmpty checks if a branch introduces no changes over a base revision
func IsDiffEmpty(ctx context.Context, branchName, baseRevision string) (bool, error) {
	branchRev, err := GetRevision(branchName)
	if err != nil {
		return false, fmt.Errorf("failed to get branch revision: %w", err)
	}

	if branchRev == baseRevision {
		return true, nil
	}

	// diff --quiet exits non-zero when there are differences
	_, err = RunGitCommandWithContext(ctx, "diff", "--quiet", baseRevision, branchRev)
	if err != nil {
		return false, nil
	}
	return true, nil
}
