package ops

import (
	"context"
	"errors"
	"fmt"
	"strings"

	braiderrors "braid.dev/braid/internal/errors"
	"braid.dev/braid/internal/git"
)

// UndoOptions selects what to undo and how far to reach
type UndoOptions struct {
	// OpID names an operation explicitly; empty picks the most recent one
	// that has not been undone. An explicit id may be undone again.
	OpID string
	// LocalOnly skips restoring remotes the operation pushed to
	LocalOnly bool
}

// RedoOptions controls replaying the most recently undone operation
type RedoOptions struct {
	LocalOnly bool
}

// BranchOutcome reports how the restore of one branch went
type BranchOutcome struct {
	Branch string
	// Restored is true when the local ref and metadata are back
	Restored bool
	// RemoteRestored is true when the remote was force-pushed back as well
	RemoteRestored bool
	Err            error
}

// Result summarizes an undo or redo. Partial means at least one branch could
// not be restored; the rest were still attempted.
type Result struct {
	OpID     string
	Kind     string
	Outcomes []BranchOutcome
	Partial  bool
}

// Undo restores every branch of an operation to its pre-state: local ref,
// metadata ref, and, for branches the operation pushed, the remote too
// (force-with-lease first, plain force when the lease is stale). Branches the
// operation created are deleted; branches it deleted are re-created from the
// receipt. Each branch is restored independently, and the backup refs stay in
// place afterwards.
func (m *Manager) Undo(ctx context.Context, opts UndoOptions) (*Result, error) {
	var receipt *Receipt
	if opts.OpID != "" {
		var err error
		receipt, err = readReceipt(m.gitDir, opts.OpID)
		if err != nil {
			return nil, err
		}
	} else {
		receipts, err := listReceipts(m.gitDir)
		if err != nil {
			return nil, err
		}
		for _, r := range receipts {
			if !r.Undone {
				receipt = r
				break
			}
		}
		if receipt == nil {
			return nil, braiderrors.ErrNothingToUndo
		}
	}

	result := &Result{OpID: receipt.ID, Kind: receipt.Kind}
	remote := m.runner.GetRemote()

	for _, state := range receipt.Branches {
		outcome := BranchOutcome{Branch: state.Name}

		if state.Before == "" {
			outcome.Err = m.deleteBranchSomewhere(ctx, state.Name, receipt.CurrentBranch)
		} else {
			outcome.Err = m.runner.ResetBranchTo(ctx, state.Name, state.Before,
				"braid undo: "+receipt.Kind)
		}

		if outcome.Err == nil {
			if err := m.restoreMetadata(state.Name, state.MetaBefore, "braid undo: "+receipt.Kind); err != nil {
				outcome.Err = err
			}
		}
		outcome.Restored = outcome.Err == nil

		if outcome.Restored && state.Pushed && !opts.LocalOnly {
			if err := m.restoreRemote(ctx, state.Name, remote, state.Before == ""); err != nil {
				outcome.Err = fmt.Errorf("restored locally, but remote restore failed: %w", err)
			} else {
				outcome.RemoteRestored = true
			}
		}

		if outcome.Err != nil {
			result.Partial = true
			m.log.Warn("undo failed for branch", "branch", state.Name, "op", receipt.ID, "error", outcome.Err)
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	receipt.Undone = true
	if err := writeReceipt(m.gitDir, receipt); err != nil {
		return result, err
	}

	if receipt.CurrentBranch != "" {
		if _, err := m.runner.GetRevision(receipt.CurrentBranch); err == nil {
			if err := m.runner.CheckoutBranch(ctx, receipt.CurrentBranch); err != nil {
				m.log.Warn("failed to restore original checkout", "branch", receipt.CurrentBranch, "error", err)
			}
		}
	}

	return result, nil
}

// Redo replays the most recently undone operation, restoring each branch to
// its recorded post-state. Only the latest undone operation is eligible; the
// undo/redo chain is exactly one deep.
func (m *Manager) Redo(ctx context.Context, opts RedoOptions) (*Result, error) {
	receipts, err := listReceipts(m.gitDir)
	if err != nil {
		return nil, err
	}
	var receipt *Receipt
	for _, r := range receipts {
		if r.Undone {
			receipt = r
			break
		}
	}
	if receipt == nil {
		return nil, braiderrors.ErrNothingToRedo
	}

	result := &Result{OpID: receipt.ID, Kind: receipt.Kind}
	remote := m.runner.GetRemote()

	for _, state := range receipt.Branches {
		outcome := BranchOutcome{Branch: state.Name}

		switch {
		case state.After == "" && state.Before == "":
			// Post-state never recorded; nothing to replay
		case state.After == "":
			// The operation deleted this branch, delete it again
			outcome.Err = m.deleteBranchSomewhere(ctx, state.Name, receipt.CurrentBranch)
		default:
			outcome.Err = m.runner.ResetBranchTo(ctx, state.Name, state.After,
				"braid redo: "+receipt.Kind)
		}

		if outcome.Err == nil {
			if err := m.restoreMetadata(state.Name, state.MetaAfter, "braid redo: "+receipt.Kind); err != nil {
				outcome.Err = err
			}
		}
		outcome.Restored = outcome.Err == nil

		if outcome.Restored && state.Pushed && !opts.LocalOnly {
			if err := m.restoreRemote(ctx, state.Name, remote, state.After == ""); err != nil {
				outcome.Err = fmt.Errorf("restored locally, but remote restore failed: %w", err)
			} else {
				outcome.RemoteRestored = true
			}
		}

		if outcome.Err != nil {
			result.Partial = true
			m.log.Warn("redo failed for branch", "branch", state.Name, "op", receipt.ID, "error", outcome.Err)
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	receipt.Undone = false
	if err := writeReceipt(m.gitDir, receipt); err != nil {
		return result, err
	}
	return result, nil
}

// PruneBackups deletes the backup refs and receipts of finished operations.
// Running and halted operations are kept, as are backup refs whose receipt
// still needs them. Returns how many operations were pruned.
func (m *Manager) PruneBackups(ctx context.Context) (int, error) {
	receipts, err := listReceipts(m.gitDir)
	if err != nil {
		return 0, err
	}

	keep := make(map[string]bool)
	pruned := 0
	for _, receipt := range receipts {
		if receipt.Status == StatusRunning || receipt.Status == StatusHalted {
			keep[receipt.ID] = true
			continue
		}
		for _, state := range receipt.Branches {
			if state.Before == "" {
				continue
			}
			ref := BackupRefPrefix + receipt.ID + "/" + state.Name
			if err := m.runner.DeleteRef(ref); err != nil {
				m.log.Warn("failed to delete backup ref", "ref", ref, "error", err)
			}
		}
		if err := m.deleteReceipt(receipt.ID); err != nil {
			m.log.Warn("failed to delete receipt", "op", receipt.ID, "error", err)
			continue
		}
		pruned++
	}

	// Backup refs whose receipt is already gone
	orphans, err := m.runner.ListRefs(BackupRefPrefix)
	if err != nil {
		return pruned, nil
	}
	for rest := range orphans {
		opID, _, found := strings.Cut(rest, "/")
		if !found || keep[opID] {
			continue
		}
		if err := m.runner.DeleteRef(BackupRefPrefix + rest); err != nil {
			m.log.Warn("failed to delete backup ref", "ref", BackupRefPrefix+rest, "error", err)
		}
	}

	return pruned, nil
}

// deleteBranchSomewhere removes a branch the operation created. When the
// branch is checked out here, the checkout moves away first so the delete
// can proceed.
func (m *Manager) deleteBranchSomewhere(ctx context.Context, branchName, fallback string) error {
	if _, err := m.runner.GetRevision(branchName); err != nil {
		return nil // already gone
	}
	if current, err := m.runner.GetCurrentBranch(); err == nil && current == branchName {
		switch {
		case fallback != "" && fallback != branchName:
			if err := m.runner.CheckoutBranch(ctx, fallback); err != nil {
				return fmt.Errorf("failed to move checkout off %s: %w", branchName, err)
			}
		default:
			if _, err := m.runner.RunGitCommandWithContext(ctx, "checkout", "--detach"); err != nil {
				return fmt.Errorf("failed to move checkout off %s: %w", branchName, err)
			}
		}
	}
	return m.runner.DeleteBranch(ctx, branchName)
}

// restoreMetadata points a branch's metadata ref back at a recorded blob, or
// drops the ref when there was none
func (m *Manager) restoreMetadata(branchName, blobSHA, reason string) error {
	ref := git.MetadataRefPrefix + branchName
	if blobSHA == "" {
		if err := m.store.Delete(branchName); err != nil {
			return fmt.Errorf("failed to drop metadata for %s: %w", branchName, err)
		}
		return nil
	}
	if err := m.runner.UpdateRefWithReason(ref, blobSHA, reason); err != nil {
		return fmt.Errorf("failed to restore metadata for %s: %w", branchName, err)
	}
	return nil
}

// restoreRemote pushes a restored branch back, preferring force-with-lease
// and falling back to a plain force when the remote-tracking ref is stale.
// A branch that should not exist remotely is deleted instead.
func (m *Manager) restoreRemote(ctx context.Context, branchName, remote string, deleted bool) error {
	if deleted {
		return m.runner.DeleteRemoteBranch(ctx, branchName, remote)
	}
	err := m.runner.PushBranch(ctx, branchName, remote, false, true)
	if err != nil && errors.Is(err, git.ErrStaleRemoteInfo) {
		err = m.runner.PushBranch(ctx, branchName, remote, true, false)
	}
	return err
}

// deleteReceipt removes a receipt file
func (m *Manager) deleteReceipt(opID string) error {
	return deleteReceiptFile(m.gitDir, opID)
}
