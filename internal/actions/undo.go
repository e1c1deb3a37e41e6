package actions

import (
	"context"
	"errors"
	"fmt"

	braiderrors "braid.dev/braid/internal/errors"
	"braid.dev/braid/internal/ops"
	"braid.dev/braid/internal/output"
	"braid.dev/braid/internal/runtime"
	"braid.dev/braid/internal/timeutil"
)

// UndoOptions contains options for the undo command
type UndoOptions struct {
	// OpID undoes a specific operation instead of the most recent one
	OpID string
	// LocalOnly leaves remote branches alone even where the operation pushed
	LocalOnly bool
}

// UndoAction rolls back the most recent operation (or a named one) through
// its receipt: every branch tip and metadata ref returns to its recorded
// pre-state, and branches the operation pushed are force-pushed back unless
// --local. The receipt stays around so redo can replay it.
func UndoAction(ctx context.Context, rt *runtime.Context, opts UndoOptions) error {
	splog := rt.Splog

	result, err := rt.Ops.Undo(ctx, ops.UndoOptions{OpID: opts.OpID, LocalOnly: opts.LocalOnly})
	if err != nil {
		if errors.Is(err, braiderrors.ErrNothingToUndo) {
			splog.Info("Nothing to undo.")
			return nil
		}
		return err
	}

	reportRestoreOutcomes(splog, result, "Restored")

	if err := rt.Engine.Rebuild(); err != nil {
		splog.Debug("Failed to rebuild branch state after undo: %v", err)
	}

	if result.Partial {
		return fmt.Errorf("undo of %s was only partially applied", result.OpID)
	}
	splog.Info("Undid %s. Run %s to replay it.", result.OpID, output.ColorCyan("braid redo"))
	return nil
}

// RedoAction replays the most recently undone operation, restoring each of
// its branches to the recorded post-state
func RedoAction(ctx context.Context, rt *runtime.Context, localOnly bool) error {
	splog := rt.Splog

	result, err := rt.Ops.Redo(ctx, ops.RedoOptions{LocalOnly: localOnly})
	if err != nil {
		if errors.Is(err, braiderrors.ErrNothingToRedo) {
			splog.Info("Nothing to redo.")
			return nil
		}
		return err
	}

	reportRestoreOutcomes(splog, result, "Replayed")

	if err := rt.Engine.Rebuild(); err != nil {
		splog.Debug("Failed to rebuild branch state after redo: %v", err)
	}

	if result.Partial {
		return fmt.Errorf("redo of %s was only partially applied", result.OpID)
	}
	splog.Info("Redid %s.", result.OpID)
	return nil
}

// reportRestoreOutcomes prints the per-branch results of an undo or redo
func reportRestoreOutcomes(splog *output.Splog, result *ops.Result, verb string) {
	for _, outcome := range result.Outcomes {
		switch {
		case outcome.Err != nil:
			splog.Warn("Could not restore %s: %v", output.ColorBranchName(outcome.Branch, false), outcome.Err)
		case outcome.RemoteRestored:
			splog.Info("%s %s (including its remote).", verb, output.ColorBranchName(outcome.Branch, false))
		default:
			splog.Info("%s %s.", verb, output.ColorBranchName(outcome.Branch, false))
		}
	}
	if result.Partial {
		splog.Warn("Some branches could not be restored. The backup refs under %s are still in place.",
			output.ColorCyan("refs/braid/backup/"+result.OpID))
	}
}

// OpsOptions contains options for the ops command
type OpsOptions struct {
	// Prune deletes backup refs and receipts of finished operations
	Prune bool
}

// OpsAction lists recorded operations newest-first, or prunes the finished
// ones. Running and halted operations are never pruned.
func OpsAction(ctx context.Context, rt *runtime.Context, opts OpsOptions) error {
	splog := rt.Splog

	if opts.Prune {
		pruned, err := rt.Ops.PruneBackups(ctx)
		if err != nil {
			return err
		}
		if pruned == 0 {
			splog.Info("Nothing to prune.")
		} else {
			splog.Info("Pruned %d finished operation(s) and their backup refs.", pruned)
		}
		return nil
	}

	receipts, err := rt.Ops.List()
	if err != nil {
		return err
	}
	if len(receipts) == 0 {
		splog.Info("No operations recorded.")
		return nil
	}

	for _, r := range receipts {
		splog.Info("%s  %-8s %s  %s",
			output.ColorCyan(r.ID),
			r.Kind,
			formatReceiptStatus(r),
			output.ColorDim(timeutil.FormatTimeAgo(r.StartedAt)))
		for _, s := range r.Branches {
			marker := ""
			if r.HaltedBranch == s.Name {
				marker = output.ColorYellow(" <- halted here")
			}
			splog.Info("  %s%s", output.ColorBranchName(s.Name, false), marker)
		}
	}
	splog.Tip("Use %s to roll one back, or %s to drop old backups.",
		output.ColorCyan("braid undo --op <id>"), output.ColorCyan("braid ops --prune"))
	return nil
}

// formatReceiptStatus colors a receipt status for listing
func formatReceiptStatus(r *ops.Receipt) string {
	var s string
	switch r.Status {
	case ops.StatusOK:
		s = output.ColorGreen("ok")
	case ops.StatusHalted:
		s = output.ColorYellow("halted")
	case ops.StatusError:
		s = output.ColorRed("error")
	default:
		s = output.ColorDim(r.Status)
	}
	if r.Undone {
		s += output.ColorDim(" (undone)")
	}
	return s
}
