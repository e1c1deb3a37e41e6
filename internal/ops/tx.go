package ops

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"braid.dev/braid/internal/engine"
	"braid.dev/braid/internal/git"
)

// Manager creates and replays operation receipts for one repository
type Manager struct {
	gitDir string
	store  engine.MetadataStore
	runner git.Runner
	log    *slog.Logger
}

// NewManager builds a transaction manager rooted at the repository's shared
// git dir. A nil store defaults to the ref-backed one, a nil runner to the
// real git runner, a nil log to slog.Default().
func NewManager(gitDir string, store engine.MetadataStore, runner git.Runner, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	if runner == nil {
		runner = git.NewRealRunner()
	}
	if store == nil {
		store = git.NewMetadataStore(log)
	}
	return &Manager{gitDir: gitDir, store: store, runner: runner, log: log}
}

// Tx is the handle for one in-flight operation
type Tx struct {
	m       *Manager
	receipt *Receipt
}

// Begin snapshots the given branches and opens a transaction. Backup refs
// and the receipt hit disk before Begin returns, so the caller is free to
// start rewriting history immediately after. Branches that do not exist yet
// are recorded with an empty pre-state and get no backup ref.
func (m *Manager) Begin(ctx context.Context, kind string, branches []string) (*Tx, error) {
	id := newOpID(m.gitDir, kind)

	receipt := &Receipt{
		ID:        id,
		Kind:      kind,
		StartedAt: time.Now(),
		Status:    StatusRunning,
	}
	if current, err := m.runner.GetCurrentBranch(); err == nil {
		receipt.CurrentBranch = current
	}

	seen := make(map[string]bool, len(branches))
	for _, name := range branches {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		state := &BranchState{Name: name}
		if before, err := m.runner.GetRevision(name); err == nil {
			state.Before = before
		}
		if metaBefore, err := m.store.RefSHA(name); err == nil {
			state.MetaBefore = metaBefore
		}
		receipt.Branches = append(receipt.Branches, state)

		if state.Before != "" {
			backupRef := BackupRefPrefix + id + "/" + name
			if err := m.runner.UpdateRefWithReason(backupRef, state.Before, "braid backup: "+kind); err != nil {
				return nil, fmt.Errorf("failed to write backup ref for %s: %w", name, err)
			}
		}
	}

	if err := writeReceipt(m.gitDir, receipt); err != nil {
		return nil, err
	}
	return &Tx{m: m, receipt: receipt}, nil
}

// ID returns the operation id backing this transaction
func (t *Tx) ID() string {
	return t.receipt.ID
}

// RecordAfter captures a branch's post-state. A branch that no longer
// resolves is recorded as deleted. The receipt is persisted on every call so
// a crash between branches loses nothing already recorded.
func (t *Tx) RecordAfter(branchName string) error {
	state := t.receipt.branchState(branchName)
	if state == nil {
		state = &BranchState{Name: branchName}
		t.receipt.Branches = append(t.receipt.Branches, state)
	}
	if after, err := t.m.runner.GetRevision(branchName); err == nil {
		state.After = after
	} else {
		state.After = ""
	}
	if metaAfter, err := t.m.store.RefSHA(branchName); err == nil {
		state.MetaAfter = metaAfter
	} else {
		state.MetaAfter = ""
	}
	return writeReceipt(t.m.gitDir, t.receipt)
}

// MarkPushed flags that the operation updated the branch's remote, so undo
// knows a remote restore is owed
func (t *Tx) MarkPushed(branchName string) error {
	state := t.receipt.branchState(branchName)
	if state == nil {
		return fmt.Errorf("branch %s is not part of operation %s", branchName, t.receipt.ID)
	}
	state.Pushed = true
	return writeReceipt(t.m.gitDir, t.receipt)
}

// FinishOK finalizes the receipt for a fully applied operation
func (t *Tx) FinishOK() error {
	return t.finish(StatusOK, "", "")
}

// FinishHalted finalizes the receipt for an operation suspended on a
// conflict. The halted branch is the one whose rebase stopped.
func (t *Tx) FinishHalted(branchName, reason string) error {
	return t.finish(StatusHalted, branchName, reason)
}

// FinishErr finalizes the receipt for an operation that failed outright
func (t *Tx) FinishErr(opErr error) error {
	reason := ""
	if opErr != nil {
		reason = opErr.Error()
	}
	return t.finish(StatusError, "", reason)
}

func (t *Tx) finish(status, haltedBranch, reason string) error {
	now := time.Now()
	t.receipt.Status = status
	t.receipt.HaltedBranch = haltedBranch
	t.receipt.Reason = reason
	t.receipt.FinishedAt = &now
	return writeReceipt(t.m.gitDir, t.receipt)
}

// Resume reopens a halted or running operation so the caller can keep
// recording against the same receipt. Continuing a conflicted restack goes
// through here so the whole operation stays one undoable unit.
func (m *Manager) Resume(opID string) (*Tx, error) {
	receipt, err := readReceipt(m.gitDir, opID)
	if err != nil {
		return nil, err
	}
	if receipt.Status == StatusOK || receipt.Status == StatusError {
		return nil, fmt.Errorf("operation %s already finished with status %s", opID, receipt.Status)
	}
	receipt.Status = StatusRunning
	receipt.HaltedBranch = ""
	receipt.Reason = ""
	receipt.FinishedAt = nil
	if err := writeReceipt(m.gitDir, receipt); err != nil {
		return nil, err
	}
	return &Tx{m: m, receipt: receipt}, nil
}

// List returns every recorded operation, newest first
func (m *Manager) List() ([]*Receipt, error) {
	return listReceipts(m.gitDir)
}

// Get loads one receipt by operation id
func (m *Manager) Get(opID string) (*Receipt, error) {
	return readReceipt(m.gitDir, opID)
}
