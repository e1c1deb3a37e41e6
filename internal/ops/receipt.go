package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// BackupRefPrefix is the ref namespace holding one pre-operation pointer
	// per (operation, branch). Local-only by convention, never pushed.
	BackupRefPrefix = "refs/braid/backup/"

	jsonExt = ".json"
)

// Receipt statuses. A receipt stays "running" from Begin until one of the
// Finish calls; a crash leaves it running, which undo still accepts.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusHalted  = "halted"
	StatusError   = "error"
)

// BranchState is the per-branch record inside a receipt. An empty Before
// means the branch did not exist when the operation began; an empty After on
// a finalized receipt means the operation deleted it.
type BranchState struct {
	Name       string `json:"name"`
	Before     string `json:"before,omitempty"`
	After      string `json:"after,omitempty"`
	MetaBefore string `json:"meta_before,omitempty"`
	MetaAfter  string `json:"meta_after,omitempty"`
	Pushed     bool   `json:"pushed,omitempty"`
}

// Receipt is the durable record of one operation, one JSON file under
// .git/braid/ops. The ID doubles as the backup ref namespace.
type Receipt struct {
	ID            string         `json:"id"`
	Kind          string         `json:"kind"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    *time.Time     `json:"finished_at,omitempty"`
	Status        string         `json:"status"`
	HaltedBranch  string         `json:"halted_branch,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	CurrentBranch string         `json:"current_branch,omitempty"`
	Branches      []*BranchState `json:"branches"`
	Undone        bool           `json:"undone,omitempty"`
}

// branchState finds the record for a branch, nil when the operation did not
// cover it
func (r *Receipt) branchState(branchName string) *BranchState {
	for _, s := range r.Branches {
		if s.Name == branchName {
			return s
		}
	}
	return nil
}

// BranchNames returns the branches the operation covered, in receipt order
func (r *Receipt) BranchNames() []string {
	names := make([]string, len(r.Branches))
	for i, s := range r.Branches {
		names[i] = s.Name
	}
	return names
}

// opsDir returns the receipt directory under the shared git dir
func opsDir(gitDir string) string {
	return filepath.Join(gitDir, "braid", "ops")
}

// newOpID allocates a time-ordered operation id, bumping the timestamp by a
// millisecond when two operations land inside the same one
func newOpID(gitDir, kind string) string {
	t := time.Now()
	for {
		id := fmt.Sprintf("%s_%s", t.Format("20060102150405.000"), kind)
		if _, err := os.Stat(filepath.Join(opsDir(gitDir), id+jsonExt)); os.IsNotExist(err) {
			return id
		}
		t = t.Add(time.Millisecond)
	}
}

// writeReceipt persists a receipt, overwriting any previous version of the
// same operation. Repeated writes with the same id are idempotent.
func writeReceipt(gitDir string, receipt *Receipt) error {
	dir := opsDir(gitDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create ops directory: %w", err)
	}
	data, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal receipt: %w", err)
	}
	path := filepath.Join(dir, receipt.ID+jsonExt)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write receipt: %w", err)
	}
	return nil
}

// readReceipt loads one receipt by id
func readReceipt(gitDir, opID string) (*Receipt, error) {
	path := filepath.Join(opsDir(gitDir), opID+jsonExt)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt %s: %w", opID, err)
	}
	var receipt Receipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return nil, fmt.Errorf("failed to parse receipt %s: %w", opID, err)
	}
	return &receipt, nil
}

// deleteReceiptFile removes a receipt from disk
func deleteReceiptFile(gitDir, opID string) error {
	err := os.Remove(filepath.Join(opsDir(gitDir), opID+jsonExt))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete receipt %s: %w", opID, err)
	}
	return nil
}

// listReceipts returns every parseable receipt, newest first. Malformed
// files are skipped, not fatal.
func listReceipts(gitDir string) ([]*Receipt, error) {
	entries, err := os.ReadDir(opsDir(gitDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read ops directory: %w", err)
	}

	var receipts []*Receipt
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), jsonExt) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), jsonExt)
		receipt, err := readReceipt(gitDir, id)
		if err != nil {
			continue
		}
		receipts = append(receipts, receipt)
	}

	// IDs begin with the timestamp, so lexical order is chronological
	sort.Slice(receipts, func(i, j int) bool {
		return receipts[i].ID > receipts[j].ID
	})
	return receipts, nil
}
