// Package ops wraps every history-rewriting operation in a transaction.
//
// Before an operation mutates anything, Begin snapshots each affected
// branch's tip and metadata, writes one backup ref per branch under
// refs/braid/backup/<op-id>/, and persists an operation receipt. The backup
// refs exist before the first mutation, so even a crash mid-operation leaves
// enough on disk for recovery. Receipts record per-branch pre and post state
// and whether the branch was pushed, which is what undo and redo replay.
//
// Undo restores each branch independently; one branch failing never blocks
// the others, and the caller gets a per-branch outcome summary rather than a
// single pass/fail. Backup refs are deliberately never auto-deleted: repeated
// undo attempts stay possible until an explicit prune.
package ops
