// Package engine manages the state and relationships of stacked branches.
//
// It is the core of braid, responsible for:
//   - Tracking parent-child relationships between branches
//   - Detecting which branches have drifted from their parents
//   - Rebasing branches back onto their parents, one at a time
//   - Keeping branch metadata refs in sync with every mutation
//
// The engine builds an in-memory forest from the metadata store plus the set
// of locally existing branches. Metadata for branches that no longer exist is
// pruned, branches whose recorded parent is gone are traversed as children of
// trunk without touching their stored metadata, and a cycle in the parent
// pointers fails the load outright.
package engine
