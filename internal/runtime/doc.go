// Package runtime provides the execution context for braid commands.
//
// It assembles the shared dependencies every action needs: the branch
// engine, the operation manager, console and file output, the diff cache,
// and the repository paths.
package runtime
