// Package tui provides the interactive stack browser for braid.
//
// The browser shows the tracked branches as a tree alongside a scrollable
// diff pane (bubbletea + bubbles viewport, styled with lipgloss). Diffs are
// served through the shared diff cache, so flipping between branches is
// cheap; restacking from inside the browser clears the cache and reloads.
package tui
