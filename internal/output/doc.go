// Package output renders braid's user-facing terminal output: the Splog
// console/file logger, branch tree rendering, colors, and interactive
// prompts.
package output
