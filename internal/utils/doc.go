// Package utils provides branch name sanitization for generated branches.
package utils
