// Package report prints the leading lines of a fit summary.
package report

import (
	"fmt"
	"io"
	"strings"
)

// DefaultLines is the number of summary lines printed by default: the run
// header, the column header and the three model parameters.
const DefaultLines = 8

// Head returns the first k lines of text, or all of them when there are fewer.
func Head(text string, k int) []string {
	if k <= 0 {
		return nil
	}

	lines := strings.Split(text, "\n")
	if len(lines) > k {
		lines = lines[:k]
	}

	return lines
}

// Print writes the first k lines of text to w, one per line.
func Print(w io.Writer, text string, k int) error {
	for _, line := range Head(text, k) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write summary line: %w", err)
		}
	}

	return nil
}
