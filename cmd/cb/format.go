package main

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/term"
)

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// nameColumnWidth picks a name column width from the terminal size, so task
// tables stay readable on narrow terminals. Non-terminal output gets the
// default.
func nameColumnWidth() int {
	const (
		defaultWidth = 40
		minWidth     = 16
		// ID, phase, step, status, and category columns plus separators.
		otherColumns = 56
	)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return defaultWidth
	}
	cols, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return defaultWidth
	}

	w := cols - otherColumns
	if w < minWidth {
		return minWidth
	}
	if w > defaultWidth {
		return defaultWidth
	}
	return w
}

// parseUintArg parses a positional numeric ID argument.
func parseUintArg(s, what string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return uint(v), nil
}
