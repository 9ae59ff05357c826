package main

import (
	"os"

	"golang.org/x/term"
)

// isTerminal reports whether f is attached to an interactive terminal,
// the same check the teacher's cmd/pigo used to refuse "-" without a
// pipe on either end.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
