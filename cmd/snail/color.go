package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/chroma/quick"
	"golang.org/x/term"
)

// colorEnabled decides whether to colorize output headed for f. The
// "auto" setting colors only real terminals, so piping stays clean.
func colorEnabled(mode string, f *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// writePython prints generated Python, syntax-highlighted when the
// destination wants color. Highlighting failures fall back to plain
// text rather than losing the output.
func writePython(f *os.File, code, colorMode string) error {
	if colorEnabled(colorMode, f) {
		if err := quick.Highlight(f, code, "python", "terminal256", "monokai"); err == nil {
			return nil
		}
	}
	if _, err := io.WriteString(f, code); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
