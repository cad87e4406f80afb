package logging

import (
	"io"
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether w is attached to a terminal. Anything exposing an
// Fd() method (os.File in practice) can be probed; other writers are never
// terminals.
func IsTTY(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// SupportsColor reports whether ANSI color output is appropriate for w.
// Color is off for non-terminals, when NO_COLOR is set
// (https://no-color.org), and for TERM=dumb.
func SupportsColor(w io.Writer) bool {
	return supportsColor(w, IsTTY(w))
}

func supportsColor(w io.Writer, isTTY bool) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTTY
}
