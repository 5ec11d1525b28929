package shell

import (
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Area is an in-memory Display.
type Area struct {
	mu      sync.Mutex
	content string
}

// Replace implements Display.
func (a *Area) Replace(content string) error {
	a.mu.Lock()
	a.content = content
	a.mu.Unlock()
	return nil
}

// Content returns what the area currently shows.
func (a *Area) Content() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.content
}

const clearScreen = "\x1b[H\x1b[2J"

// Terminal is a Display over a writer. When the writer is a terminal the
// screen is cleared and the header redrawn before each report. Otherwise a
// ruler separates reports, since a pipe cannot be rewound.
type Terminal struct {
	w      io.Writer
	header string
	clear  bool
}

// NewTerminal creates a Terminal display. header is redrawn above every
// report on a clearing terminal.
func NewTerminal(w io.Writer, header string) *Terminal {
	return &Terminal{w: w, header: header, clear: IsTerminal(w)}
}

// Replace implements Display.
func (t *Terminal) Replace(content string) error {
	var b strings.Builder
	if t.clear {
		b.WriteString(clearScreen)
		if t.header != "" {
			b.WriteString(t.header)
			b.WriteString("\n\n")
		}
	} else {
		b.WriteString(strings.Repeat("-", 40))
		b.WriteString("\n")
	}
	if content != "" {
		b.WriteString(content)
		b.WriteString("\n")
	}
	_, err := io.WriteString(t.w, b.String())
	return err
}

// IsTerminal reports whether w is an *os.File attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
