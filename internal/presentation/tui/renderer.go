package tui

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
// Styles are picked from the terminal background.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return plain
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

func plain(markdown string) (string, error) {
	return strings.TrimRight(markdown, "\n") + "\n", nil
}

// RendererFor returns the glamour renderer when w is a terminal and a
// pass-through otherwise, so piped output stays plain markdown.
func RendererFor(w io.Writer) func(string) (string, error) {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return NewRenderer()
	}
	return plain
}
