package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the guiapi banner with the version.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	lines := []struct{ text, color string }{
		{"   __ _ _   _(_) __ _ _ __ (_)", "#818cf8"},
		{"  / _` | | | | |/ _` | '_ \\| |", "#a78bfa"},
		{" | (_| | |_| | | (_| | |_) | |", "#c084fc"},
		{"  \\__, |\\__,_|_|\\__,_| .__/|_|", "#e879f9"},
		{"  |___/              |_|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
