package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"   ____                  _   ", "#38bdf8"},
	{"  / ___|  ___ ___  _   _| |_ ", "#22d3ee"},
	{"  \\___ \\ / __/ _ \\| | | | __|", "#2dd4bf"},
	{"   ___) | (_| (_) | |_| | |_ ", "#34d399"},
	{"  |____/ \\___\\___/ \\__,_|\\__|", "#4ade80"},
}

// PrintBanner writes the Scout banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()

	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, p.String(line.text).Foreground(p.Color(line.color)))
	}
	fmt.Fprintln(w, p.String("  research assistant v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
