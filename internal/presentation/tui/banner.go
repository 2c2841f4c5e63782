package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`                            __ _`, "#38bdf8"},
	{`   __ _ _   _ _ __ __ _  / _| | _____      __`, "#22d3ee"},
	{`  / _' | | | | '__/ _' || |_| |/ _ \ \ /\ / /`, "#2dd4bf"},
	{` | (_| | |_| | | | (_| ||  _| | (_) \ V  V /`, "#34d399"},
	{`  \__,_|\__,_|_|  \__,_||_| |_|\___/ \_/\_/`, "#a3e635"},
}

// PrintBanner writes the colored banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
