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
	{`                  _            `, "#818cf8"},
	{` _ __   __ _ _ __| | ___ _   _ `, "#a78bfa"},
	{`| '_ \ / _' | '__| |/ _ \ | | |`, "#c084fc"},
	{`| |_) | (_| | |  | |  __/ |_| |`, "#e879f9"},
	{`| .__/ \__,_|_|  |_|\___|\__, |`, "#f472b6"},
	{`|_|                      |___/ `, "#fb7185"},
}

// PrintBanner writes the colored banner and version line to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  shopping assistant v"+version).Faint())
	fmt.Fprintln(w)
}
