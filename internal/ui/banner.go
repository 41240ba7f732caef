package ui

import (
	"io"

	"github.com/common-nighthawk/go-figure"
)

const bannerFont = "small"

// Banner renders the program name as ASCII art. Color is dropped when
// output colors are disabled.
func Banner(name string) string {
	if noColor() {
		return figure.NewFigure(name, bannerFont, true).String()
	}
	return figure.NewColorFigure(name, bannerFont, "green", true).ColorString()
}

// PrintBanner writes Banner(name) to w.
func PrintBanner(w io.Writer, name string) {
	_, _ = io.WriteString(w, EnsureNewline(Banner(name)))
}
