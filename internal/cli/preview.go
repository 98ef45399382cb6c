package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/jmylchreest/dextint/internal/colour"
)

const swatchWidth = 6

// swatch renders a block of c followed by nothing else.
func swatch(c colour.Colour) string {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(c.Hex())).
		Width(swatchWidth).
		Render("")
}

// labelled renders text on c, using a readable foreground.
func labelled(c colour.Colour, text string) string {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(c.Hex())).
		Foreground(lipgloss.Color(colour.ReadableForeground(c).Hex())).
		Padding(0, 1).
		Render(text)
}

// isTerminal reports whether w is attached to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) // #nosec G115 - file descriptors fit in int
}
