package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Status icons shared by reports.
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
	IconSkip = "-"
)

var (
	colorPass   = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	colorWarn   = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	colorFail   = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	colorAccent = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

// Palette styles console text. A disabled palette returns text unchanged.
type Palette struct {
	enabled      bool
	passStyle    lipgloss.Style
	warnStyle    lipgloss.Style
	failStyle    lipgloss.Style
	mutedStyle   lipgloss.Style
	headingStyle lipgloss.Style
}

// NewPalette constructs a palette; styling applies only when enabled.
func NewPalette(enabled bool) Palette {
	return Palette{
		enabled:      enabled,
		passStyle:    lipgloss.NewStyle().Foreground(colorPass),
		warnStyle:    lipgloss.NewStyle().Foreground(colorWarn),
		failStyle:    lipgloss.NewStyle().Bold(true).Foreground(colorFail),
		mutedStyle:   lipgloss.NewStyle().Foreground(colorMuted),
		headingStyle: lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	}
}

// PaletteFor enables styling when writer is an interactive terminal.
func PaletteFor(writer io.Writer) Palette {
	return NewPalette(IsTerminal(writer))
}

// IsTerminal reports whether writer is a file attached to a terminal.
func IsTerminal(writer io.Writer) bool {
	file, isFile := writer.(*os.File)
	if !isFile || file == nil {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// Pass renders success text.
func (palette Palette) Pass(text string) string {
	return palette.render(palette.passStyle, text)
}

// Warn renders warning text.
func (palette Palette) Warn(text string) string {
	return palette.render(palette.warnStyle, text)
}

// Fail renders failure text.
func (palette Palette) Fail(text string) string {
	return palette.render(palette.failStyle, text)
}

// Muted renders secondary text.
func (palette Palette) Muted(text string) string {
	return palette.render(palette.mutedStyle, text)
}

// Heading renders section headers.
func (palette Palette) Heading(text string) string {
	return palette.render(palette.headingStyle, text)
}

func (palette Palette) render(style lipgloss.Style, text string) string {
	if !palette.enabled {
		return text
	}
	return style.Render(text)
}
