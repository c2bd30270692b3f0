// Package ui renders nexmoctl's terminal output: the request spinner, the
// error report with its suggestions, and the few styles both share.
package ui

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// BrandEmoji prefixes the version line, the serve banner, and root help.
const BrandEmoji = "\U0001F4DF" // 📟

// ANSI 4-bit palette; lipgloss degrades it on poorer terminals.
var (
	ColorCyan   = lipgloss.Color("6")
	ColorGreen  = lipgloss.Color("2")
	ColorYellow = lipgloss.Color("3")
	ColorRed    = lipgloss.Color("1")
)

var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleError   = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBoldRed = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)
	StyleHint    = lipgloss.NewStyle().Faint(true)

	// StyleLabel pads banner labels ("API:", "Auth:") to one column.
	StyleLabel = lipgloss.NewStyle().Bold(true).Width(10)
)

const (
	SymbolCheck = "✓"
	SymbolCross = "✗"
	SymbolArrow = "→"
)

var (
	forcedRenderer     *lipgloss.Renderer
	forcedRendererOnce sync.Once
)

// ForcedRenderer always emits ANSI. The cli color helpers call it only after
// deciding color is wanted, so terminal detection must not strip escapes.
func ForcedRenderer() *lipgloss.Renderer {
	forcedRendererOnce.Do(func() {
		forcedRenderer = lipgloss.NewRenderer(os.Stderr)
		forcedRenderer.SetColorProfile(termenv.ANSI)
	})
	return forcedRenderer
}

// ColorEnabled reports whether stderr, where spinners and errors go, is a
// color terminal. NO_COLOR disables it even when empty.
func ColorEnabled() bool {
	return ColorEnabledFd(os.Stderr.Fd())
}

// ColorEnabledFd is ColorEnabled for an arbitrary descriptor.
func ColorEnabledFd(fd uintptr) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
