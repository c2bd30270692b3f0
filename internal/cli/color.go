package cli

import (
	"github.com/allyourbase/nexmoctl/internal/cli/ui"
)

// colorEnabled returns true if stderr is a terminal and color should be used.
// Respects the NO_COLOR environment variable (https://no-color.org/).
func colorEnabled() bool {
	return ui.ColorEnabled()
}

// colorEnabledFd returns true if the given file descriptor supports color.
func colorEnabledFd(fd uintptr) bool {
	return ui.ColorEnabledFd(fd)
}

// The helpers below use a forced-ANSI renderer so they always produce escape
// codes when color=true, even in non-TTY environments (the caller already
// made the TTY decision via the color bool parameter).

func bold(text string, color bool) string {
	if !color {
		return text
	}
	return ui.ForcedRenderer().NewStyle().Bold(true).Render(text)
}

func dim(text string, color bool) string {
	if !color {
		return text
	}
	return ui.ForcedRenderer().NewStyle().Faint(true).Render(text)
}

func cyan(text string, color bool) string {
	if !color {
		return text
	}
	return ui.ForcedRenderer().NewStyle().Foreground(ui.ColorCyan).Render(text)
}

func green(text string, color bool) string {
	if !color {
		return text
	}
	return ui.ForcedRenderer().NewStyle().Foreground(ui.ColorGreen).Render(text)
}

func yellow(text string, color bool) string {
	if !color {
		return text
	}
	return ui.ForcedRenderer().NewStyle().Foreground(ui.ColorYellow).Render(text)
}

// boldCyan is used for section headings.
func boldCyan(text string, color bool) string {
	if !color {
		return text
	}
	return ui.ForcedRenderer().NewStyle().Bold(true).Foreground(ui.ColorCyan).Render(text)
}
