package ui

import (
	"fmt"
	"net/http"
	"strings"
)

// Problem is a failed command as reported on stderr.
type Problem struct {
	Message string
	// Status is the HTTP status the account API answered with, 0 when the
	// failure happened before or without a response.
	Status int
	Hints  []string
}

// String renders the problem: the message, the upstream status when there is
// one, then a "Try:" list of hints. Styles degrade to plain text off a TTY.
func (p Problem) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", StyleBoldRed.Render("Error:"), p.Message)
	if p.Status != 0 {
		fmt.Fprintf(&b, "  %s\n", StyleHint.Render(fmt.Sprintf("API answered %d %s", p.Status, http.StatusText(p.Status))))
	}

	if len(p.Hints) > 0 {
		b.WriteString("\n")
		b.WriteString(StyleHint.Render("  Try:") + "\n")
		for _, h := range p.Hints {
			fmt.Fprintf(&b, "    %s %s\n", StyleHint.Render(SymbolArrow), h)
		}
	}
	return b.String()
}
