package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/allyourbase/nexmoctl/internal/cli/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// commandGroups orders the root help. Commands not listed land under OTHER.
var commandGroups = []struct {
	id, title string
	commands  []string
}{
	{"account", "ACCOUNT", []string{"balance", "pricing"}},
	{"inventory", "NUMBERS & MESSAGES", []string{"numbers", "messages"}},
	{"tooling", "SERVE & CONFIGURE", []string{"serve", "mcp", "config", "version"}},
}

// helpEnv documents the environment variables config.Load reads.
var helpEnv = [][2]string{
	{"NEXMO_API_KEY", "API key"},
	{"NEXMO_API_SECRET", "API secret"},
	{"NEXMO_BASE_URL", "API endpoint (default https://rest.nexmo.com)"},
	{"NEXMO_TIMEOUT", "request timeout in seconds, 0 for none"},
	{"NEXMO_SERVER_AUTH_TOKEN", "bearer token required by nexmoctl serve"},
	{"NEXMO_LOG_LEVEL", "debug, info, warn, or error"},
	{"NO_COLOR", "disable colors and spinners"},
}

func initHelp() {
	for _, g := range commandGroups {
		rootCmd.AddGroup(&cobra.Group{ID: g.id, Title: g.title})
		for _, name := range g.commands {
			if sub, _, err := rootCmd.Find([]string{name}); err == nil && sub != rootCmd {
				sub.GroupID = g.id
			}
		}
	}

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		newHelpPrinter(cmd.ErrOrStderr()).command(cmd)
	})
	rootCmd.SetUsageFunc(func(cmd *cobra.Command) error {
		newHelpPrinter(cmd.ErrOrStderr()).command(cmd)
		return nil
	})
}

// helpPrinter writes one help page. Color is decided once per page.
type helpPrinter struct {
	w     io.Writer
	color bool
}

func newHelpPrinter(w io.Writer) *helpPrinter {
	return &helpPrinter{w: w, color: colorEnabled()}
}

func (p *helpPrinter) command(cmd *cobra.Command) {
	p.intro(cmd)
	p.usage(cmd)
	if cmd.Example != "" {
		p.section("EXAMPLES", p.codeLines(cmd.Example))
	}
	p.subcommands(cmd)
	p.flags(cmd)
	if cmd == rootCmd {
		p.section("ENVIRONMENT", p.pairs(helpEnv))
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(p.w, "%s\n\n", dim(fmt.Sprintf("Run '%s <command> --help' for details.", cmd.CommandPath()), p.color))
	}
}

func (p *helpPrinter) intro(cmd *cobra.Command) {
	fmt.Fprintln(p.w)
	if cmd == rootCmd {
		fmt.Fprintf(p.w, "  %s %s %s\n\n", ui.BrandEmoji, boldCyan("nexmoctl", p.color), dim(buildVersion, p.color))
	}
	text := cmd.Long
	if text == "" {
		text = cmd.Short
	}
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.TrimSpace(line) == "":
			fmt.Fprintln(p.w)
		case strings.HasPrefix(line, "  "):
			// Indented lines in descriptions are commands to type.
			fmt.Fprintf(p.w, "    %s\n", green(strings.TrimSpace(line), p.color))
		default:
			fmt.Fprintf(p.w, "  %s\n", line)
		}
	}
	fmt.Fprintln(p.w)
}

func (p *helpPrinter) usage(cmd *cobra.Command) {
	line := cmd.UseLine()
	if cmd.HasAvailableSubCommands() {
		line = cmd.CommandPath() + " <command>"
	}
	p.section("USAGE", []string{line})
}

// section prints a heading followed by indented lines; empty sections are
// skipped.
func (p *helpPrinter) section(title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(p.w, boldCyan(title, p.color))
	for _, l := range lines {
		fmt.Fprintf(p.w, "  %s\n", l)
	}
	fmt.Fprintln(p.w)
}

func (p *helpPrinter) codeLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, green(l, p.color))
		}
	}
	return out
}

// pairs aligns name/description rows.
func (p *helpPrinter) pairs(rows [][2]string) []string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = bold(fmt.Sprintf("%-*s", width+3, r[0]), p.color) + dim(r[1], p.color)
	}
	return out
}

func (p *helpPrinter) subcommands(cmd *cobra.Command) {
	byGroup := make(map[string][][2]string)
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			byGroup[sub.GroupID] = append(byGroup[sub.GroupID], [2]string{sub.Name(), sub.Short})
		}
	}
	for _, g := range cmd.Groups() {
		p.section(g.Title, p.pairs(byGroup[g.ID]))
	}
	title := "COMMANDS"
	if len(cmd.Groups()) > 0 {
		title = "OTHER"
	}
	p.section(title, p.pairs(byGroup[""]))
}

func (p *helpPrinter) flags(cmd *cobra.Command) {
	if cmd == rootCmd {
		p.section("FLAGS", p.flagLines(cmd.Flags()))
		return
	}
	p.section("FLAGS", p.flagLines(cmd.LocalNonPersistentFlags()))
	p.section("GLOBAL FLAGS", p.flagLines(cmd.InheritedFlags()))
}

// flagLines reuses pflag's aligned usage and colors the flag column.
func (p *helpPrinter) flagLines(fs *pflag.FlagSet) []string {
	usage := strings.TrimRight(fs.FlagUsages(), "\n")
	if usage == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(usage, "\n") {
		line = strings.TrimPrefix(line, "  ")
		body := strings.TrimLeft(line, " ")
		indent := line[:len(line)-len(body)]
		// pflag separates the flag column from the description with 3+ spaces.
		if i := strings.Index(body, "   "); i > 0 && p.color {
			desc := strings.TrimLeft(body[i:], " ")
			body = cyan(body[:i], true) + body[i:len(body)-len(desc)] + dim(desc, true)
		}
		out = append(out, indent+body)
	}
	return out
}
