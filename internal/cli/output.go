package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/allyourbase/nexmoctl/internal/cli/ui"
	"github.com/spf13/cobra"
)

// fetch runs fn under a spinner on stderr when the user is watching a
// terminal and expects table output. Piped and machine-readable output get
// no progress noise.
func fetch[T any](cmd *cobra.Command, msg string, fn func(context.Context) (T, error)) (T, error) {
	if outputFormat(cmd) != "table" || !colorEnabled() {
		return fn(cmd.Context())
	}
	sp := ui.NewRequestSpinner(os.Stderr, false)
	sp.Start(msg)
	v, err := fn(cmd.Context())
	if err != nil {
		sp.Fail(failureReason(err))
	} else {
		sp.Succeed()
	}
	return v, err
}

// printTable renders cols and rows with a tabwriter, the header bolded when
// stdout is a color terminal.
func printTable(w io.Writer, cols []string, rows [][]string) {
	c := colorEnabledFd(os.Stdout.Fd())
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = bold(col, c)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	fmt.Fprintln(tw, strings.Repeat("---\t", len(cols)))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

// printFields renders label/value pairs, one per line.
func printFields(w io.Writer, fields [][2]string) {
	c := colorEnabledFd(os.Stdout.Fd())
	width := 0
	for _, f := range fields {
		width = max(width, len(f[0]))
	}
	for _, f := range fields {
		fmt.Fprintf(w, "%s  %s\n", bold(fmt.Sprintf("%-*s", width, f[0]), c), f[1])
	}
}

// emit writes data according to the --output format: JSON encodes asJSON,
// CSV and table render cols and rows.
func emit(cmd *cobra.Command, asJSON any, cols []string, rows [][]string) error {
	switch outputFormat(cmd) {
	case "json":
		return writeJSON(asJSON)
	case "csv":
		return writeCSVStdout(cols, rows)
	default:
		printTable(os.Stdout, cols, rows)
		return nil
	}
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
