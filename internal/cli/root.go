package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/allyourbase/nexmoctl/internal/config"
	"github.com/allyourbase/nexmoctl/internal/nexmo"
	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersion is called from main to inject build-time version info.
func SetVersion(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
}

var rootCmd = &cobra.Command{
	Use:   "nexmoctl",
	Short: "nexmoctl: account, numbers, and message lookups for the Nexmo REST API",
	Long: `nexmoctl talks to the Nexmo legacy REST API: account balance, outbound
SMS pricing, owned and available numbers, and sent-message search.

Credentials come from nexmoctl.toml, NEXMO_API_KEY / NEXMO_API_SECRET,
or the --api-key / --api-secret flags.

Get started:
  nexmoctl config init
  nexmoctl balance
  nexmoctl pricing GB`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// clientFlags are the persistent flags forwarded to config.Load.
var clientFlags = []string{"api-key", "api-secret", "base-url", "log-level"}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to nexmoctl.toml config file")
	pf.Bool("json", false, "Output in JSON format (shorthand for --output json)")
	pf.String("output", "table", "Output format: table, json, or csv")
	pf.String("api-key", "", "API key (overrides NEXMO_API_KEY)")
	pf.String("api-secret", "", "API secret (overrides NEXMO_API_SECRET)")
	pf.String("base-url", "", "API base URL (default https://rest.nexmo.com)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(pricingCmd)
	rootCmd.AddCommand(numbersCmd)
	rootCmd.AddCommand(messagesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	initHelp()
}

// Execute runs the root command. Returned errors may carry suggestions; see
// Hints.
func Execute() error {
	return explain(rootCmd.Execute())
}

// outputFormat returns the resolved output format from flags.
// --json is a shorthand for --output json.
func outputFormat(cmd *cobra.Command) string {
	jsonFlag, _ := cmd.Flags().GetBool("json")
	if jsonFlag {
		return "json"
	}
	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		return "table"
	}
	return out
}

// loadConfig resolves configuration from the --config file, environment,
// and any explicitly set persistent flags.
func loadConfig(cmd *cobra.Command, extra ...string) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	flags := make(map[string]string)
	for _, name := range slices.Concat(clientFlags, extra) {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			flags[name] = f.Value.String()
		}
	}

	cfg, err := config.Load(configPath, flags)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newClient builds an API client from the resolved configuration.
func newClient(cmd *cobra.Command) (*nexmo.Client, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return nil, withHints(err,
			"export NEXMO_API_KEY=... NEXMO_API_SECRET=...",
			"nexmoctl config init",
		)
	}
	return nexmo.New(cfg.API.Key, cfg.API.Secret,
		nexmo.WithBaseURL(cfg.API.BaseURL),
		nexmo.WithTimeout(cfg.Timeout()),
		nexmo.WithLogger(newLogger(cfg.Logging.Level, cfg.Logging.Format)),
	), nil
}

// writeJSON encodes v to stdout.
func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeCSV writes rows as CSV to the given writer.
// cols is the list of column headers; rows is a slice of string slices.
func writeCSV(w io.Writer, cols []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeCSVStdout is a convenience wrapper that writes CSV to os.Stdout.
func writeCSVStdout(cols []string, rows [][]string) error {
	return writeCSV(os.Stdout, cols, rows)
}
