package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/allyourbase/nexmoctl/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print resolved configuration",
	Long: `Load and print the resolved nexmoctl configuration as TOML.
Shows the result of merging defaults, nexmoctl.toml, environment variables, and flags.
The API secret is masked.`,
	RunE: runConfig,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long: `Get a specific configuration value by dotted key path.
Examples: api.base_url, api.timeout, server.port, logging.level`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in nexmoctl.toml",
	Long: `Set a configuration value in the nexmoctl.toml config file.
Creates the file if it doesn't exist.
Examples:
  nexmoctl config set api.key abcd1234
  nexmoctl config set server.port 9000
  nexmoctl config set logging.level debug`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default nexmoctl.toml",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")

	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
}

const secretMask = "********"

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.API.Secret != "" {
		cfg.API.Secret = secretMask
	}

	if outputFormat(cmd) == "json" {
		return writeJSON(cfg)
	}

	out, err := cfg.ToTOML()
	if err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}

	fmt.Print(out)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	value, err := config.GetValue(cfg, args[0])
	if err != nil {
		return err
	}
	if args[0] == "api.secret" && value != "" {
		value = secretMask
	}

	if outputFormat(cmd) == "json" {
		return writeJSON(map[string]any{"key": args[0], "value": value})
	}

	fmt.Println(value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.DefaultPath
	}

	key := args[0]
	value := args[1]

	if !config.IsValidKey(key) {
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	if err := config.SetValue(configPath, key, value); err != nil {
		return fmt.Errorf("setting config value: %w", err)
	}

	shown := value
	if key == "api.secret" {
		shown = secretMask
	}
	fmt.Printf("%s = %s\n", key, shown)
	fmt.Printf("Written to %s\n", configPath)

	// Only warn: values may be set one at a time.
	if _, err := config.Load(configPath, nil); err != nil {
		parts := strings.SplitN(err.Error(), ": ", 2)
		fmt.Fprintf(os.Stderr, "Note: %s\n", parts[len(parts)-1])
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.DefaultPath
	}
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(configPath); err == nil && !force {
		return withHints(fmt.Errorf("%s already exists", configPath),
			"nexmoctl config init --force",
			"nexmoctl config set <key> <value>")
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", configPath, err)
	}

	if err := config.GenerateDefault(configPath); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	fmt.Printf("Wrote %s\n", configPath)
	return nil
}
