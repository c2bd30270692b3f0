package cli

import (
	"fmt"

	"github.com/allyourbase/nexmoctl/internal/cli/ui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print nexmoctl version",
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputFormat(cmd) == "json" {
			return writeJSON(map[string]any{
				"version": buildVersion,
				"commit":  buildCommit,
				"date":    buildDate,
			})
		}
		fmt.Printf("%s nexmoctl %s (commit: %s, built: %s)\n", ui.BrandEmoji, buildVersion, buildCommit, buildDate)
		return nil
	},
}
