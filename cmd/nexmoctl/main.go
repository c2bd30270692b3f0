package main

import (
	"fmt"
	"os"

	"github.com/allyourbase/nexmoctl/internal/cli"
)

// Set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersion(version, commit, date)
	if err := cli.Execute(); err != nil {
		fmt.Fprint(os.Stderr, cli.Report(err))
		os.Exit(1)
	}
}
