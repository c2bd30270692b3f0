package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/allyourbase/nexmoctl/internal/cli/ui"
	"github.com/allyourbase/nexmoctl/internal/nexmo"
	"github.com/allyourbase/nexmoctl/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the account API as local JSON endpoints",
	Long: `Start an HTTP server that exposes balance, pricing, numbers, and message
search as JSON endpoints. All requests share one client and its cache.

Set server.auth_token (or NEXMO_SERVER_AUTH_TOKEN) to require a bearer token
on /api routes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "Host to bind (default 127.0.0.1)")
	serveCmd.Flags().Int("port", 0, "Port to listen on (default 8095)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, "host", "port")
	if err != nil {
		return err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return withHints(err, "export NEXMO_API_KEY=... NEXMO_API_SECRET=...")
	}

	// Register signal handlers before binding so an early Ctrl-C is not lost.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format)
	client := nexmo.New(cfg.API.Key, cfg.API.Secret,
		nexmo.WithBaseURL(cfg.API.BaseURL),
		nexmo.WithTimeout(cfg.Timeout()),
		nexmo.WithLogger(logger),
	)
	srv := server.New(cfg, logger, client)

	ready := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.StartWithReady(ready)
	}()

	select {
	case <-ready:
	case err := <-errCh:
		return withHints(err, fmt.Sprintf("nexmoctl serve --port %d", cfg.Server.Port+1))
	}

	c := colorEnabled()
	fmt.Fprintf(os.Stderr, "  %s %s\n", ui.BrandEmoji, boldCyan("nexmoctl "+buildVersion, c))
	fmt.Fprintf(os.Stderr, "  %s %s\n", ui.StyleLabel.Render("API:"), cyan("http://"+cfg.Address()+"/api", c))
	if cfg.Server.AuthToken != "" {
		fmt.Fprintf(os.Stderr, "  %s %s\n", ui.StyleLabel.Render("Auth:"), dim("bearer token required", c))
	} else {
		fmt.Fprintf(os.Stderr, "  %s %s\n", ui.StyleLabel.Render("Auth:"), yellow("none", c))
	}
	fmt.Fprintln(os.Stderr)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return shutdown(srv, logger.Info, "context canceled")
	case sig := <-sigCh:
		fmt.Fprintf(os.Stderr, "\n  Shutting down... (press Ctrl-C again to force)\n")
		signal.Stop(sigCh) // Second Ctrl-C triggers Go default (immediate exit).
		return shutdown(srv, logger.Info, sig.String())
	}
}

func shutdown(srv *server.Server, logf func(string, ...any), reason string) error {
	logf("shutting down", "reason", reason)
	return srv.Shutdown(context.Background())
}
