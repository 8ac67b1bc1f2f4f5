package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/httpsdash/internal/config"
	"github.com/nao1215/httpsdash/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve profiled crawls to the dashboard",
		Long: `Serve exposes a profiles root over HTTP. The root holds one directory per
crawl date, each with one directory per user agent:

  <root>/main-manifest.json
  <root>/<date>/crawl-manifest.json
  <root>/<date>/<agent>/summary.json
  <root>/<date>/<agent>/site_profiles/<site>.json

Routes:
  GET /api/dates
  GET /api/crawls/{date}
  GET /api/crawls/{date}/{agent}/summary
  GET /api/crawls/{date}/{agent}/sites/{site}
  GET /files/...          static files below the root
  GET /healthz
  GET /metrics            Prometheus metrics

User agent names for crawls without a crawl manifest are taken from the
user_agents section of the configuration file.

Examples:
  httpsdash serve --root /srv/httpsdash
  httpsdash serve --root out --addr 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("root", "r", ".", "Profiles root directory")
	cmd.Flags().StringP("addr", "a", config.DefaultServeAddr, "Listen address")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return err
	}
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}
	file, err := loadConfigFile(cmd)
	if err != nil {
		return err
	}

	logger, closeLog, err := setupLogger(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(root,
		server.WithUserAgents(file.ManifestAgents()),
		server.WithLogger(logger),
	)
	return srv.ListenAndServe(ctx, addr)
}
