package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nao1215/httpsdash/internal/config"
	"github.com/nao1215/httpsdash/internal/log"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for httpsdash.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "httpsdash",
		Short: "Compare how sites load over HTTP and HTTPS",
		Long: `httpsdash profiles the browser captures of a crawl in which every site was
visited over both HTTP and HTTPS.

For each site it records which objects were fetched from the same origin,
from a different origin, or only over one protocol, and writes a profile
document per site plus a cross-site summary for the dashboard.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Only log warnings and errors")
	cmd.PersistentFlags().StringP("logfile", "g", "", "Write log output to this file instead of stderr")
	cmd.PersistentFlags().Bool("log-json", false, "Write log output as JSON")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .httpsdash in current or home directory)")

	cmd.AddCommand(NewProfileCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewThumbnailCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// flagBool returns a boolean flag, false when the command lacks it.
// Subcommands built on their own in tests have no persistent flags.
func flagBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false
	}
	return v
}

func flagString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}
	return v
}

// setupLogger creates the logger selected by the global flags and makes it
// the default. The returned function closes the log file, if any.
func setupLogger(cmd *cobra.Command) (*slog.Logger, func(), error) {
	level := log.LevelFromFlags(flagBool(cmd, "quiet"), flagBool(cmd, "verbose"))

	var w io.Writer = cmd.ErrOrStderr()
	closeLog := func() {}
	if path := flagString(cmd, "logfile"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // user-provided log path
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		closeLog = func() { _ = f.Close() }
	}

	logger := log.NewSecureLogger(w, level)
	if flagBool(cmd, "log-json") {
		logger = log.NewSecureJSONLogger(w, level)
	}
	slog.SetDefault(logger)
	return logger, closeLog, nil
}

// loadConfigFile loads the configuration file named by --config, or the
// first one found in the default locations. An explicit path that does not
// exist is an error; otherwise a missing file yields an empty File.
func loadConfigFile(cmd *cobra.Command) (*config.File, error) {
	explicit := flagString(cmd, "config")
	path := config.FindConfigFile(explicit)
	if path == "" {
		if explicit != "" {
			return nil, fmt.Errorf("configuration file not found: %s", explicit)
		}
		return &config.File{UserAgents: make(map[string]config.UserAgent)}, nil
	}

	f, err := config.LoadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return f, nil
}
