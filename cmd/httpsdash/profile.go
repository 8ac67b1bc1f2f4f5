package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/httpsdash/internal/config"
	"github.com/nao1215/httpsdash/internal/crawl"
	"github.com/nao1215/httpsdash/internal/database"
	"github.com/nao1215/httpsdash/internal/model"
	"github.com/nao1215/httpsdash/internal/report"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
)

// NewProfileCmd creates the profile command.
func NewProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile <crawl-dir>",
		Short: "Profile every site of a crawl directory",
		Long: `Profile reads the capture files of a crawl directory and writes one
profile document per site plus a cross-site summary.

Capture files are named <scheme>---<site>[_trial<N>].har, where scheme is
http or https. Files of the same site that differ only in the scheme are
compared against each other.

Output layout:
  <outdir>/site_profiles/<site>.json
  <outdir>/site_screenshots/*.png
  <outdir>/summary.json

A site whose captures cannot be read is skipped and logged; only a failure
to write into the output directory fails the command.

Examples:
  # Profile a crawl into the current directory
  httpsdash profile ./crawl

  # Profile into a dated output directory, four sites at a time
  httpsdash profile ./crawl -o out/20261018/firefox -b 4

  # Also write summary.md and summary.xlsx and make thumbnails
  httpsdash profile ./crawl -o out --markdown --xlsx --thumbnails

  # Print the object table of every site captured over both protocols
  httpsdash profile ./crawl -o out --table`,
		Args: cobra.ExactArgs(1),
		RunE: runProfileCmd,
	}

	cmd.Flags().StringP("outdir", "o", config.DefaultOutDir,
		"Output directory (created if absent)")
	cmd.Flags().StringP("ext", "e", config.DefaultCaptureExtension,
		"Capture file extension")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of sites processed concurrently")
	cmd.Flags().BoolP("pretty", "p", false,
		"Indent the written JSON documents")

	cmd.Flags().BoolP("markdown", "m", false,
		"Also write summary.md")
	cmd.Flags().BoolP("xlsx", "x", false,
		"Also write summary.xlsx")

	cmd.Flags().Bool("no-screenshots", false,
		"Do not copy screenshots into the output directory")
	cmd.Flags().BoolP("thumbnails", "t", false,
		"Rename copied screenshots and write thumbnails")
	cmd.Flags().Int("thumb-width", config.DefaultThumbnailWidth,
		"Thumbnail width in pixels")
	cmd.Flags().Int("thumb-height", config.DefaultThumbnailHeight,
		"Thumbnail height in pixels")

	cmd.Flags().Bool("table", false,
		"Print the object comparison table of every site with both captures")
	cmd.Flags().String("lang", "en",
		"Language tag used to format numbers in console output")

	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")
	cmd.Flags().Bool("no-db", false,
		"Do not record the run in the history database")

	return cmd
}

// runProfileCmd executes the profile command.
func runProfileCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildProfileConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	out, err := newConsoleWriter(cmd)
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

	return runProfile(ctx, cmd, cfg, out, logger)
}

// newConsoleWriter creates the stdout writer in the language of --lang.
func newConsoleWriter(cmd *cobra.Command) (*report.SimpleWriter, error) {
	lang, err := cmd.Flags().GetString("lang")
	if err != nil {
		return nil, err
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("invalid --lang %q: %w", lang, err)
	}
	return report.NewSimpleWriter(cmd.OutOrStdout(), report.WithLanguage(tag)), nil
}

// buildProfileConfig creates a Config from the command flags, completed by
// the configuration file.
func buildProfileConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.InDir = args[0]

	flags := cmd.Flags()
	var err error
	if cfg.OutDir, err = flags.GetString("outdir"); err != nil {
		return nil, err
	}
	if cfg.CaptureExtension, err = flags.GetString("ext"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.PrettyPrint, err = flags.GetBool("pretty"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.XLSXReport, err = flags.GetBool("xlsx"); err != nil {
		return nil, err
	}
	noScreenshots, err := flags.GetBool("no-screenshots")
	if err != nil {
		return nil, err
	}
	cfg.CopyScreenshots = !noScreenshots
	if cfg.Thumbnails, err = flags.GetBool("thumbnails"); err != nil {
		return nil, err
	}
	if cfg.ThumbnailWidth, err = flags.GetInt("thumb-width"); err != nil {
		return nil, err
	}
	if cfg.ThumbnailHeight, err = flags.GetInt("thumb-height"); err != nil {
		return nil, err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}
	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	file, err := loadConfigFile(cmd)
	if err != nil {
		return nil, err
	}
	cfg.ApplyFile(file, flags.Changed)
	return cfg, nil
}

// runProfile profiles the crawl and prints the overview to stdout.
func runProfile(ctx context.Context, cmd *cobra.Command, cfg *config.Config, out *report.SimpleWriter, logger *slog.Logger) error {
	deps := crawl.Deps{Logger: logger}
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			logger.Warn("history database unavailable", "dir", cfg.DBDir, "error", err)
		} else {
			defer db.Close()
			deps.History = db
		}
	}

	result, err := crawl.Run(ctx, cfg, deps)
	if err != nil {
		return err
	}

	if flagBool(cmd, "table") {
		if err := printTables(out, result.Runs); err != nil {
			return err
		}
	}
	if _, err := out.Write(result.Report); err != nil {
		return fmt.Errorf("failed to print overview: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Summary written to %s\n", result.SummaryPath)
	for _, path := range result.ExtraReports {
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
	}
	if result.RunID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %d of %d profiles changed since the previous run\n",
			result.RunID, result.NumChanged, result.NumProcessed)
	}
	return nil
}

// printTables prints the comparison of every site captured over both
// protocols, HTTP first.
func printTables(out *report.SimpleWriter, runs []*model.SiteRun) error {
	for _, run := range runs {
		if run.Err != nil || run.Comparison == nil || run.Site.HTTP == nil || run.Site.HTTPS == nil {
			continue
		}
		if _, err := out.WriteComparison(&report.ComparisonReport{
			First:      run.Site.HTTP,
			Second:     run.Site.HTTPS,
			Comparison: run.Comparison,
		}); err != nil {
			return fmt.Errorf("failed to print %s: %w", run.Paths.Name, err)
		}
	}
	return nil
}
