package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/httpsdash/internal/config"
	"github.com/nao1215/httpsdash/internal/database"
	"github.com/nao1215/httpsdash/internal/model"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs listed without --limit.
const defaultHistoryLimit = 20

// historyTimeLayout formats run timestamps in listings.
const historyTimeLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded profile runs",
		Long: `History lists the runs recorded by 'httpsdash profile', newest first.

With --site it shows the availability of one site across runs instead,
which tells when a site started or stopped answering over HTTPS.

Examples:
  # List the last 20 runs
  httpsdash history

  # Availability history of one site
  httpsdash history --site example.com`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("site", "s", "", "Show the history of one site")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of runs to list")
	cmd.Flags().String("db-dir", "", "History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	site, err := cmd.Flags().GetString("site")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
		if file, err := loadConfigFile(cmd); err == nil && file.Defaults.DBDir != "" {
			dbDir = file.Defaults.DBDir
		}
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if errors.Is(err, model.ErrInputNotFound) {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		fmt.Fprintln(cmd.OutOrStdout(), "\nUse 'httpsdash profile <crawl-dir>' to profile a crawl.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if site != "" {
		return printSiteHistory(cmd.Context(), cmd.OutOrStdout(), db, site)
	}
	return printRuns(cmd.Context(), cmd.OutOrStdout(), db, limit)
}

// printRuns lists the most recent runs.
func printRuns(ctx context.Context, w io.Writer, db *database.HistoryDB, limit int) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return nil
	}

	fmt.Fprintf(w, "Runs (%d):\n\n", len(runs))
	fmt.Fprintf(w, "  %-36s  %-19s  %6s  %6s  %s\n", "ID", "Started", "Sites", "Failed", "Output")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 90))
	for _, run := range runs {
		sites := "-"
		if !run.FinishedAt.IsZero() {
			sites = fmt.Sprint(run.NumSites)
		}
		fmt.Fprintf(w, "  %-36s  %-19s  %6s  %6d  %s\n",
			run.ID, run.StartedAt.Local().Format(historyTimeLayout), sites, run.NumFailed, run.OutDir)
	}
	return nil
}

// printSiteHistory lists the recorded results of one site.
func printSiteHistory(ctx context.Context, w io.Writer, db *database.HistoryDB, site string) error {
	results, err := db.SiteHistory(ctx, site)
	if err != nil {
		return fmt.Errorf("failed to get site history: %w", err)
	}
	if len(results) == 0 {
		fmt.Fprintf(w, "No history found for %s\n", site)
		return nil
	}

	fmt.Fprintf(w, "History for %s (%d runs):\n\n", site, len(results))
	fmt.Fprintf(w, "  %-19s  %-12s  %-13s  %s\n", "Started", "Availability", "HTTPS partial", "Profile digest")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 76))
	for _, r := range results {
		partial := r.HTTPSPartial
		if partial == "" {
			partial = "-"
		}
		fmt.Fprintf(w, "  %-19s  %-12s  %-13s  %s\n",
			r.StartedAt.Local().Format(historyTimeLayout), r.Availability, partial, shortDigest(r.Digest))
	}
	return nil
}

// shortDigest returns the first 12 hex digits of a digest.
func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
