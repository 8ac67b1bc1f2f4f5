package main

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/httpsdash/internal/config"
	"github.com/nao1215/httpsdash/internal/manifest"
	"github.com/nao1215/httpsdash/internal/model"
	"github.com/spf13/cobra"
)

//go:embed templates/httpsdash.yaml
var configTemplate embed.FS

// configFileName is the default configuration file name.
const configFileName = config.DefaultConfigFile

// crawlDateLayout names crawl date directories.
const crawlDateLayout = "20060102"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new httpsdash configuration file",
		Long: `Initialize creates a new .httpsdash configuration file in the current directory.

The generated file includes:
- Defaults for the profile, compare and thumbnail commands
- The user agents crawls are run with

With --manifests it also prepares a profiles root for a new crawl date: the
date is added to <root>/main-manifest.json and the configured user agents
are written to <root>/<date>/crawl-manifest.json.

Examples:
  # Create .httpsdash in current directory
  httpsdash init

  # Create config file at a specific path
  httpsdash init -o myconfig.yaml

  # Force overwrite existing file
  httpsdash init -f

  # Also register today's crawl in a profiles root
  httpsdash init --manifests /srv/httpsdash`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")
	cmd.Flags().String("manifests", "",
		"Profiles root in which to register the crawl date")
	cmd.Flags().String("date", "",
		"Crawl date for --manifests, YYYYMMDD (default: today)")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	root, err := cmd.Flags().GetString("manifests")
	if err != nil {
		return err
	}
	crawlDate, err := cmd.Flags().GetString("date")
	if err != nil {
		return err
	}
	if crawlDate == "" {
		crawlDate = time.Now().Format(crawlDateLayout)
	} else if _, err := time.Parse(crawlDateLayout, crawlDate); err != nil {
		return fmt.Errorf("invalid crawl date %q (want YYYYMMDD): %w", crawlDate, err)
	}

	out := cmd.OutOrStdout()
	if err := writeConfigTemplate(out, outputPath, force); err != nil {
		return err
	}
	if root == "" {
		return nil
	}

	file, err := config.LoadConfigFile(outputPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", outputPath, err)
	}
	return writeManifests(out, root, crawlDate, file.ManifestAgents())
}

// writeConfigTemplate writes the embedded configuration template.
func writeConfigTemplate(out io.Writer, outputPath string, force bool) error {
	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/httpsdash.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, content, 0o600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure:")
	fmt.Fprintln(out, "  - Default output directory and batch size")
	fmt.Fprintln(out, "  - GeoIP database and DNS server for origin locations")
	fmt.Fprintln(out, "  - User agents the crawls are run with")
	return nil
}

// writeManifests registers crawlDate in the main manifest of root and
// writes the crawl manifest of that date. Agents already listed in an
// existing crawl manifest are kept.
func writeManifests(out io.Writer, root, crawlDate string, agents map[string]manifest.UserAgent) error {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return &model.PersistenceError{Path: root, Err: err}
	}
	mainManifest, err := manifest.LoadMain(root)
	if errors.Is(err, model.ErrInputNotFound) {
		mainManifest = &manifest.Main{}
	} else if err != nil {
		return err
	}
	mainManifest.AddDate(crawlDate)
	if err := manifest.SaveMain(root, mainManifest); err != nil {
		return err
	}

	dateDir := filepath.Join(root, crawlDate)
	if err := os.MkdirAll(dateDir, 0o750); err != nil {
		return &model.PersistenceError{Path: dateDir, Err: err}
	}
	crawl, err := manifest.LoadCrawl(dateDir)
	if errors.Is(err, model.ErrInputNotFound) {
		crawl = &manifest.Crawl{UserAgents: make(map[string]manifest.UserAgent)}
	} else if err != nil {
		return err
	}
	for tag, ua := range agents {
		crawl.UserAgents[tag] = ua
	}
	if err := manifest.SaveCrawl(dateDir, crawl); err != nil {
		return err
	}

	fmt.Fprintf(out, "Registered crawl %s in %s with user agents: %v\n", crawlDate, root, crawl.Tags())
	return nil
}
