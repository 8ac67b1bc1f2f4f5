package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/httpsdash/internal/capture/capturetest"
	"github.com/nao1215/httpsdash/internal/config"
	"github.com/spf13/cobra"
)

// writeCrawlDir writes a crawl directory with one dual-protocol site.
func writeCrawlDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	capturetest.WriteHAR(t, dir, "http---example.com.har", "http://example.com/",
		capturetest.Object{URL: "http://example.com/", MimeType: "text/html", Size: 100},
		capturetest.Object{URL: "http://cdn1.example.com/a.png", MimeType: "image/png", Size: 50},
		capturetest.Object{URL: "http://a.com/x.js", MimeType: "application/javascript", Size: 10},
	)
	capturetest.WriteHAR(t, dir, "https---example.com.har", "https://example.com/",
		capturetest.Object{URL: "https://example.com/", MimeType: "text/html", Size: 100},
		capturetest.Object{URL: "https://cdn1.example.com/a.png", MimeType: "image/png", Size: 50},
	)
	return dir
}

func TestNewProfileCmd(t *testing.T) {
	t.Parallel()

	cmd := NewProfileCmd()

	t.Run("requires a crawl directory", func(t *testing.T) {
		t.Parallel()
		if err := cmd.Args(cmd, nil); err == nil {
			t.Error("expected error without arguments")
		}
	})

	t.Run("has flags with defaults", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			name     string
			defValue string
		}{
			{"outdir", config.DefaultOutDir},
			{"ext", config.DefaultCaptureExtension},
			{"batch", "1"},
			{"pretty", "false"},
			{"markdown", "false"},
			{"xlsx", "false"},
			{"no-screenshots", "false"},
			{"thumbnails", "false"},
			{"thumb-width", "200"},
			{"thumb-height", "300"},
			{"table", "false"},
			{"lang", "en"},
			{"db-dir", ""},
			{"no-db", "false"},
		}
		for _, tc := range testCases {
			flag := cmd.Flags().Lookup(tc.name)
			if flag == nil {
				t.Errorf("expected %s flag", tc.name)
				continue
			}
			if flag.DefValue != tc.defValue {
				t.Errorf("%s: expected default %q, got %q", tc.name, tc.defValue, flag.DefValue)
			}
		}
	})
}

func TestBuildProfileConfig(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "defaults:\n  outdir: /srv/out\n  batch_size: 6\n  db_dir: /srv/db\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	root := &cobra.Command{Use: "httpsdash"}
	root.PersistentFlags().String("config", "", "")
	cmd := NewProfileCmd()
	root.AddCommand(cmd)
	if err := root.PersistentFlags().Set("config", cfgPath); err != nil {
		t.Fatal(err)
	}
	if err := cmd.ParseFlags([]string{"-b", "2", "--no-db", "--thumbnails"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := buildProfileConfig(cmd, []string{"/crawl"})
	if err != nil {
		t.Fatalf("buildProfileConfig() error = %v", err)
	}
	if cfg.InDir != "/crawl" {
		t.Errorf("InDir = %q", cfg.InDir)
	}
	if cfg.OutDir != "/srv/out" {
		t.Errorf("OutDir = %q, want the configuration file value", cfg.OutDir)
	}
	if cfg.BatchSize != 2 {
		t.Errorf("BatchSize = %d, want the flag value 2", cfg.BatchSize)
	}
	if cfg.SaveToDB || cfg.DBDir != "/srv/db" {
		t.Errorf("SaveToDB=%v DBDir=%q", cfg.SaveToDB, cfg.DBDir)
	}
	if !cfg.Thumbnails || !cfg.CopyScreenshots {
		t.Errorf("Thumbnails=%v CopyScreenshots=%v", cfg.Thumbnails, cfg.CopyScreenshots)
	}
}

func TestRunProfileCmd(t *testing.T) {
	t.Parallel()

	t.Run("profiles a crawl directory", func(t *testing.T) {
		t.Parallel()

		inDir := writeCrawlDir(t)
		outDir := filepath.Join(t.TempDir(), "out")
		out, err := executeRoot(t, "profile", inDir, "-o", outDir, "--no-db", "--pretty", "--markdown",
			"--config", writeEmptyConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, name := range []string{"summary.json", "summary.md", filepath.Join("site_profiles", "example.com.json")} {
			if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
				t.Errorf("expected %s: %v", name, err)
			}
		}
		if !strings.Contains(out, "Summary written to") {
			t.Errorf("expected summary path in output, got %q", out)
		}
		if !strings.Contains(out, "Both:       1") {
			t.Errorf("expected overview in output, got %q", out)
		}
	})

	t.Run("records history", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		out, err := executeRoot(t, "profile", writeCrawlDir(t), "-o", t.TempDir(), "--db-dir", dbDir,
			"--config", writeEmptyConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "1 of 1 profiles changed") {
			t.Errorf("expected change count in output, got %q", out)
		}
	})

	t.Run("prints object tables", func(t *testing.T) {
		t.Parallel()

		inDir := writeCrawlDir(t)
		capturetest.WriteHAR(t, inDir, "http---plain.example.org.har", "http://plain.example.org/",
			capturetest.Object{URL: "http://plain.example.org/", MimeType: "text/html", Size: 10},
		)
		out, err := executeRoot(t, "profile", inDir, "-o", t.TempDir(), "--no-db", "--table",
			"--config", writeEmptyConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, want := range []string{"Capture 1: http://example.com/", "Capture 2: https://example.com/", "/x.js", "HTTP-only objects:\t1"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output, got %q", want, out)
			}
		}
		if strings.Contains(out, "Capture 1: http://plain.example.org/") {
			t.Errorf("single-protocol sites have no table, got %q", out)
		}
		if strings.Index(out, "Capture 1:") > strings.Index(out, "Sites:") {
			t.Errorf("tables should precede the overview, got %q", out)
		}
	})

	t.Run("without --table no object table", func(t *testing.T) {
		t.Parallel()

		out, err := executeRoot(t, "profile", writeCrawlDir(t), "-o", t.TempDir(), "--no-db",
			"--config", writeEmptyConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(out, "Capture 1:") {
			t.Errorf("unexpected object table in %q", out)
		}
	})

	t.Run("invalid language tag", func(t *testing.T) {
		t.Parallel()

		_, err := executeRoot(t, "profile", writeCrawlDir(t), "-o", t.TempDir(), "--no-db", "--lang", "not a tag",
			"--config", writeEmptyConfig(t))
		if err == nil || !strings.Contains(err.Error(), "--lang") {
			t.Errorf("expected a --lang error, got %v", err)
		}
	})

	t.Run("invalid batch size is a configuration error", func(t *testing.T) {
		t.Parallel()

		_, err := executeRoot(t, "profile", t.TempDir(), "-b", "0", "--no-db", "--config", writeEmptyConfig(t))
		if !errors.Is(err, config.ErrInvalidBatchSize) {
			t.Errorf("expected ErrInvalidBatchSize, got %v", err)
		}
	})

	t.Run("unwritable output directory fails", func(t *testing.T) {
		t.Parallel()

		file := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(file, nil, 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := executeRoot(t, "profile", writeCrawlDir(t), "-o", filepath.Join(file, "out"), "--no-db",
			"--config", writeEmptyConfig(t))
		if err == nil {
			t.Error("expected error for unwritable output directory")
		}
	})
}
