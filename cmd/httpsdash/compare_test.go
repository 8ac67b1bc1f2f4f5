package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/httpsdash/internal/model"
)

func TestNewCompareCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCompareCmd()
	if err := cmd.Args(cmd, []string{"only-one.har"}); err == nil {
		t.Error("expected error for a single capture")
	}
	for _, name := range []string{"locations", "geoip-db", "dns-server"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
	if flag := cmd.Flags().Lookup("locations"); flag != nil && flag.Shorthand != "l" {
		t.Errorf("expected shorthand 'l', got %q", flag.Shorthand)
	}
}

func TestRunCompareCmd(t *testing.T) {
	t.Parallel()

	dir := writeCrawlDir(t)
	httpPath := filepath.Join(dir, "http---example.com.har")
	httpsPath := filepath.Join(dir, "https---example.com.har")

	t.Run("prints counts and the object table", func(t *testing.T) {
		t.Parallel()

		// The HTTPS capture comes first; the HTTP side is detected from the URL.
		out, err := executeRoot(t, "compare", httpsPath, httpPath, "--config", writeEmptyConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{
			"Capture 1: https://example.com/",
			"Capture 2: http://example.com/",
			"Objects w/ same origin:\t2",
			"HTTP-only objects:\t1",
			"<<<",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("locations without a GeoIP database stay empty", func(t *testing.T) {
		t.Parallel()

		out, err := executeRoot(t, "compare", httpPath, httpsPath, "--locations",
			"--dns-server", "127.0.0.1:1", "--config", writeEmptyConfig(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "/x.js") {
			t.Errorf("expected object table, got:\n%s", out)
		}
	})

	t.Run("missing capture is fatal", func(t *testing.T) {
		t.Parallel()

		_, err := executeRoot(t, "compare", httpPath, filepath.Join(dir, "https---missing.har"),
			"--config", writeEmptyConfig(t))
		if !errors.Is(err, model.ErrInputNotFound) {
			t.Errorf("expected ErrInputNotFound, got %v", err)
		}
	})
}
