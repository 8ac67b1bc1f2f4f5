package crawl

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/httpsdash/internal/capture/capturetest"
	"github.com/nao1215/httpsdash/internal/config"
	"github.com/nao1215/httpsdash/internal/model"
	"github.com/nao1215/httpsdash/internal/profile"
	"github.com/nao1215/httpsdash/internal/summary"
)

type fakeHistory struct {
	mu       sync.Mutex
	startErr error
	digests  map[string]string
	recorded []string
	finished []int
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{digests: make(map[string]string)}
}

func (f *fakeHistory) StartRun(_ context.Context, _, _ string, _ time.Time) (string, error) {
	if f.startErr != nil {
		return "", f.startErr
	}
	return "run-1", nil
}

func (f *fakeHistory) RecordSite(_ context.Context, _ string, result *model.SiteRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := result.Site.SiteKey()
	f.digests[key] = result.Digest
	f.recorded = append(f.recorded, key)
	return nil
}

func (f *fakeHistory) FinishRun(_ context.Context, _ string, _ time.Time, numSites, numFailed int) error {
	f.finished = append(f.finished, numSites, numFailed)
	return nil
}

func (f *fakeHistory) LastDigest(_ context.Context, _, site string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.digests[site], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedNow() time.Time {
	return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
}

// writeCrawl writes a crawl directory with one dual-protocol site, one
// HTTPS-only site, one HTTP-only site and one broken capture.
func writeCrawl(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	capturetest.WriteHAR(t, dir, "http---example.com.har", "http://example.com/",
		capturetest.Object{URL: "http://example.com/", MimeType: "text/html", Size: 100, Connect: 5},
		capturetest.Object{URL: "http://cdn1.example.com/a.png", MimeType: "image/png", Size: 50, Connect: 3},
	)
	capturetest.WriteHAR(t, dir, "https---example.com.har", "https://example.com/",
		capturetest.Object{URL: "https://example.com/", MimeType: "text/html", Size: 120, Connect: 8},
		capturetest.Object{URL: "https://cdn1.example.com/a.png", MimeType: "image/png", Size: 50, Connect: -1},
	)
	capturetest.WriteHAR(t, dir, "https---foo.com.har", "https://foo.com/",
		capturetest.Object{URL: "https://foo.com/", MimeType: "text/html", Size: 10},
		capturetest.Object{URL: "http://foo.com/logo.png", MimeType: "image/png", Size: 20},
	)
	capturetest.WriteHAR(t, dir, "http---bar.org.har", "http://bar.org/",
		capturetest.Object{URL: "http://bar.org/", MimeType: "text/html", Size: 30},
	)
	if err := os.WriteFile(filepath.Join(dir, "http---broken.net.har"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(dir, "http---example.com_trial0.png"), 400, 600)
	writePNG(t, filepath.Join(dir, "https---example.com_trial0.png"), 400, 600)
	return dir
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func newTestConfig(inDir, outDir string) *config.Config {
	cfg := config.NewConfig()
	cfg.InDir = inDir
	cfg.OutDir = outDir
	cfg.SaveToDB = false
	return cfg
}

func TestRun(t *testing.T) {
	t.Parallel()

	inDir := writeCrawl(t)
	outDir := filepath.Join(t.TempDir(), "out")
	cfg := newTestConfig(inDir, outDir)
	cfg.MarkdownReport = true
	cfg.XLSXReport = true
	cfg.Thumbnails = true

	result, err := Run(context.Background(), cfg, Deps{Logger: discardLogger(), Now: fixedNow})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	t.Run("processed sites are in the summary", func(t *testing.T) {
		t.Parallel()

		if result.NumProcessed != 3 {
			t.Errorf("NumProcessed = %d, want 3", result.NumProcessed)
		}
		var got []string
		for _, entry := range result.Report.Summary.Sites {
			got = append(got, entry.Site)
		}
		want := []string{"bar.org", "foo.com", "example.com"}
		if !slices.Equal(got, want) {
			t.Errorf("summary sites = %v, want %v", got, want)
		}
		if !result.Report.GeneratedAt.Equal(fixedNow()) {
			t.Errorf("GeneratedAt = %v", result.Report.GeneratedAt)
		}
	})

	t.Run("broken capture is reported as failed", func(t *testing.T) {
		t.Parallel()

		if result.NumFailed() != 1 {
			t.Fatalf("NumFailed() = %d, want 1: %+v", result.NumFailed(), result.Report.Failed)
		}
		failed := result.Report.Failed[0]
		if failed.Site != "broken.net" || failed.Kind != "parse" {
			t.Errorf("failed = %+v", failed)
		}
	})

	t.Run("documents are written", func(t *testing.T) {
		t.Parallel()

		paths := []string{
			filepath.Join(outDir, summary.FileName),
			filepath.Join(outDir, MarkdownFileName),
			filepath.Join(outDir, XLSXFileName),
			filepath.Join(outDir, profile.DirName, "example.com.json"),
			filepath.Join(outDir, profile.DirName, "foo.com.json"),
			filepath.Join(outDir, profile.DirName, "bar.org.json"),
		}
		for _, path := range paths {
			if _, err := os.Stat(path); err != nil {
				t.Errorf("missing %s: %v", path, err)
			}
		}
		if result.SummaryPath != paths[0] {
			t.Errorf("SummaryPath = %q", result.SummaryPath)
		}
		if len(result.ExtraReports) != 2 {
			t.Errorf("ExtraReports = %v", result.ExtraReports)
		}
	})

	t.Run("screenshots are copied and thumbnailed", func(t *testing.T) {
		t.Parallel()

		if len(result.Screenshots) != 2 {
			t.Errorf("Screenshots = %v", result.Screenshots)
		}
		if result.Thumbnails == nil || len(result.Thumbnails.Thumbnails) != 2 {
			t.Fatalf("Thumbnails = %+v", result.Thumbnails)
		}
		for _, name := range []string{"example.com-http.png", "example.com-https_thumb.png"} {
			if _, err := os.Stat(filepath.Join(outDir, ScreenshotDirName, name)); err != nil {
				t.Errorf("missing %s: %v", name, err)
			}
		}
		if _, err := os.Stat(filepath.Join(inDir, "http---example.com_trial0.png")); err != nil {
			t.Errorf("input screenshot must stay in place: %v", err)
		}
	})
}

func TestRun_RejectedPairs(t *testing.T) {
	t.Parallel()

	inDir := t.TempDir()
	capturetest.WriteHAR(t, inDir, "http---example.com.har", "http://example.com/")
	capturetest.WriteHAR(t, inDir, "https---example.com.har", "https://example.com/")
	capturetest.WriteHAR(t, inDir, "https---Example.com.har", "https://example.com/")

	result, err := Run(context.Background(), newTestConfig(inDir, t.TempDir()), Deps{Logger: discardLogger()})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.NumProcessed != 0 || result.NumFailed() != 3 {
		t.Fatalf("processed=%d failed=%+v", result.NumProcessed, result.Report.Failed)
	}
	for _, failed := range result.Report.Failed {
		if failed.Kind != "parse" || !strings.HasSuffix(failed.Site, ".har") {
			t.Errorf("failed = %+v", failed)
		}
	}
}

func TestRun_History(t *testing.T) {
	t.Parallel()

	inDir := writeCrawl(t)
	outDir := t.TempDir()
	cfg := newTestConfig(inDir, outDir)
	cfg.CopyScreenshots = false
	history := newFakeHistory()

	first, err := Run(context.Background(), cfg, Deps{Logger: discardLogger(), History: history})
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if first.RunID != "run-1" {
		t.Errorf("RunID = %q", first.RunID)
	}
	if first.NumChanged != 3 {
		t.Errorf("first NumChanged = %d, want 3", first.NumChanged)
	}
	if len(history.recorded) != 3 {
		t.Errorf("recorded = %v", history.recorded)
	}
	if !slices.Equal(history.finished, []int{3, 1}) {
		t.Errorf("finished = %v, want [3 1]", history.finished)
	}

	second, err := Run(context.Background(), cfg, Deps{Logger: discardLogger(), History: history})
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if second.NumChanged != 0 {
		t.Errorf("second NumChanged = %d, want 0", second.NumChanged)
	}
}

func TestRun_HistoryUnavailable(t *testing.T) {
	t.Parallel()

	history := newFakeHistory()
	history.startErr = errors.New("database is locked")
	cfg := newTestConfig(writeCrawl(t), t.TempDir())

	result, err := Run(context.Background(), cfg, Deps{Logger: discardLogger(), History: history})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.RunID != "" || len(history.recorded) != 0 {
		t.Errorf("RunID=%q recorded=%v", result.RunID, history.recorded)
	}
	if result.NumProcessed != 3 {
		t.Errorf("NumProcessed = %d", result.NumProcessed)
	}
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing input directory", func(t *testing.T) {
		t.Parallel()

		cfg := newTestConfig(filepath.Join(t.TempDir(), "missing"), t.TempDir())
		_, err := Run(context.Background(), cfg, Deps{Logger: discardLogger()})
		if !errors.Is(err, model.ErrInputNotFound) {
			t.Errorf("error = %v, want ErrInputNotFound", err)
		}
	})

	t.Run("output directory cannot be created", func(t *testing.T) {
		t.Parallel()

		file := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(file, nil, 0o600); err != nil {
			t.Fatal(err)
		}
		cfg := newTestConfig(t.TempDir(), filepath.Join(file, "out"))
		_, err := Run(context.Background(), cfg, Deps{Logger: discardLogger()})
		var perr *model.PersistenceError
		if !errors.As(err, &perr) {
			t.Errorf("error = %v, want *model.PersistenceError", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Run(ctx, newTestConfig(writeCrawl(t), t.TempDir()), Deps{Logger: discardLogger()})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}

func TestCopyScreenshots(t *testing.T) {
	t.Parallel()

	src, dst := t.TempDir(), t.TempDir()
	writePNG(t, filepath.Join(src, "b.png"), 2, 2)
	writePNG(t, filepath.Join(src, "a.png"), 2, 2)
	if err := os.WriteFile(filepath.Join(src, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	copied, err := CopyScreenshots(src, dst)
	if err != nil {
		t.Fatalf("CopyScreenshots() error = %v", err)
	}
	want := []string{filepath.Join(dst, "a.png"), filepath.Join(dst, "b.png")}
	if !slices.Equal(copied, want) {
		t.Errorf("copied = %v, want %v", copied, want)
	}
	if _, err := os.Stat(filepath.Join(dst, "notes.txt")); !os.IsNotExist(err) {
		t.Errorf("non-screenshot was copied: %v", err)
	}
}
