package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/httpsdash/internal/model"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
)

func sampleReport() *CrawlReport {
	s := &model.Summary{
		Sites: []model.SiteEntry{
			{Site: "a.com", Availability: model.AvailabilityBoth, HTTPSPartial: "yes"},
			{Site: "b.com", Availability: model.AvailabilityHTTPOnly},
		},
	}
	s.Availability.Add(model.AvailabilityBoth)
	s.Availability.Add(model.AvailabilityHTTPOnly)
	rows := []model.MetricRow{{URL: "a.com", HTTP: 10, HTTPS: 12}}
	s.NumObjects = &model.MetricViews{
		ByURL:   model.NewSortView(rows),
		ByHTTP:  model.NewSortView(rows),
		ByHTTPS: model.NewSortView(rows),
	}

	return &CrawlReport{
		InDir:       "/crawls/2016-01-01/chrome",
		OutDir:      "/out",
		GeneratedAt: time.Date(2016, 1, 1, 12, 0, 0, 0, time.UTC),
		Summary:     s,
		Failed:      []FailedSite{{Site: "broken.org", Kind: "parse", Error: "invalid JSON"}},
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewJSONWriter(&buf).Write(sampleReport())
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if n != buf.Len() {
			t.Errorf("Write() = %d, buffer holds %d", n, buf.Len())
		}
		if !strings.HasSuffix(buf.String(), "}\n") || strings.Count(buf.String(), "\n") != 1 {
			t.Errorf("compact output should be one line: %q", buf.String())
		}

		var decoded model.Summary
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not a summary: %v", err)
		}
		if decoded.NumObjects == nil || decoded.NumObjects.ByHTTPS.Len() != 1 {
			t.Errorf("decoded num_objects = %+v", decoded.NumObjects)
		}
		if decoded.Availability.Both != 1 {
			t.Errorf("decoded availability = %+v", decoded.Availability)
		}
	})

	t.Run("pretty profile", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		p := &model.Profile{Availability: model.AvailabilityHTTPOnly, BaseURL: "a.com/", ObjectDetails: []model.ObjectComparison{}}
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).WriteProfile(p); err != nil {
			t.Fatalf("WriteProfile() error = %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"base-url\": \"a.com/\"") {
			t.Errorf("expected indented output, got %s", buf.String())
		}
	})
}

func TestSimpleWriter_Write(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewSimpleWriter(&buf).Write(sampleReport()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"/crawls/2016-01-01/chrome",
		"Sites:        2",
		"Partial HTTPS sites: 1",
		"median HTTP 10.00, median HTTPS 12.00",
		"broken.org (parse): invalid JSON",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func comparisonFixture() *ComparisonReport {
	return &ComparisonReport{
		First: &model.CaptureRecord{
			URL:     "http://example.com/",
			Metrics: model.CaptureMetrics{NumObjects: 1234, NumHosts: 2, NumHTTPObjects: 1234},
		},
		Second: &model.CaptureRecord{
			URL:     "https://example.com/",
			Metrics: model.CaptureMetrics{NumObjects: 2, NumHosts: 1, NumHTTPSObjects: 2},
		},
		Comparison: &model.Comparison{
			Objects: []model.ObjectComparison{
				{Filename: "/", HTTPOrigin: "example.com", HTTPSOrigin: "example.com", Status: model.StatusSame},
				{Filename: "/x.js", HTTPOrigin: "a.com", Status: model.StatusHTTPOnly},
			},
			Counts: model.StatusCounts{Same: 1, HTTPOnly: 1},
		},
	}
}

func TestSimpleWriter_WriteComparison(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewSimpleWriter(&buf).WriteComparison(comparisonFixture()); err != nil {
		t.Fatalf("WriteComparison() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Capture 1: http://example.com/",
		"\tHTTP Objects: 1,234\n",
		"Objects w/ same origin:\t1\n",
		"HTTP-only objects:\t1\n",
		"(1,234 objects, 2 hosts)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	var xjsRow string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "/x.js") {
			xjsRow = line
		}
	}
	if !strings.HasSuffix(xjsRow, "<<<") {
		t.Errorf("HTTP_ONLY row should end with <<<: %q", xjsRow)
	}
	if want := tableWidth + 3; len(xjsRow) != want {
		t.Errorf("row width = %d, want %d", len(xjsRow), want)
	}
}

func TestSimpleWriter_Locations(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	locate := func(host string) string {
		if host == "example.com" {
			return "Pittsburgh, United States"
		}
		return ""
	}
	w := NewSimpleWriter(&buf, WithLocations(locate))
	if _, err := w.WriteComparison(comparisonFixture()); err != nil {
		t.Fatalf("WriteComparison() error = %v", err)
	}
	if strings.Count(buf.String(), "Pittsburgh, United States") != 2 {
		t.Errorf("expected both origins of / to be located:\n%s", buf.String())
	}
}

func TestSimpleWriter_WithLanguage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewSimpleWriter(&buf, WithLanguage(language.German))
	if _, err := w.WriteComparison(comparisonFixture()); err != nil {
		t.Fatalf("WriteComparison() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\tHTTP Objects: 1.234\n") {
		t.Errorf("expected German digit grouping:\n%s", buf.String())
	}
}

func TestTableRow_Truncates(t *testing.T) {
	t.Parallel()

	long := "/" + strings.Repeat("x", 100)
	row := tableRow(long, strings.Repeat("h", 50), "b.com", ">>>")
	if want := tableWidth + 4; len(row) != want {
		t.Errorf("row length = %d, want %d", len(row), want)
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(sampleReport()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# HTTPS Availability Summary",
		"## Availability",
		"```mermaid",
		"## Metrics",
		"Objects",
		"`a.com`",
		"## Skipped",
		"broken.org",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdownWriter_NoDualSites(t *testing.T) {
	t.Parallel()

	r := &CrawlReport{Summary: &model.Summary{}}
	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(r); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No site was captured over both protocols.") {
		t.Errorf("expected empty metrics note:\n%s", buf.String())
	}
}

func TestXLSXWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := NewXLSXWriter(&buf).Write(sampleReport())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != buf.Len() {
		t.Errorf("Write() = %d, buffer holds %d", n, buf.Len())
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Sites" || sheets[1] != "num_objects" {
		t.Errorf("sheets = %v", sheets)
	}

	site, err := f.GetCellValue("Sites", "A2")
	if err != nil || site != "a.com" {
		t.Errorf("Sites!A2 = %q, %v", site, err)
	}
	https, err := f.GetCellValue("num_objects", "K3")
	if err != nil || https != "12" {
		t.Errorf("num_objects!K3 = %q, %v", https, err)
	}
}

type failingWriter struct{ err error }

func (f failingWriter) Write(*CrawlReport) (int, error) { return 0, f.err }

type countingWriter struct{ calls *int }

func (c countingWriter) Write(*CrawlReport) (int, error) {
	*c.calls++
	return 1, nil
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	calls := 0
	boom := errors.New("boom")
	m := NewMultiWriter(countingWriter{&calls}, failingWriter{boom}, countingWriter{&calls})

	n, err := m.Write(sampleReport())
	if !errors.Is(err, boom) {
		t.Errorf("Write() error = %v, want boom", err)
	}
	if n != 1 || calls != 1 {
		t.Errorf("n = %d, calls = %d; writers after the failure must not run", n, calls)
	}
}
