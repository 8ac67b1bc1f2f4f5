package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/httpsdash/internal/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	objectWidth = 55
	originWidth = 35
	tableWidth  = objectWidth + 2*originWidth + 7
	ruleWidth   = 50
)

// LocateFunc returns a human-readable location for an origin host, or "".
type LocateFunc func(host string) string

// ComparisonReport is an ad-hoc comparison of two captures.
type ComparisonReport struct {
	// First and Second are the captures in the order they were given.
	First  *model.CaptureRecord
	Second *model.CaptureRecord

	// Comparison classifies the HTTP capture against the HTTPS capture.
	Comparison *model.Comparison
}

// SimpleWriter outputs human-readable text for terminals: the crawl
// overview, and for ad-hoc comparisons the count block and the object table.
type SimpleWriter struct {
	baseWriter

	printer *message.Printer
	locate  LocateFunc
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithLocations adds a location row under every object row of the table.
func WithLocations(locate LocateFunc) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.locate = locate
	}
}

// WithLanguage sets the language used to format numbers.
func WithLanguage(tag language.Tag) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.printer = message.NewPrinter(tag)
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the crawl overview.
func (w *SimpleWriter) Write(report *CrawlReport) (int, error) {
	var sb strings.Builder
	s := report.Summary

	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")
	sb.WriteString(w.printer.Sprintf("Crawl:        %s\n", report.InDir))
	sb.WriteString(w.printer.Sprintf("Output:       %s\n", report.OutDir))
	sb.WriteString(w.printer.Sprintf("Sites:        %d\n", s.Availability.Total()))
	sb.WriteString(w.printer.Sprintf("  HTTP only:  %d\n", s.Availability.HTTPOnly))
	sb.WriteString(w.printer.Sprintf("  HTTPS only: %d\n", s.Availability.HTTPSOnly))
	sb.WriteString(w.printer.Sprintf("  Both:       %d\n", s.Availability.Both))
	sb.WriteString(w.printer.Sprintf("Partial HTTPS sites: %d\n", countPartial(s)))

	for _, name := range model.AllMetrics {
		views := s.Metric(name)
		if views == nil {
			continue
		}
		st := statsOf(views)
		sb.WriteString(w.printer.Sprintf("%-28s median HTTP %.2f, median HTTPS %.2f\n",
			MetricTitle(name)+":", st.httpMedian, st.httpsMedian))
	}

	if len(report.Failed) > 0 {
		sb.WriteString(strings.Repeat("-", ruleWidth) + "\n")
		sb.WriteString(w.printer.Sprintf("Failed: %d\n", len(report.Failed)))
		for _, f := range report.Failed {
			sb.WriteString(fmt.Sprintf("  %s (%s): %s\n", f.Site, f.Kind, f.Error))
		}
	}
	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")

	return w.output.Write([]byte(sb.String()))
}

// WriteComparison outputs the count block followed by the object table.
func (w *SimpleWriter) WriteComparison(report *ComparisonReport) (int, error) {
	var sb strings.Builder
	w.writeCounts(&sb, report)
	w.writeTable(&sb, report)
	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeCounts(sb *strings.Builder, report *ComparisonReport) {
	counts := report.Comparison.Counts

	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")
	for i, c := range []*model.CaptureRecord{report.First, report.Second} {
		sb.WriteString(fmt.Sprintf("Capture %d: %s\n", i+1, c.URL))
		sb.WriteString(w.printer.Sprintf("\tHTTP Objects: %d\n", c.Metrics.NumHTTPObjects))
		sb.WriteString(w.printer.Sprintf("\tHTTPS Objects: %d\n", c.Metrics.NumHTTPSObjects))
	}
	sb.WriteString("\n")
	sb.WriteString(w.printer.Sprintf("Objects w/ same origin:\t%d\n", counts.Same))
	sb.WriteString(w.printer.Sprintf("Objects w/ diff origin:\t%d\n", counts.Different))
	sb.WriteString(w.printer.Sprintf("HTTP-only objects:\t%d\n", counts.HTTPOnly))
	sb.WriteString(w.printer.Sprintf("HTTPS-only objects:\t%d\n", counts.HTTPSOnly))
	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")
}

func (w *SimpleWriter) writeTable(sb *strings.Builder, report *ComparisonReport) {
	sb.WriteString(strings.Repeat("=", tableWidth) + "\n")
	sb.WriteString(tableRow("", report.First.URL, report.Second.URL, ""))
	sb.WriteString(tableRow("",
		w.printer.Sprintf("(%d objects, %d hosts)", report.First.Metrics.NumObjects, report.First.Metrics.NumHosts),
		w.printer.Sprintf("(%d objects, %d hosts)", report.Second.Metrics.NumObjects, report.Second.Metrics.NumHosts),
		""))
	sb.WriteString(strings.Repeat("-", tableWidth) + "\n")

	for _, obj := range report.Comparison.Objects {
		sb.WriteString(tableRow(obj.Filename, obj.HTTPOrigin, obj.HTTPSOrigin, obj.Status.Marker()))
		if w.locate != nil {
			sb.WriteString(tableRow("", w.locateHost(obj.HTTPOrigin), w.locateHost(obj.HTTPSOrigin), ""))
		}
	}
	sb.WriteString(strings.Repeat("=", tableWidth) + "\n")
}

func (w *SimpleWriter) locateHost(host string) string {
	if host == "" {
		return ""
	}
	return w.locate(host)
}

// tableRow formats one row: the object name right-aligned, both origins
// left-aligned, all truncated to their column widths.
func tableRow(object, first, second, marker string) string {
	return fmt.Sprintf("%*.*s   %-*.*s   %-*.*s %-3s\n",
		objectWidth, objectWidth, object,
		originWidth, originWidth, first,
		originWidth, originWidth, second,
		marker)
}

func countPartial(s *model.Summary) int {
	n := 0
	for _, site := range s.Sites {
		if site.HTTPSPartial == "yes" {
			n++
		}
	}
	return n
}
