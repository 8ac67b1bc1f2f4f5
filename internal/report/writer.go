package report

import (
	"io"
	"time"

	"github.com/nao1215/httpsdash/internal/model"
)

// CrawlReport is the outcome of profiling one crawl directory.
type CrawlReport struct {
	// InDir is the crawl directory that was profiled.
	InDir string

	// OutDir is where profiles and the summary were written.
	OutDir string

	// GeneratedAt is when the run finished.
	GeneratedAt time.Time

	// Summary is the cross-site summary.
	Summary *model.Summary

	// Failed lists sites and files that were skipped.
	Failed []FailedSite
}

// FailedSite is a site that was excluded from the summary.
type FailedSite struct {
	Site  string `json:"site"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Writer outputs crawl reports.
// Implementations write the report in one format to one destination.
type Writer interface {
	// Write outputs the report and returns the number of bytes written.
	Write(report *CrawlReport) (int, error)
}

// MultiWriter writes to multiple Writers, stopping at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
func (m *MultiWriter) Write(report *CrawlReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
