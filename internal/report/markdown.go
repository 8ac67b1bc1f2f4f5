package report

import (
	"io"
	"strconv"

	"github.com/nao1215/httpsdash/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MarkdownWriter outputs a crawl summary in Markdown, for sharing a crawl's
// results outside the dashboard.
type MarkdownWriter struct {
	baseWriter

	printer *message.Printer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
	}
}

// Write outputs the crawl report in Markdown format.
func (w *MarkdownWriter) Write(report *CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeAvailability(md, report.Summary)
	w.writeMetrics(md, report.Summary)
	w.writeSites(md, report.Summary)
	w.writeFailures(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *CrawlReport) {
	md.H1("HTTPS Availability Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Crawl", "`" + report.InDir + "`"},
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Sites Profiled", strconv.Itoa(report.Summary.Availability.Total())},
			{"Sites Failed", strconv.Itoa(len(report.Failed))},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeAvailability(md *markdown.Markdown, s *model.Summary) {
	md.H2("Availability")
	md.PlainText("")

	h := s.Availability
	md.Table(markdown.TableSet{
		Header: []string{"Availability", "Sites"},
		Rows: [][]string{
			{model.AvailabilityHTTPOnly.Label(), strconv.Itoa(h.HTTPOnly)},
			{model.AvailabilityHTTPSOnly.Label(), strconv.Itoa(h.HTTPSOnly)},
			{model.AvailabilityBoth.Label(), strconv.Itoa(h.Both)},
			{"**Total**", "**" + strconv.Itoa(h.Total()) + "**"},
		},
	})
	md.PlainText("")

	if h.Total() > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Protocol Availability"),
			piechart.WithShowData(true),
		)
		for _, a := range []model.Availability{model.AvailabilityHTTPOnly, model.AvailabilityHTTPSOnly, model.AvailabilityBoth} {
			if n := availabilityCount(h, a); n > 0 {
				chart.LabelAndIntValue(a.Label(), uint64(n))
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch partial := countPartial(s); {
	case h.HTTPSOnly+h.Both == 0:
		md.Note("No site in this crawl could be loaded over HTTPS.")
	case partial > 0:
		md.Warningf("%d HTTPS site(s) still fetch objects over plain HTTP.", partial)
	default:
		md.Tip("Every HTTPS site fetched all of its objects over HTTPS.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeMetrics(md *markdown.Markdown, s *model.Summary) {
	md.H2("Metrics (sites available over both protocols)")
	md.PlainText("")

	var rows [][]string
	for _, name := range model.AllMetrics {
		views := s.Metric(name)
		if views == nil {
			continue
		}
		st := statsOf(views)
		rows = append(rows, []string{
			MetricTitle(name),
			strconv.Itoa(st.sites),
			w.printer.Sprintf("%.2f", st.httpMedian),
			w.printer.Sprintf("%.2f", st.httpsMedian),
			strconv.Itoa(st.httpsHigher),
		})
	}
	if len(rows) == 0 {
		md.PlainText("No site was captured over both protocols.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Sites", "HTTP Median", "HTTPS Median", "Sites Higher over HTTPS"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSites(md *markdown.Markdown, s *model.Summary) {
	md.H2("Sites")
	md.PlainText("")
	if len(s.Sites) == 0 {
		md.PlainText("No sites were profiled.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(s.Sites))
	for i, site := range s.Sites {
		partial := site.HTTPSPartial
		if partial == "" {
			partial = "-"
		}
		rows[i] = []string{"`" + site.Site + "`", site.Availability.Label(), partial}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Site", "Availability", "Partial HTTPS"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *CrawlReport) {
	if len(report.Failed) == 0 {
		return
	}
	md.H2("Skipped")
	md.PlainText("")
	rows := make([][]string, len(report.Failed))
	for i, f := range report.Failed {
		rows[i] = []string{"`" + f.Site + "`", f.Kind, truncateString(f.Error, 80)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Site", "Kind", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by httpsdash*")
}

func availabilityCount(h model.AvailabilityHistogram, a model.Availability) int {
	switch a {
	case model.AvailabilityHTTPOnly:
		return h.HTTPOnly
	case model.AvailabilityHTTPSOnly:
		return h.HTTPSOnly
	default:
		return h.Both
	}
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
