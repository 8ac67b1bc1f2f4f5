package report

import (
	"fmt"
	"io"

	"github.com/nao1215/httpsdash/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet = "Sheet1"
	sitesSheet   = "Sites"
)

// XLSXWriter outputs a crawl summary as a spreadsheet workbook: a "Sites"
// sheet with the site list, and one sheet per metric holding its three sort
// views side by side.
type XLSXWriter struct {
	baseWriter
}

// NewXLSXWriter creates an XLSXWriter that outputs to the given writer.
func NewXLSXWriter(output io.Writer) *XLSXWriter {
	return &XLSXWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the crawl report as an .xlsx workbook.
func (w *XLSXWriter) Write(report *CrawlReport) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetName(defaultSheet, sitesSheet); err != nil {
		return 0, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSitesSheet(f, report.Summary, headerStyle); err != nil {
		return 0, err
	}

	for _, name := range model.AllMetrics {
		views := report.Summary.Metric(name)
		if views == nil {
			continue
		}
		if err := writeMetricSheet(f, string(name), views, headerStyle); err != nil {
			return 0, err
		}
	}

	n, err := f.WriteTo(w.output)
	if err != nil {
		return int(n), fmt.Errorf("write workbook: %w", err)
	}
	return int(n), nil
}

func writeSitesSheet(f *excelize.File, s *model.Summary, headerStyle int) error {
	header := []any{"site", "availability", "https_partial"}
	if err := f.SetSheetRow(sitesSheet, "A1", &header); err != nil {
		return fmt.Errorf("write sites header: %w", err)
	}
	if err := f.SetRowStyle(sitesSheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style sites header: %w", err)
	}
	for i, site := range s.Sites {
		row := []any{site.Site, site.Availability.String(), site.HTTPSPartial}
		if err := setRow(f, sitesSheet, 1, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(sitesSheet, "A", "A", 40)
}

// writeMetricSheet lays the views out as three column groups:
// A-C sorted by URL, E-G sorted by HTTP value, I-K sorted by HTTPS value.
func writeMetricSheet(f *excelize.File, sheet string, views *model.MetricViews, headerStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	groups := []struct {
		title string
		view  model.SortView
	}{
		{"sort-alpha", views.ByURL},
		{"sort-http", views.ByHTTP},
		{"sort-https", views.ByHTTPS},
	}
	for g, group := range groups {
		col := 1 + g*4
		if err := setRow(f, sheet, col, 1, []any{group.title}); err != nil {
			return err
		}
		if err := setRow(f, sheet, col, 2, []any{"url", "HTTP", "HTTPS"}); err != nil {
			return err
		}
		for i := range group.view.Len() {
			r := group.view.Row(i)
			if err := setRow(f, sheet, col, i+3, []any{r.URL, r.HTTP, r.HTTPS}); err != nil {
				return err
			}
		}
	}
	if err := f.SetRowStyle(sheet, 1, 2, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, col, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}
	return nil
}
