// Package report writes crawl results in several formats.
//
//   - JSONWriter: the summary and profile documents read by the dashboard
//   - SimpleWriter: terminal output, including the ad-hoc comparison table
//   - MarkdownWriter: a shareable crawl summary
//   - XLSXWriter: the summary's sort views as a spreadsheet
//
// Writers implement the Writer interface and can be combined with
// MultiWriter.
package report
