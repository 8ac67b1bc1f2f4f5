package summary

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/httpsdash/internal/model"
	"github.com/nao1215/httpsdash/internal/report"
)

// FileName is the summary document inside a crawl output directory.
const FileName = "summary.json"

// Save writes s to dir/summary.json. Failures are *model.PersistenceError.
func Save(dir string, s *model.Summary, opts ...report.JSONWriterOption) (string, error) {
	path := filepath.Join(dir, FileName)

	var buf bytes.Buffer
	if _, err := report.NewJSONWriter(&buf, opts...).WriteSummary(s); err != nil {
		return "", &model.PersistenceError{Path: path, Err: fmt.Errorf("encode summary: %w", err)}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { //nolint:gosec // served to the dashboard
		return "", &model.PersistenceError{Path: path, Err: err}
	}
	return path, nil
}
