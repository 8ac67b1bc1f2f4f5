// Package capturetest builds HAR documents for tests.
package capturetest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// Object describes one fetched object of a fixture capture.
type Object struct {
	URL      string
	MimeType string
	Size     int64
	Connect  float64
	ServerIP string
}

// HAR returns a HAR 1.2 document for a page at pageURL that fetched objects
// in order.
func HAR(pageURL string, objects ...Object) []byte {
	entries := make([]map[string]any, 0, len(objects))
	for _, obj := range objects {
		entries = append(entries, map[string]any{
			"pageref":         "page_1",
			"serverIPAddress": obj.ServerIP,
			"request":         map[string]any{"method": "GET", "url": obj.URL},
			"response": map[string]any{
				"status":   200,
				"bodySize": obj.Size,
				"content":  map[string]any{"size": obj.Size, "mimeType": obj.MimeType},
			},
			"timings": map[string]any{"connect": obj.Connect},
		})
	}
	doc := map[string]any{
		"log": map[string]any{
			"version": "1.2",
			"creator": map[string]any{"name": "capturetest", "version": "1"},
			"pages":   []map[string]any{{"id": "page_1", "title": pageURL}},
			"entries": entries,
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return data
}

// WriteHAR writes a fixture capture named name into dir and returns its path.
func WriteHAR(t *testing.T, dir, name, pageURL string, objects ...Object) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, HAR(pageURL, objects...), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
