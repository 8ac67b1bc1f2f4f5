// Package manifest reads and writes the dashboard manifests: the main
// manifest listing crawl dates at the profile root, and the crawl manifest
// describing the user agents of one crawl date.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nao1215/httpsdash/internal/model"
)

const (
	// MainFileName is the main manifest at the profile root.
	MainFileName = "main-manifest.json"
	// CrawlFileName is the crawl manifest inside a crawl date directory.
	CrawlFileName = "crawl-manifest.json"
)

// Main lists the crawl dates, newest first.
type Main struct {
	Dates []string `json:"dates"`
}

// AddDate records date once, keeping the list sorted newest first.
func (m *Main) AddDate(date string) {
	if slices.Contains(m.Dates, date) {
		return
	}
	m.Dates = append(m.Dates, date)
	slices.SortFunc(m.Dates, func(a, b string) int {
		return strings.Compare(b, a)
	})
}

// UserAgent is one browser identity a crawl was run with.
type UserAgent struct {
	Name   string `json:"name"`
	String string `json:"string"`
}

// Crawl describes the user agents of one crawl date, keyed by tag. The tag
// is also the name of the agent's output directory.
type Crawl struct {
	UserAgents map[string]UserAgent `json:"user-agents"`
}

// Tags returns the user agent tags in sorted order.
func (c *Crawl) Tags() []string {
	tags := make([]string, 0, len(c.UserAgents))
	for tag := range c.UserAgents {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// LoadMain reads the main manifest of root.
func LoadMain(root string) (*Main, error) {
	var m Main
	if err := load(filepath.Join(root, MainFileName), &m); err != nil {
		return nil, err
	}
	if m.Dates == nil {
		m.Dates = []string{}
	}
	return &m, nil
}

// LoadCrawl reads the crawl manifest of a crawl date directory.
func LoadCrawl(dateDir string) (*Crawl, error) {
	var c Crawl
	if err := load(filepath.Join(dateDir, CrawlFileName), &c); err != nil {
		return nil, err
	}
	if c.UserAgents == nil {
		c.UserAgents = map[string]UserAgent{}
	}
	return &c, nil
}

// SaveMain writes the main manifest of root.
func SaveMain(root string, m *Main) error {
	return save(filepath.Join(root, MainFileName), m)
}

// SaveCrawl writes the crawl manifest of a crawl date directory.
func SaveCrawl(dateDir string, c *Crawl) error {
	return save(filepath.Join(dateDir, CrawlFileName), c)
}

func load(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // manifest paths are fixed names under a chosen root
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("manifest %s: %w", path, model.ErrInputNotFound)
	}
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &model.ParseError{Path: path, Reason: "invalid manifest", Err: err}
	}
	return nil
}

func save(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &model.PersistenceError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil { //nolint:gosec // served to the dashboard
		return &model.PersistenceError{Path: path, Err: err}
	}
	return nil
}
