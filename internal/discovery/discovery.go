package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/nao1215/httpsdash/internal/model"
)

// DefaultExtension is the extension of capture files.
const DefaultExtension = ".har"

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
)

// namePattern matches the stem of a capture file name.
var namePattern = regexp.MustCompile(`^(https?)---(.+?)(_trial\d+)?$`)

// Skipped is a file that was ignored or rejected during discovery.
type Skipped struct {
	// Path is the skipped file.
	Path string

	// Err explains why. A *model.ParseError marks a rejected capture; other
	// errors mark names that do not follow the capture naming pattern.
	Err error
}

// Result is the outcome of scanning one directory. The three site lists are
// disjoint and each is in file name order.
type Result struct {
	HTTPOnly  []model.SitePaths
	HTTPSOnly []model.SitePaths
	Both      []model.SitePaths
	Skipped   []Skipped
}

// Sites returns all discovered sites in processing order: HTTP-only sites,
// then HTTPS-only sites, then dual-protocol sites.
func (r *Result) Sites() []model.SitePaths {
	sites := make([]model.SitePaths, 0, len(r.HTTPOnly)+len(r.HTTPSOnly)+len(r.Both))
	sites = append(sites, r.HTTPOnly...)
	sites = append(sites, r.HTTPSOnly...)
	sites = append(sites, r.Both...)
	return sites
}

// Rejected returns the skipped files that were captures but could not be
// paired.
func (r *Result) Rejected() []Skipped {
	var rejected []Skipped
	for _, s := range r.Skipped {
		var parseErr *model.ParseError
		if errors.As(s.Err, &parseErr) {
			rejected = append(rejected, s)
		}
	}
	return rejected
}

// Discoverer scans crawl directories.
type Discoverer struct {
	extension string
	logger    *slog.Logger
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithExtension sets the capture file extension (default ".har").
func WithExtension(ext string) Option {
	return func(d *Discoverer) {
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		d.extension = ext
	}
}

// WithLogger sets the logger used for skip warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Discoverer) {
		d.logger = logger
	}
}

// New creates a Discoverer.
func New(opts ...Option) *Discoverer {
	d := &Discoverer{extension: DefaultExtension}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// captureFile is a parsed capture file name.
type captureFile struct {
	path   string
	scheme string
	site   string
	// rest is the file name after the scheme token; equal rests pair.
	rest string
}

// Discover scans dir. It fails only when dir cannot be read; problems with
// individual files end up in Result.Skipped.
func (d *Discoverer) Discover(dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", model.ErrInputNotFound, dir)
		}
		return nil, fmt.Errorf("read capture directory %s: %w", dir, err)
	}

	result := &Result{}
	var files []captureFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, d.extension) {
			continue
		}
		path := filepath.Join(dir, name)
		file, ok := parseName(path, strings.TrimSuffix(name, d.extension))
		if !ok {
			d.skip(result, path, fmt.Errorf("file name %q does not match <scheme>---<site>%s", name, d.extension))
			continue
		}
		file.rest += d.extension
		files = append(files, file)
	}

	d.pair(result, files)
	return result, nil
}

func parseName(path, stem string) (captureFile, bool) {
	m := namePattern.FindStringSubmatch(stem)
	if m == nil {
		return captureFile{}, false
	}
	return captureFile{
		path:   path,
		scheme: m[1],
		site:   m[2],
		rest:   m[2] + m[3],
	}, true
}

// pair matches HTTP files with HTTPS files of exactly the same rest. A file
// without an exact counterpart stays single-protocol, with a warning when a
// counterpart differing only in case exists. An exact pair is rejected when
// further files of either scheme fold to the same rest, since host names
// are case-insensitive and the pairing would be a guess.
func (d *Discoverer) pair(result *Result, files []captureFile) {
	httpByRest := make(map[string]captureFile)
	httpsByRest := make(map[string]captureFile)
	folded := map[string]map[string][]captureFile{
		schemeHTTP:  {},
		schemeHTTPS: {},
	}
	for _, f := range files {
		if f.scheme == schemeHTTP {
			httpByRest[f.rest] = f
		} else {
			httpsByRest[f.rest] = f
		}
		key := strings.ToLower(f.rest)
		folded[f.scheme][key] = append(folded[f.scheme][key], f)
	}

	ambiguous := make(map[string]bool)
	for key := range foldedKeys(folded) {
		httpFiles, httpsFiles := folded[schemeHTTP][key], folded[schemeHTTPS][key]
		if !isAmbiguous(httpFiles, httpsFiles) {
			if len(httpFiles) == 1 && len(httpsFiles) == 1 && httpFiles[0].rest != httpsFiles[0].rest {
				d.logger.Warn("capture files differ only in case, not paired",
					"http", httpFiles[0].path, "https", httpsFiles[0].path)
			}
			continue
		}
		for _, f := range slices.Concat(httpFiles, httpsFiles) {
			ambiguous[f.path] = true
		}
	}

	for _, f := range files {
		if ambiguous[f.path] {
			d.skip(result, f.path, &model.ParseError{
				Path:   f.path,
				Reason: fmt.Sprintf("site %q", f.site),
				Err:    model.ErrAmbiguousPair,
			})
			continue
		}

		switch f.scheme {
		case schemeHTTP:
			if other, ok := httpsByRest[f.rest]; ok {
				result.Both = append(result.Both, model.SitePaths{Name: f.site, HTTPPath: f.path, HTTPSPath: other.path})
			} else {
				result.HTTPOnly = append(result.HTTPOnly, model.SitePaths{Name: f.site, HTTPPath: f.path})
			}
		case schemeHTTPS:
			if _, ok := httpByRest[f.rest]; !ok {
				result.HTTPSOnly = append(result.HTTPSOnly, model.SitePaths{Name: f.site, HTTPSPath: f.path})
			}
		}
	}
}

// isAmbiguous reports whether the files sharing one case-folded rest hold an
// exact pair that another file of either scheme could also claim.
func isAmbiguous(httpFiles, httpsFiles []captureFile) bool {
	if len(httpFiles)+len(httpsFiles) <= 2 {
		return false
	}
	for _, h := range httpFiles {
		for _, s := range httpsFiles {
			if h.rest == s.rest {
				return true
			}
		}
	}
	return false
}

func foldedKeys(folded map[string]map[string][]captureFile) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, byKey := range folded {
		for key := range byKey {
			keys[key] = struct{}{}
		}
	}
	return keys
}

func (d *Discoverer) skip(result *Result, path string, err error) {
	d.logger.Warn("skipping capture file", "path", path, "error", err)
	result.Skipped = append(result.Skipped, Skipped{Path: path, Err: err})
}
