package profile

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/httpsdash/internal/model"
	"github.com/nao1215/httpsdash/internal/report"
	"golang.org/x/crypto/sha3"
)

// DirName is the profile directory inside a crawl output directory.
const DirName = "site_profiles"

// filePerm lets the dashboard's web server read the documents.
const filePerm = 0o644

// Store writes profile documents into one directory.
type Store struct {
	dir    string
	pretty bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithPrettyPrint indents the written documents.
func WithPrettyPrint() StoreOption {
	return func(s *Store) {
		s.pretty = true
	}
}

// NewStore returns a Store writing into dir. The directory must exist.
func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the directory documents are written to.
func (s *Store) Dir() string {
	return s.dir
}

// PathFor returns the document path of the site.
func (s *Store) PathFor(site *model.Site) string {
	return filepath.Join(s.dir, site.SiteKey()+".json")
}

// Save writes the profile of site, replacing any existing document, and
// returns the document path and the hex SHA3-256 digest of its content.
// Failures are *model.PersistenceError.
func (s *Store) Save(site *model.Site, p *model.Profile) (path, digest string, err error) {
	path = s.PathFor(site)

	var buf bytes.Buffer
	var opts []report.JSONWriterOption
	if s.pretty {
		opts = append(opts, report.WithPrettyPrint())
	}
	if _, err := report.NewJSONWriter(&buf, opts...).WriteProfile(p); err != nil {
		return "", "", &model.PersistenceError{Path: path, Err: fmt.Errorf("encode profile: %w", err)}
	}

	if err := os.WriteFile(path, buf.Bytes(), filePerm); err != nil {
		return "", "", &model.PersistenceError{Path: path, Err: err}
	}
	return path, Digest(buf.Bytes()), nil
}

// Load reads a profile document.
func Load(path string) (*model.Profile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is built from the store directory
	if err != nil {
		return nil, err
	}
	var p model.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", path, err)
	}
	return &p, nil
}

// Digest returns the hex SHA3-256 of a document.
func Digest(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
