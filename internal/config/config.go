package config

import (
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "httpsdash"

	// DefaultOutDir writes results next to the current directory.
	DefaultOutDir = "."

	// DefaultCaptureExtension is the extension of capture files.
	DefaultCaptureExtension = ".har"

	// DefaultBatchSize processes sites one at a time, which keeps log
	// output in discovery order.
	DefaultBatchSize = 1

	// DefaultThumbnailWidth and DefaultThumbnailHeight match the dashboard
	// grid.
	DefaultThumbnailWidth  = 200
	DefaultThumbnailHeight = 300

	// DefaultServeAddr is the listen address of the serve command.
	DefaultServeAddr = ":8080"

	// DefaultDNSQueriesPerSecond limits origin lookups for --locations.
	DefaultDNSQueriesPerSecond = 20
)

// Config holds the options of one crawl run. It is populated from CLI
// flags, optionally completed from the configuration file, and passed
// explicitly to the code that needs it.
type Config struct {
	// InDir is the crawl directory holding capture files and screenshots.
	InDir string

	// OutDir receives site_profiles/, site_screenshots/ and summary.json.
	// It is created when absent.
	OutDir string

	// CaptureExtension is the extension of capture files, with the dot.
	CaptureExtension string

	// BatchSize is the number of sites processed concurrently.
	BatchSize int

	// PrettyPrint indents the written JSON documents.
	PrettyPrint bool

	// MarkdownReport also writes summary.md.
	MarkdownReport bool

	// XLSXReport also writes summary.xlsx.
	XLSXReport bool

	// CopyScreenshots copies *.png from InDir into site_screenshots/.
	CopyScreenshots bool

	// Thumbnails renames the copied screenshots and writes thumbnails.
	Thumbnails bool

	// ThumbnailWidth and ThumbnailHeight are the thumbnail size in pixels.
	ThumbnailWidth  int
	ThumbnailHeight int

	// Locations prints origin locations in the console comparison table.
	Locations bool

	// GeoIPDB is the path of a GeoIP2 or GeoLite2 City database.
	GeoIPDB string

	// DNSServer is the DNS server for origin lookups, "host[:port]".
	// Empty uses the system resolver configuration.
	DNSServer string

	// DBDir is the directory of the run history database.
	// Defaults to the XDG data directory (~/.local/share/httpsdash on Linux).
	DBDir string

	// SaveToDB records the run in the history database.
	SaveToDB bool

	// UserAgents are the user agent display names keyed by tag.
	UserAgents map[string]UserAgent
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		OutDir:           DefaultOutDir,
		CaptureExtension: DefaultCaptureExtension,
		BatchSize:        DefaultBatchSize,
		CopyScreenshots:  true,
		ThumbnailWidth:   DefaultThumbnailWidth,
		ThumbnailHeight:  DefaultThumbnailHeight,
		DBDir:            XDGDataDir(),
		SaveToDB:         true,
	}
}

// XDGDataDir returns the XDG data directory for httpsdash.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for httpsdash.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the options of a directory run and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.InDir == "" {
		return ErrNoInputDir
	}
	if c.OutDir == "" {
		return ErrNoOutputDir
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if !strings.HasPrefix(c.CaptureExtension, ".") || len(c.CaptureExtension) < 2 {
		return ErrInvalidCaptureExtension
	}
	if c.Thumbnails && (c.ThumbnailWidth <= 0 || c.ThumbnailHeight <= 0) {
		return ErrInvalidThumbnailSize
	}
	if c.Thumbnails && !c.CopyScreenshots {
		return ErrThumbnailsWithoutScreenshots
	}
	if c.SaveToDB && c.DBDir == "" {
		return ErrNoDBDir
	}
	return nil
}
