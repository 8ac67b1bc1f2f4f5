package config

import "github.com/nao1215/httpsdash/internal/manifest"

// UserAgent is a browser identity a crawl was run with.
type UserAgent struct {
	// Name is the display name, e.g. "Firefox (desktop)".
	Name string `yaml:"name"`

	// String is the User-Agent header value.
	String string `yaml:"string"`
}

// Defaults are option values used when the matching flag is not given.
// Zero values leave the built-in default in place.
type Defaults struct {
	OutDir           string `yaml:"outdir,omitempty"`
	CaptureExtension string `yaml:"capture_extension,omitempty"`
	BatchSize        int    `yaml:"batch_size,omitempty"`
	GeoIPDB          string `yaml:"geoip_db,omitempty"`
	DNSServer        string `yaml:"dns_server,omitempty"`
	ThumbnailWidth   int    `yaml:"thumbnail_width,omitempty"`
	ThumbnailHeight  int    `yaml:"thumbnail_height,omitempty"`
	DBDir            string `yaml:"db_dir,omitempty"`
}

// File represents the structure of the .httpsdash configuration file.
type File struct {
	// Defaults supplies option values for flags that were not given.
	Defaults Defaults `yaml:"defaults,omitempty"`

	// UserAgents maps user agent tags to their identities.
	UserAgents map[string]UserAgent `yaml:"user_agents,omitempty"`
}

// ManifestAgents converts the user agents to crawl manifest entries.
func (f *File) ManifestAgents() map[string]manifest.UserAgent {
	agents := make(map[string]manifest.UserAgent, len(f.UserAgents))
	for tag, ua := range f.UserAgents {
		agents[tag] = manifest.UserAgent{Name: ua.Name, String: ua.String}
	}
	return agents
}

// ApplyFile copies the file's values into c. changed reports whether the
// flag of the given name was set on the command line; such options keep
// their flag value.
func (c *Config) ApplyFile(f *File, changed func(flag string) bool) {
	if f == nil {
		return
	}
	d := f.Defaults
	setString := func(flag string, dst *string, v string) {
		if v != "" && !changed(flag) {
			*dst = v
		}
	}
	setInt := func(flag string, dst *int, v int) {
		if v > 0 && !changed(flag) {
			*dst = v
		}
	}

	setString("outdir", &c.OutDir, d.OutDir)
	setString("ext", &c.CaptureExtension, d.CaptureExtension)
	setInt("batch", &c.BatchSize, d.BatchSize)
	setString("geoip-db", &c.GeoIPDB, d.GeoIPDB)
	setString("dns-server", &c.DNSServer, d.DNSServer)
	setInt("thumb-width", &c.ThumbnailWidth, d.ThumbnailWidth)
	setInt("thumb-height", &c.ThumbnailHeight, d.ThumbnailHeight)
	setString("db-dir", &c.DBDir, d.DBDir)

	if len(f.UserAgents) > 0 {
		c.UserAgents = make(map[string]UserAgent, len(f.UserAgents))
		for tag, ua := range f.UserAgents {
			c.UserAgents[tag] = ua
		}
	}
}
