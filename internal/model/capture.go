package model

import "strings"

// RootFilename is the canonical filename of a site's root document.
// Both "" and "/" paths are normalized to it, in the join key and in
// persisted object details.
const RootFilename = "/"

// ObjectType is the coarse content category of a fetched object.
type ObjectType string

const (
	ObjectTypeImage      ObjectType = "image"
	ObjectTypeCSS        ObjectType = "css"
	ObjectTypeHTML       ObjectType = "html"
	ObjectTypeJavaScript ObjectType = "javascript"
	ObjectTypeFlash      ObjectType = "flash"
	ObjectTypeOther      ObjectType = "other"
)

// ObjectTypes lists every ObjectType in a stable order.
var ObjectTypes = []ObjectType{
	ObjectTypeImage,
	ObjectTypeCSS,
	ObjectTypeHTML,
	ObjectTypeJavaScript,
	ObjectTypeFlash,
	ObjectTypeOther,
}

// ObjectEntry is one object fetched while loading a page.
type ObjectEntry struct {
	// Filename is the URL path and the join key between captures.
	Filename string

	// Host is the origin server (URL host, including a non-default port).
	Host string

	// Protocol is the scheme the object was actually fetched over.
	Protocol string

	// URL is the full request URL.
	URL string

	// MimeType is the response content type without parameters.
	MimeType string

	// Type is the category derived from MimeType and the file extension.
	Type ObjectType

	// Size is the response body size in bytes (0 when unknown).
	Size int64

	// ServerIP is the server address recorded by the browser, if any.
	ServerIP string
}

// CaptureMetrics holds the scalar metrics derived from one capture. The
// JSON layout is the "http-profile"/"https-profile" object of a profile.
type CaptureMetrics struct {
	NumObjects         int                  `json:"num-objects"`
	NumHosts           int                  `json:"num-hosts"`
	NumThirdPartyHosts int                  `json:"num-third-party-hosts"`
	NumTCPHandshakes   int                  `json:"num-tcp-handshakes"`
	NumBytes           int64                `json:"num-bytes"`
	NumMBytes          float64              `json:"num-mbytes"`
	MeanObjectSize     float64              `json:"mean-object-size"`
	MedianObjectSize   float64              `json:"median-object-size"`
	NumObjectsByType   map[ObjectType]int   `json:"num-objects-by-type"`
	NumBytesByType     map[ObjectType]int64 `json:"num-bytes-by-type"`
	NumHTTPObjects     int                  `json:"num-http-objects"`
	NumHTTPSObjects    int                  `json:"num-https-objects"`
}

// CaptureRecord is the normalized form of one protocol capture of a site.
// It is immutable after construction.
type CaptureRecord struct {
	// Path is the file the record was loaded from.
	Path string

	// URL is the loaded page URL, including scheme.
	URL string

	// Objects are the fetched objects in capture order.
	Objects []ObjectEntry

	// Metrics are the derived scalars.
	Metrics CaptureMetrics
}

// Scheme returns the lower-cased scheme of the page URL.
func (c *CaptureRecord) Scheme() string {
	scheme, _, found := strings.Cut(c.URL, "://")
	if !found {
		return ""
	}
	return strings.ToLower(scheme)
}

// IsHTTPS reports whether the page itself was loaded over HTTPS.
func (c *CaptureRecord) IsHTTPS() bool {
	return c.Scheme() == "https"
}

// BaseURL returns the page URL with its scheme removed.
func (c *CaptureRecord) BaseURL() string {
	_, rest, found := strings.Cut(c.URL, "://")
	if !found {
		return c.URL
	}
	return rest
}

// Hostname returns the host of the page URL without port.
func (c *CaptureRecord) Hostname() string {
	host := c.BaseURL()
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if i := strings.LastIndexByte(host, '@'); i >= 0 {
		host = host[i+1:]
	}
	if strings.HasPrefix(host, "[") {
		if end := strings.IndexByte(host, ']'); end > 0 {
			return host[1:end]
		}
	}
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return strings.ToLower(host)
}

// Metric returns the named summary metric of the capture. Names follow the
// summary document keys: num_objects, num_tcp_handshakes, num_mbytes,
// num_hosts. The second result is false for unknown names.
func (c *CaptureRecord) Metric(name MetricName) (float64, bool) {
	switch name {
	case MetricNumObjects:
		return float64(c.Metrics.NumObjects), true
	case MetricNumTCPHandshakes:
		return float64(c.Metrics.NumTCPHandshakes), true
	case MetricNumMBytes:
		return c.Metrics.NumMBytes, true
	case MetricNumHosts:
		return float64(c.Metrics.NumHosts), true
	default:
		return 0, false
	}
}
