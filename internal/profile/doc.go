// Package profile assembles the per-site profile document and persists it
// under a crawl's site_profiles directory.
//
// The document name is the site key: the scheme-stripped page URL of the
// HTTP capture (or the HTTPS capture when there is none), sanitized. Every
// capture-dependent field is omitted when that capture is absent, and a
// rebuild from the same captures produces a byte-identical file.
package profile
