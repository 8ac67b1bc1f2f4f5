package model

import "strings"

// unsafeFilenameChars are replaced by '-' when a URL becomes a file name.
const unsafeFilenameChars = `:/\?*"<>|#%& `

// SanitizeURL turns a scheme-stripped URL into a file name stem. The capture
// tool names its files the same way ("http://a.com" becomes "http---a.com"),
// so a sanitized site matches the site part of its capture and screenshot
// file names.
func SanitizeURL(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(unsafeFilenameChars, r) {
			return '-'
		}
		return r
	}, s)
}

// SiteKey returns the identifier of a capture's site: its scheme-stripped
// URL without trailing slashes, sanitized. It names the profile document and
// is the "site"/"url" value in summary documents.
func (c *CaptureRecord) SiteKey() string {
	return SanitizeURL(strings.TrimRight(c.BaseURL(), "/"))
}

// SiteKey returns the identifier of the site, preferring the HTTP capture.
func (s *Site) SiteKey() string {
	if s.HTTP != nil {
		return s.HTTP.SiteKey()
	}
	if s.HTTPS != nil {
		return s.HTTPS.SiteKey()
	}
	return SanitizeURL(s.Name)
}
