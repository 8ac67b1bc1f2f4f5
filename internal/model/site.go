package model

// SitePaths are the capture files discovered for one site.
// At least one of HTTPPath and HTTPSPath is set.
type SitePaths struct {
	// Name is the site portion of the capture file name.
	Name string

	// HTTPPath is the HTTP capture file, or "".
	HTTPPath string

	// HTTPSPath is the HTTPS capture file, or "".
	HTTPSPath string
}

// Availability derives the availability from which paths are present.
func (p SitePaths) Availability() Availability {
	switch {
	case p.HTTPPath != "" && p.HTTPSPath != "":
		return AvailabilityBoth
	case p.HTTPSPath != "":
		return AvailabilityHTTPSOnly
	default:
		return AvailabilityHTTPOnly
	}
}

// Site is one crawled site with its loaded captures.
type Site struct {
	// Name is the site identifier used in logs.
	Name string

	// Availability says which captures exist.
	Availability Availability

	// HTTP is the HTTP capture, nil when absent.
	HTTP *CaptureRecord

	// HTTPS is the HTTPS capture, nil when absent.
	HTTPS *CaptureRecord
}

// HTTPSPartial reports whether the HTTPS capture fetched at least one object
// over plain HTTP. The second result is false when there is no HTTPS capture
// and the flag is undefined.
func (s *Site) HTTPSPartial() (partial bool, defined bool) {
	if s.HTTPS == nil {
		return false, false
	}
	return s.HTTPS.Metrics.NumHTTPObjects > 0, true
}

// BaseURL returns the scheme-stripped URL of the site, preferring the HTTP
// capture.
func (s *Site) BaseURL() string {
	if s.HTTP != nil {
		return s.HTTP.BaseURL()
	}
	if s.HTTPS != nil {
		return s.HTTPS.BaseURL()
	}
	return ""
}

// Hostname returns the host of the site, preferring the HTTP capture.
func (s *Site) Hostname() string {
	if s.HTTP != nil {
		return s.HTTP.Hostname()
	}
	if s.HTTPS != nil {
		return s.HTTPS.Hostname()
	}
	return ""
}

// YesNo renders a boolean flag the way documents store it.
func YesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// SiteRun carries one site through the processing pipeline.
type SiteRun struct {
	// Index is the position of the site in discovery order.
	Index int

	// Paths are the discovered capture files.
	Paths SitePaths

	// Site is filled by the load step.
	Site *Site

	// Comparison is filled by the classify step.
	Comparison *Comparison

	// Profile is filled by the profile step.
	Profile *Profile

	// ProfilePath is where the profile document was written.
	ProfilePath string

	// Digest is the hex SHA3-256 of the written profile document.
	Digest string

	// PreviousDigest is the digest recorded for the site by an earlier run
	// into the same output directory, or "".
	PreviousDigest string

	// PerformedSteps lists the steps that completed, in order.
	PerformedSteps []string

	// Err is the error that stopped the site, or nil.
	Err error
}

// Changed reports whether the profile differs from the previous run's.
// A site without history counts as changed.
func (r *SiteRun) Changed() bool {
	return r.PreviousDigest == "" || r.PreviousDigest != r.Digest
}
