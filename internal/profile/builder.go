package profile

import (
	"errors"

	"github.com/nao1215/httpsdash/internal/model"
)

// ErrEmptySite is returned for a site without any capture.
var ErrEmptySite = errors.New("profile: site has no capture")

// Build assembles the profile of site from its comparison.
func Build(site *model.Site, cmp *model.Comparison) (*model.Profile, error) {
	if site == nil || (site.HTTP == nil && site.HTTPS == nil) {
		return nil, ErrEmptySite
	}
	if cmp == nil {
		cmp = &model.Comparison{}
	}

	p := &model.Profile{
		Availability:  site.Availability,
		BaseURL:       site.BaseURL(),
		StatusCounts:  cmp.Counts,
		ObjectDetails: make([]model.ObjectComparison, len(cmp.Objects)),
	}
	copy(p.ObjectDetails, cmp.Objects)

	if partial, defined := site.HTTPSPartial(); defined {
		p.HTTPSPartial = model.YesNo(partial)
	}

	if c := site.HTTP; c != nil {
		metrics := c.Metrics
		p.HTTPURL = c.URL
		p.HTTPProfile = &metrics
		p.HTTPProtocolCounts = &model.ProtocolCounts{HTTP: c.Metrics.NumHTTPObjects, HTTPS: c.Metrics.NumHTTPSObjects}
	}
	if c := site.HTTPS; c != nil {
		metrics := c.Metrics
		p.HTTPSURL = c.URL
		p.HTTPSProfile = &metrics
		p.HTTPSProtocolCounts = &model.ProtocolCounts{HTTP: c.Metrics.NumHTTPObjects, HTTPS: c.Metrics.NumHTTPSObjects}
	}
	return p, nil
}
