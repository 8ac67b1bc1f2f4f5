package classify

import (
	"errors"

	"github.com/nao1215/httpsdash/internal/capture"
	"github.com/nao1215/httpsdash/internal/model"
)

// ErrNoCapture is returned when neither capture is given.
var ErrNoCapture = errors.New("classify: at least one capture is required")

type sides struct {
	httpOrigin    string
	httpsOrigin   string
	httpProtocol  string
	httpsProtocol string
}

// Compare classifies the union of filenames of httpCapture and httpsCapture,
// either of which may be nil. The union keeps the HTTP capture's order and
// appends filenames only the HTTPS capture fetched in its order. When a
// capture fetched a filename more than once, its last fetch wins.
//
// Status priority: HTTPS_ONLY when only the HTTPS side has an origin,
// HTTP_ONLY when only the HTTP side has one, DIFFERENT when both have
// different origins, SAME otherwise. An object with no origin on either
// side falls back to SAME and is counted in Comparison.Fallbacks.
func Compare(httpCapture, httpsCapture *model.CaptureRecord) (*model.Comparison, error) {
	if httpCapture == nil && httpsCapture == nil {
		return nil, ErrNoCapture
	}

	var order []string
	byName := make(map[string]*sides)
	add := func(obj model.ObjectEntry) *sides {
		s, ok := byName[obj.Filename]
		if !ok {
			s = &sides{}
			byName[obj.Filename] = s
			order = append(order, obj.Filename)
		}
		return s
	}

	if httpCapture != nil {
		for _, obj := range httpCapture.Objects {
			s := add(obj)
			s.httpOrigin = obj.Host
			s.httpProtocol = obj.Protocol
		}
	}
	if httpsCapture != nil {
		for _, obj := range httpsCapture.Objects {
			s := add(obj)
			s.httpsOrigin = obj.Host
			s.httpsProtocol = obj.Protocol
		}
	}

	siteHost := siteHostOf(httpCapture, httpsCapture)
	result := &model.Comparison{Objects: make([]model.ObjectComparison, 0, len(order))}
	for _, name := range order {
		s := byName[name]
		status := Status(s.httpOrigin, s.httpsOrigin)
		if s.httpOrigin == "" && s.httpsOrigin == "" {
			result.Fallbacks++
		}
		result.Counts.Add(status)
		result.Objects = append(result.Objects, model.ObjectComparison{
			Filename:      name,
			HTTPOrigin:    s.httpOrigin,
			HTTPSOrigin:   s.httpsOrigin,
			HTTPProtocol:  s.httpProtocol,
			HTTPSProtocol: s.httpsProtocol,
			Status:        status,
			ThirdParty:    capture.IsThirdParty(siteHost, s.httpOrigin) || capture.IsThirdParty(siteHost, s.httpsOrigin),
		})
	}
	return result, nil
}

// Status returns the status of one object given the host it was fetched
// from in each capture ("" when not fetched).
func Status(httpOrigin, httpsOrigin string) model.ObjectStatus {
	switch {
	case httpOrigin == "" && httpsOrigin != "":
		return model.StatusHTTPSOnly
	case httpsOrigin == "" && httpOrigin != "":
		return model.StatusHTTPOnly
	case httpOrigin != httpsOrigin:
		return model.StatusDifferent
	default:
		return model.StatusSame
	}
}

func siteHostOf(httpCapture, httpsCapture *model.CaptureRecord) string {
	if httpCapture != nil {
		return httpCapture.Hostname()
	}
	return httpsCapture.Hostname()
}

// OrderByScheme returns the two captures as (HTTP, HTTPS): the one whose page
// URL is not https is taken as the HTTP side. Used for ad-hoc comparisons
// where the caller does not know which file is which.
func OrderByScheme(a, b *model.CaptureRecord) (httpCapture, httpsCapture *model.CaptureRecord) {
	if a.IsHTTPS() {
		return b, a
	}
	return a, b
}
