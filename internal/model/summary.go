package model

import "encoding/json"

// MetricName identifies one summary metric by its document key.
type MetricName string

const (
	MetricNumObjects              MetricName = "num_objects"
	MetricNumTCPHandshakes        MetricName = "num_tcp_handshakes"
	MetricNumMBytes               MetricName = "num_mbytes"
	MetricNumHosts                MetricName = "num_hosts"
	MetricHTTPSiteProtocolCounts  MetricName = "http_site_protocol_counts"
	MetricHTTPSSiteProtocolCounts MetricName = "https_site_protocol_counts"
)

// BasicMetrics are the metrics read directly from a capture's scalars.
var BasicMetrics = []MetricName{
	MetricNumObjects,
	MetricNumTCPHandshakes,
	MetricNumMBytes,
	MetricNumHosts,
}

// AllMetrics lists every summary metric in document order.
var AllMetrics = []MetricName{
	MetricNumObjects,
	MetricNumTCPHandshakes,
	MetricNumMBytes,
	MetricNumHosts,
	MetricHTTPSiteProtocolCounts,
	MetricHTTPSSiteProtocolCounts,
}

// MetricRow is one (url, HTTP value, HTTPS value) triple.
type MetricRow struct {
	URL   string
	HTTP  float64
	HTTPS float64
}

// SortView is one ordering of a metric's rows, stored as three aligned
// columns. All three slices always have the same length.
type SortView struct {
	URLs  []string
	HTTP  []float64
	HTTPS []float64
}

// NewSortView splits rows into aligned columns.
func NewSortView(rows []MetricRow) SortView {
	v := SortView{
		URLs:  make([]string, len(rows)),
		HTTP:  make([]float64, len(rows)),
		HTTPS: make([]float64, len(rows)),
	}
	for i, r := range rows {
		v.URLs[i] = r.URL
		v.HTTP[i] = r.HTTP
		v.HTTPS[i] = r.HTTPS
	}
	return v
}

// Len returns the number of rows in the view.
func (v SortView) Len() int {
	return len(v.URLs)
}

// Row returns the i-th row.
func (v SortView) Row(i int) MetricRow {
	return MetricRow{URL: v.URLs[i], HTTP: v.HTTP[i], HTTPS: v.HTTPS[i]}
}

// MetricViews holds the three sorted projections of one metric.
type MetricViews struct {
	ByURL   SortView
	ByHTTP  SortView
	ByHTTPS SortView
}

type columnViews struct {
	SortAlpha any `json:"sort-alpha"`
	SortHTTP  any `json:"sort-http"`
	SortHTTPS any `json:"sort-https"`
}

type metricViewsJSON struct {
	URL   columnViews `json:"url"`
	HTTP  columnViews `json:"HTTP"`
	HTTPS columnViews `json:"HTTPS"`
}

// MarshalJSON writes the column-major layout the dashboard reads:
// {"url": {"sort-alpha": [...], "sort-http": [...], "sort-https": [...]},
// "HTTP": {...}, "HTTPS": {...}}.
func (m MetricViews) MarshalJSON() ([]byte, error) {
	return json.Marshal(metricViewsJSON{
		URL:   columnViews{SortAlpha: nonNil(m.ByURL.URLs), SortHTTP: nonNil(m.ByHTTP.URLs), SortHTTPS: nonNil(m.ByHTTPS.URLs)},
		HTTP:  columnViews{SortAlpha: nonNil(m.ByURL.HTTP), SortHTTP: nonNil(m.ByHTTP.HTTP), SortHTTPS: nonNil(m.ByHTTPS.HTTP)},
		HTTPS: columnViews{SortAlpha: nonNil(m.ByURL.HTTPS), SortHTTP: nonNil(m.ByHTTP.HTTPS), SortHTTPS: nonNil(m.ByHTTPS.HTTPS)},
	})
}

// UnmarshalJSON reads the column-major layout.
func (m *MetricViews) UnmarshalJSON(data []byte) error {
	var raw struct {
		URL struct {
			SortAlpha []string `json:"sort-alpha"`
			SortHTTP  []string `json:"sort-http"`
			SortHTTPS []string `json:"sort-https"`
		} `json:"url"`
		HTTP struct {
			SortAlpha []float64 `json:"sort-alpha"`
			SortHTTP  []float64 `json:"sort-http"`
			SortHTTPS []float64 `json:"sort-https"`
		} `json:"HTTP"`
		HTTPS struct {
			SortAlpha []float64 `json:"sort-alpha"`
			SortHTTP  []float64 `json:"sort-http"`
			SortHTTPS []float64 `json:"sort-https"`
		} `json:"HTTPS"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.ByURL = SortView{URLs: raw.URL.SortAlpha, HTTP: raw.HTTP.SortAlpha, HTTPS: raw.HTTPS.SortAlpha}
	m.ByHTTP = SortView{URLs: raw.URL.SortHTTP, HTTP: raw.HTTP.SortHTTP, HTTPS: raw.HTTPS.SortHTTP}
	m.ByHTTPS = SortView{URLs: raw.URL.SortHTTPS, HTTP: raw.HTTP.SortHTTPS, HTTPS: raw.HTTPS.SortHTTPS}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// SiteEntry is one element of the summary's flat site list.
type SiteEntry struct {
	Site         string       `json:"site"`
	Availability Availability `json:"availability"`
	HTTPSPartial string       `json:"https_partial,omitempty"`
}

// Summary is the cross-site document for one crawl. A metric with no
// contributing dual-protocol site is nil and omitted from the document.
type Summary struct {
	NumObjects              *MetricViews          `json:"num_objects,omitempty"`
	NumTCPHandshakes        *MetricViews          `json:"num_tcp_handshakes,omitempty"`
	NumMBytes               *MetricViews          `json:"num_mbytes,omitempty"`
	NumHosts                *MetricViews          `json:"num_hosts,omitempty"`
	HTTPSiteProtocolCounts  *MetricViews          `json:"http_site_protocol_counts,omitempty"`
	HTTPSSiteProtocolCounts *MetricViews          `json:"https_site_protocol_counts,omitempty"`
	Sites                   []SiteEntry           `json:"sites"`
	Availability            AvailabilityHistogram `json:"availability"`
}

// Metric returns the views of the named metric, or nil.
func (s *Summary) Metric(name MetricName) *MetricViews {
	switch name {
	case MetricNumObjects:
		return s.NumObjects
	case MetricNumTCPHandshakes:
		return s.NumTCPHandshakes
	case MetricNumMBytes:
		return s.NumMBytes
	case MetricNumHosts:
		return s.NumHosts
	case MetricHTTPSiteProtocolCounts:
		return s.HTTPSiteProtocolCounts
	case MetricHTTPSSiteProtocolCounts:
		return s.HTTPSSiteProtocolCounts
	default:
		return nil
	}
}

// SetMetric stores the views of the named metric.
func (s *Summary) SetMetric(name MetricName, views *MetricViews) {
	switch name {
	case MetricNumObjects:
		s.NumObjects = views
	case MetricNumTCPHandshakes:
		s.NumTCPHandshakes = views
	case MetricNumMBytes:
		s.NumMBytes = views
	case MetricNumHosts:
		s.NumHosts = views
	case MetricHTTPSiteProtocolCounts:
		s.HTTPSiteProtocolCounts = views
	case MetricHTTPSSiteProtocolCounts:
		s.HTTPSSiteProtocolCounts = views
	}
}
