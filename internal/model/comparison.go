package model

// ObjectComparison is the classification of one filename from the union of
// a site's HTTP and HTTPS objects.
type ObjectComparison struct {
	Filename      string       `json:"filename"`
	HTTPOrigin    string       `json:"http-origin,omitempty"`
	HTTPSOrigin   string       `json:"https-origin,omitempty"`
	HTTPProtocol  string       `json:"http-protocol,omitempty"`
	HTTPSProtocol string       `json:"https-protocol,omitempty"`
	Status        ObjectStatus `json:"status"`
	ThirdParty    bool         `json:"third-party,omitempty"`
}

// StatusCounts counts objects per status.
type StatusCounts struct {
	Same      int `json:"same"`
	Different int `json:"different"`
	HTTPOnly  int `json:"http-only"`
	HTTPSOnly int `json:"https-only"`
}

// Add counts one object with the given status.
func (c *StatusCounts) Add(status ObjectStatus) {
	switch status {
	case StatusSame:
		c.Same++
	case StatusDifferent:
		c.Different++
	case StatusHTTPOnly:
		c.HTTPOnly++
	case StatusHTTPSOnly:
		c.HTTPSOnly++
	}
}

// Get returns the count for status.
func (c StatusCounts) Get(status ObjectStatus) int {
	switch status {
	case StatusSame:
		return c.Same
	case StatusDifferent:
		return c.Different
	case StatusHTTPOnly:
		return c.HTTPOnly
	case StatusHTTPSOnly:
		return c.HTTPSOnly
	default:
		return 0
	}
}

// Total returns the sum of all counts.
func (c StatusCounts) Total() int {
	return c.Same + c.Different + c.HTTPOnly + c.HTTPSOnly
}

// Comparison is the classification result for one site.
type Comparison struct {
	// Objects are in filename-union order.
	Objects []ObjectComparison

	// Counts are the per-status totals over Objects.
	Counts StatusCounts

	// Fallbacks counts objects where neither origin was known.
	Fallbacks int
}
