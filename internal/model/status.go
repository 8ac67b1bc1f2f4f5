package model

import (
	"encoding/json"
	"fmt"
)

// ObjectStatus is the origin-consistency classification of one object
// between the HTTP and HTTPS captures of a site.
type ObjectStatus int

const (
	// StatusSame means both captures fetched the object from the same host.
	StatusSame ObjectStatus = iota
	// StatusDifferent means both captures fetched it, from different hosts.
	StatusDifferent
	// StatusHTTPOnly means only the HTTP capture fetched it.
	StatusHTTPOnly
	// StatusHTTPSOnly means only the HTTPS capture fetched it.
	StatusHTTPSOnly
)

// AllStatuses lists the statuses in report order.
var AllStatuses = []ObjectStatus{StatusSame, StatusDifferent, StatusHTTPOnly, StatusHTTPSOnly}

// String returns the status name stored in profile documents.
func (s ObjectStatus) String() string {
	switch s {
	case StatusSame:
		return "SAME"
	case StatusDifferent:
		return "DIFFERENT"
	case StatusHTTPOnly:
		return "HTTP_ONLY"
	case StatusHTTPSOnly:
		return "HTTPS_ONLY"
	default:
		return "UNKNOWN"
	}
}

// Marker returns the short column marker used by the console table.
func (s ObjectStatus) Marker() string {
	switch s {
	case StatusDifferent:
		return "***"
	case StatusHTTPOnly:
		return "<<<"
	case StatusHTTPSOnly:
		return ">>>"
	default:
		return ""
	}
}

// Label returns a human-readable label.
func (s ObjectStatus) Label() string {
	switch s {
	case StatusSame:
		return "Same Origin"
	case StatusDifferent:
		return "Different Origin"
	case StatusHTTPOnly:
		return "HTTP Only"
	case StatusHTTPSOnly:
		return "HTTPS Only"
	default:
		return "Unknown"
	}
}

// ParseObjectStatus converts a status name back into an ObjectStatus.
func ParseObjectStatus(s string) (ObjectStatus, error) {
	for _, status := range AllStatuses {
		if status.String() == s {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown object status %q", s)
}

// MarshalJSON encodes the status name.
func (s ObjectStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name.
func (s *ObjectStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseObjectStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
