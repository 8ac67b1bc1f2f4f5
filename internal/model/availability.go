package model

import (
	"encoding/json"
	"fmt"
)

// Availability describes which protocol variants of a site were captured.
type Availability int

const (
	// AvailabilityHTTPOnly means only an HTTP capture exists.
	AvailabilityHTTPOnly Availability = iota
	// AvailabilityHTTPSOnly means only an HTTPS capture exists.
	AvailabilityHTTPSOnly
	// AvailabilityBoth means both captures exist.
	AvailabilityBoth
)

// String returns the tag used in profile and summary documents.
func (a Availability) String() string {
	switch a {
	case AvailabilityHTTPOnly:
		return "http-only"
	case AvailabilityHTTPSOnly:
		return "https-only"
	case AvailabilityBoth:
		return "both"
	default:
		return "unknown"
	}
}

// Label returns the human-readable label used by the availability histogram.
func (a Availability) Label() string {
	switch a {
	case AvailabilityHTTPOnly:
		return "HTTP Only"
	case AvailabilityHTTPSOnly:
		return "HTTPS Only"
	case AvailabilityBoth:
		return "Both"
	default:
		return "Unknown"
	}
}

// ParseAvailability converts a document tag back into an Availability.
func ParseAvailability(s string) (Availability, error) {
	switch s {
	case "http-only":
		return AvailabilityHTTPOnly, nil
	case "https-only":
		return AvailabilityHTTPSOnly, nil
	case "both":
		return AvailabilityBoth, nil
	default:
		return 0, fmt.Errorf("unknown availability %q", s)
	}
}

// MarshalJSON encodes the availability as its tag.
func (a Availability) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes an availability tag.
func (a *Availability) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAvailability(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// AvailabilityHistogram counts successfully processed sites per availability.
// It is serialized as the dashboard's [[label, count], ...] list.
type AvailabilityHistogram struct {
	HTTPOnly  int
	HTTPSOnly int
	Both      int
}

// Add counts one site.
func (h *AvailabilityHistogram) Add(a Availability) {
	switch a {
	case AvailabilityHTTPOnly:
		h.HTTPOnly++
	case AvailabilityHTTPSOnly:
		h.HTTPSOnly++
	case AvailabilityBoth:
		h.Both++
	}
}

// Total returns the number of counted sites.
func (h AvailabilityHistogram) Total() int {
	return h.HTTPOnly + h.HTTPSOnly + h.Both
}

// MarshalJSON encodes the histogram as label/count pairs.
func (h AvailabilityHistogram) MarshalJSON() ([]byte, error) {
	return json.Marshal([][2]any{
		{AvailabilityHTTPOnly.Label(), h.HTTPOnly},
		{AvailabilityHTTPSOnly.Label(), h.HTTPSOnly},
		{AvailabilityBoth.Label(), h.Both},
	})
}

// UnmarshalJSON decodes label/count pairs.
func (h *AvailabilityHistogram) UnmarshalJSON(data []byte) error {
	var pairs [][2]json.RawMessage
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	*h = AvailabilityHistogram{}
	for _, pair := range pairs {
		var label string
		var count int
		if err := json.Unmarshal(pair[0], &label); err != nil {
			return err
		}
		if err := json.Unmarshal(pair[1], &count); err != nil {
			return err
		}
		switch label {
		case AvailabilityHTTPOnly.Label():
			h.HTTPOnly = count
		case AvailabilityHTTPSOnly.Label():
			h.HTTPSOnly = count
		case AvailabilityBoth.Label():
			h.Both = count
		default:
			return fmt.Errorf("unknown availability label %q", label)
		}
	}
	return nil
}
