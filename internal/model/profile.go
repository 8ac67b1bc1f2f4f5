package model

import (
	"encoding/json"
	"fmt"
)

// ProtocolCounts is the number of objects a capture fetched over each
// protocol. It is serialized as [["HTTP", n], ["HTTPS", n]].
type ProtocolCounts struct {
	HTTP  int
	HTTPS int
}

// MarshalJSON encodes the counts as label/count pairs.
func (p ProtocolCounts) MarshalJSON() ([]byte, error) {
	return json.Marshal([][2]any{{"HTTP", p.HTTP}, {"HTTPS", p.HTTPS}})
}

// UnmarshalJSON decodes label/count pairs.
func (p *ProtocolCounts) UnmarshalJSON(data []byte) error {
	var pairs [][2]json.RawMessage
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	*p = ProtocolCounts{}
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
		case "HTTP":
			p.HTTP = count
		case "HTTPS":
			p.HTTPS = count
		default:
			return fmt.Errorf("unknown protocol label %q", label)
		}
	}
	return nil
}

// Profile is the per-site document read by the dashboard. Every field that
// depends on a capture is omitted when that capture is absent.
type Profile struct {
	Availability        Availability       `json:"availability"`
	HTTPSPartial        string             `json:"https_partial,omitempty"`
	BaseURL             string             `json:"base-url"`
	HTTPURL             string             `json:"http-url,omitempty"`
	HTTPSURL            string             `json:"https-url,omitempty"`
	HTTPProfile         *CaptureMetrics    `json:"http-profile,omitempty"`
	HTTPSProfile        *CaptureMetrics    `json:"https-profile,omitempty"`
	HTTPProtocolCounts  *ProtocolCounts    `json:"http-protocol-counts,omitempty"`
	HTTPSProtocolCounts *ProtocolCounts    `json:"https-protocol-counts,omitempty"`
	StatusCounts        StatusCounts       `json:"status-counts"`
	ObjectDetails       []ObjectComparison `json:"object-details"`
}
