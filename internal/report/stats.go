package report

import (
	"slices"

	"github.com/nao1215/httpsdash/internal/model"
)

// metricTitles are display names of summary metrics.
var metricTitles = map[model.MetricName]string{
	model.MetricNumObjects:              "Objects",
	model.MetricNumTCPHandshakes:        "TCP Handshakes",
	model.MetricNumMBytes:               "Megabytes",
	model.MetricNumHosts:                "Hosts",
	model.MetricHTTPSiteProtocolCounts:  "Protocol Split (HTTP site)",
	model.MetricHTTPSSiteProtocolCounts: "Protocol Split (HTTPS site)",
}

// MetricTitle returns the display name of a metric.
func MetricTitle(name model.MetricName) string {
	if title, ok := metricTitles[name]; ok {
		return title
	}
	return string(name)
}

// metricStats summarizes one metric's rows.
type metricStats struct {
	sites       int
	httpMedian  float64
	httpsMedian float64
	// httpsHigher counts rows whose HTTPS value exceeds the HTTP value.
	httpsHigher int
}

func statsOf(views *model.MetricViews) metricStats {
	v := views.ByURL
	s := metricStats{
		sites:       v.Len(),
		httpMedian:  medianOf(v.HTTP),
		httpsMedian: medianOf(v.HTTPS),
	}
	for i := range v.Len() {
		if v.HTTPS[i] > v.HTTP[i] {
			s.httpsHigher++
		}
	}
	return s
}

func medianOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
