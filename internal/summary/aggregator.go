package summary

import (
	"github.com/nao1215/httpsdash/internal/model"
)

// Aggregator collects site results. It is not safe for concurrent use;
// parallel site processing must hand results to it in discovery order.
type Aggregator struct {
	rows  map[model.MetricName][]model.MetricRow
	sites []model.SiteEntry
	hist  model.AvailabilityHistogram
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{rows: make(map[model.MetricName][]model.MetricRow)}
}

// Add records one successfully processed site.
func (a *Aggregator) Add(site *model.Site) {
	entry := model.SiteEntry{Site: site.SiteKey(), Availability: site.Availability}
	if partial, defined := site.HTTPSPartial(); defined {
		entry.HTTPSPartial = model.YesNo(partial)
	}
	a.sites = append(a.sites, entry)
	a.hist.Add(site.Availability)

	if site.HTTP == nil || site.HTTPS == nil {
		return
	}

	httpKey := site.HTTP.SiteKey()
	for _, name := range model.BasicMetrics {
		httpValue, _ := site.HTTP.Metric(name)
		httpsValue, _ := site.HTTPS.Metric(name)
		a.rows[name] = append(a.rows[name], model.MetricRow{URL: httpKey, HTTP: httpValue, HTTPS: httpsValue})
	}

	// The protocol-split metrics hold one capture's own (http, https)
	// object counts, keyed by that capture's site.
	a.rows[model.MetricHTTPSiteProtocolCounts] = append(a.rows[model.MetricHTTPSiteProtocolCounts], model.MetricRow{
		URL:   httpKey,
		HTTP:  float64(site.HTTP.Metrics.NumHTTPObjects),
		HTTPS: float64(site.HTTP.Metrics.NumHTTPSObjects),
	})
	a.rows[model.MetricHTTPSSiteProtocolCounts] = append(a.rows[model.MetricHTTPSSiteProtocolCounts], model.MetricRow{
		URL:   site.HTTPS.SiteKey(),
		HTTP:  float64(site.HTTPS.Metrics.NumHTTPObjects),
		HTTPS: float64(site.HTTPS.Metrics.NumHTTPSObjects),
	})
}

// Len returns the number of sites added.
func (a *Aggregator) Len() int {
	return len(a.sites)
}

// Summary sorts every metric three ways and returns the document. Metrics
// without rows are left nil.
func (a *Aggregator) Summary() *model.Summary {
	s := &model.Summary{
		Sites:        append([]model.SiteEntry{}, a.sites...),
		Availability: a.hist,
	}
	for _, name := range model.AllMetrics {
		rows := a.rows[name]
		if len(rows) == 0 {
			continue
		}
		views := ThreeWaySort(rows)
		s.SetMetric(name, &views)
	}
	return s
}
