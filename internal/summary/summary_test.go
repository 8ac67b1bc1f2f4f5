package summary

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"testing"

	"github.com/nao1215/httpsdash/internal/model"
)

func rowsOf(v model.SortView) []model.MetricRow {
	rows := make([]model.MetricRow, v.Len())
	for i := range rows {
		rows[i] = v.Row(i)
	}
	return rows
}

func TestThreeWaySort_NumHostsScenario(t *testing.T) {
	t.Parallel()

	rows := []model.MetricRow{
		{URL: "s1", HTTP: 3, HTTPS: 3},
		{URL: "s2", HTTP: 5, HTTPS: 2},
		{URL: "s3", HTTP: 1, HTTPS: 8},
	}
	views := ThreeWaySort(rows)

	if !slices.Equal(views.ByHTTP.HTTP, []float64{1, 3, 5}) {
		t.Errorf("ByHTTP.HTTP = %v, want [1 3 5]", views.ByHTTP.HTTP)
	}
	if !slices.Equal(views.ByHTTP.URLs, []string{"s3", "s1", "s2"}) {
		t.Errorf("ByHTTP.URLs = %v", views.ByHTTP.URLs)
	}
	if !slices.Equal(views.ByHTTP.HTTPS, []float64{8, 3, 2}) {
		t.Errorf("ByHTTP.HTTPS = %v, rows are not aligned", views.ByHTTP.HTTPS)
	}

	if !slices.Equal(views.ByHTTPS.HTTPS, []float64{2, 3, 8}) {
		t.Errorf("ByHTTPS.HTTPS = %v, want [2 3 8]", views.ByHTTPS.HTTPS)
	}
	if !slices.Equal(views.ByHTTPS.URLs, []string{"s2", "s1", "s3"}) {
		t.Errorf("ByHTTPS.URLs = %v", views.ByHTTPS.URLs)
	}
	if !slices.Equal(views.ByURL.URLs, []string{"s1", "s2", "s3"}) {
		t.Errorf("ByURL.URLs = %v", views.ByURL.URLs)
	}
}

func TestThreeWaySort_Stable(t *testing.T) {
	t.Parallel()

	rows := []model.MetricRow{
		{URL: "c.com", HTTP: 1, HTTPS: 7},
		{URL: "a.com", HTTP: 1, HTTPS: 7},
		{URL: "b.com", HTTP: 1, HTTPS: 7},
		{URL: "a.com", HTTP: 0, HTTPS: 9},
	}
	views := ThreeWaySort(rows)

	if !slices.Equal(views.ByHTTP.URLs, []string{"a.com", "c.com", "a.com", "b.com"}) {
		t.Errorf("ByHTTP.URLs = %v, ties must keep insertion order", views.ByHTTP.URLs)
	}
	if !slices.Equal(views.ByHTTPS.URLs, []string{"c.com", "a.com", "b.com", "a.com"}) {
		t.Errorf("ByHTTPS.URLs = %v, ties must keep insertion order", views.ByHTTPS.URLs)
	}
	// Equal URLs keep insertion order too: a.com (1,7) before a.com (0,9).
	if got := rowsOf(views.ByURL)[:2]; got[0].HTTP != 1 || got[1].HTTP != 0 {
		t.Errorf("ByURL first rows = %+v", got)
	}

	if rows[0].URL != "c.com" {
		t.Error("ThreeWaySort modified its input")
	}
}

func TestThreeWaySort_IsPermutation(t *testing.T) {
	t.Parallel()

	rows := []model.MetricRow{
		{URL: "d", HTTP: 4, HTTPS: 1},
		{URL: "b", HTTP: 2, HTTPS: 2},
		{URL: "a", HTTP: 9, HTTPS: 0.5},
		{URL: "c", HTTP: 2, HTTPS: 7},
		{URL: "e", HTTP: 0, HTTPS: 7},
	}
	views := ThreeWaySort(rows)

	canonical := func(rs []model.MetricRow) []model.MetricRow {
		out := slices.Clone(rs)
		sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
		return out
	}
	want := canonical(rows)
	for name, v := range map[string]model.SortView{"url": views.ByURL, "http": views.ByHTTP, "https": views.ByHTTPS} {
		if len(v.URLs) != len(v.HTTP) || len(v.HTTP) != len(v.HTTPS) {
			t.Errorf("%s view columns have different lengths", name)
			continue
		}
		if got := canonical(rowsOf(v)); !slices.Equal(got, want) {
			t.Errorf("%s view is not a permutation of the input: %v", name, got)
		}
	}
}

func capture(url string, objects, hosts, httpObjects, httpsObjects int) *model.CaptureRecord {
	return &model.CaptureRecord{
		URL: url,
		Metrics: model.CaptureMetrics{
			NumObjects:       objects,
			NumHosts:         hosts,
			NumTCPHandshakes: hosts,
			NumMBytes:        float64(objects) / 10,
			NumHTTPObjects:   httpObjects,
			NumHTTPSObjects:  httpsObjects,
		},
	}
}

func TestAggregator(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()
	agg.Add(&model.Site{Availability: model.AvailabilityHTTPOnly, HTTP: capture("http://only.com/", 4, 1, 4, 0)})
	agg.Add(&model.Site{Availability: model.AvailabilityHTTPSOnly, HTTPS: capture("https://secure.org/", 3, 2, 1, 2)})
	agg.Add(&model.Site{
		Availability: model.AvailabilityBoth,
		HTTP:         capture("http://zeta.net/", 10, 3, 10, 0),
		HTTPS:        capture("https://www.zeta.net/", 12, 4, 0, 12),
	})
	agg.Add(&model.Site{
		Availability: model.AvailabilityBoth,
		HTTP:         capture("http://alpha.net/", 20, 5, 18, 2),
		HTTPS:        capture("https://alpha.net/", 5, 2, 1, 4),
	})

	if agg.Len() != 4 {
		t.Errorf("Len() = %d, want 4", agg.Len())
	}

	s := agg.Summary()
	wantSites := []model.SiteEntry{
		{Site: "only.com", Availability: model.AvailabilityHTTPOnly},
		{Site: "secure.org", Availability: model.AvailabilityHTTPSOnly, HTTPSPartial: "yes"},
		{Site: "zeta.net", Availability: model.AvailabilityBoth, HTTPSPartial: "no"},
		{Site: "alpha.net", Availability: model.AvailabilityBoth, HTTPSPartial: "yes"},
	}
	if !slices.Equal(s.Sites, wantSites) {
		t.Errorf("Sites = %+v", s.Sites)
	}
	if s.Availability != (model.AvailabilityHistogram{HTTPOnly: 1, HTTPSOnly: 1, Both: 2}) {
		t.Errorf("Availability = %+v", s.Availability)
	}

	for _, name := range model.AllMetrics {
		views := s.Metric(name)
		if views == nil {
			t.Errorf("metric %s missing", name)
			continue
		}
		if views.ByURL.Len() != 2 {
			t.Errorf("metric %s has %d rows, want only the 2 dual-protocol sites", name, views.ByURL.Len())
		}
	}

	if !slices.Equal(s.NumObjects.ByURL.URLs, []string{"alpha.net", "zeta.net"}) {
		t.Errorf("num_objects ByURL = %v", s.NumObjects.ByURL.URLs)
	}
	if !slices.Equal(s.NumObjects.ByHTTPS.HTTPS, []float64{5, 12}) {
		t.Errorf("num_objects ByHTTPS = %v", s.NumObjects.ByHTTPS.HTTPS)
	}

	https := s.HTTPSSiteProtocolCounts.ByURL
	if !slices.Equal(https.URLs, []string{"alpha.net", "www.zeta.net"}) {
		t.Errorf("https_site_protocol_counts urls = %v, want HTTPS capture keys", https.URLs)
	}
	if https.Row(1) != (model.MetricRow{URL: "www.zeta.net", HTTP: 0, HTTPS: 12}) {
		t.Errorf("https_site_protocol_counts row = %+v", https.Row(1))
	}
	if got := s.HTTPSiteProtocolCounts.ByURL.Row(0); got != (model.MetricRow{URL: "alpha.net", HTTP: 18, HTTPS: 2}) {
		t.Errorf("http_site_protocol_counts row = %+v", got)
	}
}

func TestAggregator_NoDualSitesOmitsMetrics(t *testing.T) {
	t.Parallel()

	agg := NewAggregator()
	agg.Add(&model.Site{Availability: model.AvailabilityHTTPOnly, HTTP: capture("http://only.com/", 1, 1, 1, 0)})

	data, err := json.Marshal(agg.Summary())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	for _, name := range model.AllMetrics {
		if _, ok := doc[string(name)]; ok {
			t.Errorf("metric %s should be omitted", name)
		}
	}
	if _, ok := doc["sites"]; !ok {
		t.Error("sites list missing")
	}
}

func TestSave(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	agg := NewAggregator()
	path, err := Save(dir, agg.Summary())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if path != filepath.Join(dir, FileName) {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"sites":[],"availability":[["HTTP Only",0],["HTTPS Only",0],["Both",0]]}` + "\n"
	if string(data) != want {
		t.Errorf("summary = %s, want %s", data, want)
	}

	_, err = Save(filepath.Join(dir, "missing"), agg.Summary())
	var perr *model.PersistenceError
	if !errors.As(err, &perr) {
		t.Errorf("Save() into missing dir error = %v, want *model.PersistenceError", err)
	}
}
