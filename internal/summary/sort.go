package summary

import (
	"cmp"
	"slices"

	"github.com/nao1215/httpsdash/internal/model"
)

// ThreeWaySort returns the three sorted projections of rows: by URL
// (lexicographic), by HTTP value and by HTTPS value (numeric, ascending).
// Each projection moves whole rows, so the url, HTTP and HTTPS columns stay
// aligned, and all sorts are stable. rows is not modified.
func ThreeWaySort(rows []model.MetricRow) model.MetricViews {
	byURL := slices.Clone(rows)
	slices.SortStableFunc(byURL, func(a, b model.MetricRow) int {
		return cmp.Compare(a.URL, b.URL)
	})

	byHTTP := slices.Clone(rows)
	slices.SortStableFunc(byHTTP, func(a, b model.MetricRow) int {
		return cmp.Compare(a.HTTP, b.HTTP)
	})

	byHTTPS := slices.Clone(rows)
	slices.SortStableFunc(byHTTPS, func(a, b model.MetricRow) int {
		return cmp.Compare(a.HTTPS, b.HTTPS)
	})

	return model.MetricViews{
		ByURL:   model.NewSortView(byURL),
		ByHTTP:  model.NewSortView(byHTTP),
		ByHTTPS: model.NewSortView(byHTTPS),
	}
}
