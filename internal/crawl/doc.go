// Package crawl profiles one crawl directory end to end.
//
// A run discovers the capture pairs of the input directory, processes every
// site through the site pipeline, merges the results in discovery order into
// the cross-site summary and writes it next to the profiles. Screenshots
// found in the input directory are copied into the output directory and,
// when enabled, renamed and thumbnailed. The run is recorded in the history
// database when one is supplied.
//
// Only a failure to write into the output directory aborts a run. Sites
// that cannot be loaded are logged and listed in Result.Report.Failed.
package crawl
