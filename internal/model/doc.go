// Package model defines the data structures shared by the httpsdash engine.
//
// This package contains the following main types:
//   - CaptureRecord / ObjectEntry: one loaded protocol capture of a site
//   - Site / SitePaths: a site and the captures discovered for it
//   - ObjectComparison / Comparison: per-object origin classification
//   - Profile: the per-site document read by the dashboard
//   - Summary: the cross-site document with its three sort views
//
// Models live in their own package so that capture, classify, profile,
// summary and report can share them without import cycles. Everything that
// is persisted is serializable to the JSON layout the dashboard consumes.
package model
