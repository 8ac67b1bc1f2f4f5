// Package server serves crawl results to the dashboard.
//
// The profile root holds main-manifest.json, one directory per crawl date
// with its crawl-manifest.json, and below it one directory per user agent
// containing summary.json, site_profiles/ and site_screenshots/. The server
// exposes these documents under /api, the raw tree under /files, and
// Prometheus metrics under /metrics.
package server
