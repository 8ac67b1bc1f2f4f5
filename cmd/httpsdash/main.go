// Package main provides the entry point for the httpsdash CLI.
//
// httpsdash profiles browser captures (HAR files) of sites crawled over
// both HTTP and HTTPS, and serves the results to the dashboard.
//
// Usage:
//
//	httpsdash profile <crawl-dir> -o <out-dir>
//	httpsdash compare <capture1> <capture2>
//	httpsdash serve --root <profiles-root>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
