// Package discovery finds the capture files of a crawl directory and pairs
// the HTTP and HTTPS captures of each site.
//
// Capture files are named <scheme>---<site>[_trial<N>].<ext>. Two files are
// captures of the same site when their names differ only in the scheme
// token. Files with the capture extension that do not follow the pattern
// are skipped with a warning; a file whose counterpart cannot be chosen
// unambiguously is rejected with a *model.ParseError.
package discovery
