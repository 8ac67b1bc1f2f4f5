// Package database stores the history of crawl runs in SQLite.
//
// Every run of the profile engine is recorded with a UUID, its input and
// output directories and the number of processed and failed sites. For each
// processed site the availability, the https_partial flag and the SHA3-256
// digest of its profile document are kept, so a later run into the same
// output directory can tell which profiles changed.
//
// The database is a single file opened through modernc.org/sqlite, a CGO-free
// driver.
package database
