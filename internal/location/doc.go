// Package location maps origin hosts to "City, Country" strings for the
// console comparison table.
//
// A Cache is created for one run and passed to whatever prints locations.
// It resolves a host to an IP address, preferring the address recorded in
// the capture, and looks the address up in a GeoIP2 City database. Lookups
// that fail produce an empty location rather than an error.
package location
