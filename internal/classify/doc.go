// Package classify compares the objects of a site's HTTP and HTTPS captures
// and labels every filename with its origin-consistency status.
package classify
