// Package summary accumulates per-site results into the cross-site summary
// document.
//
// Only sites captured over both protocols contribute metric rows; every
// successfully processed site is listed and counted in the availability
// histogram. Rows keep the order sites were added in, which must be the
// discovery order, so that stable sorts leave ties in that order.
package summary
