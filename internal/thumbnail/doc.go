// Package thumbnail prepares crawl screenshots for the dashboard.
//
// A screenshot named <scheme>---<site>_trial<N>.png is renamed to
// <site>-<scheme>.png and a thumbnail <site>-<scheme>_thumb.png is written
// next to it. The thumbnail shows the top of the page cropped to the
// thumbnail aspect ratio, with a white saw-tooth along the bottom edge to
// mark the cut.
package thumbnail
