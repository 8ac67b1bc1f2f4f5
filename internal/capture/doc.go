// Package capture loads HAR (HTTP Archive) files into model.CaptureRecord
// values.
//
// Only the parts of the HAR 1.2 format the engine needs are decoded: the
// page list, and for every entry the request URL, the response content
// type and sizes, the server address and the connect timing. Entries that
// were not fetched over http or https (data: and blob: URIs, extension
// resources) are ignored.
//
// Derived scalars (object, host and handshake counts, byte totals, per-type
// counts, protocol split) are computed once by Load and stored on the
// record.
package capture
