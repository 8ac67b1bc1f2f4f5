package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/nao1215/httpsdash/internal/model"
)

// bytesPerMB converts byte totals into the megabyte figure of summaries.
const bytesPerMB = 1_000_000

// Load reads the HAR file at path. A missing file yields an error wrapping
// model.ErrInputNotFound; a malformed one yields a *model.ParseError.
func Load(path string) (*model.CaptureRecord, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from directory discovery or the command line
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", model.ErrInputNotFound, path)
		}
		return nil, &model.ParseError{Path: path, Reason: "cannot open capture", Err: err}
	}
	defer f.Close()

	return Parse(f, path)
}

// Parse decodes a HAR document from r. path is only used in errors and
// stored on the record.
func Parse(r io.Reader, path string) (*model.CaptureRecord, error) {
	var doc harFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &model.ParseError{Path: path, Reason: "invalid JSON", Err: err}
	}
	if doc.Log == nil {
		return nil, &model.ParseError{Path: path, Reason: `missing "log" object`}
	}
	if doc.Log.Entries == nil {
		return nil, &model.ParseError{Path: path, Reason: `missing "log.entries" array`}
	}

	pageURL := pageURLOf(doc.Log)
	if pageURL == "" {
		return nil, &model.ParseError{Path: path, Reason: "no page URL in capture"}
	}

	record := &model.CaptureRecord{
		Path:    path,
		URL:     pageURL,
		Objects: make([]model.ObjectEntry, 0, len(doc.Log.Entries)),
	}

	handshakes := 0
	for i, entry := range doc.Log.Entries {
		obj, ok, err := objectOf(entry)
		if err != nil {
			return nil, &model.ParseError{Path: path, Reason: fmt.Sprintf("entry %d", i), Err: err}
		}
		if !ok {
			continue
		}
		record.Objects = append(record.Objects, obj)
		if entry.Timings.Connect != nil && *entry.Timings.Connect >= 0 {
			handshakes++
		}
	}

	record.Metrics = computeMetrics(record.Objects, record.Hostname())
	record.Metrics.NumTCPHandshakes = handshakes
	return record, nil
}

// pageURLOf returns the URL of the loaded page: the first page title when
// it is an absolute http(s) URL (browsers record the URL there), otherwise
// the first http(s) request.
func pageURLOf(log *harLog) string {
	if len(log.Pages) > 0 && isWebURL(log.Pages[0].Title) {
		return log.Pages[0].Title
	}
	for _, entry := range log.Entries {
		if isWebURL(entry.Request.URL) {
			return entry.Request.URL
		}
	}
	return ""
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// objectOf converts one entry. ok is false for entries that were not
// fetched over the network.
func objectOf(entry harEntry) (model.ObjectEntry, bool, error) {
	if entry.Request.URL == "" {
		return model.ObjectEntry{}, false, errors.New("request without URL")
	}
	scheme, host, p := splitURL(entry.Request.URL)
	if scheme != "http" && scheme != "https" {
		return model.ObjectEntry{}, false, nil
	}
	if host == "" {
		return model.ObjectEntry{}, false, fmt.Errorf("request URL %q has no host", entry.Request.URL)
	}

	mimeType := normalizeMIME(entry.Response.Content.MimeType)
	return model.ObjectEntry{
		Filename: NormalizeFilename(p),
		Host:     strings.ToLower(host),
		Protocol: scheme,
		URL:      entry.Request.URL,
		MimeType: mimeType,
		Type:     ObjectTypeOf(mimeType, p),
		Size:     objectSize(entry.Response),
		ServerIP: strings.Trim(entry.ServerIPAddress, "[]"),
	}, true, nil
}

// splitURL returns the lower-cased scheme, host and path of raw. Browsers
// record URLs that net/url rejects, such as bad percent escapes, so those
// are split on the raw string and keep their path undecoded.
func splitURL(raw string) (scheme, host, path string) {
	if u, err := url.Parse(raw); err == nil {
		return strings.ToLower(u.Scheme), u.Host, u.Path
	}
	scheme, rest, found := strings.Cut(raw, "://")
	if !found {
		return "", "", ""
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	host, path, found = strings.Cut(rest, "/")
	if found {
		path = "/" + path
	}
	if i := strings.LastIndex(host, "@"); i >= 0 {
		host = host[i+1:]
	}
	return strings.ToLower(scheme), host, path
}

// NormalizeFilename maps the empty path to the root token.
func NormalizeFilename(p string) string {
	if p == "" {
		return model.RootFilename
	}
	return p
}

// objectSize prefers the transferred body size and falls back to the
// decoded content size. Unknown sizes (-1) count as zero.
func objectSize(resp harResponse) int64 {
	if resp.BodySize > 0 {
		return resp.BodySize
	}
	if resp.Content.Size > 0 {
		return resp.Content.Size
	}
	return 0
}

func computeMetrics(objects []model.ObjectEntry, pageHost string) model.CaptureMetrics {
	m := model.CaptureMetrics{
		NumObjects:       len(objects),
		NumObjectsByType: make(map[model.ObjectType]int, len(model.ObjectTypes)),
		NumBytesByType:   make(map[model.ObjectType]int64, len(model.ObjectTypes)),
	}
	for _, t := range model.ObjectTypes {
		m.NumObjectsByType[t] = 0
		m.NumBytesByType[t] = 0
	}

	hosts := make(map[string]struct{})
	thirdParty := make(map[string]struct{})
	sizes := make([]int64, 0, len(objects))
	for _, obj := range objects {
		hosts[obj.Host] = struct{}{}
		if IsThirdParty(pageHost, obj.Host) {
			thirdParty[obj.Host] = struct{}{}
		}

		m.NumBytes += obj.Size
		m.NumObjectsByType[obj.Type]++
		m.NumBytesByType[obj.Type] += obj.Size
		sizes = append(sizes, obj.Size)

		switch obj.Protocol {
		case "http":
			m.NumHTTPObjects++
		case "https":
			m.NumHTTPSObjects++
		}
	}

	m.NumHosts = len(hosts)
	m.NumThirdPartyHosts = len(thirdParty)
	m.NumMBytes = float64(m.NumBytes) / bytesPerMB
	if len(sizes) > 0 {
		m.MeanObjectSize = float64(m.NumBytes) / float64(len(sizes))
		m.MedianObjectSize = median(sizes)
	}
	return m
}

func median(values []int64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}
