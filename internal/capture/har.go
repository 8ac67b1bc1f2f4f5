package capture

// harFile is the top-level HAR document.
type harFile struct {
	Log *harLog `json:"log"`
}

type harLog struct {
	Version string     `json:"version"`
	Pages   []harPage  `json:"pages"`
	Entries []harEntry `json:"entries"`
}

type harPage struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type harEntry struct {
	PageRef         string      `json:"pageref"`
	ServerIPAddress string      `json:"serverIPAddress"`
	Connection      string      `json:"connection"`
	Request         harRequest  `json:"request"`
	Response        harResponse `json:"response"`
	Timings         harTimings  `json:"timings"`
}

type harRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

type harResponse struct {
	Status   int        `json:"status"`
	BodySize int64      `json:"bodySize"`
	Content  harContent `json:"content"`
}

type harContent struct {
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

// harTimings holds the timing phases in milliseconds. -1 means the phase
// does not apply; a nil Connect means the field was not recorded.
type harTimings struct {
	Connect *float64 `json:"connect"`
}
