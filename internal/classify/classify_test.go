package classify

import (
	"errors"
	"slices"
	"testing"

	"github.com/nao1215/httpsdash/internal/model"
)

func record(url string, objects ...model.ObjectEntry) *model.CaptureRecord {
	return &model.CaptureRecord{URL: url, Objects: objects}
}

func obj(filename, host, protocol string) model.ObjectEntry {
	return model.ObjectEntry{Filename: filename, Host: host, Protocol: protocol}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		http  string
		https string
		want  model.ObjectStatus
	}{
		{name: "https only", http: "", https: "a.com", want: model.StatusHTTPSOnly},
		{name: "http only", http: "a.com", https: "", want: model.StatusHTTPOnly},
		{name: "different", http: "a.com", https: "b.com", want: model.StatusDifferent},
		{name: "same", http: "a.com", https: "a.com", want: model.StatusSame},
		{name: "both empty falls back to same", http: "", https: "", want: model.StatusSame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Status(tt.http, tt.https); got != tt.want {
				t.Errorf("Status(%q, %q) = %v, want %v", tt.http, tt.https, got, tt.want)
			}
		})
	}
}

func TestCompare_SameOrigin(t *testing.T) {
	t.Parallel()

	httpCapture := record("http://example.com/",
		obj("/", "example.com", "http"),
		obj("/a.png", "cdn1.example.com", "http"),
	)
	httpsCapture := record("https://example.com/",
		obj("/", "example.com", "https"),
		obj("/a.png", "cdn1.example.com", "https"),
	)

	result, err := Compare(httpCapture, httpsCapture)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	for _, o := range result.Objects {
		if o.Status != model.StatusSame {
			t.Errorf("%s status = %v, want SAME", o.Filename, o.Status)
		}
	}
	if result.Counts.HTTPOnly != 0 || result.Counts.HTTPSOnly != 0 {
		t.Errorf("Counts = %+v", result.Counts)
	}
	png := result.Objects[1]
	if png.Filename != "/a.png" || png.HTTPOrigin != "cdn1.example.com" || png.HTTPSProtocol != "https" || png.ThirdParty {
		t.Errorf("Objects[1] = %+v", png)
	}
}

func TestCompare_HTTPOnlyObject(t *testing.T) {
	t.Parallel()

	httpCapture := record("http://a.com/", obj("/", "a.com", "http"), obj("/x.js", "a.com", "http"))
	httpsCapture := record("https://a.com/", obj("/", "a.com", "https"))

	result, err := Compare(httpCapture, httpsCapture)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	idx := slices.IndexFunc(result.Objects, func(o model.ObjectComparison) bool { return o.Filename == "/x.js" })
	if idx < 0 {
		t.Fatal("/x.js missing from comparison")
	}
	got := result.Objects[idx]
	if got.Status != model.StatusHTTPOnly || got.HTTPOrigin != "a.com" || got.HTTPSOrigin != "" {
		t.Errorf("/x.js = %+v, want HTTP_ONLY from a.com", got)
	}
}

func TestCompare_UnionOrderAndCounts(t *testing.T) {
	t.Parallel()

	httpCapture := record("http://site.com/",
		obj("/", "site.com", "http"),
		obj("/b.css", "site.com", "http"),
		obj("/a.js", "old-cdn.net", "http"),
		obj("/b.css", "static.site.com", "http"),
	)
	httpsCapture := record("https://site.com/",
		obj("/z.png", "img.site.com", "https"),
		obj("/", "site.com", "https"),
		obj("/a.js", "new-cdn.net", "https"),
		obj("/y.png", "img.site.com", "https"),
	)

	result, err := Compare(httpCapture, httpsCapture)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	var order []string
	for _, o := range result.Objects {
		order = append(order, o.Filename)
	}
	want := []string{"/", "/b.css", "/a.js", "/z.png", "/y.png"}
	if !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}

	if result.Objects[1].HTTPOrigin != "static.site.com" {
		t.Errorf("duplicate filename should keep last origin, got %q", result.Objects[1].HTTPOrigin)
	}
	if !result.Objects[2].ThirdParty || result.Objects[2].Status != model.StatusDifferent {
		t.Errorf("/a.js = %+v, want third-party DIFFERENT", result.Objects[2])
	}

	if result.Counts.Total() != len(want) {
		t.Errorf("Counts.Total() = %d, want %d", result.Counts.Total(), len(want))
	}
	wantCounts := model.StatusCounts{Same: 1, Different: 1, HTTPOnly: 1, HTTPSOnly: 2}
	if result.Counts != wantCounts {
		t.Errorf("Counts = %+v, want %+v", result.Counts, wantCounts)
	}
}

func TestCompare_SingleCapture(t *testing.T) {
	t.Parallel()

	httpsCapture := record("https://foo.com/",
		obj("/", "foo.com", "https"),
		obj("/legacy.gif", "foo.com", "http"),
	)

	result, err := Compare(nil, httpsCapture)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if result.Counts.HTTPSOnly != 2 || result.Counts.Total() != 2 {
		t.Errorf("Counts = %+v, want 2 HTTPS_ONLY", result.Counts)
	}
	if result.Objects[1].HTTPSProtocol != "http" {
		t.Errorf("protocol of /legacy.gif = %q, want http", result.Objects[1].HTTPSProtocol)
	}
}

func TestCompare_RootOnly(t *testing.T) {
	t.Parallel()

	httpCapture := record("http://bare.org", obj(model.RootFilename, "bare.org", "http"))
	httpsCapture := record("https://bare.org/", obj(model.RootFilename, "bare.org", "https"))

	result, err := Compare(httpCapture, httpsCapture)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if len(result.Objects) != 1 {
		t.Fatalf("len(Objects) = %d, want 1", len(result.Objects))
	}
	if result.Objects[0].Filename != "/" || result.Objects[0].Status != model.StatusSame {
		t.Errorf("Objects[0] = %+v", result.Objects[0])
	}
}

func TestCompare_Fallback(t *testing.T) {
	t.Parallel()

	httpCapture := record("http://a.com/", obj("/odd", "", "http"))
	result, err := Compare(httpCapture, record("https://a.com/"))
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if result.Fallbacks != 1 || result.Objects[0].Status != model.StatusSame {
		t.Errorf("Fallbacks = %d, status = %v", result.Fallbacks, result.Objects[0].Status)
	}
}

func TestCompare_NoCapture(t *testing.T) {
	t.Parallel()

	if _, err := Compare(nil, nil); !errors.Is(err, ErrNoCapture) {
		t.Errorf("Compare(nil, nil) error = %v, want ErrNoCapture", err)
	}
}

func TestOrderByScheme(t *testing.T) {
	t.Parallel()

	plain := record("http://a.com/")
	secure := record("https://a.com/")

	h, s := OrderByScheme(secure, plain)
	if h != plain || s != secure {
		t.Error("OrderByScheme did not put the https capture second")
	}
	h, s = OrderByScheme(plain, secure)
	if h != plain || s != secure {
		t.Error("OrderByScheme changed an already ordered pair")
	}
}
