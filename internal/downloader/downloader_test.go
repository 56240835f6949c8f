package downloader

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brogergvhs/yandanshe/internal/providers"
)

type recordingProgress struct {
	mu       sync.Mutex
	updates  int
	lastDone int
	done     bool
}

func (p *recordingProgress) Update(done, _ int, _ int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates++
	p.lastDone = done
}

func (p *recordingProgress) MarkDone() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = true
}

func newImageServer(t *testing.T) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Referer") != "https://yandanshe.com" {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		switch r.URL.Path {
		case "/missing.jpg":
			w.WriteHeader(http.StatusNotFound)
		case "/page.html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		default:
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("img:" + r.URL.Path))
		}
	}))
	t.Cleanup(ts.Close)

	return ts
}

func setReferer(req *http.Request) {
	req.Header.Set("Referer", "https://yandanshe.com")
}

func newTestDownloader(c *http.Client, skipBroken bool) *Downloader {
	d := New(c, setReferer, skipBroken)
	d.backoff = time.Millisecond
	return d
}

func TestDownloadPages(t *testing.T) {
	ts := newImageServer(t)
	folder := filepath.Join(t.TempDir(), "ch_tmp")
	inline := base64.StdEncoding.EncodeToString([]byte("png"))

	pages := []providers.Page{
		{Index: 0, URL: ts.URL + "/a.jpg"},
		{Index: 1, URL: ts.URL + "/b.webp?x=1"},
		{Index: 2, Base64: inline},
	}

	ph := &recordingProgress{}
	files, n, err := newTestDownloader(ts.Client(), false).DownloadPages(context.Background(), pages, folder, 2, ph)
	if err != nil {
		t.Fatalf("DownloadPages: %v", err)
	}

	want := []string{
		filepath.Join(folder, "page_001.jpg"),
		filepath.Join(folder, "page_002.webp"),
		filepath.Join(folder, "page_003.png"),
	}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Errorf("files = %v, want %v", files, want)
	}

	b, err := os.ReadFile(want[0])
	if err != nil || string(b) != "img:/a.jpg" {
		t.Errorf("page 1 = %q, %v", b, err)
	}
	b, err = os.ReadFile(want[2])
	if err != nil || string(b) != "png" {
		t.Errorf("inline page = %q, %v", b, err)
	}

	wantBytes := int64(len("img:/a.jpg") + len("img:/b.webp") + len("png"))
	if n != wantBytes {
		t.Errorf("bytes = %d, want %d", n, wantBytes)
	}
	if !ph.done || ph.lastDone != 3 {
		t.Errorf("progress done=%t last=%d", ph.done, ph.lastDone)
	}
}

func TestDownloadPagesFailure(t *testing.T) {
	ts := newImageServer(t)
	pages := []providers.Page{
		{Index: 0, URL: ts.URL + "/a.jpg"},
		{Index: 1, URL: ts.URL + "/missing.jpg"},
		{Index: 2, URL: ts.URL + "/page.html"},
	}

	t.Run("strict", func(t *testing.T) {
		ph := &recordingProgress{}
		files, _, err := newTestDownloader(ts.Client(), false).DownloadPages(context.Background(), pages, t.TempDir(), 3, ph)
		if err == nil || !strings.Contains(err.Error(), "failed 2/3 images") {
			t.Fatalf("err = %v", err)
		}
		if len(files) != 1 {
			t.Errorf("files = %v", files)
		}
		if ph.done {
			t.Error("failed chapter marked done")
		}
	})

	t.Run("skip broken", func(t *testing.T) {
		ph := &recordingProgress{}
		files, _, err := newTestDownloader(ts.Client(), true).DownloadPages(context.Background(), pages, t.TempDir(), 3, ph)
		if err != nil {
			t.Fatalf("err = %v", err)
		}
		if len(files) != 1 || !ph.done {
			t.Errorf("files=%v done=%t", files, ph.done)
		}
	})
}

func TestDownloadPagesWithoutPrepare(t *testing.T) {
	ts := newImageServer(t)

	d := New(ts.Client(), nil, false)
	d.attempts = 1

	_, _, err := d.DownloadPages(context.Background(), []providers.Page{{URL: ts.URL + "/a.jpg"}}, t.TempDir(), 1, nil)
	if err == nil {
		t.Error("request without referer should be rejected by the server")
	}
}

func TestDownloadPagesCancelled(t *testing.T) {
	ts := newImageServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := newTestDownloader(ts.Client(), true).DownloadPages(ctx, []providers.Page{{URL: ts.URL + "/a.jpg"}}, t.TempDir(), 1, nil)
	if err == nil {
		t.Error("expected context error")
	}
}

func TestImageExt(t *testing.T) {
	tests := map[string]string{
		"https://x/a.JPG":      ".jpg",
		"https://x/a.png?w=1":  ".png",
		"https://x/noext":      ".jpg",
		"https://x/dir.v2/img": ".jpg",
	}

	for in, want := range tests {
		if got := imageExt(in); got != want {
			t.Errorf("imageExt(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPageName(t *testing.T) {
	tests := []struct {
		index int32
		total int
		want  string
	}{
		{0, 1, "page_001.jpg"},
		{99, 999, "page_100.jpg"},
		{0, 1000, "page_0001.jpg"},
		{1099, 1200, "page_1100.jpg"},
	}

	for _, tt := range tests {
		if got := pageName(tt.index, pageWidth(tt.total), ".jpg"); got != tt.want {
			t.Errorf("pageName(%d) of %d = %q, want %q", tt.index, tt.total, got, tt.want)
		}
	}
}

func TestPageNamesSortInIndexOrder(t *testing.T) {
	const total = 1200
	width := pageWidth(total)

	names := make([]string, total)
	for i := range names {
		names[i] = pageName(int32(i), width, ".jpg")
	}

	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	for i := range names {
		if sorted[i] != names[i] {
			t.Fatalf("position %d: sorted %q, want %q", i, sorted[i], names[i])
		}
	}
}
