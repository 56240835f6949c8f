package downloader

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brogergvhs/yandanshe/internal/providers"
	"golang.org/x/sync/errgroup"
)

// Progress receives per-chapter counters. MarkDone is only called when the
// chapter succeeded. ui.ProgressHandle satisfies it.
type Progress interface {
	Update(done, total int, bytes int64)
	MarkDone()
}

type Downloader struct {
	client     *http.Client
	prepare    func(*http.Request)
	skipBroken bool
	attempts   int
	backoff    time.Duration
}

// New returns a downloader sending image requests through c. prepare, when
// set, is applied to every request before it is sent.
func New(c *http.Client, prepare func(*http.Request), skipBroken bool) *Downloader {
	return &Downloader{
		client:     c,
		prepare:    prepare,
		skipBroken: skipBroken,
		attempts:   3,
		backoff:    time.Second,
	}
}

type chapterState struct {
	mu          sync.Mutex
	doneImages  int
	totalImages int
	doneBytes   int64
	ph          Progress
}

func (cs *chapterState) addBytes(delta int64) {
	cs.mu.Lock()
	cs.doneBytes += delta
	cs.ph.Update(cs.doneImages, cs.totalImages, cs.doneBytes)
	cs.mu.Unlock()
}

func (cs *chapterState) finishImage() {
	cs.mu.Lock()
	cs.doneImages++
	cs.ph.Update(cs.doneImages, cs.totalImages, cs.doneBytes)
	cs.mu.Unlock()
}

// DownloadPages writes every page into folder, at most maxParallel at a time.
// Inline pages are decoded from base64. The returned files are sorted by
// page index.
func (d *Downloader) DownloadPages(
	ctx context.Context,
	pages []providers.Page,
	folder string,
	maxParallel int,
	ph Progress,
) ([]string, int64, error) {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, 0, err
	}

	if ph == nil {
		ph = nopProgress{}
	}

	total := len(pages)
	width := pageWidth(total)
	cs := &chapterState{totalImages: total, ph: ph}
	ph.Update(0, total, 0)

	var (
		mu    sync.Mutex
		files = make([]string, 0, total)
		errs  []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, maxParallel))

	for _, p := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			file, err := d.savePage(gctx, p, folder, width, cs.addBytes)
			cs.finishImage()

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("image %d: %w", p.Index+1, err))
				return nil
			}
			files = append(files, file)

			return nil
		})
	}

	err := g.Wait()
	sort.Strings(files)

	if err != nil {
		return files, cs.doneBytes, err
	}

	if len(errs) > 0 && !d.skipBroken {
		return files, cs.doneBytes, fmt.Errorf("failed %d/%d images (use --skip-broken to continue): %w", len(errs), total, errs[0])
	}

	ph.MarkDone()
	return files, cs.doneBytes, nil
}

func (d *Downloader) savePage(ctx context.Context, p providers.Page, folder string, width int, progress func(delta int64)) (string, error) {
	if p.Base64 != "" {
		data, err := base64.StdEncoding.DecodeString(p.Base64)
		if err != nil {
			return "", fmt.Errorf("decode inline page: %w", err)
		}

		out := filepath.Join(folder, pageName(p.Index, width, ".png"))
		if err := os.WriteFile(out, data, 0644); err != nil {
			return "", err
		}
		progress(int64(len(data)))

		return out, nil
	}

	out := filepath.Join(folder, pageName(p.Index, width, imageExt(p.URL)))
	if err := d.downloadWithRetry(ctx, p.URL, out, progress); err != nil {
		return "", err
	}

	return out, nil
}

// pageWidth is the zero padding that keeps page names of a chapter with
// total pages in index order when sorted as strings.
func pageWidth(total int) int {
	return max(3, len(strconv.Itoa(total)))
}

func pageName(index int32, width int, ext string) string {
	return fmt.Sprintf("page_%0*d%s", width, index+1, ext)
}

func imageExt(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ".jpg"
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		return ".jpg"
	}

	return ext
}

func (d *Downloader) downloadWithRetry(ctx context.Context, u, output string, progress func(delta int64)) error {
	var err error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		var written int64
		written, err = d.download(ctx, u, output, progress)
		if err == nil {
			return nil
		}

		// Roll back the byte counter for the failed attempt.
		if written > 0 {
			progress(-written)
		}

		if attempt == d.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * d.backoff):
		}
	}

	return err
}

func (d *Downloader) download(ctx context.Context, u, output string, progress func(delta int64)) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}

	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	if d.prepare != nil {
		d.prepare(req)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, _ := mime.ParseMediaType(ct); !strings.HasPrefix(mt, "image/") {
			return 0, fmt.Errorf("unexpected MIME: %s", ct)
		}
	}

	f, err := os.Create(output)
	if err != nil {
		return 0, err
	}

	written, err := io.Copy(f, &progressReader{r: resp.Body, progress: progress})
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	return written, err
}

type progressReader struct {
	r        io.Reader
	progress func(delta int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.progress != nil {
		p.progress(int64(n))
	}

	return n, err
}

type nopProgress struct{}

func (nopProgress) Update(int, int, int64) {}
func (nopProgress) MarkDone()              {}
