package util

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
)

// DocumentFetcher downloads pages and parses them into goquery documents.
type DocumentFetcher struct {
	Client   *http.Client
	Attempts int
	Backoff  time.Duration
}

func NewDocumentFetcher(c *http.Client) *DocumentFetcher {
	return &DocumentFetcher{
		Client:   c,
		Attempts: 3,
		Backoff:  500 * time.Millisecond,
	}
}

func (f *DocumentFetcher) Document(ctx context.Context, target string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, br")
	req.Header.Set("Accept-Language", "zh-TW,zh;q=0.9,en;q=0.8")

	resp, err := DoWithRetry(f.Client, req, f.Attempts, f.Backoff)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        target,
		}
	}

	body, err := decodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", target, err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return doc, nil
}

// decodeBody undoes the content encoding. The transport leaves it in place
// because Accept-Encoding is set explicitly.
func decodeBody(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		return brotli.NewReader(resp.Body), nil
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "", "identity":
		return resp.Body, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}
}
