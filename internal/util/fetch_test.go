package util

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
)

const testHTML = `<html><head><title>測試</title></head><body><h1>ok</h1></body></html>`

func newTestFetcher(t *testing.T, h http.HandlerFunc) (*DocumentFetcher, string) {
	t.Helper()

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	client, err := NewHTTPClient(HTTPClientOptions{
		Timeout:   5 * time.Second,
		UserAgent: "test-agent",
		Cookie:    "a=b",
	})
	if err != nil {
		t.Fatal(err)
	}

	f := NewDocumentFetcher(client)
	f.Backoff = time.Millisecond

	return f, ts.URL
}

func TestDocumentEncodings(t *testing.T) {
	encoders := map[string]func([]byte) []byte{
		"": func(b []byte) []byte { return b },
		"gzip": func(b []byte) []byte {
			var buf bytes.Buffer
			w := gzip.NewWriter(&buf)
			_, _ = w.Write(b)
			_ = w.Close()
			return buf.Bytes()
		},
		"br": func(b []byte) []byte {
			var buf bytes.Buffer
			w := brotli.NewWriter(&buf)
			_, _ = w.Write(b)
			_ = w.Close()
			return buf.Bytes()
		},
	}

	for enc, encode := range encoders {
		t.Run("encoding "+enc, func(t *testing.T) {
			f, url := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("User-Agent") != "test-agent" || r.Header.Get("Cookie") != "a=b" {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				if enc != "" {
					w.Header().Set("Content-Encoding", enc)
				}
				_, _ = w.Write(encode([]byte(testHTML)))
			})

			doc, err := f.Document(context.Background(), url)
			if err != nil {
				t.Fatalf("Document: %v", err)
			}
			if got := doc.Find("title").Text(); got != "測試" {
				t.Errorf("title = %q", got)
			}
		})
	}
}

func TestDocumentUnsupportedEncoding(t *testing.T) {
	f, url := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "zstd")
		_, _ = w.Write([]byte("x"))
	})

	if _, err := f.Document(context.Background(), url); err == nil {
		t.Error("expected an error for an unknown encoding")
	}
}

func TestDocumentHTTPError(t *testing.T) {
	var calls atomic.Int32
	f, url := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := f.Document(context.Background(), url)

	var herr *HTTPError
	if !errors.As(err, &herr) || herr.StatusCode != http.StatusNotFound {
		t.Fatalf("err = %v, want HTTPError 404", err)
	}
	if calls.Load() != 1 {
		t.Errorf("4xx retried %d times", calls.Load())
	}
}

func TestDoWithRetry(t *testing.T) {
	var calls atomic.Int32
	f, url := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(testHTML))
	})

	if _, err := f.Document(context.Background(), url); err != nil {
		t.Fatalf("Document: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestDoWithRetryExhausted(t *testing.T) {
	var calls atomic.Int32
	f, url := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	f.Attempts = 2

	_, err := f.Document(context.Background(), url)

	var herr *HTTPError
	if !errors.As(err, &herr) || herr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("err = %v, want HTTPError 503", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestRoundTripperWaitsOnLimiter(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testHTML))
	}))
	defer ts.Close()

	client, err := NewHTTPClient(HTTPClientOptions{
		Timeout:   5 * time.Second,
		RateLimit: NewLimiter(1, time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	f := NewDocumentFetcher(client)
	f.Attempts = 1

	if _, err := f.Document(context.Background(), ts.URL); err != nil {
		t.Fatalf("first request: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := f.Document(ctx, ts.URL); err == nil {
		t.Error("second request should have been held back by the limiter")
	}
}
