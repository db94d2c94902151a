package httputil

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"
)

func TestDoWithRetryRecoversFrom5xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != "payload" {
			t.Errorf("attempt %d: body %q", atomic.LoadInt32(&calls)+1, body)
		}
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader("payload"))
	resp, err := DoWithRetry(srv.Client(), req, 2)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	resp.Body.Close()
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestDoWithRetryGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	if _, err := DoWithRetry(srv.Client(), req, 1); err == nil {
		t.Fatalf("expected error after retries")
	}
}

func TestDoWithRetryHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)

	start := time.Now()
	if _, err := DoWithRetry(srv.Client(), req, 5); err == nil {
		t.Fatalf("expected context error")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("retry loop ignored cancellation")
	}
}

func TestReadBody(t *testing.T) {
	var gz, br bytes.Buffer
	gw := gzip.NewWriter(&gz)
	gw.Write([]byte("hello"))
	gw.Close()
	bw := brotli.NewWriter(&br)
	bw.Write([]byte("hello"))
	bw.Close()

	tests := []struct {
		encoding string
		body     []byte
	}{
		{"", []byte("hello")},
		{"gzip", gz.Bytes()},
		{"br", br.Bytes()},
	}
	for _, tt := range tests {
		resp := &http.Response{Header: http.Header{}, Body: io.NopCloser(bytes.NewReader(tt.body))}
		if tt.encoding != "" {
			resp.Header.Set("Content-Encoding", tt.encoding)
		}
		got, err := ReadBody(resp)
		if err != nil {
			t.Fatalf("%q: %v", tt.encoding, err)
		}
		if string(got) != "hello" {
			t.Errorf("%q: got %q", tt.encoding, got)
		}
	}
}

func TestLimitedTransportSetsUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.Header.Get("User-Agent")))
	}))
	defer srv.Close()

	client := NewHTTPClient(&LimitedTransport{
		RateLimiter: rate.NewLimiter(rate.Inf, 1),
		UserAgent:   "backoffice-test",
	})
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	got, _ := io.ReadAll(resp.Body)
	if string(got) != "backoffice-test" {
		t.Fatalf("user agent: got %q", got)
	}
}
