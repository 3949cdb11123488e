package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/appgwatch/appgwatch/internal/cache"
	"github.com/appgwatch/appgwatch/internal/model"
)

func testConfig() model.HTTPConfig {
	return model.HTTPConfig{
		Timeout:      5 * time.Second,
		UserAgent:    "test-agent",
		MaxBodyBytes: 1 << 20,
	}
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("User-Agent = %q, want test-agent", got)
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<html><body>OK</body></html>")
	}))
	defer server.Close()

	fetcher := NewFetcher(testConfig(), nil, 0)
	result, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(result.Body) != "<html><body>OK</body></html>" {
		t.Errorf("Unexpected body: %s", result.Body)
	}
	if result.FromCache {
		t.Error("First fetch should not be served from cache")
	}
}

func TestFetch_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewFetcher(testConfig(), nil, 0)
	if _, err := fetcher.Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("Expected error on 404")
	}
}

func TestFetch_MaxBodyBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, strings.Repeat("x", 100))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.MaxBodyBytes = 10
	fetcher := NewFetcher(cfg, nil, 0)
	result, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(result.Body) != 10 {
		t.Errorf("Body length = %d, want 10", len(result.Body))
	}
}

func TestFetch_ServesFromCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, "<html>page</html>")
	}))
	defer server.Close()

	c := cache.NewMemoryCache(time.Hour, time.Hour)
	fetcher := NewFetcher(testConfig(), c, time.Hour)

	for i := 0; i < 3; i++ {
		result, err := fetcher.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Fetch %d: %v", i, err)
		}
		if string(result.Body) != "<html>page</html>" {
			t.Errorf("Unexpected body: %s", result.Body)
		}
		if wantCached := i > 0; result.FromCache != wantCached {
			t.Errorf("Fetch %d: FromCache = %v, want %v", i, result.FromCache, wantCached)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("Server hit %d times, want 1", hits.Load())
	}
}

func TestStatusOf(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	fetcher := NewFetcher(testConfig(), nil, 0)
	status, err := fetcher.StatusOf(context.Background(), server.URL+"/gone")
	if err != nil {
		t.Fatalf("StatusOf: %v", err)
	}
	if status != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", status)
	}
}

func TestMarkdown_ConvertsAndTruncates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<html><body><h1>Officers</h1><p>Jane Smith</p>")
		_, _ = fmt.Fprint(w, `<img src="data:image/svg+xml;base64,AAAA">`)
		_, _ = fmt.Fprint(w, "</body></html>")
	}))
	defer server.Close()

	fetcher := NewFetcher(testConfig(), nil, 0)
	text, err := fetcher.Markdown(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	if !strings.Contains(text, "Officers") || !strings.Contains(text, "Jane Smith") {
		t.Errorf("Markdown missing content: %q", text)
	}
	if strings.Contains(text, "data:image/") {
		t.Errorf("Inline image data should be stripped: %q", text)
	}
	if len(text) > maxMarkdownChars {
		t.Errorf("Markdown length %d exceeds cap", len(text))
	}
}
