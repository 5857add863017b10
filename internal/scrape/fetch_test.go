package scrape

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/offerarena/offerarena/internal/domain"
)

func TestIsURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"https://example.com/job", true},
		{"http://example.com", true},
		{"  https://example.com/careers/123  ", true},
		{"example.com/job", false},
		{"ftp://example.com/job", false},
		{"Senior Engineer role building data pipelines", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsURL(tt.input); got != tt.want {
			t.Errorf("IsURL(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFetchExtractsParagraphs(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<h1>Careers</h1>
			<p>Senior Engineer role building data pipelines.</p>
			<div><p>Competitive compensation.</p></div>
			<script>ignored()</script>
		</body></html>`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	got, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	want := "Senior Engineer role building data pipelines.\nCompetitive compensation."
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestFetchNoParagraphsReturnsSentinel(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1>Nothing here</h1></body></html>`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	got, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if got != NoContentSentinel {
		t.Errorf("Expected sentinel %q, got %q", NoContentSentinel, got)
	}
}

func TestFetchHTTPErrorIsFetchError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}

	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected FetchError, got %T: %v", err, err)
	}
	if !strings.Contains(fetchErr.Error(), "404") {
		t.Errorf("Expected status in error, got %q", fetchErr.Error())
	}
}

func TestFetchNetworkErrorIsFetchError(t *testing.T) {
	t.Parallel()

	f := NewHTTPFetcher(time.Second)
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/unreachable")
	if err == nil {
		t.Fatal("Expected error for unreachable host")
	}

	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected FetchError, got %T: %v", err, err)
	}
}
