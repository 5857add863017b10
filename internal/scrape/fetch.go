// Package scrape fetches job-description pages and extracts their visible text.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/offerarena/offerarena/internal/domain"
)

// NoContentSentinel is returned when a page yields no extractable paragraphs.
const NoContentSentinel = "No meaningful content found."

// Fetcher retrieves the visible paragraph text of a web page.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// IsURL reports whether s is a syntactically valid absolute http(s) URL.
// Only such strings are treated as a job-description link to fetch.
func IsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// HTTPFetcher fetches pages over HTTP and extracts paragraph-level text.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher with the given per-request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads pageURL and returns the joined text of its <p> elements.
// Pages without paragraphs yield NoContentSentinel. Any network or HTTP
// failure is reported as a domain.FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &domain.FetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &domain.FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &domain.FetchError{URL: pageURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", &domain.FetchError{URL: pageURL, Err: err}
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	if len(paragraphs) == 0 {
		return NoContentSentinel, nil
	}
	return strings.Join(paragraphs, "\n"), nil
}
