// Package scraper fetches book pages and extracts chapter references from
// them. Extraction is best-effort: target sites are heterogeneous and
// uncontrolled, so strategies are tried in order until one yields a
// plausible result.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// UpstreamError wraps a network or HTTP failure reaching a target site.
type UpstreamError struct {
	URL string
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }
func (e *UpstreamError) Unwrap() error { return e.Err }

// Fetcher retrieves raw page bytes over HTTP with a browser user agent and
// a simple retry policy.
type Fetcher struct {
	client *http.Client
}

// NewFetcher builds a fetcher with the given per-request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: uaTransport{
				base: &http.Transport{
					Proxy:               http.ProxyFromEnvironment,
					MaxIdleConns:        100,
					MaxIdleConnsPerHost: 10,
					ForceAttemptHTTP2:   true,
				},
			},
		},
	}
}

// Fetch returns the page body for url, or an *UpstreamError.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &UpstreamError{URL: url, Err: err}
	}

	resp, err := doWithRetry(f.client, req, 3, 500*time.Millisecond)
	if err != nil {
		return nil, &UpstreamError{URL: url, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{URL: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{URL: url, Err: err}
	}
	return body, nil
}

type uaTransport struct {
	base http.RoundTripper
}

func (t uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", defaultUserAgent)
	}
	return t.base.RoundTrip(req)
}

// doWithRetry retries on transport errors and 5xx responses with linear
// backoff. 4xx responses are returned immediately: retrying them only
// hammers the site.
func doWithRetry(c *http.Client, req *http.Request, attempts int, backoff time.Duration) (*http.Response, error) {
	var resp *http.Response
	var err error

	for i := 1; i <= attempts; i++ {
		resp, err = c.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if i == attempts {
			break
		}
		time.Sleep(backoff * time.Duration(i))
	}

	if err == nil && resp != nil {
		return nil, fmt.Errorf("HTTP %d after %d attempts", resp.StatusCode, attempts)
	}
	return nil, err
}
