package crawl

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ppiankov/fourmi/internal/util"
	"github.com/rotisserie/eris"
)

// fetchSleepFunc is replaced in tests to skip backoff delays
var fetchSleepFunc = time.Sleep

const (
	defaultFetchAttempts = 3
	fetchBackoffBase     = 500 * time.Millisecond
)

// Fetcher fetches pages over HTTP
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	attempts   int
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, insecureTLS bool, httpProxy, httpsProxy, noProxy string) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(httpProxy, httpsProxy, noProxy)
	if insecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return eris.New("crawl: stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
		attempts:  defaultFetchAttempts,
	}
}

// SetAttempts sets how many times FetchWithRetry tries a URL
func (f *Fetcher) SetAttempts(n int) {
	if n < 1 {
		n = 1
	}
	f.attempts = n
}

// StatusError is a response outside the 2xx range
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// TransportError is a failure to get any response at all
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "fetch: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Response is a fetched page
type Response struct {
	URL         string // Final URL after redirects
	StatusCode  int
	ContentType string
	Body        []byte
	FromCache   bool // Served from the page cache, not the network
}

// Fetch retrieves a URL once
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "crawl: create request")
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, eris.Wrap(err, "crawl: read body")
	}

	return &Response{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// FetchWithRetry retries transient failures (5xx, 429, transport errors)
// with exponential backoff. Other failures return immediately.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt < f.attempts; attempt++ {
		if attempt > 0 {
			fetchSleepFunc(fetchBackoffBase << (attempt - 1))
			if err := ctx.Err(); err != nil {
				return nil, eris.Wrap(err, "crawl: fetch cancelled")
			}
		}

		resp, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// isRetryableFetchError reports whether a fetch error is transient:
// transport failures, 5xx and 429
func isRetryableFetchError(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
