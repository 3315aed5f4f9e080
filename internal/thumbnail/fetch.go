package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is requests per second across all sources.
	DefaultRateLimit = 1.0

	// DefaultRetries is the number of extra attempts on transient errors.
	DefaultRetries = 2

	// DefaultMaxBytes caps the size of a downloaded PDF.
	DefaultMaxBytes = 64 << 20

	// DefaultUserAgent identifies the fetcher to publishers.
	DefaultUserAgent = "bibpages/1.0"

	// pdfSniffLen is how far into the body the PDF header may appear.
	pdfSniffLen = 1024
)

// HTTPFetcher downloads PDFs with rate limiting and retries.
type HTTPFetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	retries    int
	retryDelay time.Duration
	maxBytes   int64
	timeout    time.Duration
	logger     *slog.Logger
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		f.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithRateLimit sets requests per second. Zero or less disables limiting.
func WithRateLimit(perSecond float64) FetcherOption {
	return func(f *HTTPFetcher) {
		if perSecond <= 0 {
			f.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithRetries sets the number of extra attempts on transient errors.
func WithRetries(n int) FetcherOption {
	return func(f *HTTPFetcher) {
		if n >= 0 {
			f.retries = n
		}
	}
}

// WithRetryDelay sets the base delay between attempts.
func WithRetryDelay(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.retryDelay = d
	}
}

// WithMaxBytes caps the response body size.
func WithMaxBytes(n int64) FetcherOption {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithLogger sets the logger used for retry messages.
func WithLogger(l *slog.Logger) FetcherOption {
	return func(f *HTTPFetcher) {
		f.logger = l
	}
}

// NewHTTPFetcher creates a fetcher with the given options.
func NewHTTPFetcher(opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		userAgent:  DefaultUserAgent,
		retries:    DefaultRetries,
		retryDelay: time.Second,
		maxBytes:   DefaultMaxBytes,
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch downloads url and returns the body if it looks like a PDF.
// Network errors, 429 and 5xx responses are retried; everything else fails
// immediately.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return retry.DoWithData(
		func() ([]byte, error) {
			data, err := f.fetchOnce(ctx, url)
			if err != nil && !IsTransient(err) {
				return nil, retry.Unrecoverable(err)
			}
			return data, err
		},
		retry.Context(ctx),
		retry.Attempts(uint(f.retries)+1),
		retry.Delay(f.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			f.logger.Debug("retrying fetch", "url", url, "attempt", n+1, "error", err)
		}),
	)
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetwork, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes from %s", ErrTooLarge, f.maxBytes, url)
	}
	if !hasPDFHeader(data) {
		return nil, fmt.Errorf("%w: %s (content type %q)", ErrNotPDF, url, resp.Header.Get("Content-Type"))
	}

	return data, nil
}

func hasPDFHeader(data []byte) bool {
	if len(data) > pdfSniffLen {
		data = data[:pdfSniffLen]
	}
	return bytes.Contains(data, []byte("%PDF-"))
}
