package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type Options struct {
	Timeout   time.Duration
	UserAgent string
	Client    *http.Client
}

// HTTPFetcher issues GET requests over one shared client. The client is only
// read after construction, so a single fetcher is safe for concurrent use.
type HTTPFetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	logger    *slog.Logger
}

func NewHTTPFetcher(opts Options, logger *slog.Logger) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPFetcher{
		client:    opts.Client,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		logger:    logger.With("component", "http_fetcher"),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &Error{URL: url, Kind: KindTransport, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return "", classify(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused by the other tasks.
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &Error{URL: url, Kind: KindStatus, StatusCode: resp.StatusCode, Err: ErrStatus}
	}

	// Decode to UTF-8 using the Content-Type charset, falling back to the
	// document's meta tags.
	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", classify(url, err)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", classify(url, err)
	}

	f.logger.Debug("fetched page", "url", url, "status", resp.StatusCode, "bytes", len(body), "duration", time.Since(start))
	return string(body), nil
}

func classify(url string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{URL: url, Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{URL: url, Kind: KindTimeout, Err: err}
	}
	return &Error{URL: url, Kind: KindTransport, Err: err}
}
