package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; earningswatch/1.0)"

// defaultMaxBodyBytes caps how much of a page is read into memory.
const defaultMaxBodyBytes = 8 << 20

// ErrBodyTooLarge is returned when a page exceeds the configured body limit.
var ErrBodyTooLarge = errors.New("response body too large")

// TransportOptions parameterise the HTTP transport.
type TransportOptions struct {
	Timeout   time.Duration
	UserAgent string
	// MaxBodyBytes defaults to 8 MiB.
	MaxBodyBytes int64
}

// HTTPTransport fetches pages over HTTP.
type HTTPTransport struct {
	opts   TransportOptions
	client *http.Client
	logger zerolog.Logger
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// NewHTTPTransport constructs a transport with sane defaults.
func NewHTTPTransport(opts TransportOptions, logger zerolog.Logger) *HTTPTransport {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &HTTPTransport{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		logger: logger.With().Str("component", "http_transport").Logger(),
	}
}

// Get fetches url. The body is returned for every status so callers can decide.
func (t *HTTPTransport) Get(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", t.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.opts.MaxBodyBytes+1))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body of %s: %w", url, err)
	}
	if int64(len(body)) > t.opts.MaxBodyBytes {
		return resp.StatusCode, nil, fmt.Errorf("GET %s: %w (limit %d bytes)", url, ErrBodyTooLarge, t.opts.MaxBodyBytes)
	}

	t.logger.Debug().Str("url", url).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("fetched page")
	return resp.StatusCode, body, nil
}

var _ Transport = (*HTTPTransport)(nil)
