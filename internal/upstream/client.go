// SPDX-License-Identifier: MIT

// Package upstream fetches pages from the video platform origin.
package upstream

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/youngsadsatan/ssYouTube/internal/ratelimit"
)

const (
	DefaultTimeout      = 15 * time.Second
	DefaultMaxBodyBytes = 8 << 20
	idleConnTimeout     = 90 * time.Second
	maxIdleConnsPerHost = 8
)

// Page is a fetched document.
type Page struct {
	// FinalURL is the URL after following redirects.
	FinalURL string
	Status   int
	Body     []byte
}

// Options configure a Client. Zero values take defaults.
type Options struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64
	Pacer        *ratelimit.Pacer
	// Transport overrides the base round tripper (tests).
	Transport http.RoundTripper
}

// Client performs paced, timeout-bounded GET requests.
type Client struct {
	http      *http.Client
	userAgent string
	maxBody   int64
	pacer     *ratelimit.Pacer
}

// New creates a client. Requests are traced through otelhttp.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	base := opts.Transport
	if base == nil {
		base = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        32,
			MaxIdleConnsPerHost: maxIdleConnsPerHost,
			IdleConnTimeout:     idleConnTimeout,
			TLSHandshakeTimeout: 10 * time.Second,
		}
	}
	return &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(base),
		},
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodyBytes,
		pacer:     opts.Pacer,
	}
}

// Get fetches rawURL. A non-2xx response is returned as an *Error with
// ErrStatus (or ErrRateLimited for 429).
func (c *Client) Get(ctx context.Context, rawURL string) (*Page, error) {
	host := hostOf(rawURL)
	if err := c.pacer.WaitURL(ctx, rawURL); err != nil {
		observeRequest(host, "paced_out")
		return nil, c.fail(rawURL, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Sentinel: ErrUnavailable, Op: "GET", URL: rawURL, Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept-Encoding", "br, gzip")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observeRequest(host, "transport_error")
		return nil, c.fail(rawURL, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		sentinel := ErrStatus
		if resp.StatusCode == http.StatusTooManyRequests {
			sentinel = ErrRateLimited
		}
		observeRequest(host, "status_"+statusClass(resp.StatusCode))
		return nil, &Error{Sentinel: sentinel, Op: "GET", URL: rawURL, Status: resp.StatusCode}
	}

	body, err := c.readBody(resp)
	if err != nil {
		observeRequest(host, "bad_body")
		if ctx.Err() != nil {
			return nil, c.fail(rawURL, resp.StatusCode, err)
		}
		return nil, &Error{Sentinel: ErrBadResponse, Op: "GET", URL: rawURL, Status: resp.StatusCode, Err: err}
	}
	observeRequest(host, "ok")
	observeLatency(host, time.Since(start))

	return &Page{FinalURL: finalURL, Status: resp.StatusCode, Body: body}, nil
}

func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		r = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	case "", "identity":
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}
	body, err := io.ReadAll(io.LimitReader(r, c.maxBody+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("body exceeds %d bytes", c.maxBody)
	}
	return body, nil
}

func (c *Client) fail(rawURL string, status int, err error) error {
	sentinel := ErrUnavailable
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		sentinel = ErrTimeout
	}
	return &Error{Sentinel: sentinel, Op: "GET", URL: rawURL, Status: status, Err: err}
}

func statusClass(code int) string {
	switch {
	case code == http.StatusTooManyRequests:
		return "429"
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	default:
		return "other"
	}
}
