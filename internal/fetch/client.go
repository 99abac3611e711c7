// Package fetch implements the HTTP fetch abstraction the scheduler uses to
// retrieve pages and resources. SPEC_FULL.md §1 treats the HTTP client as
// an external collaborator ("a standard fetch abstraction returning status,
// headers, and body"); this package is that collaborator, built the way
// cametumbling's internal/platform/httpclient package is built.
package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout is used when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is sent when Config.UserAgent is empty.
const DefaultUserAgent = "webmirror/1.0"

// DefaultMaxBodySize caps response bodies at 32MB when Config.MaxBodySize
// is zero, to keep a single misbehaving resource from exhausting memory.
const DefaultMaxBodySize = 32 << 20

// Response is the external-collaborator contract: status, headers and body,
// nothing more. The scheduler never sees *http.Response directly.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Config configures a Client.
type Config struct {
	// Timeout is the per-request timeout (default DefaultTimeout).
	Timeout time.Duration
	// UserAgent is sent on every request (default DefaultUserAgent).
	UserAgent string
	// MaxBodySize caps the number of response bytes read (default
	// DefaultMaxBodySize).
	MaxBodySize int64
}

// Client fetches URLs with certificate verification disabled and redirects
// left unfollowed, per SPEC_FULL.md §4.2: "the fetch is performed with
// certificate verification disabled… {redirect: manual, tls: insecure}".
// This is a deliberate choice for mirroring developer/local sites (§9) and
// must not be "fixed" by following redirects or verifying certs internally
// — the scheduler owns retry and redirect handling.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxBody    int64
}

// New builds a Client from cfg, applying defaults for zero fields.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // deliberate, see SPEC_FULL.md §9
			},
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodySize,
	}
}

// Fetch retrieves rawURL and returns its status, headers and body. It does
// not follow redirects and does not interpret the status code; that is the
// scheduler's job (SPEC_FULL.md §4.2 step 8).
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading body of %s: %w", rawURL, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
