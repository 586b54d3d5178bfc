package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// Default client settings. The command layer normally overrides these from
// the configuration; the defaults here keep the client usable on its own.
const (
	// defaultAPITimeout is the per-request timeout for API calls.
	defaultAPITimeout = 15 * time.Second

	// defaultRawTimeout is the per-request timeout for raw file downloads.
	defaultRawTimeout = 10 * time.Second

	// defaultMaxBodySize limits the response body size to 10MB.
	defaultMaxBodySize = 10 * 1024 * 1024

	// defaultUserAgent presents a mainstream browser signature.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Client performs the HTTP traffic for the harvest pipeline: GitHub REST
// API calls and raw file downloads. Timeouts are fixed per call class and
// requests are never retried; a failed fetch is reported to the caller and
// the pipeline moves on.
//
// Design decision: We use one struct with a shared http.Client rather than
// passing a client on each call because:
//  1. Request configuration (proxy, headers, limits) stays consistent
//  2. Connection pooling works better with a shared client
//  3. Easier to test with a custom client
//
// A Client is safe for concurrent use; it holds no mutable state after
// construction.
type Client struct {
	// httpClient is the shared HTTP client, optionally routed over SOCKS5.
	httpClient *http.Client

	// userAgent is sent with every request.
	userAgent string

	// token is the GitHub API token. Sent as "Authorization: token <value>"
	// on API calls only, never to the raw content host.
	token string

	// apiTimeout bounds each API request.
	apiTimeout time.Duration

	// rawTimeout bounds each raw download.
	rawTimeout time.Duration

	// maxBodySize caps how many response bytes are read.
	maxBodySize int64

	// socks5 is the optional egress proxy address.
	socks5 string
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithToken sets the GitHub API token. An empty token means
// unauthenticated requests, which is valid but rate-limited harder.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithAPITimeout sets the per-request timeout for API calls.
func WithAPITimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.apiTimeout = timeout
	}
}

// WithRawTimeout sets the per-request timeout for raw downloads.
func WithRawTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.rawTimeout = timeout
	}
}

// WithMaxBodySize sets the maximum response body size in bytes.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		c.maxBodySize = size
	}
}

// WithSOCKS5 routes all outbound connections through the given SOCKS5
// proxy ("host:port"). NewClient fails when the address is malformed.
func WithSOCKS5(address string) Option {
	return func(c *Client) {
		c.socks5 = address
	}
}

// WithHTTPClient replaces the underlying HTTP client. Intended for tests;
// it overrides any SOCKS5 setting.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new Client.
//
// Design decision: The constructor builds the transport instead of dialing
// anything, so creating a Client never touches the network and a
// misconfigured proxy address fails fast with ErrInvalidProxyAddress.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		userAgent:   defaultUserAgent,
		apiTimeout:  defaultAPITimeout,
		rawTimeout:  defaultRawTimeout,
		maxBodySize: defaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		transport := &http.Transport{
			// Two hosts at ten workers; a small pool is enough.
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     30 * time.Second,
		}

		if c.socks5 != "" {
			if !isValidProxyAddress(c.socks5) {
				return nil, ErrInvalidProxyAddress
			}
			// nil auth: local SOCKS5 proxies typically require none.
			dialer, err := proxy.SOCKS5("tcp", c.socks5, nil, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
			}
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}

		// Per-call context timeouts bound each request, so the client
		// itself carries no overall timeout.
		c.httpClient = &http.Client{Transport: transport}
	}

	return c, nil
}

// isValidProxyAddress checks that address is in "host:port" form with a
// usable port number.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// GetAPI fetches a GitHub REST API URL and returns the response body.
// The API token, when configured, is attached as an Authorization header.
func (c *Client) GetAPI(ctx context.Context, url string) ([]byte, error) {
	return c.get(ctx, url, c.apiTimeout, true)
}

// GetRaw fetches a raw file URL and returns the response body.
// No credentials are ever attached: raw content is served from a public
// host and the token must not leak outside the API.
func (c *Client) GetRaw(ctx context.Context, url string) ([]byte, error) {
	return c.get(ctx, url, c.rawTimeout, false)
}

// get performs a single GET with a fixed timeout layered onto the caller's
// context, so run cancellation still cuts requests short.
func (c *Client) get(ctx context.Context, url string, timeout time.Duration, authenticated bool) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	if authenticated && c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %d for %s", ErrHTTPStatus, resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// JoinURL joins a base URL with path segments, trimming stray slashes.
// It keeps URL construction in one place for the resolver and tests.
func JoinURL(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(base, "/"))
	for _, seg := range segments {
		b.WriteString("/")
		b.WriteString(strings.Trim(seg, "/"))
	}
	return b.String()
}
