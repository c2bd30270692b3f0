// Package nexmo is a client for the Nexmo (Vonage) legacy account REST API:
// balance, outbound pricing, number inventory and message search.
//
// Credentials travel as URL path segments, as the legacy API requires.
// Results of balance, pricing, owned-number and single-message lookups are
// cached for the lifetime of the Client and never invalidated.
package nexmo

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the production endpoint of the legacy REST API.
	DefaultBaseURL = "https://rest.nexmo.com"

	// DefaultTimeout is the HTTP timeout of the default transport.
	DefaultTimeout = 30 * time.Second
)

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the account API. It is safe for concurrent use.
type Client struct {
	apiKey    string
	apiSecret string
	baseURL   string
	doer      Doer
	logger    *slog.Logger
	cache     *cache
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. Trailing slashes are trimmed.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient replaces the transport used for every request.
func WithHTTPClient(doer Doer) Option {
	return func(c *Client) {
		if doer != nil {
			c.doer = doer
		}
	}
}

// WithTimeout sets the timeout of the default transport. Zero disables it.
// It has no effect after WithHTTPClient.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if hc, ok := c.doer.(*http.Client); ok {
			hc.Timeout = timeout
		}
	}
}

// WithLogger sets the logger for request tracing. A nil logger discards.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client for the given credentials.
func New(apiKey, apiSecret string, opts ...Option) *Client {
	c := &Client{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   DefaultBaseURL,
		doer:      &http.Client{Timeout: DefaultTimeout},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		cache:     newCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	return c
}

// BaseURL returns the endpoint requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}
