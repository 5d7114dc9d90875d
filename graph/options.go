package graph

import (
	"net/http"
	"time"
)

// Defaults for the Graph API client.
const (
	DefaultBaseURL = "https://graph.facebook.com"
	DefaultVersion = "v21.0"
	DefaultTimeout = 30 * time.Second

	DefaultMaxRetries = 2
	DefaultRetryDelay = time.Second
)

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	baseURL    string
	version    string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *Limiter
	userAgent  string
	maxRetries int
	retryDelay time.Duration
}

func defaultOptions() clientOptions {
	return clientOptions{
		baseURL:    DefaultBaseURL,
		version:    DefaultVersion,
		timeout:    DefaultTimeout,
		userAgent:  "metasync",
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
	}
}

// WithBaseURL overrides the Graph API host.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		o.baseURL = baseURL
	}
}

// WithVersion sets the Graph API version prefix, e.g. "v21.0".
// An empty version sends unversioned paths.
func WithVersion(version string) Option {
	return func(o *clientOptions) {
		o.version = version
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHTTPClient uses a custom HTTP client. Its transport is wrapped to add the access token.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithLimiter shares a rate limiter between clients.
func WithLimiter(limiter *Limiter) Option {
	return func(o *clientOptions) {
		o.limiter = limiter
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		o.userAgent = userAgent
	}
}

// WithMaxRetries sets how many times an idempotent request is re-sent after a
// transport error or a transient API error. Zero disables retries.
func WithMaxRetries(n int) Option {
	return func(o *clientOptions) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithRetryDelay sets the base delay between retries. Attempt n waits n times the delay.
func WithRetryDelay(delay time.Duration) Option {
	return func(o *clientOptions) {
		if delay >= 0 {
			o.retryDelay = delay
		}
	}
}
