package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Doer executes Graph API requests. Endpoint services depend on it rather than on Client.
type Doer interface {
	Do(ctx context.Context, req *Request, out any) error
}

// Client represents a Graph API client
type Client struct {
	baseURL    string
	version    string
	userAgent  string
	httpClient *http.Client
	limiter    *Limiter
	maxRetries int
	retryDelay time.Duration
	logger     zerolog.Logger
}

// NewClient creates a new Graph API client authenticated with accessToken
func NewClient(accessToken string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: access token is required", ErrInvalidConfig)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.baseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}

	base := o.httpClient
	if base == nil {
		base = &http.Client{Timeout: o.timeout}
	}
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	httpClient := *base
	httpClient.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}),
		Base:   transport,
	}

	limiter := o.limiter
	if limiter == nil {
		limiter = NewLimiter(0, 0)
	}

	return &Client{
		baseURL:    strings.TrimRight(o.baseURL, "/"),
		version:    strings.Trim(o.version, "/"),
		userAgent:  o.userAgent,
		httpClient: &httpClient,
		limiter:    limiter,
		maxRetries: o.maxRetries,
		retryDelay: o.retryDelay,
		logger:     logger,
	}, nil
}

// Limiter returns the client's rate limiter
func (c *Client) Limiter() *Limiter {
	return c.limiter
}

// TestConnection verifies the access token by reading the token owner
func (c *Client) TestConnection(ctx context.Context) error {
	var me Node
	if err := c.Do(ctx, Get("/me").WithParams(map[string]any{"fields": "id"}), &me); err != nil {
		return err
	}

	c.logger.Debug().Str("id", me.ID).Msg("Successfully connected to the Graph API")
	return nil
}

// Do sends req and decodes the JSON response into out (which may be nil).
// Idempotent requests are re-sent with the same idempotency key after
// transport errors and transient API errors, up to the configured retries.
func (c *Client) Do(ctx context.Context, req *Request, out any) error {
	retries := 0
	if req.IsIdempotent() {
		retries = c.maxRetries
	}

	for attempt := 0; ; attempt++ {
		err := c.do(ctx, req, out)
		if err == nil || attempt >= retries || !Retryable(err) || ctx.Err() != nil {
			return err
		}

		delay := c.retryDelay * time.Duration(attempt+1)
		c.logger.Warn().
			Err(err).
			Str("request", req.String()).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("Retrying idempotent Graph API request")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

func (c *Client) do(ctx context.Context, req *Request, out any) error {
	bucket := req.RateLimitID()
	if err := c.limiter.Wait(ctx, bucket); err != nil {
		return err
	}

	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return err
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Str("bucket", bucket).
		Msg("Making Graph API request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %w", ErrRequestFailed, err)
	}

	usage := ParseUsage(resp.Header)
	if usage.Max() > 0 {
		c.logger.Trace().
			Str("bucket", bucket).
			Int("usage", usage.Max()).
			Msg("Graph API rate limit usage")
	}

	var env Envelope
	if len(raw) > 0 {
		// Bodies that are not JSON objects carry no error envelope.
		_ = json.Unmarshal(raw, &env)
	}

	if env.Error != nil {
		env.Error.StatusCode = resp.StatusCode
		env.Error.Body = string(raw)
		if env.Error.IsRateLimited() {
			rlErr := c.limiter.Throttle(bucket, usage.RegainAccess())
			rlErr.Cause = env.Error
			c.logger.Warn().
				Str("bucket", bucket).
				Time("throttle_end", rlErr.ThrottleEnd).
				Msg("Graph API rate limit reached")
			return rlErr
		}
		return env.Error
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       string(raw),
		}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	endpoint := c.baseURL
	if c.version != "" {
		endpoint += "/" + c.version
	}
	endpoint += "/" + strings.TrimLeft(req.Path, "/")

	query, err := req.Query()
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	payload := req.Body()
	if len(payload) > 0 && req.Method != http.MethodGet {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	return httpReq, nil
}
