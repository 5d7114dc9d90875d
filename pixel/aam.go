package pixel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultAAMBaseURL serves the public pixel configuration
const DefaultAAMBaseURL = "https://connect.facebook.net/signals/config/json"

// AAMSettings is the automatic advanced matching configuration of a pixel
type AAMSettings struct {
	EnableAutomaticMatching        bool     `json:"enableAutomaticMatching"`
	EnabledAutomaticMatchingFields []string `json:"enabledAutomaticMatchingFields"`
	PixelID                        string   `json:"pixelId"`
}

// FieldEnabled reports whether a user data field may be matched automatically
func (s *AAMSettings) FieldEnabled(field string) bool {
	if !s.EnableAutomaticMatching {
		return false
	}
	for _, f := range s.EnabledAutomaticMatchingFields {
		if f == field {
			return true
		}
	}
	return false
}

type aamResponse struct {
	ErrorMessage   string `json:"errorMessage"`
	MatchingConfig struct {
		EnableAutomaticMatching        bool     `json:"enableAutomaticMatching"`
		EnabledAutomaticMatchingFields []string `json:"enabledAutomaticMatchingFields"`
	} `json:"matchingConfig"`
}

// AAMClient reads pixel matching configuration outside of the Graph API
type AAMClient struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewAAMClient creates a client. An empty baseURL uses DefaultAAMBaseURL.
func NewAAMClient(baseURL string, httpClient *http.Client, logger zerolog.Logger) *AAMClient {
	if baseURL == "" {
		baseURL = DefaultAAMBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &AAMClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Settings fetches the matching configuration of a pixel
func (c *AAMClient) Settings(ctx context.Context, pixelID string) (*AAMSettings, error) {
	if pixelID == "" {
		return nil, ErrNoPixel
	}

	requestURL := fmt.Sprintf("%s/%s", c.baseURL, pixelID)
	c.logger.Debug().Str("url", requestURL).Msg("Fetching AAM settings")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAAMUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code: %d", ErrAAMUnavailable, resp.StatusCode)
	}

	var raw aamResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if raw.ErrorMessage != "" {
		return nil, fmt.Errorf("%w: %s", ErrAAMUnavailable, raw.ErrorMessage)
	}

	return &AAMSettings{
		EnableAutomaticMatching:        raw.MatchingConfig.EnableAutomaticMatching,
		EnabledAutomaticMatchingFields: raw.MatchingConfig.EnabledAutomaticMatchingFields,
		PixelID:                        pixelID,
	}, nil
}
