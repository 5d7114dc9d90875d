package graph

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Rate-limit buckets requests are billed against.
const (
	BucketDefault       = "graph_api"
	BucketCatalog       = "catalog"
	BucketOrders        = "orders"
	BucketAdsManagement = "ads_management"
	BucketAdsInsights   = "ads_insights"
	BucketPages         = "pages"
	BucketPixel         = "pixel"
	BucketFBE           = "fbe"
)

// Request describes a single Graph API call
type Request struct {
	Method string
	Path   string
	Params map[string]any
	Data   map[string]any

	rateLimitID    string
	idempotent     bool
	idempotencyKey string
}

// NewRequest creates a request for the given verb and path
func NewRequest(method, path string) *Request {
	return &Request{
		Method: method,
		Path:   path,
	}
}

// Get is shorthand for NewRequest(http.MethodGet, path)
func Get(path string) *Request {
	return NewRequest(http.MethodGet, path)
}

// Post is shorthand for NewRequest(http.MethodPost, path)
func Post(path string) *Request {
	return NewRequest(http.MethodPost, path)
}

// Delete is shorthand for NewRequest(http.MethodDelete, path)
func Delete(path string) *Request {
	return NewRequest(http.MethodDelete, path)
}

// WithParams sets the query parameters
func (r *Request) WithParams(params map[string]any) *Request {
	r.Params = params
	return r
}

// WithData sets the request body
func (r *Request) WithData(data map[string]any) *Request {
	r.Data = data
	return r
}

// WithRateLimit bills the request against the named bucket
func (r *Request) WithRateLimit(bucket string) *Request {
	r.rateLimitID = bucket
	return r
}

// Idempotent marks the request as a retry-safe mutation carrying an idempotency key
func (r *Request) Idempotent() *Request {
	r.idempotent = true
	return r
}

// IsIdempotent reports whether the request carries an idempotency key
func (r *Request) IsIdempotent() bool {
	return r.idempotent
}

// RateLimitID returns the bucket the request is billed against
func (r *Request) RateLimitID() string {
	if r.rateLimitID == "" {
		return BucketDefault
	}
	return r.rateLimitID
}

// IdempotencyKey returns the request's idempotency key, generating it on first use.
// The key is stable for the lifetime of the request so retries reuse it.
// Non-idempotent requests have no key.
func (r *Request) IdempotencyKey() string {
	if !r.idempotent {
		return ""
	}
	if r.idempotencyKey == "" {
		r.idempotencyKey = uuid.NewString()
	}
	return r.idempotencyKey
}

// Body returns the data sent as the JSON body, including the idempotency key
func (r *Request) Body() map[string]any {
	if len(r.Data) == 0 && !r.idempotent {
		return nil
	}

	body := make(map[string]any, len(r.Data)+1)
	maps.Copy(body, r.Data)
	if r.idempotent {
		if _, ok := body["idempotency_key"]; !ok {
			body["idempotency_key"] = r.IdempotencyKey()
		}
	}
	return body
}

// Query encodes the params as a query string
func (r *Request) Query() (url.Values, error) {
	values := url.Values{}
	for key, value := range r.Params {
		encoded, err := encodeParam(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode param %s: %w", key, err)
		}
		values.Set(key, encoded)
	}
	return values, nil
}

// Clone returns a deep-enough copy: maps are copied, the idempotency key is kept
func (r *Request) Clone() *Request {
	clone := *r
	if r.Params != nil {
		clone.Params = maps.Clone(r.Params)
	}
	if r.Data != nil {
		clone.Data = maps.Clone(r.Data)
	}
	return &clone
}

func (r *Request) String() string {
	return r.Method + " " + r.Path
}

func encodeParam(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int, int32, int64, uint, uint32, uint64, float32, float64:
		return fmt.Sprint(v), nil
	case []string:
		return strings.Join(v, ","), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
}
