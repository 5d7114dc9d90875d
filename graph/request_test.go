package graph

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestDefaults(t *testing.T) {
	req := Get("/165835951532406/products")

	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, BucketDefault, req.RateLimitID())
	assert.False(t, req.IsIdempotent())
	assert.Empty(t, req.IdempotencyKey())
	assert.Nil(t, req.Body())
	assert.Equal(t, "GET /165835951532406/products", req.String())
}

func TestRequestIdempotencyKey(t *testing.T) {
	req := Post("/1/acknowledge_order").
		WithData(map[string]any{"merchant_order_reference": "42"}).
		Idempotent()

	key := req.IdempotencyKey()
	require.NotEmpty(t, key)
	assert.Equal(t, key, req.IdempotencyKey(), "key must be stable across calls")

	body := req.Body()
	assert.Equal(t, key, body["idempotency_key"])
	assert.Equal(t, "42", body["merchant_order_reference"])
	assert.NotContains(t, req.Data, "idempotency_key", "Body must not mutate Data")

	clone := req.Clone()
	assert.Equal(t, key, clone.IdempotencyKey())

	other := Post("/1/acknowledge_order").Idempotent()
	assert.NotEqual(t, key, other.IdempotencyKey())
}

func TestRequestExplicitIdempotencyKeyWins(t *testing.T) {
	req := Post("/1/shipments").
		WithData(map[string]any{"idempotency_key": "given"}).
		Idempotent()

	assert.Equal(t, "given", req.Body()["idempotency_key"])
}

func TestRequestQuery(t *testing.T) {
	req := Get("/1").WithParams(map[string]any{
		"fields":  "id,retailer_id",
		"limit":   100,
		"upsert":  true,
		"states":  []string{"CREATED", "FB_PROCESSING"},
		"filters": map[string]any{"a": 1},
	})

	query, err := req.Query()
	require.NoError(t, err)
	assert.Equal(t, "id,retailer_id", query.Get("fields"))
	assert.Equal(t, "100", query.Get("limit"))
	assert.Equal(t, "true", query.Get("upsert"))
	assert.Equal(t, "CREATED,FB_PROCESSING", query.Get("states"))
	assert.Equal(t, `{"a":1}`, query.Get("filters"))
}

func TestRequestRateLimit(t *testing.T) {
	req := Get("/1").WithRateLimit(BucketCatalog)
	assert.Equal(t, BucketCatalog, req.RateLimitID())
}
