// Package graph provides the transport shared by every Meta Graph API endpoint binding.
//
// Endpoint packages (catalog, commerce, ads, fbe, pixel) describe calls as a
// *Request (verb, path, query params, body) and decode responses into small
// typed structs embedding Envelope. The Client sends them.
//
// # Usage
//
//	logger := zerolog.New(os.Stdout)
//	client, err := graph.NewClient(
//		"access-token",
//		logger,
//		graph.WithVersion("v21.0"),
//		graph.WithTimeout(30*time.Second),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	var catalog struct {
//		graph.Envelope
//		Name string `json:"name"`
//	}
//	req := graph.Get("/123").WithParams(map[string]any{"fields": "name"})
//	err = client.Do(ctx, req, &catalog)
//
// # Cross-cutting behavior
//
//   - Rate limits: every Request names a bucket (WithRateLimit). The Limiter
//     paces buckets client-side and, when the API throttles a bucket, fails
//     further calls on it fast with *RateLimitError until the throttle ends.
//   - Idempotency: Idempotent requests carry a stable UUID idempotency_key in
//     their body, reused across retries of the same *Request.
//   - Pagination: list responses decode into Page[T]; Collect follows cursors.
//
// # Error Handling
//
// Graph errors embedded in a response body come back as *APIError with
// classification helpers:
//
//	var apiErr *graph.APIError
//	if errors.As(err, &apiErr) && apiErr.IsNotFound() {
//		// object was deleted remotely
//	}
package graph
