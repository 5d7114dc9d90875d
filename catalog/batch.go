package catalog

import (
	"context"
	"fmt"

	"github.com/s0up4200/metasync/graph"
)

// Batch request methods understood by items_batch
const (
	MethodCreate = "CREATE"
	MethodUpdate = "UPDATE"
	MethodDelete = "DELETE"
)

// MaxBatchSize is the largest number of requests a single items_batch call accepts
const MaxBatchSize = 1000

// BatchRequest is a single item change inside an items_batch call
type BatchRequest struct {
	Method string         `json:"method"`
	Data   map[string]any `json:"data"`
}

// BatchMessage is an error or warning reported for a batch item
type BatchMessage struct {
	Message string `json:"message"`
}

// ValidationStatus reports synchronous validation problems for one item
type ValidationStatus struct {
	RetailerID string         `json:"retailer_id"`
	Errors     []BatchMessage `json:"errors"`
	Warnings   []BatchMessage `json:"warnings"`
}

// BatchResponse is the response of an items_batch call
type BatchResponse struct {
	graph.Envelope
	Handles          []string           `json:"handles"`
	ValidationStatus []ValidationStatus `json:"validation_status"`
}

// HasErrors reports whether any item failed validation
func (r *BatchResponse) HasErrors() bool {
	for _, status := range r.ValidationStatus {
		if len(status.Errors) > 0 {
			return true
		}
	}
	return false
}

// BatchError is a per-line error of a processed batch
type BatchError struct {
	Line    int    `json:"line"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// BatchStatus is the processing state of a batch handle
type BatchStatus struct {
	Handle           string       `json:"handle"`
	Status           string       `json:"status"`
	ErrorsTotalCount int          `json:"errors_total_count"`
	Errors           []BatchError `json:"errors"`
	Warnings         []BatchError `json:"warnings"`
}

// Finished reports whether the batch has been fully processed
func (s BatchStatus) Finished() bool {
	return s.Status == "finished"
}

// BatchStatusResponse is the response of check_batch_request_status
type BatchStatusResponse struct {
	graph.Page[BatchStatus]
}

// ItemsBatchRequest upserts product items in bulk
func ItemsBatchRequest(catalogID string, requests []BatchRequest) *graph.Request {
	return graph.Post("/" + catalogID + "/items_batch").
		WithData(map[string]any{
			"allow_upsert": true,
			"item_type":    "PRODUCT_ITEM",
			"requests":     requests,
		}).
		WithRateLimit(graph.BucketCatalog)
}

// BatchStatusRequest reads the processing status of a batch handle
func BatchStatusRequest(catalogID, handle string) *graph.Request {
	return graph.Get("/" + catalogID + "/check_batch_request_status").
		WithParams(map[string]any{"handle": handle}).
		WithRateLimit(graph.BucketCatalog)
}

// ItemsBatch sends up to MaxBatchSize item changes in one call
func (s *Service) ItemsBatch(ctx context.Context, catalogID string, requests []BatchRequest) (*BatchResponse, error) {
	if len(requests) == 0 {
		return &BatchResponse{}, nil
	}
	if len(requests) > MaxBatchSize {
		return nil, fmt.Errorf("batch of %d requests exceeds limit of %d", len(requests), MaxBatchSize)
	}

	var res BatchResponse
	if err := s.doer.Do(ctx, ItemsBatchRequest(catalogID, requests), &res); err != nil {
		return nil, fmt.Errorf("failed to send items batch: %w", err)
	}

	s.logger.Debug().
		Int("requests", len(requests)).
		Strs("handles", res.Handles).
		Msg("Sent items batch")

	for _, status := range res.ValidationStatus {
		for _, e := range status.Errors {
			s.logger.Warn().Str("retailer_id", status.RetailerID).Msg(e.Message)
		}
	}
	return &res, nil
}

// BatchStatus retrieves the status of a batch handle
func (s *Service) BatchStatus(ctx context.Context, catalogID, handle string) (*BatchStatus, error) {
	var res BatchStatusResponse
	if err := s.doer.Do(ctx, BatchStatusRequest(catalogID, handle), &res); err != nil {
		return nil, fmt.Errorf("failed to check batch status: %w", err)
	}
	if len(res.Data) == 0 {
		return nil, fmt.Errorf("no status returned for batch handle %s", handle)
	}
	return &res.Data[0], nil
}
