package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/s0up4200/metasync/graph"
)

// ProductSetFilter builds the filter of a product set matching retailer IDs
func ProductSetFilter(retailerIDs []string) (string, error) {
	filter := map[string]any{
		"retailer_id": map[string]any{"is_any": retailerIDs},
	}
	raw, err := json.Marshal(filter)
	if err != nil {
		return "", fmt.Errorf("failed to encode product set filter: %w", err)
	}
	return string(raw), nil
}

// CreateProductSetRequest creates a product set in a catalog
func CreateProductSetRequest(catalogID string, data map[string]any) *graph.Request {
	return graph.Post("/" + catalogID + "/product_sets").
		WithData(data).
		WithRateLimit(graph.BucketCatalog)
}

// UpdateProductSetRequest updates a product set
func UpdateProductSetRequest(setID string, data map[string]any) *graph.Request {
	return graph.Post("/" + setID).
		WithData(data).
		WithRateLimit(graph.BucketCatalog)
}

// DeleteProductSetRequest deletes a product set. allowLive permits deleting
// sets that are used by live ads.
func DeleteProductSetRequest(setID string, allowLive bool) *graph.Request {
	return graph.Delete("/" + setID).
		WithParams(map[string]any{"allow_live_product_set_deletion": allowLive}).
		WithRateLimit(graph.BucketCatalog)
}

// CreateProductSet creates a product set and returns its ID
func (s *Service) CreateProductSet(ctx context.Context, catalogID string, data map[string]any) (string, error) {
	return s.node(ctx, CreateProductSetRequest(catalogID, data), "create product set")
}

// UpdateProductSet updates a product set and returns its ID
func (s *Service) UpdateProductSet(ctx context.Context, setID string, data map[string]any) (string, error) {
	return s.node(ctx, UpdateProductSetRequest(setID, data), "update product set")
}

// DeleteProductSet deletes a product set
func (s *Service) DeleteProductSet(ctx context.Context, setID string, allowLive bool) error {
	return s.success(ctx, DeleteProductSetRequest(setID, allowLive), "delete product set")
}
