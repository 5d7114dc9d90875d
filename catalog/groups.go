package catalog

import (
	"context"

	"github.com/s0up4200/metasync/graph"
)

// CreateProductGroupRequest creates a product group in a catalog
func CreateProductGroupRequest(catalogID string, data map[string]any) *graph.Request {
	return graph.Post("/" + catalogID + "/product_groups").
		WithData(data).
		WithRateLimit(graph.BucketCatalog)
}

// UpdateProductGroupRequest updates a product group
func UpdateProductGroupRequest(groupID string, data map[string]any) *graph.Request {
	return graph.Post("/" + groupID).
		WithData(data).
		WithRateLimit(graph.BucketCatalog)
}

// DeleteProductGroupRequest deletes a product group together with its items
func DeleteProductGroupRequest(groupID string) *graph.Request {
	return graph.Delete("/" + groupID).
		WithParams(map[string]any{"deletion_method": "delete_items"}).
		WithRateLimit(graph.BucketCatalog)
}

// CreateProductGroup creates a product group and returns its ID
func (s *Service) CreateProductGroup(ctx context.Context, catalogID string, data map[string]any) (string, error) {
	return s.node(ctx, CreateProductGroupRequest(catalogID, data), "create product group")
}

// UpdateProductGroup updates a product group and returns its ID
func (s *Service) UpdateProductGroup(ctx context.Context, groupID string, data map[string]any) (string, error) {
	return s.node(ctx, UpdateProductGroupRequest(groupID, data), "update product group")
}

// DeleteProductGroup deletes a product group
func (s *Service) DeleteProductGroup(ctx context.Context, groupID string) error {
	return s.success(ctx, DeleteProductGroupRequest(groupID), "delete product group")
}
