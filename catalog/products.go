package catalog

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/s0up4200/metasync/graph"
)

const (
	productItemFields = "id,retailer_id"
	// DefaultGroupProductsLimit is the page size used when reading a group's items
	DefaultGroupProductsLimit = 1000
)

// ProductItem is a catalog item as returned by list endpoints
type ProductItem struct {
	ID         string `json:"id"`
	RetailerID string `json:"retailer_id"`
}

// ProductItems is a page of catalog items
type ProductItems struct {
	graph.Page[ProductItem]
}

// IDs maps retailer IDs to item IDs. Items without a retailer ID are skipped.
func (r *ProductItems) IDs() map[string]string {
	ids := make(map[string]string, len(r.Data))
	for _, item := range r.Data {
		if item.RetailerID == "" {
			continue
		}
		ids[item.RetailerID] = item.ID
	}
	return ids
}

// ProductItemLookup is the response of a retailer ID lookup
type ProductItemLookup struct {
	graph.Envelope
	ID           string `json:"id"`
	ProductGroup struct {
		ID string `json:"id"`
	} `json:"product_group"`
}

// GroupID returns the product group the item belongs to
func (r *ProductItemLookup) GroupID() string {
	return r.ProductGroup.ID
}

// CatalogProductsRequest lists the items of a catalog
func CatalogProductsRequest(catalogID string, limit int) *graph.Request {
	return graph.Get("/" + catalogID + "/products").
		WithParams(map[string]any{
			"fields": productItemFields,
			"limit":  limit,
		}).
		WithRateLimit(graph.BucketCatalog)
}

// ProductGroupProductsRequest lists the items of a product group
func ProductGroupProductsRequest(groupID string, limit int) *graph.Request {
	if limit <= 0 {
		limit = DefaultGroupProductsLimit
	}
	return graph.Get("/" + groupID + "/products").
		WithParams(map[string]any{
			"fields": productItemFields,
			"limit":  limit,
		}).
		WithRateLimit(graph.BucketCatalog)
}

// FindProductItemRequest looks an item up by its retailer ID
func FindProductItemRequest(catalogID, retailerID string) *graph.Request {
	encoded := base64.StdEncoding.EncodeToString([]byte(retailerID))
	return graph.Get(fmt.Sprintf("/catalog:%s:%s", catalogID, encoded)).
		WithParams(map[string]any{"fields": "id,product_group{id}"}).
		WithRateLimit(graph.BucketCatalog)
}

// CreateProductItemRequest creates an item inside a product group
func CreateProductItemRequest(groupID string, data map[string]any) *graph.Request {
	return graph.Post("/" + groupID + "/products").
		WithData(data).
		WithRateLimit(graph.BucketCatalog)
}

// UpdateProductItemRequest updates an item
func UpdateProductItemRequest(itemID string, data map[string]any) *graph.Request {
	return graph.Post("/" + itemID).
		WithData(data).
		WithRateLimit(graph.BucketCatalog)
}

// DeleteProductItemRequest deletes an item
func DeleteProductItemRequest(itemID string) *graph.Request {
	return graph.Delete("/" + itemID).
		WithRateLimit(graph.BucketCatalog)
}

// CatalogProducts retrieves one page of a catalog's items
func (s *Service) CatalogProducts(ctx context.Context, catalogID string, limit int) (*ProductItems, error) {
	var items ProductItems
	if err := s.doer.Do(ctx, CatalogProductsRequest(catalogID, limit), &items); err != nil {
		return nil, fmt.Errorf("failed to get catalog products: %w", err)
	}
	return &items, nil
}

// AllCatalogProducts follows pagination over every item of a catalog
func (s *Service) AllCatalogProducts(ctx context.Context, catalogID string, pageSize int) ([]ProductItem, error) {
	items, err := graph.Collect[ProductItem](ctx, s.doer, CatalogProductsRequest(catalogID, pageSize), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog products: %w", err)
	}

	s.logger.Debug().Int("count", len(items)).Str("catalog", catalogID).Msg("Retrieved catalog products")
	return items, nil
}

// ProductGroupProducts retrieves the items of a product group
func (s *Service) ProductGroupProducts(ctx context.Context, groupID string, limit int) (*ProductItems, error) {
	var items ProductItems
	if err := s.doer.Do(ctx, ProductGroupProductsRequest(groupID, limit), &items); err != nil {
		return nil, fmt.Errorf("failed to get product group products: %w", err)
	}
	return &items, nil
}

// FindProductItem looks an item up by retailer ID
func (s *Service) FindProductItem(ctx context.Context, catalogID, retailerID string) (*ProductItemLookup, error) {
	var lookup ProductItemLookup
	if err := s.doer.Do(ctx, FindProductItemRequest(catalogID, retailerID), &lookup); err != nil {
		return nil, fmt.Errorf("failed to find product item %s: %w", retailerID, err)
	}
	return &lookup, nil
}

// CreateProductItem creates an item and returns its ID
func (s *Service) CreateProductItem(ctx context.Context, groupID string, data map[string]any) (string, error) {
	return s.node(ctx, CreateProductItemRequest(groupID, data), "create product item")
}

// UpdateProductItem updates an item and returns its ID
func (s *Service) UpdateProductItem(ctx context.Context, itemID string, data map[string]any) (string, error) {
	return s.node(ctx, UpdateProductItemRequest(itemID, data), "update product item")
}

// DeleteProductItem deletes an item
func (s *Service) DeleteProductItem(ctx context.Context, itemID string) error {
	return s.success(ctx, DeleteProductItemRequest(itemID), "delete product item")
}
