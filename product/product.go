// Package product models a WooCommerce product snapshot and its catalog
// representation.
package product

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidProduct is returned by Validate for products that cannot be synced
var ErrInvalidProduct = errors.New("invalid product")

// Stock statuses
const (
	StockInStock     = "instock"
	StockOutOfStock  = "outofstock"
	StockOnBackorder = "onbackorder"
)

// Catalog availability values
const (
	AvailabilityInStock    = "in stock"
	AvailabilityOutOfStock = "out of stock"
	AvailabilityOnOrder    = "available for order"
)

// Catalog visibility values
const (
	VisibilityPublished = "published"
	VisibilityStaging   = "staging"
)

// TypeVariable is the store type of products that have variations
const TypeVariable = "variable"

const defaultCondition = "new"

// Product is a WooCommerce product or variation
type Product struct {
	ID               int64             `json:"id"`
	ParentID         int64             `json:"parent_id,omitempty"`
	ParentSKU        string            `json:"parent_sku,omitempty"`
	Type             string            `json:"type,omitempty"`
	SKU              string            `json:"sku,omitempty"`
	Title            string            `json:"title"`
	Description      string            `json:"description,omitempty"`
	ShortDescription string            `json:"short_description,omitempty"`
	Price            float64           `json:"price"`
	SalePrice        float64           `json:"sale_price,omitempty"`
	Currency         string            `json:"currency"`
	StockStatus      string            `json:"stock_status,omitempty"`
	StockQuantity    *int              `json:"stock_quantity,omitempty"`
	Visibility       string            `json:"visibility,omitempty"`
	Status           string            `json:"status,omitempty"`
	Categories       []string          `json:"categories,omitempty"`
	Tags             []string          `json:"tags,omitempty"`
	ImageURL         string            `json:"image_url,omitempty"`
	AdditionalImages []string          `json:"additional_images,omitempty"`
	URL              string            `json:"url"`
	Brand            string            `json:"brand,omitempty"`
	Condition        string            `json:"condition,omitempty"`
	GTIN             string            `json:"gtin,omitempty"`
	Attributes       map[string]string `json:"attributes,omitempty"`
	Created          time.Time         `json:"created,omitempty"`
	Modified         time.Time         `json:"modified,omitempty"`
}

// RetailerIDFor builds the catalog retailer ID of a product
func RetailerIDFor(sku string, id int64) string {
	if sku != "" {
		return fmt.Sprintf("%s_%d", sku, id)
	}
	return fmt.Sprintf("wc_post_id_%d", id)
}

// RetailerID returns the catalog retailer ID
func (p Product) RetailerID() string {
	return RetailerIDFor(p.SKU, p.ID)
}

// GroupRetailerID returns the retailer ID of the product group. Variations
// are grouped under their parent.
func (p Product) GroupRetailerID() string {
	if p.IsVariation() {
		return RetailerIDFor(p.ParentSKU, p.ParentID)
	}
	return p.RetailerID()
}

// IsVariation reports whether the product is a variation of a variable product
func (p Product) IsVariation() bool {
	return p.ParentID > 0
}

// IsVariable reports whether the product is the parent of variations. Only its
// variations are catalog items.
func (p Product) IsVariable() bool {
	return p.Type == TypeVariable
}

// IsPublished reports whether the product is visible in the store
func (p Product) IsPublished() bool {
	status := p.Status
	if status == "" {
		status = "publish"
	}
	return status == "publish" && p.Visibility != "hidden"
}

// InStock reports whether the product can be purchased now
func (p Product) InStock() bool {
	return p.Availability() != AvailabilityOutOfStock
}

// OnSale reports whether a sale price below the regular price is set
func (p Product) OnSale() bool {
	return p.SalePrice > 0 && p.SalePrice < p.Price
}

// Availability maps the stock status to a catalog availability value
func (p Product) Availability() string {
	switch p.StockStatus {
	case StockOutOfStock:
		return AvailabilityOutOfStock
	case StockOnBackorder:
		return AvailabilityOnOrder
	case StockInStock:
		return AvailabilityInStock
	}
	if p.StockQuantity != nil && *p.StockQuantity <= 0 {
		return AvailabilityOutOfStock
	}
	return AvailabilityInStock
}

// Validate checks the fields required by the catalog
func (p Product) Validate() error {
	var missing []string
	if p.ID <= 0 {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(p.Title) == "" {
		missing = append(missing, "title")
	}
	if p.Price <= 0 {
		missing = append(missing, "price")
	}
	if p.Currency == "" {
		missing = append(missing, "currency")
	}
	if p.URL == "" {
		missing = append(missing, "url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w %s: missing %s", ErrInvalidProduct, p.RetailerID(), strings.Join(missing, ", "))
	}
	return nil
}

// FormatPrice renders a price the way the catalog expects, for example "12.34 USD"
func FormatPrice(amount float64, currency string) string {
	return strconv.FormatFloat(amount, 'f', 2, 64) + " " + currency
}

// FeedDescription returns the long description, falling back to the short one and the title
func (p Product) FeedDescription() string {
	for _, d := range []string{p.Description, p.ShortDescription, p.Title} {
		if d = strings.TrimSpace(d); d != "" {
			return d
		}
	}
	return ""
}

// ItemData builds the items_batch data of the product
func (p Product) ItemData() map[string]any {
	condition := p.Condition
	if condition == "" {
		condition = defaultCondition
	}
	visibility := VisibilityPublished
	if !p.IsPublished() {
		visibility = VisibilityStaging
	}

	data := map[string]any{
		"id":            p.RetailerID(),
		"title":         p.Title,
		"description":   p.FeedDescription(),
		"availability":  p.Availability(),
		"condition":     condition,
		"price":         FormatPrice(p.Price, p.Currency),
		"link":          p.URL,
		"item_group_id": p.GroupRetailerID(),
		"visibility":    visibility,
	}

	if p.OnSale() {
		data["sale_price"] = FormatPrice(p.SalePrice, p.Currency)
	}
	if p.ImageURL != "" {
		data["image_link"] = p.ImageURL
	}
	if len(p.AdditionalImages) > 0 {
		data["additional_image_link"] = strings.Join(p.AdditionalImages, ",")
	}
	if p.Brand != "" {
		data["brand"] = p.Brand
	}
	if p.GTIN != "" {
		data["gtin"] = p.GTIN
	}
	if p.ShortDescription != "" {
		data["short_description"] = p.ShortDescription
	}
	if len(p.Categories) > 0 {
		data["product_type"] = strings.Join(p.Categories, " > ")
	}
	if p.StockQuantity != nil {
		data["quantity_to_sell_on_facebook"] = max(*p.StockQuantity, 0)
	}
	for name, value := range p.Attributes {
		switch strings.ToLower(name) {
		case "color", "size", "gender", "material", "pattern":
			data[strings.ToLower(name)] = value
		}
	}
	return data
}
