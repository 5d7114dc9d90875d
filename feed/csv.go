// Package feed generates the product CSV feed and serves it to the catalog
// fetcher over HTTP.
package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/s0up4200/metasync/product"
)

// Columns is the feed header, in order
var Columns = []string{
	"id",
	"title",
	"description",
	"image_link",
	"link",
	"brand",
	"price",
	"availability",
	"condition",
	"item_group_id",
	"sale_price",
	"additional_image_link",
	"product_type",
	"gtin",
	"visibility",
	"color",
	"size",
	"quantity_to_sell_on_facebook",
}

// Eligible reports whether the product belongs in the feed. Unpublished
// products and variable parents are left out.
func Eligible(p product.Product) bool {
	return p.IsPublished() && !p.IsVariable()
}

// Write writes the header and one row per eligible product
func Write(w io.Writer, products []product.Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(Columns))
	for _, p := range products {
		if !Eligible(p) {
			continue
		}
		data := p.ItemData()
		for i, col := range Columns {
			row[i] = cell(data[col])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write %s: %w", p.RetailerID(), err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func cell(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// WriteFile writes the feed to path, replacing the previous file atomically
func WriteFile(path string, products []product.Product) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create feed directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".feed-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temporary feed: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, products); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary feed: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set feed permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace feed: %w", err)
	}
	return nil
}
