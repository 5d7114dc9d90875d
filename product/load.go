package product

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Decode reads a JSON array of products
func Decode(r io.Reader) ([]Product, error) {
	var products []Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

// Load reads a JSON product export. A path of "-" reads stdin.
func Load(path string) ([]Product, error) {
	if path == "-" {
		return Decode(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open products: %w", err)
	}
	defer f.Close()

	return Decode(f)
}
