package graph

import (
	"context"
	"fmt"
)

// Page is a list response exposing data, paging and summary uniformly
type Page[T any] struct {
	Envelope
	Data    []T            `json:"data"`
	Paging  Paging         `json:"paging"`
	Summary map[string]any `json:"summary,omitempty"`
}

// Cursors are the before/after cursors of a page
type Cursors struct {
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

// Paging contains pagination information
type Paging struct {
	Cursors  Cursors `json:"cursors"`
	Next     string  `json:"next,omitempty"`
	Previous string  `json:"previous,omitempty"`
}

// HasNext checks if there are more pages to fetch
func (p Paging) HasNext() bool {
	return p.Next != "" && p.Cursors.After != ""
}

// NextCursor returns the after cursor, or an error if there are no more pages
func (p Paging) NextCursor() (string, error) {
	if !p.HasNext() {
		return "", ErrNoMorePages
	}
	return p.Cursors.After, nil
}

// Collect follows after cursors until the last page or until limit items were read.
// A limit <= 0 reads every page.
func Collect[T any](ctx context.Context, d Doer, req *Request, limit int) ([]T, error) {
	var all []T
	current := req.Clone()

	for {
		var page Page[T]
		if err := d.Do(ctx, current, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch page: %w", err)
		}

		all = append(all, page.Data...)
		if limit > 0 && len(all) >= limit {
			return all[:limit], nil
		}

		after, err := page.Paging.NextCursor()
		if err != nil {
			return all, nil
		}

		current = current.Clone()
		if current.Params == nil {
			current.Params = map[string]any{}
		}
		current.Params["after"] = after
	}
}
