package catalog

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/s0up4200/metasync/graph"
)

// Service sends catalog requests
type Service struct {
	doer   graph.Doer
	logger zerolog.Logger
}

// NewService creates a catalog service
func NewService(doer graph.Doer, logger zerolog.Logger) *Service {
	return &Service{
		doer:   doer,
		logger: logger,
	}
}

// Catalog is the response of a catalog read
type Catalog struct {
	graph.Envelope
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CatalogRequest reads a catalog's name
func CatalogRequest(catalogID string) *graph.Request {
	return graph.Get("/" + catalogID).
		WithParams(map[string]any{"fields": "name"}).
		WithRateLimit(graph.BucketCatalog)
}

// Catalog retrieves a catalog
func (s *Service) Catalog(ctx context.Context, catalogID string) (*Catalog, error) {
	var catalog Catalog
	if err := s.doer.Do(ctx, CatalogRequest(catalogID), &catalog); err != nil {
		return nil, fmt.Errorf("failed to get catalog %s: %w", catalogID, err)
	}
	return &catalog, nil
}

func (s *Service) node(ctx context.Context, req *graph.Request, what string) (string, error) {
	var node graph.Node
	if err := s.doer.Do(ctx, req, &node); err != nil {
		return "", fmt.Errorf("failed to %s: %w", what, err)
	}

	s.logger.Debug().Str("id", node.ID).Msgf("Catalog: %s", what)
	return node.ID, nil
}

func (s *Service) success(ctx context.Context, req *graph.Request, what string) error {
	var res graph.Success
	if err := s.doer.Do(ctx, req, &res); err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	if req.Method == http.MethodDelete && !res.Success {
		s.logger.Warn().Str("request", req.String()).Msg("Delete did not report success")
	}
	return nil
}
