package catalog

import (
	"context"
	"fmt"

	"github.com/s0up4200/metasync/graph"
)

const (
	feedFields   = "id,name,file_name,schedule,update_schedule,created_time,latest_upload"
	uploadFields = "id,start_time,end_time,error_count,warning_count,num_detected_items,num_persisted_items,url"
)

// Feed is a product feed attached to a catalog
type Feed struct {
	graph.Envelope
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	FileName     string         `json:"file_name,omitempty"`
	Schedule     map[string]any `json:"schedule,omitempty"`
	CreatedTime  string         `json:"created_time,omitempty"`
	LatestUpload *Upload        `json:"latest_upload,omitempty"`
}

// Upload is a single run of a product feed
type Upload struct {
	graph.Envelope
	ID                string `json:"id"`
	StartTime         string `json:"start_time,omitempty"`
	EndTime           string `json:"end_time,omitempty"`
	ErrorCount        int    `json:"error_count"`
	WarningCount      int    `json:"warning_count"`
	NumDetectedItems  int    `json:"num_detected_items"`
	NumPersistedItems int    `json:"num_persisted_items"`
	URL               string `json:"url,omitempty"`
}

// FeedSchedule builds the schedule of a daily feed fetch at the given hour
func FeedSchedule(url string, hour int) map[string]any {
	return map[string]any{
		"interval": "DAILY",
		"url":      url,
		"hour":     hour,
	}
}

// FeedsRequest lists the product feeds of a catalog
func FeedsRequest(catalogID string) *graph.Request {
	return graph.Get("/" + catalogID + "/product_feeds").
		WithParams(map[string]any{"fields": feedFields}).
		WithRateLimit(graph.BucketCatalog)
}

// FeedRequest reads a product feed
func FeedRequest(feedID string) *graph.Request {
	return graph.Get("/" + feedID).
		WithParams(map[string]any{"fields": feedFields}).
		WithRateLimit(graph.BucketCatalog)
}

// CreateFeedRequest creates a product feed in a catalog
func CreateFeedRequest(catalogID string, data map[string]any) *graph.Request {
	return graph.Post("/" + catalogID + "/product_feeds").
		WithData(data).
		WithRateLimit(graph.BucketCatalog)
}

// FeedUploadsRequest lists the uploads of a product feed
func FeedUploadsRequest(feedID string) *graph.Request {
	return graph.Get("/" + feedID + "/uploads").
		WithRateLimit(graph.BucketCatalog)
}

// UploadRequest reads a single feed upload
func UploadRequest(uploadID string) *graph.Request {
	return graph.Get("/" + uploadID).
		WithParams(map[string]any{"fields": uploadFields}).
		WithRateLimit(graph.BucketCatalog)
}

// Feeds lists the product feeds of a catalog
func (s *Service) Feeds(ctx context.Context, catalogID string) ([]Feed, error) {
	var page graph.Page[Feed]
	if err := s.doer.Do(ctx, FeedsRequest(catalogID), &page); err != nil {
		return nil, fmt.Errorf("failed to get product feeds: %w", err)
	}
	return page.Data, nil
}

// Feed retrieves a product feed
func (s *Service) Feed(ctx context.Context, feedID string) (*Feed, error) {
	var feed Feed
	if err := s.doer.Do(ctx, FeedRequest(feedID), &feed); err != nil {
		return nil, fmt.Errorf("failed to get product feed %s: %w", feedID, err)
	}
	return &feed, nil
}

// CreateFeed creates a product feed and returns its ID
func (s *Service) CreateFeed(ctx context.Context, catalogID string, data map[string]any) (string, error) {
	return s.node(ctx, CreateFeedRequest(catalogID, data), "create product feed")
}

// FeedUploads lists the uploads of a product feed
func (s *Service) FeedUploads(ctx context.Context, feedID string) ([]Upload, error) {
	var page graph.Page[Upload]
	if err := s.doer.Do(ctx, FeedUploadsRequest(feedID), &page); err != nil {
		return nil, fmt.Errorf("failed to get feed uploads: %w", err)
	}
	return page.Data, nil
}

// Upload retrieves a feed upload
func (s *Service) Upload(ctx context.Context, uploadID string) (*Upload, error) {
	var upload Upload
	if err := s.doer.Do(ctx, UploadRequest(uploadID), &upload); err != nil {
		return nil, fmt.Errorf("failed to get feed upload %s: %w", uploadID, err)
	}
	return &upload, nil
}
