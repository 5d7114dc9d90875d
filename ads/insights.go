package ads

import (
	"context"
	"fmt"

	"github.com/s0up4200/metasync/graph"
)

const (
	insightsFields = "spend,reach,impressions,clicks,actions"
	// DefaultDatePreset aggregates over the lifetime of the object
	DefaultDatePreset = "maximum"
)

const (
	bucketClicks = iota
	bucketViews
	bucketCart
	bucketPurchases
)

// Aliases of the same event are reported side by side, so a bucket takes the
// largest alias value rather than their sum.
var actionBuckets = map[string]int{
	"link_click": bucketClicks,

	"view_content": bucketViews,
	"offsite_conversion.fb_pixel_view_content": bucketViews,
	"omni_view_content":                        bucketViews,

	"add_to_cart": bucketCart,
	"offsite_conversion.fb_pixel_add_to_cart": bucketCart,
	"omni_add_to_cart":                        bucketCart,

	"purchase":                             bucketPurchases,
	"offsite_conversion.fb_pixel_purchase": bucketPurchases,
	"omni_purchase":                        bucketPurchases,
}

// Action is a single insights action count
type Action struct {
	ActionType string       `json:"action_type"`
	Value      graph.Number `json:"value"`
}

// InsightsRow is one row of insights data
type InsightsRow struct {
	Spend       graph.Number `json:"spend"`
	Reach       graph.Number `json:"reach"`
	Impressions graph.Number `json:"impressions"`
	Clicks      graph.Number `json:"clicks"`
	Actions     []Action     `json:"actions"`
	DateStart   string       `json:"date_start,omitempty"`
	DateStop    string       `json:"date_stop,omitempty"`
}

// Insights is the response of an insights read
type Insights struct {
	graph.Page[InsightsRow]
}

// Actions buckets insights actions by funnel stage
type Actions struct {
	Clicks    int
	Views     int
	Cart      int
	Purchases int
}

// Result is the flattened view of an insights response
type Result struct {
	Spend       float64
	Reach       int
	Impressions int
	Clicks      int
	Actions     Actions
}

// Result flattens the first insights row. Empty data yields zeros.
func (i *Insights) Result() Result {
	var result Result
	if len(i.Data) == 0 {
		return result
	}

	row := i.Data[0]
	result.Spend = row.Spend.Float()
	result.Reach = row.Reach.Int()
	result.Impressions = row.Impressions.Int()
	result.Clicks = row.Clicks.Int()

	var counts [4]int
	for _, action := range row.Actions {
		bucket, ok := actionBuckets[action.ActionType]
		if !ok {
			continue
		}
		counts[bucket] = max(counts[bucket], action.Value.Int())
	}

	result.Actions = Actions{
		Clicks:    counts[bucketClicks],
		Views:     counts[bucketViews],
		Cart:      counts[bucketCart],
		Purchases: counts[bucketPurchases],
	}
	return result
}

// InsightsRequest reads insights of a campaign, ad set, ad or account.
// An empty datePreset uses DefaultDatePreset.
func InsightsRequest(objectID, datePreset string) *graph.Request {
	if datePreset == "" {
		datePreset = DefaultDatePreset
	}
	return graph.Get("/" + objectID + "/insights").
		WithParams(map[string]any{
			"fields":      insightsFields,
			"date_preset": datePreset,
		}).
		WithRateLimit(graph.BucketAdsInsights)
}

// Insights retrieves insights for an object
func (s *Service) Insights(ctx context.Context, objectID, datePreset string) (*Insights, error) {
	var insights Insights
	if err := s.doer.Do(ctx, InsightsRequest(objectID, datePreset), &insights); err != nil {
		return nil, fmt.Errorf("failed to get insights for %s: %w", objectID, err)
	}
	return &insights, nil
}
