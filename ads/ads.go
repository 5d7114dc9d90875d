// Package ads binds the Graph API ad account, campaign and insights endpoints.
package ads

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/s0up4200/metasync/graph"
)

// Account is an ad account
type Account struct {
	graph.Envelope
	ID            string `json:"id"`
	Name          string `json:"name"`
	Currency      string `json:"currency"`
	AccountStatus int    `json:"account_status"`
}

// Active reports whether the account can run ads
func (a *Account) Active() bool {
	return a.AccountStatus == 1
}

// Campaign is an ad campaign
type Campaign struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Objective string `json:"objective"`
}

// AdSet is an ad set within a campaign
type AdSet struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Status      string       `json:"status"`
	DailyBudget graph.Number `json:"daily_budget"`
}

// Ad is an ad within an ad set
type Ad struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Creative struct {
		ID string `json:"id"`
	} `json:"creative"`
}

// Creative is an ad creative
type Creative struct {
	graph.Envelope
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	ObjectStorySpec map[string]any `json:"object_story_spec,omitempty"`
}

func accountPath(accountID string) string {
	if strings.HasPrefix(accountID, "act_") {
		return "/" + accountID
	}
	return "/act_" + accountID
}

// AccountRequest reads an ad account. The act_ prefix is added when missing.
func AccountRequest(accountID string) *graph.Request {
	return graph.Get(accountPath(accountID)).
		WithParams(map[string]any{"fields": "name,currency,account_status"}).
		WithRateLimit(graph.BucketAdsManagement)
}

// CampaignsRequest lists the campaigns of an ad account
func CampaignsRequest(accountID string) *graph.Request {
	return graph.Get(accountPath(accountID) + "/campaigns").
		WithParams(map[string]any{"fields": "id,name,status,objective"}).
		WithRateLimit(graph.BucketAdsManagement)
}

// AdSetsRequest lists the ad sets of a campaign
func AdSetsRequest(campaignID string) *graph.Request {
	return graph.Get("/" + campaignID + "/adsets").
		WithParams(map[string]any{"fields": "id,name,status,daily_budget"}).
		WithRateLimit(graph.BucketAdsManagement)
}

// AdsRequest lists the ads of an ad set
func AdsRequest(adSetID string) *graph.Request {
	return graph.Get("/" + adSetID + "/ads").
		WithParams(map[string]any{"fields": "id,name,status,creative{id}"}).
		WithRateLimit(graph.BucketAdsManagement)
}

// CreativeRequest reads an ad creative
func CreativeRequest(creativeID string) *graph.Request {
	return graph.Get("/" + creativeID).
		WithParams(map[string]any{"fields": "id,name,object_story_spec"}).
		WithRateLimit(graph.BucketAdsManagement)
}

// Service sends ads requests
type Service struct {
	doer   graph.Doer
	logger zerolog.Logger
}

// NewService creates an ads service
func NewService(doer graph.Doer, logger zerolog.Logger) *Service {
	return &Service{doer: doer, logger: logger}
}

// Account retrieves an ad account
func (s *Service) Account(ctx context.Context, accountID string) (*Account, error) {
	var account Account
	if err := s.doer.Do(ctx, AccountRequest(accountID), &account); err != nil {
		return nil, fmt.Errorf("failed to get ad account: %w", err)
	}
	return &account, nil
}

// Campaigns retrieves every campaign of an ad account
func (s *Service) Campaigns(ctx context.Context, accountID string) ([]Campaign, error) {
	campaigns, err := graph.Collect[Campaign](ctx, s.doer, CampaignsRequest(accountID), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaigns: %w", err)
	}
	return campaigns, nil
}

// AdSets retrieves every ad set of a campaign
func (s *Service) AdSets(ctx context.Context, campaignID string) ([]AdSet, error) {
	adSets, err := graph.Collect[AdSet](ctx, s.doer, AdSetsRequest(campaignID), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get ad sets: %w", err)
	}
	return adSets, nil
}

// Ads retrieves every ad of an ad set
func (s *Service) Ads(ctx context.Context, adSetID string) ([]Ad, error) {
	ads, err := graph.Collect[Ad](ctx, s.doer, AdsRequest(adSetID), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get ads: %w", err)
	}
	return ads, nil
}

// Creative retrieves an ad creative
func (s *Service) Creative(ctx context.Context, creativeID string) (*Creative, error) {
	var creative Creative
	if err := s.doer.Do(ctx, CreativeRequest(creativeID), &creative); err != nil {
		return nil, fmt.Errorf("failed to get creative: %w", err)
	}
	return &creative, nil
}
