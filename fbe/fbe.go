// Package fbe binds the Facebook Business Extension endpoints: installation
// assets, business configuration, Messenger chat, plugin version reporting,
// business manager and page metadata, permissions and client log events.
package fbe

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/s0up4200/metasync/graph"
)

// ErrNotInstalled is returned when no installation exists for the external business ID
var ErrNotInstalled = errors.New("business extension is not installed")

const (
	installsPath = "/fbe_business/fbe_installs"
	businessPath = "/fbe_business"
)

// InstallationRequest reads the assets of an installation
func InstallationRequest(externalBusinessID string) *graph.Request {
	return graph.Get(installsPath).
		WithParams(map[string]any{"fbe_external_business_id": externalBusinessID}).
		WithRateLimit(graph.BucketFBE)
}

// DeleteInstallationRequest uninstalls the business extension
func DeleteInstallationRequest(externalBusinessID string) *graph.Request {
	return graph.Delete(installsPath).
		WithParams(map[string]any{"fbe_external_business_id": externalBusinessID}).
		WithRateLimit(graph.BucketFBE)
}

// ConfigurationRequest reads the business configuration
func ConfigurationRequest(externalBusinessID string) *graph.Request {
	return graph.Get(businessPath).
		WithParams(map[string]any{"fbe_external_business_id": externalBusinessID}).
		WithRateLimit(graph.BucketFBE)
}

// UpdateMessengerRequest updates the Messenger chat configuration
func UpdateMessengerRequest(externalBusinessID string, messenger Messenger) *graph.Request {
	return graph.Post(businessPath).
		WithData(map[string]any{
			"fbe_external_business_id": externalBusinessID,
			"messenger_chat":           messenger.payload(),
		}).
		WithRateLimit(graph.BucketFBE)
}

// UpdatePluginVersionRequest reports the running plugin version
func UpdatePluginVersionRequest(externalBusinessID string, version PluginVersion) *graph.Request {
	return graph.Post(businessPath).
		WithData(map[string]any{
			"fbe_external_business_id": externalBusinessID,
			"business_config": map[string]any{
				"external_client": map[string]any{
					"version_id":                    version.Version,
					"is_multisite":                  version.IsMultisite,
					"is_woo_all_products_opted_out": version.AllProductsOptedOut,
				},
			},
		}).
		WithRateLimit(graph.BucketFBE)
}

// BusinessManagerRequest reads a business manager's name and link
func BusinessManagerRequest(businessManagerID string) *graph.Request {
	return graph.Get("/" + businessManagerID).
		WithParams(map[string]any{"fields": "name,link"}).
		WithRateLimit(graph.BucketFBE)
}

// PageRequest reads a page's name and link
func PageRequest(pageID string) *graph.Request {
	return graph.Get("/" + pageID).
		WithParams(map[string]any{"fields": "name,link"}).
		WithRateLimit(graph.BucketPages)
}

// DeleteUserPermissionRequest revokes a permission granted by a user
func DeleteUserPermissionRequest(userID, permission string) *graph.Request {
	return graph.Delete("/" + userID + "/permissions/" + permission).
		WithRateLimit(graph.BucketPages)
}

// LogEventsRequest uploads client log events
func LogEventsRequest(externalBusinessID string, events []LogEvent) *graph.Request {
	return graph.Post("/" + externalBusinessID + "/log_events").
		WithData(map[string]any{"logs": events}).
		WithRateLimit(graph.BucketFBE)
}

// Service sends business extension requests
type Service struct {
	doer               graph.Doer
	externalBusinessID string
	logger             zerolog.Logger
}

// NewService creates a service bound to an external business ID
func NewService(doer graph.Doer, externalBusinessID string, logger zerolog.Logger) *Service {
	return &Service{
		doer:               doer,
		externalBusinessID: externalBusinessID,
		logger:             logger,
	}
}

// ExternalBusinessID returns the ID the service is bound to
func (s *Service) ExternalBusinessID() string {
	return s.externalBusinessID
}

// Installation retrieves the connected assets
func (s *Service) Installation(ctx context.Context) (*Installation, error) {
	var res installationsResponse
	if err := s.doer.Do(ctx, InstallationRequest(s.externalBusinessID), &res); err != nil {
		return nil, fmt.Errorf("failed to get installation: %w", err)
	}
	if len(res.Data) == 0 {
		return nil, ErrNotInstalled
	}

	raw := res.Data[0]
	install := &Installation{
		PixelID:                    raw.PixelID,
		BusinessManagerID:          raw.BusinessManagerID,
		AdAccountID:                raw.AdAccountID,
		CatalogID:                  raw.CatalogID,
		InstagramBusinessID:        raw.InstagramBusinessID,
		CommerceMerchantSettingsID: raw.CommerceMerchantSettingsID,
		Profiles:                   raw.Profiles,
	}
	if len(raw.Pages) > 0 {
		install.PageID = raw.Pages[0]
	}
	return install, nil
}

// Uninstall removes the installation
func (s *Service) Uninstall(ctx context.Context) error {
	var res graph.Success
	if err := s.doer.Do(ctx, DeleteInstallationRequest(s.externalBusinessID), &res); err != nil {
		return fmt.Errorf("failed to delete installation: %w", err)
	}

	s.logger.Info().Str("external_business_id", s.externalBusinessID).Msg("Business extension uninstalled")
	return nil
}

// Configuration retrieves the business configuration
func (s *Service) Configuration(ctx context.Context) (*Configuration, error) {
	var config Configuration
	if err := s.doer.Do(ctx, ConfigurationRequest(s.externalBusinessID), &config); err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}
	return &config, nil
}

// UpdateMessenger sends the Messenger chat configuration
func (s *Service) UpdateMessenger(ctx context.Context, messenger Messenger) error {
	var res graph.Success
	if err := s.doer.Do(ctx, UpdateMessengerRequest(s.externalBusinessID, messenger), &res); err != nil {
		return fmt.Errorf("failed to update messenger configuration: %w", err)
	}
	return nil
}

// UpdatePluginVersion reports the plugin version
func (s *Service) UpdatePluginVersion(ctx context.Context, version PluginVersion) error {
	var res graph.Success
	if err := s.doer.Do(ctx, UpdatePluginVersionRequest(s.externalBusinessID, version), &res); err != nil {
		return fmt.Errorf("failed to update plugin version: %w", err)
	}

	s.logger.Debug().Str("version", version.Version).Msg("Plugin version reported")
	return nil
}

// BusinessManager retrieves a business manager
func (s *Service) BusinessManager(ctx context.Context, businessManagerID string) (*NamedObject, error) {
	var bm NamedObject
	if err := s.doer.Do(ctx, BusinessManagerRequest(businessManagerID), &bm); err != nil {
		return nil, fmt.Errorf("failed to get business manager: %w", err)
	}
	return &bm, nil
}

// Page retrieves a page
func (s *Service) Page(ctx context.Context, pageID string) (*NamedObject, error) {
	var page NamedObject
	if err := s.doer.Do(ctx, PageRequest(pageID), &page); err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	return &page, nil
}

// DeleteUserPermission revokes a user permission
func (s *Service) DeleteUserPermission(ctx context.Context, userID, permission string) error {
	var res graph.Success
	if err := s.doer.Do(ctx, DeleteUserPermissionRequest(userID, permission), &res); err != nil {
		return fmt.Errorf("failed to delete permission %s: %w", permission, err)
	}
	return nil
}

// LogEvents uploads client log events
func (s *Service) LogEvents(ctx context.Context, events []LogEvent) error {
	if len(events) == 0 {
		return nil
	}

	var res graph.Success
	if err := s.doer.Do(ctx, LogEventsRequest(s.externalBusinessID, events), &res); err != nil {
		return fmt.Errorf("failed to log events: %w", err)
	}
	return nil
}
