package fbe

import (
	"github.com/s0up4200/metasync/graph"
)

// Installation lists the assets connected by a business extension install
type Installation struct {
	PixelID                    string   `json:"pixel_id"`
	BusinessManagerID          string   `json:"business_manager_id"`
	AdAccountID                string   `json:"ad_account_id"`
	CatalogID                  string   `json:"catalog_id"`
	PageID                     string   `json:"page_id"`
	InstagramBusinessID        string   `json:"instagram_business_id"`
	CommerceMerchantSettingsID string   `json:"commerce_merchant_settings_id"`
	Profiles                   []string `json:"profiles"`
}

// installationsResponse is the raw install read; pages arrives as a list
type installationsResponse struct {
	graph.Envelope
	Data []struct {
		PixelID                    string   `json:"pixel_id"`
		BusinessManagerID          string   `json:"business_manager_id"`
		AdAccountID                string   `json:"ad_account_id"`
		CatalogID                  string   `json:"catalog_id"`
		Pages                      []string `json:"pages"`
		InstagramBusinessID        string   `json:"instagram_business_id"`
		CommerceMerchantSettingsID string   `json:"commerce_merchant_settings_id"`
		Profiles                   []string `json:"profiles"`
	} `json:"data"`
}

// Configuration is the business extension configuration
type Configuration struct {
	graph.Envelope
	IGShopping struct {
		Enabled bool `json:"enabled"`
	} `json:"ig_shopping"`
	IGCTA struct {
		Enabled bool `json:"enabled"`
	} `json:"ig_cta"`
	MessengerChat *struct {
		Enabled       bool     `json:"enabled"`
		DefaultLocale string   `json:"default_locale"`
		Domains       []string `json:"domains"`
	} `json:"messenger_chat"`
}

// IGShoppingEnabled reports whether Instagram shopping is enabled
func (c *Configuration) IGShoppingEnabled() bool {
	return c.IGShopping.Enabled
}

// IGCTAEnabled reports whether the Instagram call-to-action is enabled
func (c *Configuration) IGCTAEnabled() bool {
	return c.IGCTA.Enabled
}

// Messenger returns the Messenger chat configuration, or the zero value when absent
func (c *Configuration) Messenger() Messenger {
	if c.MessengerChat == nil {
		return Messenger{}
	}
	return NewMessenger(c.MessengerChat.Enabled, c.MessengerChat.DefaultLocale, c.MessengerChat.Domains)
}

// NamedObject is a business manager or page with a name and a link
type NamedObject struct {
	graph.Envelope
	ID   string `json:"id"`
	Name string `json:"name"`
	Link string `json:"link"`
}

// URL returns the object's link
func (o *NamedObject) URL() string {
	return o.Link
}

// PluginVersion is the plugin state reported to the business extension
type PluginVersion struct {
	Version             string
	IsMultisite         bool
	AllProductsOptedOut bool
}

// LogEvent is a single client log entry
type LogEvent struct {
	Message string         `json:"message"`
	Level   string         `json:"level,omitempty"`
	Time    int64          `json:"time,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}
