package fbe

import (
	"net/url"
)

// Messenger is the Messenger chat plugin configuration of an installation
type Messenger struct {
	enabled       bool
	defaultLocale string
	domains       []string
}

// NewMessenger creates a Messenger configuration. Invalid domains are dropped.
func NewMessenger(enabled bool, defaultLocale string, domains []string) Messenger {
	m := Messenger{enabled: enabled, defaultLocale: defaultLocale}
	m.SetDomains(domains)
	return m
}

// Enabled reports whether Messenger chat is enabled
func (m Messenger) Enabled() bool {
	return m.enabled
}

// DefaultLocale returns the chat plugin locale
func (m Messenger) DefaultLocale() string {
	return m.defaultLocale
}

// Domains returns the whitelisted domains, never nil
func (m Messenger) Domains() []string {
	if m.domains == nil {
		return []string{}
	}
	return append([]string(nil), m.domains...)
}

// SetEnabled toggles Messenger chat
func (m *Messenger) SetEnabled(enabled bool) {
	m.enabled = enabled
}

// SetDefaultLocale sets the chat plugin locale
func (m *Messenger) SetDefaultLocale(locale string) {
	m.defaultLocale = locale
}

// SetDomains replaces the whitelisted domains, keeping only absolute http(s) URLs
func (m *Messenger) SetDomains(domains []string) {
	valid := make([]string, 0, len(domains))
	for _, domain := range domains {
		if isAbsoluteHTTPURL(domain) {
			valid = append(valid, domain)
		}
	}
	m.domains = valid
}

func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

type messengerJSON struct {
	Enabled       bool     `json:"enabled"`
	DefaultLocale string   `json:"default_locale,omitempty"`
	Domains       []string `json:"domains"`
}

func (m Messenger) payload() messengerJSON {
	return messengerJSON{
		Enabled:       m.enabled,
		DefaultLocale: m.defaultLocale,
		Domains:       m.Domains(),
	}
}
