package pixel

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActionSourceWebsite marks events that happened on the merchant's site
const ActionSourceWebsite = "website"

// Standard event names
const (
	EventPageView         = "PageView"
	EventViewContent      = "ViewContent"
	EventAddToCart        = "AddToCart"
	EventInitiateCheckout = "InitiateCheckout"
	EventPurchase         = "Purchase"
	EventSearch           = "Search"
	EventLead             = "Lead"
)

var (
	nonDigits = regexp.MustCompile(`[^0-9]`)
	nonAlpha  = regexp.MustCompile(`[^a-z]`)
	nonAlnum  = regexp.MustCompile(`[^a-z0-9]`)
	sha256Hex = regexp.MustCompile(`^[a-f0-9]{64}$`)
)

// UserData identifies the visitor. Personal fields are normalized and hashed
// when the event is serialized; network fields are sent as-is.
type UserData struct {
	Email      string
	Phone      string
	FirstName  string
	LastName   string
	City       string
	State      string
	Zip        string
	Country    string
	ExternalID string

	ClientIPAddress string
	ClientUserAgent string
	FBC             string
	FBP             string
}

// Event is a server side conversion event
type Event struct {
	Name       string
	Time       time.Time
	ID         string
	SourceURL  string
	UserData   UserData
	CustomData map[string]any
}

// NewEvent creates an event with a fresh event ID, stamped now
func NewEvent(name string, user UserData, custom map[string]any) Event {
	return Event{
		Name:       name,
		Time:       time.Now(),
		ID:         uuid.NewString(),
		UserData:   user,
		CustomData: custom,
	}
}

// Payload converts the event to its wire form
func (e Event) Payload() map[string]any {
	id := e.ID
	if id == "" {
		id = uuid.NewString()
	}
	ts := e.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	payload := map[string]any{
		"event_name":    e.Name,
		"event_time":    ts.Unix(),
		"event_id":      id,
		"action_source": ActionSourceWebsite,
		"user_data":     e.UserData.hashed(),
	}
	if e.SourceURL != "" {
		payload["event_source_url"] = e.SourceURL
	}
	if len(e.CustomData) > 0 {
		payload["custom_data"] = e.CustomData
	}
	return payload
}

func (u UserData) hashed() map[string]any {
	data := map[string]any{}

	hashInto(data, "em", u.Email, normalizeEmail)
	hashInto(data, "ph", u.Phone, normalizePhone)
	hashInto(data, "fn", u.FirstName, normalizeName)
	hashInto(data, "ln", u.LastName, normalizeName)
	hashInto(data, "ct", u.City, normalizeAlpha)
	hashInto(data, "st", u.State, normalizeAlpha)
	hashInto(data, "zp", u.Zip, normalizeZip)
	hashInto(data, "country", u.Country, normalizeAlpha)
	hashInto(data, "external_id", u.ExternalID, strings.TrimSpace)

	setIf(data, "client_ip_address", u.ClientIPAddress)
	setIf(data, "client_user_agent", u.ClientUserAgent)
	setIf(data, "fbc", u.FBC)
	setIf(data, "fbp", u.FBP)
	return data
}

// Hash returns the SHA-256 hex digest of a normalized value. Values that
// already look like a digest are returned unchanged.
func Hash(value string) string {
	if sha256Hex.MatchString(value) {
		return value
	}
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func hashInto(data map[string]any, key, raw string, normalize func(string) string) {
	if sha256Hex.MatchString(raw) {
		data[key] = raw
		return
	}
	if value := normalize(raw); value != "" {
		data[key] = Hash(value)
	}
}

func setIf(data map[string]any, key, value string) {
	if value != "" {
		data[key] = value
	}
}

func normalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return ""
	}
	return email
}

func normalizePhone(phone string) string {
	return nonDigits.ReplaceAllString(phone, "")
}

func normalizeAlpha(value string) string {
	return nonAlpha.ReplaceAllString(strings.ToLower(value), "")
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func normalizeZip(zip string) string {
	zip = strings.ToLower(strings.TrimSpace(zip))
	if i := strings.Index(zip, "-"); i > 0 {
		zip = zip[:i]
	}
	return nonAlnum.ReplaceAllString(zip, "")
}
