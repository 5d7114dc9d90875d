package pixel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/metasync/graph"
	"github.com/s0up4200/metasync/graph/graphtest"
)

func TestHash(t *testing.T) {
	// sha256("test@example.com")
	const digest = "973dfe463ec85785f5f95af5ba3906eedb2d931c24e69824a89ea65dba4e813b"

	assert.Equal(t, digest, Hash("test@example.com"))
	assert.Equal(t, digest, Hash(digest))
}

func TestEventPayload(t *testing.T) {
	event := Event{
		Name:      EventPurchase,
		Time:      time.Unix(1700000000, 0),
		ID:        "order-1001",
		SourceURL: "https://shop.test/checkout",
		UserData: UserData{
			Email:           "  Test@Example.com ",
			Phone:           "+1 (555) 010-0000",
			FirstName:       " Jane",
			Zip:             "62701-1234",
			Country:         "US",
			ClientIPAddress: "203.0.113.7",
			FBP:             "fb.1.1700000000.1",
		},
		CustomData: map[string]any{"value": 25.0, "currency": "USD"},
	}

	payload := event.Payload()
	assert.Equal(t, "Purchase", payload["event_name"])
	assert.Equal(t, int64(1700000000), payload["event_time"])
	assert.Equal(t, "order-1001", payload["event_id"])
	assert.Equal(t, "website", payload["action_source"])
	assert.Equal(t, "https://shop.test/checkout", payload["event_source_url"])
	assert.Equal(t, event.CustomData, payload["custom_data"])

	user := payload["user_data"].(map[string]any)
	assert.Equal(t, Hash("test@example.com"), user["em"])
	assert.Equal(t, Hash("15550100000"), user["ph"])
	assert.Equal(t, Hash("jane"), user["fn"])
	assert.Equal(t, Hash("62701"), user["zp"])
	assert.Equal(t, Hash("us"), user["country"])
	assert.Equal(t, "203.0.113.7", user["client_ip_address"])
	assert.Equal(t, "fb.1.1700000000.1", user["fbp"])
	assert.NotContains(t, user, "ln")
}

func TestEventPayloadDefaults(t *testing.T) {
	payload := Event{Name: EventPageView, UserData: UserData{Email: "not-an-email"}}.Payload()

	assert.NotEmpty(t, payload["event_id"])
	assert.NotZero(t, payload["event_time"])
	assert.NotContains(t, payload, "custom_data")
	assert.Empty(t, payload["user_data"])

	a, b := NewEvent(EventLead, UserData{}, nil), NewEvent(EventLead, UserData{}, nil)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestEventsRequest(t *testing.T) {
	req := EventsRequest("1234", []Event{{Name: EventPageView, ID: "e1"}}, "woocommerce-8.0", "TEST42")
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/1234/events", req.Path)
	assert.Equal(t, graph.BucketPixel, req.RateLimitID())

	body := req.Body()
	assert.Equal(t, "woocommerce-8.0", body["partner_agent"])
	assert.Equal(t, "TEST42", body["test_event_code"])
	assert.Len(t, body["data"], 1)

	req = EventsRequest("1234", nil, "agent", "")
	assert.NotContains(t, req.Body(), "test_event_code")
}

func TestServiceSend(t *testing.T) {
	_, err := NewService(graphtest.New(nil), "", zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoPixel)

	doer := graphtest.New(map[string]string{
		"POST /1234/events": `{"events_received":1,"messages":[],"fbtrace_id":"AbC"}`,
	})
	svc, err := NewService(doer, "1234", zerolog.Nop(), WithPartnerAgent("woo"), WithTestEventCode("T1"))
	require.NoError(t, err)

	res, err := svc.Send(context.Background(), NewEvent(EventViewContent, UserData{}, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, res.EventsReceived)
	assert.Equal(t, "woo", doer.Last().Body()["partner_agent"])
	assert.Equal(t, "T1", doer.Last().Body()["test_event_code"])

	_, err = svc.Send(context.Background(), make([]Event, MaxEvents+1)...)
	assert.ErrorIs(t, err, ErrTooManyEvents)
	assert.Len(t, doer.Requests, 1)
}

func TestAAMSettings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/1234":
			w.Write([]byte(`{"matchingConfig":{"enableAutomaticMatching":true,"enabledAutomaticMatchingFields":["em","ph"]}}`))
		case "/bad":
			w.Write([]byte(`{"errorMessage":"Invalid pixel id"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewAAMClient(server.URL+"/", nil, zerolog.Nop())
	ctx := context.Background()

	settings, err := client.Settings(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, "1234", settings.PixelID)
	assert.True(t, settings.FieldEnabled("em"))
	assert.False(t, settings.FieldEnabled("zp"))

	_, err = client.Settings(ctx, "bad")
	require.ErrorIs(t, err, ErrAAMUnavailable)
	assert.Contains(t, err.Error(), "Invalid pixel id")

	_, err = client.Settings(ctx, "missing")
	assert.ErrorIs(t, err, ErrAAMUnavailable)

	_, err = client.Settings(ctx, "")
	assert.ErrorIs(t, err, ErrNoPixel)
}
