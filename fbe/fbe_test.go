package fbe

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/metasync/graph"
	"github.com/s0up4200/metasync/graph/graphtest"
)

func TestMessengerDefaults(t *testing.T) {
	var m Messenger

	assert.False(t, m.Enabled())
	assert.NotNil(t, m.Domains())
	assert.Empty(t, m.Domains())
	assert.Empty(t, m.DefaultLocale())
}

func TestMessengerSetDomains(t *testing.T) {
	var m Messenger
	m.SetDomains([]string{"https://test.test/", "invalid"})
	assert.Equal(t, []string{"https://test.test/"}, m.Domains())

	m.SetDomains([]string{"http://shop.test", "ftp://shop.test", "/relative", "https://"})
	assert.Equal(t, []string{"http://shop.test"}, m.Domains())

	domains := m.Domains()
	domains[0] = "mutated"
	assert.Equal(t, []string{"http://shop.test"}, m.Domains())
}

func newTestService(responses map[string]string) (*Service, *graphtest.Doer) {
	doer := graphtest.New(responses)
	return NewService(doer, "wc-abc123", zerolog.Nop()), doer
}

func TestInstallation(t *testing.T) {
	svc, doer := newTestService(map[string]string{
		"GET /fbe_business/fbe_installs": `{"data":[{
			"pixel_id":"11","business_manager_id":"22","ad_account_id":"33",
			"catalog_id":"44","pages":["55"],"instagram_business_id":"66",
			"commerce_merchant_settings_id":"77","profiles":["88"]
		}]}`,
	})

	install, err := svc.Installation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Installation{
		PixelID:                    "11",
		BusinessManagerID:          "22",
		AdAccountID:                "33",
		CatalogID:                  "44",
		PageID:                     "55",
		InstagramBusinessID:        "66",
		CommerceMerchantSettingsID: "77",
		Profiles:                   []string{"88"},
	}, install)
	assert.Equal(t, "wc-abc123", doer.Last().Params["fbe_external_business_id"])
	assert.Equal(t, graph.BucketFBE, doer.Last().RateLimitID())
}

func TestInstallationMissing(t *testing.T) {
	svc, _ := newTestService(map[string]string{
		"GET /fbe_business/fbe_installs": `{"data":[]}`,
	})

	_, err := svc.Installation(context.Background())
	assert.True(t, errors.Is(err, ErrNotInstalled))
}

func TestUninstall(t *testing.T) {
	svc, doer := newTestService(map[string]string{
		"DELETE /fbe_business/fbe_installs": `{"success":true}`,
	})

	require.NoError(t, svc.Uninstall(context.Background()))
	assert.Equal(t, http.MethodDelete, doer.Last().Method)
	assert.Equal(t, "wc-abc123", doer.Last().Params["fbe_external_business_id"])
}

func TestConfiguration(t *testing.T) {
	t.Run("full", func(t *testing.T) {
		svc, _ := newTestService(map[string]string{
			"GET /fbe_business": `{
				"ig_shopping":{"enabled":true},
				"ig_cta":{"enabled":false},
				"messenger_chat":{"enabled":true,"default_locale":"en_US","domains":["https://shop.test/","nope"]}
			}`,
		})

		config, err := svc.Configuration(context.Background())
		require.NoError(t, err)
		assert.True(t, config.IGShoppingEnabled())
		assert.False(t, config.IGCTAEnabled())

		messenger := config.Messenger()
		assert.True(t, messenger.Enabled())
		assert.Equal(t, "en_US", messenger.DefaultLocale())
		assert.Equal(t, []string{"https://shop.test/"}, messenger.Domains())
	})

	t.Run("no messenger", func(t *testing.T) {
		svc, _ := newTestService(map[string]string{"GET /fbe_business": `{}`})

		config, err := svc.Configuration(context.Background())
		require.NoError(t, err)
		assert.False(t, config.Messenger().Enabled())
		assert.Empty(t, config.Messenger().Domains())
	})
}

func TestUpdateRequests(t *testing.T) {
	messenger := NewMessenger(true, "en_US", []string{"https://shop.test"})
	req := UpdateMessengerRequest("wc-abc123", messenger)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/fbe_business", req.Path)
	assert.Equal(t, messengerJSON{Enabled: true, DefaultLocale: "en_US", Domains: []string{"https://shop.test"}}, req.Body()["messenger_chat"])

	req = UpdatePluginVersionRequest("wc-abc123", PluginVersion{Version: "3.2.1", IsMultisite: true})
	assert.Equal(t, map[string]any{
		"external_client": map[string]any{
			"version_id":                    "3.2.1",
			"is_multisite":                  true,
			"is_woo_all_products_opted_out": false,
		},
	}, req.Body()["business_config"])
}

func TestServiceCalls(t *testing.T) {
	svc, doer := newTestService(map[string]string{
		"POST /fbe_business": `{"success":true}`,
		"GET /22":            `{"id":"22","name":"Acme","link":"https://business.facebook.com/22"}`,
		"GET /55":            `{"id":"55","name":"Acme Page","link":"https://facebook.com/acme"}`,
		"DELETE /u1/permissions/manage_business_extension": `{"success":true}`,
		"POST /wc-abc123/log_events":                       `{"success":true}`,
	})
	ctx := context.Background()

	require.NoError(t, svc.UpdateMessenger(ctx, Messenger{}))
	require.NoError(t, svc.UpdatePluginVersion(ctx, PluginVersion{Version: "1.0.0"}))

	bm, err := svc.BusinessManager(ctx, "22")
	require.NoError(t, err)
	assert.Equal(t, "Acme", bm.Name)
	assert.Equal(t, "https://business.facebook.com/22", bm.URL())

	page, err := svc.Page(ctx, "55")
	require.NoError(t, err)
	assert.Equal(t, "Acme Page", page.Name)
	assert.Equal(t, graph.BucketPages, doer.Last().RateLimitID())

	require.NoError(t, svc.DeleteUserPermission(ctx, "u1", "manage_business_extension"))

	before := len(doer.Requests)
	require.NoError(t, svc.LogEvents(ctx, nil))
	assert.Len(t, doer.Requests, before)

	require.NoError(t, svc.LogEvents(ctx, []LogEvent{{Message: "sync failed", Level: "error"}}))
	assert.Equal(t, []LogEvent{{Message: "sync failed", Level: "error"}}, doer.Last().Body()["logs"])
}
