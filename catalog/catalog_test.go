package catalog

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

func newTestService(responses map[string]string) (*Service, *graphtest.Doer) {
	doer := graphtest.New(responses)
	return NewService(doer, zerolog.Nop()), doer
}

func TestProductGroupProductsRequest(t *testing.T) {
	req := ProductGroupProductsRequest("165835951532406", 100)

	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/165835951532406/products", req.Path)
	assert.Equal(t, map[string]any{
		"fields": "id,retailer_id",
		"limit":  100,
	}, req.Params)
	assert.Equal(t, graph.BucketCatalog, req.RateLimitID())
	assert.Nil(t, req.Body())
}

func TestProductGroupProductsRequestDefaultLimit(t *testing.T) {
	req := ProductGroupProductsRequest("1", 0)
	assert.Equal(t, DefaultGroupProductsLimit, req.Params["limit"])
}

func TestProductGroupProducts(t *testing.T) {
	svc, doer := newTestService(map[string]string{
		"GET /165835951532406/products": `{
			"data": [
				{"id": "111", "retailer_id": "sku-1_10"},
				{"id": "222", "retailer_id": "wc_post_id_11"},
				{"id": "333"}
			]
		}`,
	})

	items, err := svc.ProductGroupProducts(context.Background(), "165835951532406", 100)
	require.NoError(t, err)
	require.Len(t, items.Data, 3)

	assert.Equal(t, map[string]string{
		"sku-1_10":      "111",
		"wc_post_id_11": "222",
	}, items.IDs())
	assert.False(t, items.Paging.HasNext())
	assert.Equal(t, 100, doer.Last().Params["limit"])
}

func TestCatalog(t *testing.T) {
	svc, doer := newTestService(map[string]string{
		"GET /42": `{"id":"42","name":"Shop catalog"}`,
	})

	got, err := svc.Catalog(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Shop catalog", got.Name)
	assert.Equal(t, "name", doer.Last().Params["fields"])
}

func TestCatalogError(t *testing.T) {
	svc, doer := newTestService(map[string]string{})
	doer.Errors["GET /42"] = &graph.APIError{StatusCode: 400, Code: 100, Subcode: 33, Message: "Unsupported get request"}

	_, err := svc.Catalog(context.Background(), "42")
	require.Error(t, err)

	var apiErr *graph.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsNotFound())
}

func TestFindProductItem(t *testing.T) {
	req := FindProductItemRequest("42", "sku-1_10")
	assert.Equal(t, "/catalog:42:c2t1LTFfMTA=", req.Path)
	assert.Equal(t, "id,product_group{id}", req.Params["fields"])

	svc, _ := newTestService(map[string]string{
		"GET /catalog:42:c2t1LTFfMTA=": `{"id":"111","product_group":{"id":"999"}}`,
	})

	lookup, err := svc.FindProductItem(context.Background(), "42", "sku-1_10")
	require.NoError(t, err)
	assert.Equal(t, "111", lookup.ID)
	assert.Equal(t, "999", lookup.GroupID())
}

func TestProductItemMutations(t *testing.T) {
	svc, doer := newTestService(map[string]string{
		"POST /999/products": `{"id":"111"}`,
		"POST /111":          `{"id":"111"}`,
		"DELETE /111":        `{"success":true}`,
	})
	ctx := context.Background()

	id, err := svc.CreateProductItem(ctx, "999", map[string]any{"retailer_id": "sku-1_10"})
	require.NoError(t, err)
	assert.Equal(t, "111", id)
	assert.Equal(t, map[string]any{"retailer_id": "sku-1_10"}, doer.Last().Body())

	id, err = svc.UpdateProductItem(ctx, "111", map[string]any{"price": 1000})
	require.NoError(t, err)
	assert.Equal(t, "111", id)

	require.NoError(t, svc.DeleteProductItem(ctx, "111"))
	assert.Equal(t, http.MethodDelete, doer.Last().Method)
}

func TestProductGroups(t *testing.T) {
	req := DeleteProductGroupRequest("999")
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/999", req.Path)
	assert.Equal(t, "delete_items", req.Params["deletion_method"])

	svc, doer := newTestService(map[string]string{
		"POST /42/product_groups": `{"id":"999"}`,
		"POST /999":               `{"id":"999"}`,
		"DELETE /999":             `{"success":true}`,
	})
	ctx := context.Background()

	id, err := svc.CreateProductGroup(ctx, "42", map[string]any{"retailer_id": "wc_post_id_10"})
	require.NoError(t, err)
	assert.Equal(t, "999", id)

	_, err = svc.UpdateProductGroup(ctx, "999", map[string]any{"variants": []any{}})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProductGroup(ctx, "999"))
	assert.Len(t, doer.Requests, 3)
}

func TestProductSets(t *testing.T) {
	filter, err := ProductSetFilter([]string{"a", "b"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"retailer_id":{"is_any":["a","b"]}}`, filter)

	req := DeleteProductSetRequest("77", true)
	assert.Equal(t, true, req.Params["allow_live_product_set_deletion"])

	svc, _ := newTestService(map[string]string{
		"POST /42/product_sets": `{"id":"77"}`,
		"POST /77":              `{"id":"77"}`,
		"DELETE /77":            `{"success":true}`,
	})
	ctx := context.Background()

	id, err := svc.CreateProductSet(ctx, "42", map[string]any{"name": "Sale", "filter": filter})
	require.NoError(t, err)
	assert.Equal(t, "77", id)

	_, err = svc.UpdateProductSet(ctx, "77", map[string]any{"name": "Summer sale"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProductSet(ctx, "77", false))
}

func TestItemsBatch(t *testing.T) {
	requests := []BatchRequest{
		{Method: MethodUpdate, Data: map[string]any{"id": "sku-1_10", "title": "Shirt"}},
		{Method: MethodDelete, Data: map[string]any{"id": "wc_post_id_11"}},
	}

	req := ItemsBatchRequest("42", requests)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/42/items_batch", req.Path)
	body := req.Body()
	assert.Equal(t, true, body["allow_upsert"])
	assert.Equal(t, "PRODUCT_ITEM", body["item_type"])
	assert.Equal(t, requests, body["requests"])

	svc, _ := newTestService(map[string]string{
		"POST /42/items_batch": `{
			"handles": ["AcwX"],
			"validation_status": [
				{"retailer_id": "sku-1_10", "errors": [{"message": "price missing"}], "warnings": []}
			]
		}`,
	})

	res, err := svc.ItemsBatch(context.Background(), "42", requests)
	require.NoError(t, err)
	assert.Equal(t, []string{"AcwX"}, res.Handles)
	assert.True(t, res.HasErrors())
}

func TestItemsBatchLimits(t *testing.T) {
	svc, doer := newTestService(map[string]string{})

	res, err := svc.ItemsBatch(context.Background(), "42", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Handles)
	assert.Empty(t, doer.Requests)

	_, err = svc.ItemsBatch(context.Background(), "42", make([]BatchRequest, MaxBatchSize+1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds limit")
}

func TestBatchStatus(t *testing.T) {
	svc, doer := newTestService(map[string]string{
		"GET /42/check_batch_request_status": `{
			"data": [{"handle":"AcwX","status":"finished","errors_total_count":1,
				"errors":[{"line":2,"id":"sku-1_10","message":"invalid image"}]}]
		}`,
	})

	status, err := svc.BatchStatus(context.Background(), "42", "AcwX")
	require.NoError(t, err)
	assert.True(t, status.Finished())
	assert.Equal(t, 1, status.ErrorsTotalCount)
	assert.Equal(t, "invalid image", status.Errors[0].Message)
	assert.Equal(t, "AcwX", doer.Last().Params["handle"])
}

func TestBatchStatusEmpty(t *testing.T) {
	svc, _ := newTestService(map[string]string{
		"GET /42/check_batch_request_status": `{"data":[]}`,
	})

	_, err := svc.BatchStatus(context.Background(), "42", "AcwX")
	require.Error(t, err)
}

func TestFeeds(t *testing.T) {
	svc, doer := newTestService(map[string]string{
		"GET /42/product_feeds":  `{"data":[{"id":"5","name":"WooCommerce feed"}]}`,
		"GET /5":                 `{"id":"5","name":"WooCommerce feed","latest_upload":{"id":"6"}}`,
		"POST /42/product_feeds": `{"id":"5"}`,
		"GET /5/uploads":         `{"data":[{"id":"6","error_count":2}]}`,
		"GET /6":                 `{"id":"6","num_detected_items":10,"num_persisted_items":8}`,
	})
	ctx := context.Background()

	feeds, err := svc.Feeds(ctx, "42")
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	assert.Equal(t, "WooCommerce feed", feeds[0].Name)

	feed, err := svc.Feed(ctx, "5")
	require.NoError(t, err)
	require.NotNil(t, feed.LatestUpload)
	assert.Equal(t, "6", feed.LatestUpload.ID)

	id, err := svc.CreateFeed(ctx, "42", map[string]any{
		"name":     "WooCommerce feed",
		"schedule": FeedSchedule("https://shop.test/feed?secret=s", 3),
	})
	require.NoError(t, err)
	assert.Equal(t, "5", id)
	assert.Equal(t, "DAILY", doer.Last().Body()["schedule"].(map[string]any)["interval"])

	uploads, err := svc.FeedUploads(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, 2, uploads[0].ErrorCount)

	upload, err := svc.Upload(ctx, "6")
	require.NoError(t, err)
	assert.Equal(t, 8, upload.NumPersistedItems)
}

func TestAllCatalogProducts(t *testing.T) {
	svc, _ := newTestService(map[string]string{
		"GET /42/products": `{"data":[{"id":"1","retailer_id":"a"},{"id":"2","retailer_id":"b"}]}`,
	})

	items, err := svc.AllCatalogProducts(context.Background(), "42", 500)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
