package commerce

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/metasync/graph"
	"github.com/s0up4200/metasync/graph/graphtest"
)

const orderJSON = `{
	"id": "368508827392800",
	"order_status": {"state": "CREATED"},
	"created": "2024-03-01T10:00:00+00:00",
	"last_updated": "2024-03-01T10:05:00+0000",
	"channel": "instagram",
	"selected_shipping_option": {"name": "Standard", "price": {"amount": "5.00", "currency": "USD"}},
	"shipping_address": {"name": "Jane Doe", "street1": "1 Main St", "city": "Springfield", "state": "IL", "postal_code": "62701", "country": "US"},
	"estimated_payment_details": {"total_amount": {"amount": "25.00", "currency": "USD"}},
	"buyer_details": {"name": "Jane Doe", "email": "jane@example.com"},
	"items": {"data": [{"id": "1", "retailer_id": "sku-1_10", "quantity": 2, "price_per_unit": {"amount": "10.00", "currency": "USD"}}]}
}`

func TestListOrdersRequest(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		req := ListOrdersRequest("1234", ListOptions{})
		assert.Equal(t, http.MethodGet, req.Method)
		assert.Equal(t, "/1234/commerce_orders", req.Path)
		assert.Equal(t, "CREATED,FB_PROCESSING", req.Params["state"])
		assert.Contains(t, req.Params["fields"], "order_status")
		assert.NotContains(t, req.Params, "updated_after")
		assert.Equal(t, graph.BucketOrders, req.RateLimitID())
		assert.False(t, req.IsIdempotent())
	})

	t.Run("with options", func(t *testing.T) {
		since := time.Unix(1700000000, 0)
		req := ListOrdersRequest("1234", ListOptions{
			States:       []string{StateCompleted},
			UpdatedAfter: since,
			Filters:      []string{"has_cancellations"},
			Limit:        25,
		})
		assert.Equal(t, "COMPLETED", req.Params["state"])
		assert.Equal(t, int64(1700000000), req.Params["updated_after"])
		assert.Equal(t, "has_cancellations", req.Params["filters"])
		assert.Equal(t, 25, req.Params["limit"])
	})
}

func TestMutatingRequestsAreIdempotent(t *testing.T) {
	tests := []struct {
		name string
		req  *graph.Request
		path string
	}{
		{"acknowledge", AcknowledgeRequest("9", "1001"), "/9/acknowledge_order"},
		{"fulfill", FulfillRequest("9", []ItemQuantity{{RetailerID: "a", Quantity: 1}}, TrackingInfo{TrackingNumber: "1Z", Carrier: "UPS"}), "/9/shipments"},
		{"refund", RefundRequest("9", Refund{ReasonCode: RefundDamagedGoods}), "/9/refunds"},
		{"cancel", CancelRequest("9", Cancellation{ReasonCode: CancelOutOfStock}), "/9/cancellations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.MethodPost, tt.req.Method)
			assert.Equal(t, tt.path, tt.req.Path)
			assert.True(t, tt.req.IsIdempotent())

			key := tt.req.IdempotencyKey()
			require.NotEmpty(t, key)
			assert.Equal(t, key, tt.req.Body()["idempotency_key"])
			assert.Equal(t, key, tt.req.IdempotencyKey())
		})
	}
}

func TestRefundRequestBody(t *testing.T) {
	req := RefundRequest("9", Refund{
		Items:          []ItemQuantity{{RetailerID: "sku-1_10", Quantity: 1}},
		ReasonCode:     RefundDamagedGoods,
		ReasonText:     "Broken on arrival",
		ShippingRefund: &Amount{Amount: "5.00", Currency: "USD"},
		Deductions:     []Deduction{{DeductionType: "RETURN_SHIPPING", DeductionAmount: Amount{Amount: "1.00", Currency: "USD"}}},
	})

	body := req.Body()
	assert.Equal(t, "DAMAGED_GOODS", body["reason_code"])
	assert.Equal(t, "Broken on arrival", body["reason_text"])
	assert.Equal(t, map[string]any{"shipping_refund": Amount{Amount: "5.00", Currency: "USD"}}, body["shipping"])
	assert.Len(t, body["deductions"], 1)
}

func TestCancelRequestBody(t *testing.T) {
	req := CancelRequest("9", Cancellation{
		ReasonCode:        CancelCustomerRequested,
		ReasonDescription: "Changed mind",
		RestockItems:      true,
	})

	body := req.Body()
	assert.Equal(t, map[string]any{
		"reason_code":        "CUSTOMER_REQUESTED",
		"reason_description": "Changed mind",
	}, body["cancel_reason"])
	assert.Equal(t, true, body["restock_items"])
	assert.NotContains(t, body, "items")
}

func TestServiceGet(t *testing.T) {
	doer := graphtest.New(map[string]string{"GET /368508827392800": orderJSON})
	svc := NewService(doer, zerolog.Nop())

	order, err := svc.Get(context.Background(), "368508827392800")
	require.NoError(t, err)

	assert.Equal(t, StateCreated, order.Status())
	assert.True(t, order.NeedsAcknowledgement())
	assert.Equal(t, 2024, order.Created().Year())
	assert.Equal(t, 5, order.LastUpdated().Minute())
	assert.Equal(t, "instagram", order.Channel)
	assert.Equal(t, "Springfield", order.ShippingAddress.City)
	assert.Equal(t, "25.00", order.EstimatedPaymentDetails.TotalAmount.Amount)
	assert.Equal(t, "jane@example.com", order.BuyerDetails.Email)
	require.Len(t, order.Items.Data, 1)
	assert.Equal(t, 2, order.Items.Data[0].Quantity)
}

func TestServiceList(t *testing.T) {
	doer := graphtest.New(map[string]string{
		"GET /1234/commerce_orders": `{"data":[` + orderJSON + `]}`,
	})
	svc := NewService(doer, zerolog.Nop())

	orders, err := svc.List(context.Background(), "1234", ListOptions{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "368508827392800", orders[0].ID)
}

func TestServiceMutations(t *testing.T) {
	doer := graphtest.New(map[string]string{
		"POST /9/acknowledge_order": `{"success":true}`,
		"POST /9/shipments":         `{"success":true}`,
		"POST /9/refunds":           `{"success":true}`,
		"POST /9/cancellations":     `{"success":true}`,
	})
	svc := NewService(doer, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, svc.Acknowledge(ctx, "9", "1001"))
	assert.Equal(t, "1001", doer.Last().Body()["merchant_order_reference"])

	require.NoError(t, svc.Fulfill(ctx, "9", []ItemQuantity{{RetailerID: "a", Quantity: 1}}, TrackingInfo{TrackingNumber: "1Z", Carrier: "UPS"}))
	require.NoError(t, svc.Refund(ctx, "9", Refund{ReasonCode: RefundRequestOther}))
	require.NoError(t, svc.Cancel(ctx, "9", Cancellation{ReasonCode: CancelReasonOther}))
	assert.Len(t, doer.Requests, 4)
}

func TestServiceValidation(t *testing.T) {
	doer := graphtest.New(map[string]string{})
	svc := NewService(doer, zerolog.Nop())
	ctx := context.Background()

	err := svc.Refund(ctx, "9", Refund{})
	assert.ErrorIs(t, err, ErrMissingReason)

	err = svc.Cancel(ctx, "9", Cancellation{})
	assert.ErrorIs(t, err, ErrMissingReason)

	err = svc.Fulfill(ctx, "9", nil, TrackingInfo{})
	assert.Error(t, err)

	assert.Empty(t, doer.Requests)
}

func TestNextCursor(t *testing.T) {
	order := func(id, state, updated string) Order {
		var o Order
		o.ID = id
		o.OrderStatus.State = state
		o.LastUpdatedTime = updated
		return o
	}
	at := func(value string) time.Time {
		t.Helper()
		ts, err := time.Parse(time.RFC3339, value)
		require.NoError(t, err)
		return ts
	}
	handled := func(ids ...string) func(*Order) bool {
		return func(o *Order) bool {
			for _, id := range ids {
				if o.ID == id {
					return true
				}
			}
			return false
		}
	}

	prev := at("2024-03-01T09:00:00Z")
	orders := []Order{
		order("1", StateInProgress, "2024-03-01T10:00:00+0000"),
		order("2", StateCreated, "2024-03-01T10:05:00+0000"),
		order("3", StateFBProcessing, "2024-03-01T10:10:00+0000"),
	}

	tests := []struct {
		name    string
		prev    time.Time
		handled func(*Order) bool
		want    time.Time
	}{
		{"everything handled", prev, handled("2"), at("2024-03-01T10:10:00Z")},
		{"stops before unacknowledged order", prev, handled(), at("2024-03-01T10:04:59Z")},
		{"never moves back", at("2024-03-01T10:05:00Z"), handled(), at("2024-03-01T10:05:00Z")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := NextCursor(tt.prev, orders, tt.handled)
			assert.True(t, tt.want.Equal(next), "want %s, got %s", tt.want, next)
		})
	}

	t.Run("no orders", func(t *testing.T) {
		assert.Equal(t, prev, NextCursor(prev, nil, handled()))
	})
}
