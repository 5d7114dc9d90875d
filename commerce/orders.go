package commerce

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/metasync/graph"
)

// ErrMissingReason is returned when a refund or cancellation has no reason code
var ErrMissingReason = errors.New("reason code is required")

// OrderFields is the field list requested for orders
var OrderFields = []string{
	"id",
	"order_status",
	"created",
	"last_updated",
	"channel",
	"merchant_order_id",
	"ship_by_date",
	"selected_shipping_option",
	"shipping_address",
	"estimated_payment_details",
	"buyer_details",
	"items{id,product_id,retailer_id,quantity,price_per_unit,tax_details,product_name}",
}

// DefaultStates are the states listed when none are given
var DefaultStates = []string{StateCreated, StateFBProcessing}

// ListOptions narrows an orders listing
type ListOptions struct {
	States       []string
	UpdatedAfter time.Time
	Filters      []string
	Limit        int
}

// NextCursor returns the updated_after value for the next listing. It moves
// past every listed order except ones still awaiting acknowledgement that
// handled does not report, so those are listed again. It never moves back
// before prev.
func NextCursor(prev time.Time, orders []Order, handled func(*Order) bool) time.Time {
	var latest, pending time.Time
	for i := range orders {
		order := &orders[i]
		updated := order.LastUpdated()
		if updated.IsZero() {
			continue
		}
		if updated.After(latest) {
			latest = updated
		}
		if order.NeedsAcknowledgement() && !handled(order) {
			if pending.IsZero() || updated.Before(pending) {
				pending = updated
			}
		}
	}

	next := latest
	if !pending.IsZero() {
		next = pending.Add(-time.Second)
	}
	if next.Before(prev) {
		return prev
	}
	return next
}

// ListOrdersRequest lists a commerce account's orders
func ListOrdersRequest(cmsID string, opts ListOptions) *graph.Request {
	states := opts.States
	if len(states) == 0 {
		states = DefaultStates
	}

	params := map[string]any{
		"state":  strings.Join(states, ","),
		"fields": strings.Join(OrderFields, ","),
	}
	if !opts.UpdatedAfter.IsZero() {
		params["updated_after"] = opts.UpdatedAfter.Unix()
	}
	if len(opts.Filters) > 0 {
		params["filters"] = strings.Join(opts.Filters, ",")
	}
	if opts.Limit > 0 {
		params["limit"] = opts.Limit
	}

	return graph.Get("/" + cmsID + "/commerce_orders").
		WithParams(params).
		WithRateLimit(graph.BucketOrders)
}

// OrderRequest reads a single order
func OrderRequest(orderID string) *graph.Request {
	return graph.Get("/" + orderID).
		WithParams(map[string]any{"fields": strings.Join(OrderFields, ",")}).
		WithRateLimit(graph.BucketOrders)
}

// AcknowledgeRequest acknowledges an order with the local order reference
func AcknowledgeRequest(orderID, merchantOrderReference string) *graph.Request {
	return graph.Post("/" + orderID + "/acknowledge_order").
		WithData(map[string]any{"merchant_order_reference": merchantOrderReference}).
		WithRateLimit(graph.BucketOrders).
		Idempotent()
}

// FulfillRequest marks order items as shipped
func FulfillRequest(orderID string, items []ItemQuantity, tracking TrackingInfo) *graph.Request {
	return graph.Post("/" + orderID + "/shipments").
		WithData(map[string]any{
			"items":         items,
			"tracking_info": tracking,
		}).
		WithRateLimit(graph.BucketOrders).
		Idempotent()
}

// RefundRequest refunds order items
func RefundRequest(orderID string, refund Refund) *graph.Request {
	data := map[string]any{
		"items":       refund.Items,
		"reason_code": refund.ReasonCode,
	}
	if refund.ReasonText != "" {
		data["reason_text"] = refund.ReasonText
	}
	if refund.ShippingRefund != nil {
		data["shipping"] = map[string]any{"shipping_refund": *refund.ShippingRefund}
	}
	if len(refund.Deductions) > 0 {
		data["deductions"] = refund.Deductions
	}

	return graph.Post("/" + orderID + "/refunds").
		WithData(data).
		WithRateLimit(graph.BucketOrders).
		Idempotent()
}

// CancelRequest cancels an order
func CancelRequest(orderID string, cancellation Cancellation) *graph.Request {
	data := map[string]any{
		"cancel_reason": map[string]any{
			"reason_code":        cancellation.ReasonCode,
			"reason_description": cancellation.ReasonDescription,
		},
		"restock_items": cancellation.RestockItems,
	}
	if len(cancellation.Items) > 0 {
		data["items"] = cancellation.Items
	}

	return graph.Post("/" + orderID + "/cancellations").
		WithData(data).
		WithRateLimit(graph.BucketOrders).
		Idempotent()
}

// Service sends order requests
type Service struct {
	doer   graph.Doer
	logger zerolog.Logger
}

// NewService creates an orders service
func NewService(doer graph.Doer, logger zerolog.Logger) *Service {
	return &Service{doer: doer, logger: logger}
}

// List retrieves every order matching opts, following pagination
func (s *Service) List(ctx context.Context, cmsID string, opts ListOptions) ([]Order, error) {
	orders, err := graph.Collect[Order](ctx, s.doer, ListOrdersRequest(cmsID, opts), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	s.logger.Debug().Int("count", len(orders)).Msg("Retrieved orders")
	return orders, nil
}

// Get retrieves a single order
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	if err := s.doer.Do(ctx, OrderRequest(orderID), &order); err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}
	return &order, nil
}

// Acknowledge acknowledges an order
func (s *Service) Acknowledge(ctx context.Context, orderID, merchantOrderReference string) error {
	return s.mutate(ctx, AcknowledgeRequest(orderID, merchantOrderReference), "acknowledge order "+orderID)
}

// Fulfill reports a shipment
func (s *Service) Fulfill(ctx context.Context, orderID string, items []ItemQuantity, tracking TrackingInfo) error {
	if len(items) == 0 {
		return fmt.Errorf("failed to fulfill order %s: no items", orderID)
	}
	return s.mutate(ctx, FulfillRequest(orderID, items, tracking), "fulfill order "+orderID)
}

// Refund issues a refund
func (s *Service) Refund(ctx context.Context, orderID string, refund Refund) error {
	if refund.ReasonCode == "" {
		return fmt.Errorf("failed to refund order %s: %w", orderID, ErrMissingReason)
	}
	return s.mutate(ctx, RefundRequest(orderID, refund), "refund order "+orderID)
}

// Cancel cancels an order
func (s *Service) Cancel(ctx context.Context, orderID string, cancellation Cancellation) error {
	if cancellation.ReasonCode == "" {
		return fmt.Errorf("failed to cancel order %s: %w", orderID, ErrMissingReason)
	}
	return s.mutate(ctx, CancelRequest(orderID, cancellation), "cancel order "+orderID)
}

func (s *Service) mutate(ctx context.Context, req *graph.Request, what string) error {
	var res graph.Success
	if err := s.doer.Do(ctx, req, &res); err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}

	s.logger.Info().Str("idempotency_key", req.IdempotencyKey()).Msgf("Orders: %s", what)
	return nil
}
