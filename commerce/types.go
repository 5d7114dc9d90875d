package commerce

import (
	"time"

	"github.com/s0up4200/metasync/graph"
)

// Order states
const (
	StateCreated      = "CREATED"
	StateFBProcessing = "FB_PROCESSING"
	StateInProgress   = "IN_PROGRESS"
	StateCompleted    = "COMPLETED"
)

// Refund reason codes
const (
	RefundBuyersRemorse       = "BUYERS_REMORSE"
	RefundDamagedGoods        = "DAMAGED_GOODS"
	RefundNotAsDescribed      = "NOT_AS_DESCRIBED"
	RefundQualityIssue        = "QUALITY_ISSUE"
	RefundRequestOther        = "REFUND_REASON_OTHER"
	RefundWrongItem           = "WRONG_ITEM"
	RefundFacilitatedShipping = "FACILITATED_SHIPPING"
)

// Cancellation reason codes
const (
	CancelCustomerRequested = "CUSTOMER_REQUESTED"
	CancelOutOfStock        = "OUT_OF_STOCK"
	CancelInvalidAddress    = "INVALID_ADDRESS"
	CancelSuspiciousOrder   = "SUSPICIOUS_ORDER"
	CancelReasonOther       = "CANCEL_REASON_OTHER"
)

// Amount is a monetary value as sent by the orders API
type Amount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// Address is a shipping address
type Address struct {
	Name       string `json:"name"`
	Street1    string `json:"street1"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// ShippingOption is the shipping method chosen by the buyer
type ShippingOption struct {
	Name                  string `json:"name"`
	Price                 Amount `json:"price"`
	CalculatedTax         Amount `json:"calculated_tax"`
	EstimatedShippingTime struct {
		MinDays int `json:"min_days"`
		MaxDays int `json:"max_days"`
	} `json:"estimated_shipping_time"`
}

// PaymentDetails is the estimated breakdown of an order total
type PaymentDetails struct {
	Subtotal struct {
		Items    Amount `json:"items"`
		Shipping Amount `json:"shipping"`
	} `json:"subtotal"`
	Tax         Amount `json:"tax"`
	TotalAmount Amount `json:"total_amount"`
	TaxRemitted bool   `json:"tax_remitted"`
}

// Buyer identifies the purchaser
type Buyer struct {
	Name                  string `json:"name"`
	Email                 string `json:"email"`
	EmailRemarketingOptIn bool   `json:"email_remarketing_option"`
}

// Item is a single order line
type Item struct {
	ID           string `json:"id"`
	ProductID    string `json:"product_id"`
	RetailerID   string `json:"retailer_id"`
	Quantity     int    `json:"quantity"`
	PricePerUnit Amount `json:"price_per_unit"`
	Tax          Amount `json:"tax_details,omitempty"`
	ProductName  string `json:"product_name,omitempty"`
}

// Order is a remote commerce order
type Order struct {
	graph.Envelope
	ID          string `json:"id"`
	OrderStatus struct {
		State string `json:"state"`
	} `json:"order_status"`
	CreatedTime             string          `json:"created"`
	LastUpdatedTime         string          `json:"last_updated"`
	Channel                 string          `json:"channel"`
	MerchantOrderID         string          `json:"merchant_order_id,omitempty"`
	ShipByDate              string          `json:"ship_by_date,omitempty"`
	SelectedShippingOption  *ShippingOption `json:"selected_shipping_option,omitempty"`
	ShippingAddress         *Address        `json:"shipping_address,omitempty"`
	EstimatedPaymentDetails *PaymentDetails `json:"estimated_payment_details,omitempty"`
	BuyerDetails            *Buyer          `json:"buyer_details,omitempty"`
	Items                   struct {
		Data []Item `json:"data"`
	} `json:"items"`
}

// Status returns the order state
func (o *Order) Status() string {
	return o.OrderStatus.State
}

// Created parses the creation time; the zero time is returned when absent or malformed
func (o *Order) Created() time.Time {
	return parseTime(o.CreatedTime)
}

// LastUpdated parses the last update time
func (o *Order) LastUpdated() time.Time {
	return parseTime(o.LastUpdatedTime)
}

// NeedsAcknowledgement reports whether the order is still awaiting the merchant
func (o *Order) NeedsAcknowledgement() bool {
	return o.Status() == StateCreated
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Orders is a page of orders
type Orders struct {
	graph.Page[Order]
}

// ItemQuantity identifies an order line in shipments, refunds and cancellations.
// Either RetailerID or ItemID must be set.
type ItemQuantity struct {
	RetailerID string `json:"retailer_id,omitempty"`
	ItemID     string `json:"item_id,omitempty"`
	Quantity   int    `json:"quantity"`
}

// TrackingInfo describes a shipment
type TrackingInfo struct {
	TrackingNumber     string `json:"tracking_number"`
	Carrier            string `json:"carrier"`
	ShippingMethodName string `json:"shipping_method_name,omitempty"`
}

// Deduction reduces a refund
type Deduction struct {
	DeductionType   string `json:"deduction_type"`
	DeductionAmount Amount `json:"deduction_amount"`
}

// Refund describes a full or partial refund
type Refund struct {
	Items          []ItemQuantity
	ReasonCode     string
	ReasonText     string
	ShippingRefund *Amount
	Deductions     []Deduction
}

// Cancellation describes an order cancellation
type Cancellation struct {
	ReasonCode        string
	ReasonDescription string
	RestockItems      bool
	Items             []ItemQuantity
}
