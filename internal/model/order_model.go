package model

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
	PaymentFailed = "failed"
)

// Order represents an entry in the orders table. Monetary fields are fixed
// at creation time.
type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	Status          OrderStatus     `json:"status"`
	Subtotal        float64         `json:"subtotal"`
	Tax             float64         `json:"tax"`
	ShippingCost    float64         `json:"shipping_cost"`
	Discount        float64         `json:"discount"`
	Total           float64         `json:"total"`
	ShippingAddress AddressSnapshot `json:"shipping_address"`
	BillingAddress  AddressSnapshot `json:"billing_address"`
	ShippingMethod  string          `json:"shipping_method"`
	PaymentMethod   string          `json:"payment_method"`
	CouponID        *int64          `json:"coupon_id,omitempty"`
	PaymentStatus   string          `json:"payment_status"`
	TrackingNumber  string          `json:"tracking_number,omitempty"`
	Items           []OrderItem     `json:"items,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem represents a row in the order_items table.
type OrderItem struct {
	ID        int64             `json:"id"`
	OrderID   int64             `json:"order_id"`
	ProductID int64             `json:"product_id"`
	Title     string            `json:"title"`
	Quantity  int               `json:"quantity"`
	UnitPrice float64           `json:"unit_price"`
	Options   map[string]string `json:"options,omitempty"`
}

type LineItemInput struct {
	ProductID int64             `json:"product_id"`
	Quantity  int               `json:"quantity"`
	UnitPrice float64           `json:"unit_price"`
	Options   map[string]string `json:"options,omitempty"`
}

// PlaceOrderInput carries the client-computed checkout.
type PlaceOrderInput struct {
	IdempotencyKey  string          `json:"idempotency_key"`
	Items           []LineItemInput `json:"items"`
	Subtotal        float64         `json:"subtotal"`
	Tax             float64         `json:"tax"`
	ShippingCost    float64         `json:"shipping_cost"`
	Discount        float64         `json:"discount"`
	Total           float64         `json:"total"`
	ShippingAddress AddressSnapshot `json:"shipping_address"`
	BillingAddress  AddressSnapshot `json:"billing_address"`
	ShippingMethod  string          `json:"shipping_method"`
	PaymentMethod   string          `json:"payment_method"`
	CouponID        *int64          `json:"coupon_id,omitempty"`
}

type PlaceOrderResult struct {
	OrderID  int64 `json:"order_id"`
	Replayed bool  `json:"replayed"`
}

// Quote is the server-side checkout computation for the current cart.
type Quote struct {
	Items          []CartLine `json:"items"`
	Subtotal       float64    `json:"subtotal"`
	Discount       float64    `json:"discount"`
	Tax            float64    `json:"tax"`
	ShippingCost   float64    `json:"shipping_cost"`
	Total          float64    `json:"total"`
	CouponCode     string     `json:"coupon_code,omitempty"`
	CouponID       *int64     `json:"coupon_id,omitempty"`
	ShippingMethod string     `json:"shipping_method,omitempty"`
}

type OrderListFilter struct {
	Status OrderStatus
	Limit  int
	Offset int
}
