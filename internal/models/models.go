package models

import (
	"time"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusPartial  = "partial"
	PaymentStatusRefunded = "refunded"
)

const (
	PriorityNormal = 1
	PriorityHigh   = 2
	PriorityUrgent = 3
)

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusPartial, PaymentStatusRefunded:
		return true
	}
	return false
}

// Order is the aggregate root. Totals are computed once at creation and are
// not recomputed on later updates.
type Order struct {
	ID                 uint        `gorm:"primaryKey"                json:"id"`
	OrderNumber        string      `gorm:"uniqueIndex;not null"      json:"order_number"`
	StoreID            uint        `gorm:"index;not null"            json:"store_id"`
	ContactEmail       string      `json:"contact_email"`
	DeliveryAddress    string      `json:"delivery_address"`
	DeliveryCity       string      `json:"delivery_city"`
	DeliveryState      string      `json:"delivery_state"`
	DeliveryPostalCode string      `json:"delivery_postal_code"`
	OrderStatus        string      `gorm:"not null;default:pending"  json:"order_status"`
	PaymentStatus      string      `gorm:"not null;default:pending"  json:"payment_status"`
	Subtotal           float64     `gorm:"not null"                  json:"subtotal"`
	TaxAmount          float64     `gorm:"not null"                  json:"tax_amount"`
	DiscountAmount     float64     `gorm:"not null"                  json:"discount_amount"`
	ShippingCost       float64     `gorm:"not null"                  json:"shipping_cost"`
	TotalAmount        float64     `gorm:"not null"                  json:"total_amount"`
	PriorityLevel      int         `gorm:"not null;default:1"        json:"priority_level"`
	CreatedAt          time.Time   `json:"created_at"`
	ConfirmedAt        *time.Time  `json:"confirmed_at,omitempty"`
	ShippedAt          *time.Time  `json:"shipped_at,omitempty"`
	DeliveredAt        *time.Time  `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time  `json:"cancelled_at,omitempty"`
	Items              []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

type OrderItem struct {
	ID             uint    `gorm:"primaryKey"                 json:"id"`
	OrderID        uint    `gorm:"index;not null"             json:"order_id"`
	SKU            string  `gorm:"not null"                   json:"sku"`
	Name           string  `gorm:"not null"                   json:"name"`
	UnitPrice      float64 `gorm:"not null"                   json:"unit_price"`
	Quantity       int     `gorm:"not null;check:quantity>0"  json:"quantity"`
	TotalPrice     float64 `gorm:"not null"                   json:"total_price"`
	DiscountAmount float64 `gorm:"not null;default:0"         json:"discount_amount"`
	TaxAmount      float64 `gorm:"not null;default:0"         json:"tax_amount"`
}

// LineItem is the transient pre-checkout shape held in the cart store.
type LineItem struct {
	SKU            string  `json:"sku"`
	Name           string  `json:"name"`
	UnitPrice      float64 `json:"unit_price"`
	Quantity       int     `json:"quantity"`
	DiscountAmount float64 `json:"discount_amount"`
	TaxAmount      float64 `json:"tax_amount"`
	TotalPrice     float64 `json:"total_price"`
}
