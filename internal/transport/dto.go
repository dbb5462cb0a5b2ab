package transport

type OrderItemRequest struct {
	SKU            string  `json:"sku"`
	Name           string  `json:"name"`
	UnitPrice      float64 `json:"unit_price"`
	Quantity       int     `json:"quantity"`
	DiscountAmount float64 `json:"discount_amount"`
	TaxAmount      float64 `json:"tax_amount"`
}

type CreateOrderRequest struct {
	Items              []OrderItemRequest `json:"items"`
	ContactEmail       string             `json:"contact_email"`
	DeliveryAddress    string             `json:"delivery_address"`
	DeliveryCity       string             `json:"delivery_city"`
	DeliveryState      string             `json:"delivery_state"`
	DeliveryPostalCode string             `json:"delivery_postal_code"`
	PaymentStatus      string             `json:"payment_status"`
	PriorityLevel      int                `json:"priority_level"`
	DiscountAmount     float64            `json:"discount_amount"`
	ShippingCost       float64            `json:"shipping_cost"`
}

// UpdateOrderRequest is a sparse patch: absent fields stay untouched, a
// present items array replaces the existing rows wholesale.
type UpdateOrderRequest struct {
	ContactEmail       *string             `json:"contact_email"`
	DeliveryAddress    *string             `json:"delivery_address"`
	DeliveryCity       *string             `json:"delivery_city"`
	DeliveryState      *string             `json:"delivery_state"`
	DeliveryPostalCode *string             `json:"delivery_postal_code"`
	PaymentStatus      *string             `json:"payment_status"`
	PriorityLevel      *int                `json:"priority_level"`
	Items              *[]OrderItemRequest `json:"items"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type AddCartItemRequest struct {
	SKU            string  `json:"sku"`
	Name           string  `json:"name"`
	UnitPrice      float64 `json:"unit_price"`
	Quantity       int     `json:"quantity"`
	DiscountAmount float64 `json:"discount_amount"`
	TaxAmount      float64 `json:"tax_amount"`
}

type UpdateCartQuantityRequest struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type CheckoutRequest struct {
	ContactEmail       string  `json:"contact_email"`
	DeliveryAddress    string  `json:"delivery_address"`
	DeliveryCity       string  `json:"delivery_city"`
	DeliveryState      string  `json:"delivery_state"`
	DeliveryPostalCode string  `json:"delivery_postal_code"`
	PaymentStatus      string  `json:"payment_status"`
	PriorityLevel      int     `json:"priority_level"`
	DiscountAmount     float64 `json:"discount_amount"`
	ShippingCost       float64 `json:"shipping_cost"`
}
