package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/storekeeper/b2b_orders/internal/models"
)

var priorityLabels = map[int]string{
	models.PriorityNormal: "normal",
	models.PriorityHigh:   "high",
	models.PriorityUrgent: "urgent",
}

type EmailItem struct {
	SKU        string  `json:"sku"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
	TotalPrice float64 `json:"total_price"`
}

// OrderEmail is the flattened wire shape the email service expects.
type OrderEmail struct {
	RecipientEmail     string      `json:"recipient_email"`
	OrderNumber        string      `json:"order_number"`
	StoreID            uint        `json:"store_id"`
	OrderStatus        string      `json:"order_status"`
	PaymentStatus      string      `json:"payment_status"`
	Priority           string      `json:"priority"`
	DeliveryAddress    string      `json:"delivery_address"`
	DeliveryCity       string      `json:"delivery_city"`
	DeliveryState      string      `json:"delivery_state"`
	DeliveryPostalCode string      `json:"delivery_postal_code"`
	Subtotal           float64     `json:"subtotal"`
	TaxAmount          float64     `json:"tax_amount"`
	DiscountAmount     float64     `json:"discount_amount"`
	ShippingCost       float64     `json:"shipping_cost"`
	TotalAmount        float64     `json:"total_amount"`
	Items              []EmailItem `json:"items"`
}

// FlattenOrder maps a persisted aggregate into the email wire shape,
// replacing the priority integer with its label.
func FlattenOrder(o *models.Order, recipient string) OrderEmail {
	label, ok := priorityLabels[o.PriorityLevel]
	if !ok {
		label = "normal"
	}

	items := make([]EmailItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, EmailItem{
			SKU:        it.SKU,
			Name:       it.Name,
			UnitPrice:  it.UnitPrice,
			Quantity:   it.Quantity,
			TotalPrice: it.TotalPrice,
		})
	}

	return OrderEmail{
		RecipientEmail:     recipient,
		OrderNumber:        o.OrderNumber,
		StoreID:            o.StoreID,
		OrderStatus:        o.OrderStatus,
		PaymentStatus:      o.PaymentStatus,
		Priority:           label,
		DeliveryAddress:    o.DeliveryAddress,
		DeliveryCity:       o.DeliveryCity,
		DeliveryState:      o.DeliveryState,
		DeliveryPostalCode: o.DeliveryPostalCode,
		Subtotal:           o.Subtotal,
		TaxAmount:          o.TaxAmount,
		DiscountAmount:     o.DiscountAmount,
		ShippingCost:       o.ShippingCost,
		TotalAmount:        o.TotalAmount,
		Items:              items,
	}
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(emailServiceURL string) *Client {
	return &Client{
		baseURL: emailServiceURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *Client) SendB2BOrderEmail(ctx context.Context, msg OrderEmail) error {
	return c.post(ctx, "/api/email/b2b", msg)
}

func (c *Client) SendOrderEmail(ctx context.Context, msg OrderEmail) error {
	return c.post(ctx, "/api/email/order", msg)
}

func (c *Client) post(ctx context.Context, path string, msg OrderEmail) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email service request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("email service returned %d", resp.StatusCode)
	}
	return nil
}
