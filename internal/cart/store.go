package cart

import (
	"context"
	"fmt"

	"github.com/storekeeper/b2b_orders/internal/models"
)

// Store accumulates line items for one client session before checkout,
// keyed by SKU. Implementations must treat UpdateQuantity with qty <= 0
// as Remove.
type Store interface {
	Add(ctx context.Context, key string, item models.LineItem) (models.LineItem, error)
	UpdateQuantity(ctx context.Context, key, sku string, qty int) error
	Remove(ctx context.Context, key, sku string) error
	Clear(ctx context.Context, key string) error
	Items(ctx context.Context, key string) ([]models.LineItem, error)
}

type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	TaxAmount      float64 `json:"tax_amount"`
	DiscountAmount float64 `json:"discount_amount"`
	ShippingCost   float64 `json:"shipping_cost"`
	TotalAmount    float64 `json:"total_amount"`
	ItemCount      int     `json:"item_count"`
}

// Key scopes a cart to one client session within one tenant.
func Key(storeID uint, clientID string) string {
	return fmt.Sprintf("cart:%d:%s", storeID, clientID)
}

func linePrice(item models.LineItem) float64 {
	return float64(item.Quantity)*item.UnitPrice - item.DiscountAmount
}

// ComputeTotals derives the cart summary from the current entries. Shipping
// is a fixed zero pre-checkout.
func ComputeTotals(items []models.LineItem) Totals {
	var t Totals
	for _, it := range items {
		t.Subtotal += it.TotalPrice
		t.TaxAmount += it.TaxAmount
		t.DiscountAmount += it.DiscountAmount
		t.ItemCount += it.Quantity
	}
	t.TotalAmount = t.Subtotal + t.TaxAmount + t.ShippingCost
	return t
}
