package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storekeeper/b2b_orders/internal/cart"
	"github.com/storekeeper/b2b_orders/internal/logging"
	"github.com/storekeeper/b2b_orders/internal/models"
	"github.com/storekeeper/b2b_orders/internal/notifier"
	"github.com/storekeeper/b2b_orders/internal/repo"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrEmptyCart  = errors.New("no items in cart")
)

// CreateOrderInput carries the line items and delivery/payment metadata for
// one checkout. OrderDiscount and ShippingCost default to zero.
type CreateOrderInput struct {
	Items              []models.LineItem
	ContactEmail       string
	DeliveryAddress    string
	DeliveryCity       string
	DeliveryState      string
	DeliveryPostalCode string
	PaymentStatus      string
	PriorityLevel      int
	OrderDiscount      float64
	ShippingCost       float64
}

// NewOrderNumber builds the shareable display identifier: prefix, coarse
// UTC timestamp, short random suffix. Uniqueness is backed by an index on
// the orders table rather than by this format.
func NewOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("B2B-%s-%s", time.Now().UTC().Format("20060102150405"), suffix)
}

// BuildOrder computes the aggregate from the line items:
//
//	item.TotalPrice = qty*unitPrice - itemDiscount
//	Subtotal        = sum of item totals
//	TaxAmount       = sum of per-item tax (caller-supplied, never recomputed)
//	TotalAmount     = Subtotal + TaxAmount + ShippingCost - OrderDiscount
//
// Item-level discounts live inside Subtotal; DiscountAmount on the header is
// the order-level discount only, so nothing is counted twice.
func BuildOrder(in CreateOrderInput) (*models.Order, []models.OrderItem, error) {
	if len(in.Items) == 0 {
		return nil, nil, fmt.Errorf("%w: items required", ErrValidation)
	}

	var subtotal, tax float64
	items := make([]models.OrderItem, 0, len(in.Items))
	for i := range in.Items {
		li := in.Items[i]
		if li.SKU == "" {
			return nil, nil, fmt.Errorf("%w: sku required", ErrValidation)
		}
		if li.Quantity <= 0 {
			return nil, nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		if li.UnitPrice < 0 {
			return nil, nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
		if li.DiscountAmount < 0 || li.TaxAmount < 0 {
			return nil, nil, fmt.Errorf("%w: discount and tax must be >= 0", ErrValidation)
		}

		lineTotal := float64(li.Quantity)*li.UnitPrice - li.DiscountAmount

		items = append(items, models.OrderItem{
			SKU:            li.SKU,
			Name:           li.Name,
			UnitPrice:      li.UnitPrice,
			Quantity:       li.Quantity,
			TotalPrice:     lineTotal,
			DiscountAmount: li.DiscountAmount,
			TaxAmount:      li.TaxAmount,
		})
		subtotal += lineTotal
		tax += li.TaxAmount
	}

	paymentStatus := in.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = models.PaymentStatusPending
	}
	if !models.ValidPaymentStatus(paymentStatus) {
		return nil, nil, fmt.Errorf("%w: unknown payment status %q", ErrValidation, paymentStatus)
	}

	priority := in.PriorityLevel
	if priority == 0 {
		priority = models.PriorityNormal
	}
	if priority < models.PriorityNormal || priority > models.PriorityUrgent {
		return nil, nil, fmt.Errorf("%w: priority level out of range", ErrValidation)
	}

	order := &models.Order{
		OrderNumber:        NewOrderNumber(),
		ContactEmail:       in.ContactEmail,
		DeliveryAddress:    in.DeliveryAddress,
		DeliveryCity:       in.DeliveryCity,
		DeliveryState:      in.DeliveryState,
		DeliveryPostalCode: in.DeliveryPostalCode,
		OrderStatus:        models.OrderStatusPending,
		PaymentStatus:      paymentStatus,
		Subtotal:           subtotal,
		TaxAmount:          tax,
		DiscountAmount:     in.OrderDiscount,
		ShippingCost:       in.ShippingCost,
		TotalAmount:        subtotal + tax + in.ShippingCost - in.OrderDiscount,
		PriorityLevel:      priority,
	}

	return order, items, nil
}

type OrderService struct {
	Repo   *repo.OrderRepo
	Cart   cart.Store
	Outbox *notifier.Outbox
}

// CreateOrder persists the aggregate and, when a contact address is present,
// hands the flattened order to the outbox. Notification delivery cannot
// fail the creation.
func (s *OrderService) CreateOrder(ctx context.Context, storeID uint, in CreateOrderInput) (*models.Order, error) {
	order, items, err := BuildOrder(in)
	if err != nil {
		return nil, err
	}
	order.StoreID = storeID

	created, err := s.Repo.Create(ctx, order, items)
	if err != nil {
		return nil, err
	}

	if in.ContactEmail != "" && s.Outbox != nil {
		s.Outbox.Enqueue(notifier.Message{
			Kind:  notifier.KindB2B,
			Email: notifier.FlattenOrder(created, in.ContactEmail),
		})
	}

	return created, nil
}

// Checkout turns the client's cart into an order and clears the cart on
// success. The cart is left intact when persistence fails.
func (s *OrderService) Checkout(ctx context.Context, storeID uint, clientID string, in CreateOrderInput) (*models.Order, error) {
	key := cart.Key(storeID, clientID)

	items, err := s.Cart.Items(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	in.Items = items

	order, err := s.CreateOrder(ctx, storeID, in)
	if err != nil {
		return nil, err
	}

	if err := s.Cart.Clear(ctx, key); err != nil {
		// The order exists; a stale cart is the lesser failure.
		logging.FromContext(ctx).Warn("cart clear after checkout failed", "key", key, "error", err)
	}
	return order, nil
}
