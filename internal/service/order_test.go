package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/storekeeper/b2b_orders/internal/cart"
	"github.com/storekeeper/b2b_orders/internal/logging"
	"github.com/storekeeper/b2b_orders/internal/models"
	"github.com/storekeeper/b2b_orders/internal/notifier"
	"github.com/storekeeper/b2b_orders/internal/repo"
)

func InitTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func TestBuildOrderTotals(t *testing.T) {
	in := CreateOrderInput{
		Items: []models.LineItem{
			{SKU: "A", Name: "A", UnitPrice: 100, Quantity: 2, DiscountAmount: 10, TaxAmount: 19},
			{SKU: "B", Name: "B", UnitPrice: 40, Quantity: 5, TaxAmount: 8},
		},
	}

	order, items, err := BuildOrder(in)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// per item: qty*price - discount
	require.Equal(t, float64(190), items[0].TotalPrice)
	require.Equal(t, float64(200), items[1].TotalPrice)

	require.Equal(t, float64(390), order.Subtotal)
	require.Equal(t, float64(27), order.TaxAmount)
	require.Equal(t, float64(0), order.DiscountAmount)
	require.Equal(t, float64(0), order.ShippingCost)
	require.Equal(t, float64(417), order.TotalAmount)
	require.Equal(t, models.OrderStatusPending, order.OrderStatus)
	require.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	require.Equal(t, models.PriorityNormal, order.PriorityLevel)
}

func TestBuildOrderTotalInvariant(t *testing.T) {
	in := CreateOrderInput{
		Items: []models.LineItem{
			{SKU: "A", UnitPrice: 12.5, Quantity: 3, DiscountAmount: 2.5, TaxAmount: 4},
			{SKU: "B", UnitPrice: 99.99, Quantity: 1, TaxAmount: 20},
			{SKU: "C", UnitPrice: 0.01, Quantity: 1000},
		},
		OrderDiscount: 15,
		ShippingCost:  9.5,
	}

	order, items, err := BuildOrder(in)
	require.NoError(t, err)

	var sumItems, sumTax float64
	for _, it := range items {
		sumItems += it.TotalPrice
		sumTax += it.TaxAmount
	}
	require.InDelta(t, sumItems, order.Subtotal, 1e-9)
	require.InDelta(t,
		sumItems+sumTax+order.ShippingCost-order.DiscountAmount,
		order.TotalAmount, 1e-9)
}

func TestBuildOrderValidation(t *testing.T) {
	cases := []struct {
		name string
		in   CreateOrderInput
	}{
		{"empty items", CreateOrderInput{}},
		{"missing sku", CreateOrderInput{Items: []models.LineItem{{Quantity: 1, UnitPrice: 1}}}},
		{"zero quantity", CreateOrderInput{Items: []models.LineItem{{SKU: "A", UnitPrice: 1}}}},
		{"negative quantity", CreateOrderInput{Items: []models.LineItem{{SKU: "A", Quantity: -1, UnitPrice: 1}}}},
		{"negative price", CreateOrderInput{Items: []models.LineItem{{SKU: "A", Quantity: 1, UnitPrice: -1}}}},
		{"negative discount", CreateOrderInput{Items: []models.LineItem{{SKU: "A", Quantity: 1, UnitPrice: 1, DiscountAmount: -1}}}},
		{"bad payment status", CreateOrderInput{
			Items:         []models.LineItem{{SKU: "A", Quantity: 1, UnitPrice: 1}},
			PaymentStatus: "gratis",
		}},
		{"bad priority", CreateOrderInput{
			Items:         []models.LineItem{{SKU: "A", Quantity: 1, UnitPrice: 1}},
			PriorityLevel: 9,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := BuildOrder(tc.in)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestNewOrderNumberFormat(t *testing.T) {
	re := regexp.MustCompile(`^B2B-\d{14}-[0-9A-F]{6}$`)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := NewOrderNumber()
		require.Regexp(t, re, n)
		seen[n] = true
	}
	// the random suffix keeps same-second numbers apart
	require.Greater(t, len(seen), 90)
}

type failingSender struct{}

func (failingSender) SendB2BOrderEmail(ctx context.Context, msg notifier.OrderEmail) error {
	return errors.New("email service down")
}

func (failingSender) SendOrderEmail(ctx context.Context, msg notifier.OrderEmail) error {
	return errors.New("email service down")
}

func newTestService(t *testing.T, sender notifier.Sender) *OrderService {
	outbox := notifier.NewOutbox(sender, 8, logging.New("error"))
	t.Cleanup(outbox.Close)

	return &OrderService{
		Repo:   repo.NewOrderRepo(InitTestDB(t)),
		Cart:   cart.NewMemoryStore(),
		Outbox: outbox,
	}
}

func TestCreateOrderPersistsAggregate(t *testing.T) {
	svc := newTestService(t, failingSender{})

	order, err := svc.CreateOrder(context.Background(), 1, CreateOrderInput{
		Items:        []models.LineItem{{SKU: "X", Name: "Widget", UnitPrice: 100, Quantity: 1}},
		ContactEmail: "buyer@example.com",
	})
	require.NoError(t, err)
	require.NotZero(t, order.ID)
	require.Len(t, order.Items, 1)
	require.Equal(t, float64(100), order.TotalAmount)
	require.Equal(t, uint(1), order.StoreID)

	// notification failure never reaches the caller; the order stays persisted
	refetched, err := svc.Repo.GetByID(context.Background(), 1, order.ID)
	require.NoError(t, err)
	require.Equal(t, order.OrderNumber, refetched.OrderNumber)
}

func TestCreateOrderWithoutContactSkipsNotification(t *testing.T) {
	svc := newTestService(t, failingSender{})

	order, err := svc.CreateOrder(context.Background(), 1, CreateOrderInput{
		Items: []models.LineItem{{SKU: "X", UnitPrice: 10, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, float64(20), order.TotalAmount)
}

func TestCheckoutClearsCart(t *testing.T) {
	svc := newTestService(t, failingSender{})
	ctx := context.Background()
	key := cart.Key(1, "client-1")

	_, err := svc.Cart.Add(ctx, key, models.LineItem{SKU: "A", Name: "A", UnitPrice: 25, Quantity: 2, TaxAmount: 5})
	require.NoError(t, err)
	_, err = svc.Cart.Add(ctx, key, models.LineItem{SKU: "B", Name: "B", UnitPrice: 10, Quantity: 1})
	require.NoError(t, err)

	order, err := svc.Checkout(ctx, 1, "client-1", CreateOrderInput{ContactEmail: "buyer@example.com"})
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	require.Equal(t, float64(65), order.TotalAmount) // 50 + 10 + 5 tax

	items, err := svc.Cart.Items(ctx, key)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc := newTestService(t, failingSender{})

	_, err := svc.Checkout(context.Background(), 1, "client-1", CreateOrderInput{})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutKeepsCartOnPersistenceFailure(t *testing.T) {
	svc := newTestService(t, failingSender{})
	ctx := context.Background()
	key := cart.Key(1, "client-1")

	_, err := svc.Cart.Add(ctx, key, models.LineItem{SKU: "A", UnitPrice: 10, Quantity: 1})
	require.NoError(t, err)

	// drop the items table to force the insert to fail
	require.NoError(t, svc.Repo.DB.Migrator().DropTable(&models.OrderItem{}))

	_, err = svc.Checkout(ctx, 1, "client-1", CreateOrderInput{})
	require.Error(t, err)

	items, err := svc.Cart.Items(ctx, key)
	require.NoError(t, err)
	require.Len(t, items, 1)
}
