package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/storekeeper/b2b_orders/internal/cart"
	"github.com/storekeeper/b2b_orders/internal/models"
)

func TestAddToCartMergesQuantities(t *testing.T) {
	env := newTestEnv(t)
	ck := accessCookie(t, 1, "client-1")

	body := map[string]any{"sku": "A", "name": "Widget", "unit_price": 10.0, "quantity": 2}
	rec, c := env.doJSON(t, http.MethodPost, "/api/v1/cart", body, ck)
	require.NoError(t, env.CartH.AddToCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body["quantity"] = 3
	rec, c = env.doJSON(t, http.MethodPost, "/api/v1/cart", body, ck)
	require.NoError(t, env.CartH.AddToCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var item models.LineItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	require.Equal(t, 5, item.Quantity)
	require.Equal(t, float64(50), item.TotalPrice)
}

func TestAddToCartDefaultsQuantity(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{"sku": "A", "unit_price": 10.0}
	rec, c := env.doJSON(t, http.MethodPost, "/api/v1/cart", body, accessCookie(t, 1, "client-1"))
	require.NoError(t, env.CartH.AddToCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var item models.LineItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	require.Equal(t, 1, item.Quantity)
}

func TestGetCartReturnsTotals(t *testing.T) {
	env := newTestEnv(t)
	ck := accessCookie(t, 1, "client-1")

	for _, body := range []map[string]any{
		{"sku": "A", "unit_price": 10.0, "quantity": 2, "tax_amount": 1.0},
		{"sku": "B", "unit_price": 5.0, "quantity": 1},
	} {
		_, c := env.doJSON(t, http.MethodPost, "/api/v1/cart", body, ck)
		require.NoError(t, env.CartH.AddToCart(c))
	}

	rec, c := env.doJSON(t, http.MethodGet, "/api/v1/cart", nil, ck)
	require.NoError(t, env.CartH.GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items  []models.LineItem `json:"items"`
		Totals cart.Totals       `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 2)
	require.Equal(t, float64(25), resp.Totals.Subtotal)
	require.Equal(t, float64(26), resp.Totals.TotalAmount)
	require.Equal(t, 3, resp.Totals.ItemCount)
}

func TestUpdateQuantityZeroRemovesItem(t *testing.T) {
	env := newTestEnv(t)
	ck := accessCookie(t, 1, "client-1")

	_, c := env.doJSON(t, http.MethodPost, "/api/v1/cart",
		map[string]any{"sku": "A", "unit_price": 10.0, "quantity": 2}, ck)
	require.NoError(t, env.CartH.AddToCart(c))

	rec, c := env.doJSON(t, http.MethodPatch, "/api/v1/cart",
		map[string]any{"sku": "A", "quantity": 0}, ck)
	require.NoError(t, env.CartH.UpdateQuantity(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []models.LineItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Empty(t, resp.Items)
}

func TestCheckoutHandlerCreatesOrderAndClearsCart(t *testing.T) {
	env := newTestEnv(t)
	ck := accessCookie(t, 1, "client-1")

	_, c := env.doJSON(t, http.MethodPost, "/api/v1/cart",
		map[string]any{"sku": "X", "name": "Widget", "unit_price": 100.0, "quantity": 1}, ck)
	require.NoError(t, env.CartH.AddToCart(c))

	rec, c := env.doJSON(t, http.MethodPost, "/api/v1/cart/checkout",
		map[string]any{"contact_email": "buyer@example.com", "delivery_city": "Porto"}, ck)
	require.NoError(t, env.CartH.Checkout(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	require.Len(t, order.Items, 1)
	require.Equal(t, float64(100), order.TotalAmount)
	require.Equal(t, "Porto", order.DeliveryCity)

	recCart, cCart := env.doJSON(t, http.MethodGet, "/api/v1/cart", nil, ck)
	require.NoError(t, env.CartH.GetCart(cCart))
	var resp struct {
		Items []models.LineItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(recCart.Body.Bytes(), &resp))
	require.Empty(t, resp.Items)
}

func TestCheckoutHandlerIndexesOrder(t *testing.T) {
	env := newTestEnv(t)
	ck := accessCookie(t, 1, "client-1")

	var mu sync.Mutex
	var requests []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	esClient, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{ts.URL}})
	require.NoError(t, err)
	env.CartH.ES = esClient
	env.CartH.Index = "orders"

	_, c := env.doJSON(t, http.MethodPost, "/api/v1/cart",
		map[string]any{"sku": "X", "unit_price": 100.0, "quantity": 1}, ck)
	require.NoError(t, env.CartH.AddToCart(c))

	rec, c := env.doJSON(t, http.MethodPost, "/api/v1/cart/checkout",
		map[string]any{"contact_email": "buyer@example.com"}, ck)
	require.NoError(t, env.CartH.Checkout(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))

	mu.Lock()
	defer mu.Unlock()
	require.Contains(t, requests, fmt.Sprintf("PUT /orders/_doc/%d", order.ID))
}

func TestCheckoutHandlerEmptyCart(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSON(t, http.MethodPost, "/api/v1/cart/checkout",
		map[string]any{}, accessCookie(t, 1, "client-1"))

	err := env.CartH.Checkout(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestCartIsolatedPerClient(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSON(t, http.MethodPost, "/api/v1/cart",
		map[string]any{"sku": "A", "unit_price": 1.0, "quantity": 1}, accessCookie(t, 1, "client-1"))
	require.NoError(t, env.CartH.AddToCart(c))

	rec, cOther := env.doJSON(t, http.MethodGet, "/api/v1/cart", nil, accessCookie(t, 1, "client-2"))
	require.NoError(t, env.CartH.GetCart(cOther))

	var resp struct {
		Items []models.LineItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Empty(t, resp.Items)
}
