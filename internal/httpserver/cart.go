package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/storekeeper/b2b_orders/internal/cart"
	"github.com/storekeeper/b2b_orders/internal/models"
	"github.com/storekeeper/b2b_orders/internal/mykafka"
	"github.com/storekeeper/b2b_orders/internal/service"
	"github.com/storekeeper/b2b_orders/internal/transport"
)

type CartHandler struct {
	Cart      cart.Store
	Svc       *service.OrderService
	Producer  *mykafka.Producer
	ES        *elasticsearch.Client
	Index     string
	JWTSecret []byte
}

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, fmt.Sprint(event["storeID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	id, err := GetIdentity(c, h.JWTSecret)
	if err != nil {
		return err
	}

	items, err := h.Cart.Items(c.Request().Context(), cart.Key(id.StoreID, id.ClientID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"items":  items,
		"totals": cart.ComputeTotals(items),
	})
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	id, err := GetIdentity(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req transport.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.SKU == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sku required")
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}
	if req.UnitPrice < 0 || req.DiscountAmount < 0 || req.TaxAmount < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "amounts must be >= 0")
	}

	item, err := h.Cart.Add(c.Request().Context(), cart.Key(id.StoreID, id.ClientID), models.LineItem{
		SKU:            req.SKU,
		Name:           req.Name,
		UnitPrice:      req.UnitPrice,
		Quantity:       req.Quantity,
		DiscountAmount: req.DiscountAmount,
		TaxAmount:      req.TaxAmount,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":     "cart_item_added",
		"storeID":  id.StoreID,
		"clientID": id.ClientID,
		"sku":      item.SKU,
		"quantity": item.Quantity,
	})
	return c.JSON(http.StatusOK, item)
}

func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	id, err := GetIdentity(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req transport.UpdateCartQuantityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.SKU == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sku required")
	}

	key := cart.Key(id.StoreID, id.ClientID)
	if err := h.Cart.UpdateQuantity(c.Request().Context(), key, req.SKU, req.Quantity); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":     "cart_quantity_updated",
		"storeID":  id.StoreID,
		"clientID": id.ClientID,
		"sku":      req.SKU,
		"quantity": req.Quantity,
	})

	items, err := h.Cart.Items(c.Request().Context(), key)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{
		"items":  items,
		"totals": cart.ComputeTotals(items),
	})
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	id, err := GetIdentity(c, h.JWTSecret)
	if err != nil {
		return err
	}

	sku := c.Param("sku")
	if sku == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sku required")
	}

	if err := h.Cart.Remove(c.Request().Context(), cart.Key(id.StoreID, id.ClientID), sku); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":     "cart_item_removed",
		"storeID":  id.StoreID,
		"clientID": id.ClientID,
		"sku":      sku,
	})
	return c.JSON(http.StatusOK, map[string]any{"removed": sku})
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	id, err := GetIdentity(c, h.JWTSecret)
	if err != nil {
		return err
	}

	if err := h.Cart.Clear(c.Request().Context(), cart.Key(id.StoreID, id.ClientID)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":     "cart_cleared",
		"storeID":  id.StoreID,
		"clientID": id.ClientID,
	})
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) Checkout(c echo.Context) error {
	id, err := GetIdentity(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	in := service.CreateOrderInput{
		ContactEmail:       req.ContactEmail,
		DeliveryAddress:    req.DeliveryAddress,
		DeliveryCity:       req.DeliveryCity,
		DeliveryState:      req.DeliveryState,
		DeliveryPostalCode: req.DeliveryPostalCode,
		PaymentStatus:      req.PaymentStatus,
		PriorityLevel:      req.PriorityLevel,
		OrderDiscount:      req.DiscountAmount,
		ShippingCost:       req.ShippingCost,
	}

	order, err := h.Svc.Checkout(c.Request().Context(), id.StoreID, id.ClientID, in)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			return echo.NewHTTPError(http.StatusBadRequest, "no items in cart")
		}
		if errors.Is(err, service.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":        "order_created",
		"storeID":     id.StoreID,
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"total":       order.TotalAmount,
	})
	indexOrder(c, h.ES, h.Index, order)

	return c.JSON(http.StatusCreated, order)
}
