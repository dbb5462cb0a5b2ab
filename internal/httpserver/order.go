package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/storekeeper/b2b_orders/internal/models"
	"github.com/storekeeper/b2b_orders/internal/mykafka"
	"github.com/storekeeper/b2b_orders/internal/repo"
	"github.com/storekeeper/b2b_orders/internal/service"
	"github.com/storekeeper/b2b_orders/internal/service/search"
	"github.com/storekeeper/b2b_orders/internal/transport"
	"github.com/storekeeper/b2b_orders/internal/util"
)

type OrderHandler struct {
	Svc       *service.OrderService
	Producer  *mykafka.Producer
	ES        *elasticsearch.Client
	Index     string
	JWTSecret []byte
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, fmt.Sprint(event["storeID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func indexOrder(c echo.Context, es *elasticsearch.Client, index string, order *models.Order) {
	if es == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexOrder(ctx, es, index, order); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func toLineItems(reqItems []transport.OrderItemRequest) []models.LineItem {
	items := make([]models.LineItem, 0, len(reqItems))
	for _, it := range reqItems {
		items = append(items, models.LineItem{
			SKU:            it.SKU,
			Name:           it.Name,
			UnitPrice:      it.UnitPrice,
			Quantity:       it.Quantity,
			DiscountAmount: it.DiscountAmount,
			TaxAmount:      it.TaxAmount,
		})
	}
	return items
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	id, err := GetIdentity(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	in := service.CreateOrderInput{
		Items:              toLineItems(req.Items),
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

	order, err := h.Svc.CreateOrder(c.Request().Context(), id.StoreID, in)
	if err != nil {
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

func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, err := GetIdentity(c, h.JWTSecret)
	if err != nil {
		return err
	}

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil || orderID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	order, err := h.Svc.Repo.GetByID(c.Request().Context(), id.StoreID, uint(orderID))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) GetOrders(c echo.Context) error {
	id, err := GetIdentity(c, h.JWTSecret)
	if err != nil {
		return err
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	orders, total, err := h.Svc.Repo.List(c.Request().Context(), id.StoreID, page, size)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	_, limit := util.Calculate(page, size)
	return c.JSON(http.StatusOK, map[string]any{
		"data": orders,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
		},
	})
}

func (h *OrderHandler) PatchOrder(c echo.Context) error {
	id, err := GetIdentity(c, h.JWTSecret)
	if err != nil {
		return err
	}

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil || orderID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req transport.UpdateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.PaymentStatus != nil && !models.ValidPaymentStatus(*req.PaymentStatus) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown payment status")
	}
	if req.PriorityLevel != nil && (*req.PriorityLevel < models.PriorityNormal || *req.PriorityLevel > models.PriorityUrgent) {
		return echo.NewHTTPError(http.StatusBadRequest, "priority level out of range")
	}

	patch := repo.OrderPatch{
		ContactEmail:       req.ContactEmail,
		DeliveryAddress:    req.DeliveryAddress,
		DeliveryCity:       req.DeliveryCity,
		DeliveryState:      req.DeliveryState,
		DeliveryPostalCode: req.DeliveryPostalCode,
		PaymentStatus:      req.PaymentStatus,
		PriorityLevel:      req.PriorityLevel,
	}
	if req.Items != nil {
		patch.ReplaceItems = true
		for _, it := range *req.Items {
			if it.Quantity <= 0 {
				return echo.NewHTTPError(http.StatusBadRequest, "quantity must be > 0")
			}
			patch.Items = append(patch.Items, models.OrderItem{
				SKU:            it.SKU,
				Name:           it.Name,
				UnitPrice:      it.UnitPrice,
				Quantity:       it.Quantity,
				DiscountAmount: it.DiscountAmount,
				TaxAmount:      it.TaxAmount,
			})
		}
	}

	order, err := h.Svc.Repo.Update(c.Request().Context(), id.StoreID, uint(orderID), patch)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":    "order_updated",
		"storeID": id.StoreID,
		"orderID": order.ID,
	})
	indexOrder(c, h.ES, h.Index, order)

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := GetIdentity(c, h.JWTSecret)
	if err != nil {
		return err
	}

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil || orderID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if !models.ValidOrderStatus(req.Status) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}

	order, err := h.Svc.Repo.UpdateStatus(c.Request().Context(), id.StoreID, uint(orderID), req.Status)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":    "order_status_changed",
		"storeID": id.StoreID,
		"orderID": order.ID,
		"status":  order.OrderStatus,
	})
	indexOrder(c, h.ES, h.Index, order)

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	id, err := GetIdentity(c, h.JWTSecret)
	if err != nil {
		return err
	}

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil || orderID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Svc.Repo.Delete(c.Request().Context(), id.StoreID, uint(orderID)); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.publish(c, map[string]any{
		"type":    "order_deleted",
		"storeID": id.StoreID,
		"orderID": orderID,
	})
	if h.ES != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := search.DeleteOrder(ctx, h.ES, h.Index, uint(orderID)); err != nil {
			c.Logger().Errorf("ES delete error: %v", err)
		}
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHandler) SearchOrders(c echo.Context) error {
	id, err := GetIdentity(c, h.JWTSecret)
	if err != nil {
		return err
	}

	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query required")
	}
	if h.ES == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search unavailable")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, size := util.Calculate(page, size)

	total, hits, err := search.Search(c.Request().Context(), h.ES, h.Index, id.StoreID, q, from, size)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "orders": hits})
}
