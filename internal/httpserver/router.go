package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	OrderHandler *OrderHandler
	CartHandler  *CartHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	orders := v1.Group("/orders")
	orders.GET("", d.OrderHandler.GetOrders)
	orders.GET("/search", d.OrderHandler.SearchOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.PATCH("/:id", d.OrderHandler.PatchOrder)
	orders.PATCH("/:id/status", d.OrderHandler.UpdateStatus)
	orders.DELETE("/:id", d.OrderHandler.DeleteOrder)

	cart := v1.Group("/cart")
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.PATCH("", d.CartHandler.UpdateQuantity)
	cart.DELETE("/:sku", d.CartHandler.RemoveFromCart)
	cart.DELETE("", d.CartHandler.ClearCart)
	cart.POST("/checkout", d.CartHandler.Checkout)
}
