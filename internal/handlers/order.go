package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
)

type OrderHandler struct {
	Svc *service.OrderService
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	orders, err := h.Svc.Orders(c.Request().Context())
	if err != nil {
		return fail(c, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var req struct {
		ShippingAddress string               `json:"shippingAddress"`
		PaymentMethod   models.PaymentMethod `json:"paymentMethod"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "create_order_error", "invalid request body")
	}
	order, err := h.Svc.CreateOrder(c.Request().Context(), req.ShippingAddress, req.PaymentMethod)
	if err != nil {
		return fail(c, "create_order_error", err)
	}
	if order == nil {
		return badRequest(c, "create_order_error", "cart is empty")
	}
	logging.FromContext(c.Request().Context()).Info("order_created", "order_id", order.ID, "total", order.Total)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) AllOrders(c echo.Context) error {
	orders, err := h.Svc.All(c.Request().Context())
	if err != nil {
		return fail(c, "list_all_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "order_status_error", "invalid request body")
	}
	order, err := h.Svc.UpdateStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return fail(c, "order_status_error", err)
	}
	return c.JSON(http.StatusOK, order)
}
