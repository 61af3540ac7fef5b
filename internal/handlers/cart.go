package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
)

type CartHandler struct {
	Svc *service.CartService
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func cartResponse(lines []service.CartLine) echo.Map {
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	return echo.Map{"items": lines, "subtotal": service.Subtotal(lines), "count": count}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	lines, err := h.Svc.Get(c.Request().Context())
	if err != nil {
		return fail(c, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, cartResponse(lines))
}

// PutCart replaces the whole cart with the posted rows.
func (h *CartHandler) PutCart(c echo.Context) error {
	var req struct {
		Items []cartItemRequest `json:"items"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "put_cart_error", "invalid request body")
	}
	items := make([]models.CartItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, models.CartItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	ctx := c.Request().Context()
	if err := h.Svc.Save(ctx, items); err != nil {
		return fail(c, "put_cart_error", err)
	}
	lines, err := h.Svc.Get(ctx)
	if err != nil {
		return fail(c, "put_cart_error", err)
	}
	return c.JSON(http.StatusOK, cartResponse(lines))
}

func (h *CartHandler) AddItem(c echo.Context) error {
	var req cartItemRequest
	if err := c.Bind(&req); err != nil || req.ProductID == "" {
		return badRequest(c, "add_to_cart_error", "productId is required")
	}
	lines, err := h.Svc.Add(c.Request().Context(), req.ProductID, req.Quantity)
	if err != nil {
		return fail(c, "add_to_cart_error", err)
	}
	return c.JSON(http.StatusOK, cartResponse(lines))
}

func (h *CartHandler) PatchItem(c echo.Context) error {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "update_cart_error", "invalid request body")
	}
	lines, err := h.Svc.SetQuantity(c.Request().Context(), c.Param("productId"), req.Quantity)
	if err != nil {
		return fail(c, "update_cart_error", err)
	}
	return c.JSON(http.StatusOK, cartResponse(lines))
}

func (h *CartHandler) DeleteItem(c echo.Context) error {
	lines, err := h.Svc.Remove(c.Request().Context(), c.Param("productId"))
	if err != nil {
		return fail(c, "remove_from_cart_error", err)
	}
	return c.JSON(http.StatusOK, cartResponse(lines))
}
