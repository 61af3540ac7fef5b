package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
)

type FavoriteHandler struct {
	Svc *service.FavoriteService
}

func (h *FavoriteHandler) ListFavorites(c echo.Context) error {
	products, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return fail(c, "list_favorites_error", err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *FavoriteHandler) ToggleFavorite(c echo.Context) error {
	id := c.Param("productId")
	on, err := h.Svc.Toggle(c.Request().Context(), id)
	if err != nil {
		return fail(c, "toggle_favorite_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"productId": id, "favorite": on})
}

func (h *FavoriteHandler) IsFavorite(c echo.Context) error {
	id := c.Param("productId")
	on, err := h.Svc.IsFavorite(c.Request().Context(), id)
	if err != nil {
		return fail(c, "favorite_status_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"productId": id, "favorite": on})
}
