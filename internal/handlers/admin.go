package handlers

import (
	"context"
	"math"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/advisor"
	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
)

type UserLister interface {
	Users(ctx context.Context) ([]models.User, error)
}

type AdminHandler struct {
	Catalog  *catalog.Catalog
	Advisor  *advisor.Advisor
	Orders   *service.OrderService
	Users    UserLister
	Features advisor.Features
}

type StatsResponse struct {
	Products       catalog.Stats              `json:"products"`
	Users          int                        `json:"users"`
	Orders         int                        `json:"orders"`
	OrdersByStatus map[models.OrderStatus]int `json:"ordersByStatus"`
	Revenue        float64                    `json:"revenue"`
}

func (h *AdminHandler) ProductAnalysis(c echo.Context) error {
	p, ok := h.Catalog.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return c.JSON(http.StatusOK, h.Advisor.AnalyzeProduct(p, h.Catalog.All()))
}

func (h *AdminHandler) Insights(c echo.Context) error {
	ctx := c.Request().Context()
	orders, err := h.Orders.All(ctx)
	if err != nil {
		return fail(c, "insights_error", err)
	}
	users, err := h.Users.Users(ctx)
	if err != nil {
		return fail(c, "insights_error", err)
	}
	report := h.Advisor.AnalyzeSiteImprovements(advisor.SiteInput{
		Products:   h.Catalog.All(),
		OrderCount: len(orders),
		UserCount:  len(users),
		Features:   h.Features,
	})
	return c.JSON(http.StatusOK, report)
}

// Stats sums revenue over every order that was not cancelled.
func (h *AdminHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	orders, err := h.Orders.All(ctx)
	if err != nil {
		return fail(c, "stats_error", err)
	}
	users, err := h.Users.Users(ctx)
	if err != nil {
		return fail(c, "stats_error", err)
	}

	resp := StatsResponse{
		Products:       h.Catalog.Stats(),
		Users:          len(users),
		Orders:         len(orders),
		OrdersByStatus: make(map[models.OrderStatus]int),
	}
	for _, o := range orders {
		resp.OrdersByStatus[o.Status]++
		if o.Status != models.StatusCancelled {
			resp.Revenue += o.Total
		}
	}
	resp.Revenue = math.Round(resp.Revenue*100) / 100
	return c.JSON(http.StatusOK, resp)
}
