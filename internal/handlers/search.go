package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/util"
)

type Searcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

// SearchHandler answers from the search index when one is configured and
// falls back to filtering the in-memory catalog otherwise.
type SearchHandler struct {
	Index   Searcher
	Catalog *catalog.Catalog
}

func (h *SearchHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return badRequest(c, "search_error", "query is required")
	}
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	ctx := c.Request().Context()

	if h.Index != nil {
		from, limit := util.Calculate(page, size)
		total, products, err := h.Index.Search(ctx, q, from, limit)
		if err == nil {
			return c.JSON(http.StatusOK, echo.Map{"total": total, "products": products})
		}
		logging.FromContext(ctx).Warn("search_index_failed", "reason", "falling back to catalog filter", "error", err)
	}

	matches := h.Catalog.Filter(catalog.Filter{Search: q})
	products, _ := util.Paginate(matches, page, size)
	return c.JSON(http.StatusOK, echo.Map{"total": len(matches), "products": products})
}
