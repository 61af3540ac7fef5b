package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/util"
)

type ProductHandler struct {
	Catalog *catalog.Catalog
}

func queryFloat(c echo.Context, name string) float64 {
	v, err := strconv.ParseFloat(c.QueryParam(name), 64)
	if err != nil {
		return 0
	}
	return v
}

func queryBool(c echo.Context, name string) bool {
	v, _ := strconv.ParseBool(c.QueryParam(name))
	return v
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	items := h.Catalog.Filter(catalog.Filter{
		Search:       c.QueryParam("search"),
		Category:     c.QueryParam("category"),
		MinPrice:     queryFloat(c, "minPrice"),
		MaxPrice:     queryFloat(c, "maxPrice"),
		InStockOnly:  queryBool(c, "inStock"),
		FeaturedOnly: queryBool(c, "featured"),
	})
	data, meta := util.Paginate(items, page, size)
	return c.JSON(http.StatusOK, echo.Map{"data": data, "meta": meta})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	p, ok := h.Catalog.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) GetCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Catalog.Categories())
}

func (h *ProductHandler) GetFeatured(c echo.Context) error {
	limit := util.ParseIntDefault(c.QueryParam("limit"), 0)
	return c.JSON(http.StatusOK, h.Catalog.Featured(limit))
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "create_product_error", "invalid request body")
	}
	p := models.Product{InStock: true}
	req.apply(&p)

	saved, err := h.Catalog.Save(c.Request().Context(), p)
	if err != nil {
		return fail(c, "create_product_error", err)
	}
	return c.JSON(http.StatusCreated, saved)
}

func (h *ProductHandler) PatchProduct(c echo.Context) error {
	p, ok := h.Catalog.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "patch_product_error", "invalid request body")
	}
	req.apply(&p)

	saved, err := h.Catalog.Save(c.Request().Context(), p)
	if err != nil {
		return fail(c, "patch_product_error", err)
	}
	return c.JSON(http.StatusOK, saved)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	if err := h.Catalog.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, "delete_product_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
