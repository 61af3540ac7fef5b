package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/handlers"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
)

type Deps struct {
	JWTSecret       []byte
	Ready           func() bool
	AuthHandler     *handlers.AuthHandler
	ProductHandler  *handlers.ProductHandler
	SearchHandler   *handlers.SearchHandler
	CartHandler     *handlers.CartHandler
	OrderHandler    *handlers.OrderHandler
	FavoriteHandler *handlers.FavoriteHandler
	AdminHandler    *handlers.AdminHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil && !d.Ready() {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"documentStore": "detached"})
		}
		return c.JSON(http.StatusOK, echo.Map{"documentStore": "attached"})
	})

	v1 := e.Group("/api/v1", auth.Authenticate(d.JWTSecret))

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)
	v1.GET("/me", d.AuthHandler.Me, auth.RequireLogin)
	v1.PUT("/profile", d.AuthHandler.UpdateProfile, auth.RequireLogin)

	v1.GET("/search", d.SearchHandler.Search)
	v1.GET("/categories", d.ProductHandler.GetCategories)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/featured", d.ProductHandler.GetFeatured)
	products.GET("/:id", d.ProductHandler.GetProduct)

	cart := v1.Group("/cart", auth.RequireLogin)
	cart.GET("", d.CartHandler.GetCart)
	cart.PUT("", d.CartHandler.PutCart)
	cart.POST("/items", d.CartHandler.AddItem)
	cart.PATCH("/items/:productId", d.CartHandler.PatchItem)
	cart.DELETE("/items/:productId", d.CartHandler.DeleteItem)

	orders := v1.Group("/orders", auth.RequireLogin)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.POST("", d.OrderHandler.CreateOrder)

	favorites := v1.Group("/favorites", auth.RequireLogin)
	favorites.GET("", d.FavoriteHandler.ListFavorites)
	favorites.GET("/:productId", d.FavoriteHandler.IsFavorite)
	favorites.POST("/:productId", d.FavoriteHandler.ToggleFavorite)

	admin := v1.Group("/admin", auth.AdminOnly)
	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)
	admin.GET("/products/:id/analysis", d.AdminHandler.ProductAnalysis)
	admin.GET("/insights", d.AdminHandler.Insights)
	admin.GET("/stats", d.AdminHandler.Stats)
	admin.GET("/orders", d.OrderHandler.AllOrders)
	admin.PATCH("/orders/:id/status", d.OrderHandler.UpdateStatus)
}
