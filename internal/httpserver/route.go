package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/read1store/backoffice/internal/auth"
)

type Deps struct {
	ProductHandler  *ProductHTTP
	CategoryHandler *CategoryHTTP
	OrderHandler    *OrderHTTP
	AuthHandler     *AuthHTTP
	SearchHandler   *SearchHTTP
	JWTSecret       []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.POST("/api/auth/login", d.AuthHandler.Login)

	admin := auth.RequireAdmin(d.JWTSecret)

	products := e.Group("/api/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/low-stock", d.ProductHandler.LowStock)
	products.GET("/out-of-stock", d.ProductHandler.OutOfStock)
	if d.SearchHandler != nil {
		products.GET("/search", d.SearchHandler.SearchProducts)
	}
	products.GET("/:id", d.ProductHandler.GetProduct)
	products.POST("", d.ProductHandler.CreateProduct, admin)
	products.PATCH("/:id", d.ProductHandler.PatchProduct, admin)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct, admin)

	categories := e.Group("/api/categories")
	categories.GET("", d.CategoryHandler.GetCategories)
	categories.POST("", d.CategoryHandler.CreateCategory, admin)
	categories.PATCH("/:id", d.CategoryHandler.PatchCategory, admin)
	categories.DELETE("/:id", d.CategoryHandler.DeleteCategory, admin)

	orders := e.Group("/api/orders")
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.ListOrders, admin)
	orders.GET("/:id", d.OrderHandler.GetOrder, admin)
	orders.POST("/:id/items", d.OrderHandler.AddItem, admin)
	orders.PATCH("/:id/items/:itemID", d.OrderHandler.UpdateItem, admin)
	orders.DELETE("/:id/items/:itemID", d.OrderHandler.RemoveItem, admin)
	orders.POST("/:id/confirm", d.OrderHandler.Confirm, admin)
	orders.POST("/:id/cancel", d.OrderHandler.Cancel, admin)
	orders.PATCH("/:id/status", d.OrderHandler.SetStatus, admin)

	e.GET("/api/admin/stats", d.OrderHandler.Stats, admin)
}
