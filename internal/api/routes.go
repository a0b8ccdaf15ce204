package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
	"order-intake-service/internal/metrics"
	"time"
)

type RateLimit struct {
	Rate  float64
	Burst int
}

// NewServer wires middleware and routes.
func NewServer(orderHandler *OrderHandler, catalogHandler *CatalogHandler, limit RateLimit) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(limit.Rate),
				Burst:     limit.Burst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/catalog/products", catalogHandler.GetProducts)
	e.GET("/catalog/products/:name", catalogHandler.GetProduct)
	e.GET("/catalog/categories", catalogHandler.GetCategories)

	carts := e.Group("/carts")
	carts.POST("", orderHandler.CreateCart)
	carts.GET("/:id", orderHandler.GetCart)
	carts.POST("/:id/items", orderHandler.AddItem)
	carts.DELETE("/:id/items", orderHandler.ClearCart)
	carts.DELETE("/:id/items/:index", orderHandler.RemoveItem)
	carts.POST("/:id/submit", orderHandler.Submit, middleware.RateLimiterWithConfig(limiterConfig))

	e.GET("/orders/:cedula", orderHandler.GetOrders)
	e.GET("/orders/:cedula/document", orderHandler.GetDocument)

	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "order-intake-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	return e
}
