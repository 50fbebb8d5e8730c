package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pricewatch/engine/internal/store"
)

// RegisterRoutes mounts the API, health, and metrics endpoints.
func RegisterRoutes(app *fiber.App, st store.Repository, h *Handler) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		checks := map[string]string{"store": "ok"}
		status := "ok"
		code := fiber.StatusOK

		healthCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := st.HealthCheck(healthCtx); err != nil {
			checks["store"] = err.Error()
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	})

	// API routes
	v1 := app.Group("/api/v1")
	v1.Post("/prices", h.SubmitPrice)
	v1.Post("/prices/:id/votes", h.CastVote)
	v1.Get("/products/trending", h.Trending)
	v1.Get("/products/:id/compare", h.Compare)
	v1.Get("/products/:id/lowest", h.LowestPrice)
	v1.Get("/products/:id/trend", h.Trend)
	v1.Get("/products/:id/stats", h.Statistics)
	v1.Post("/alerts", h.CreateAlert)
	v1.Delete("/alerts/:id", h.RemoveAlert)
	v1.Get("/users/:id/alerts", h.ListAlerts)
	v1.Get("/stats", h.Stats)
}
