package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/cartrecords/internal/service"
	"github.com/utafrali/cartrecords/pkg/health"
	"github.com/utafrali/cartrecords/pkg/middleware"
)

// NewRouter creates a chi router with all cart record service routes registered.
func NewRouter(
	cartService *service.CartService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("cartrecords"))
	r.Use(middleware.Tracing("cartrecords"))

	// Health check and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	cartHandler := NewCartHandler(cartService, logger)

	r.Route("/api/v1/carts", func(r chi.Router) {
		r.Post("/", cartHandler.CreateCart)
		r.Get("/", cartHandler.ListCarts)
		r.Get("/getAllUsersIds", cartHandler.ListUserIDs)
		r.Get("/user/{userId}", cartHandler.GetCartByUserID)
		r.Post("/fake/{count}", cartHandler.GenerateFakeCarts)

		r.Post("/add-item/{mode}/{userId}", cartHandler.AddItem)
		r.Post("/remove-item/{mode}/{userId}", cartHandler.RemoveItem)
		r.Post("/add-or-increase/{mode}/{userId}", cartHandler.AddOrIncreaseItem)

		r.Get("/{id}", cartHandler.GetCart)
		r.Put("/{id}", cartHandler.UpdateCart)
		r.Delete("/{id}", cartHandler.DeleteCart)
	})

	return r
}
