package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcbeauty/storefront-backend/api/controllers"
	"github.com/mcbeauty/storefront-backend/api/middleware"
	"github.com/mcbeauty/storefront-backend/internal/analytics"
	"github.com/mcbeauty/storefront-backend/internal/cart"
	"github.com/mcbeauty/storefront-backend/internal/checkout"
	"github.com/mcbeauty/storefront-backend/internal/orders"
	"github.com/mcbeauty/storefront-backend/internal/paymentmethods"
	"github.com/mcbeauty/storefront-backend/internal/products"
	"github.com/mcbeauty/storefront-backend/pkg/config"
	"github.com/mcbeauty/storefront-backend/pkg/logger"
	"github.com/mcbeauty/storefront-backend/pkg/metrics"
	pkgredis "github.com/mcbeauty/storefront-backend/pkg/redis"
)

// Deps carries the services and infrastructure the router hands to
// controllers and middleware. Redis is optional; without it idempotency and
// page-view throttling are disabled.
type Deps struct {
	DB             controllers.Pinger
	Redis          *pkgredis.Client
	HTTPMetrics    *metrics.HTTPMetrics
	Gatherer       prometheus.Gatherer
	Cart           cart.Service
	Products       products.Service
	PaymentMethods paymentmethods.Service
	Checkout       checkout.Service
	Orders         orders.Service
	PageViews      *analytics.Tracker
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Metrics(deps.HTTPMetrics),
	)

	readiness := []controllers.Dependency{{Name: "db", Pinger: deps.DB}}
	var idempotencyStore pkgredis.IdempotencyStore
	pageViewLimit := passthrough
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
		readiness = append(readiness, controllers.Dependency{Name: "redis", Pinger: deps.Redis})
		pageViewPolicy := middleware.NewRateLimitPolicy("page_views", cfg.RateLimit.PageViewWindow, cfg.RateLimit.PageViewLimit)
		pageViewLimit = middleware.RateLimit(pageViewPolicy, deps.Redis, logg)
	}
	cartImportOnce := middleware.Idempotency(idempotencyStore, middleware.CartImportIdempotencyTTL, logg)
	checkoutOnce := middleware.Idempotency(idempotencyStore, middleware.CheckoutIdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness...))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ProductList(deps.Products, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(deps.Products, logg))
		r.Get("/payment-methods", controllers.PaymentMethodList(deps.PaymentMethods, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.CartSession(logg, cfg.App.IsProd()))

			r.Get("/cart", controllers.CartView(deps.Cart, logg))
			r.With(cartImportOnce).Put("/cart", controllers.CartImport(deps.Cart, logg))
			r.Delete("/cart", controllers.CartClear(deps.Cart, logg))
			r.Post("/cart/items", controllers.CartAddItem(deps.Cart, logg))
			r.Patch("/cart/items/{itemId}", controllers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/cart/items/{itemId}", controllers.CartRemoveItem(deps.Cart, logg))

			r.With(checkoutOnce).Post("/checkout", controllers.CheckoutSubmit(deps.Checkout, logg))
			r.Get("/orders/{orderId}", controllers.OrderDetail(deps.Orders, logg))

			if deps.PageViews != nil {
				r.With(pageViewLimit).Post("/page-views", controllers.PageViewTrack(deps.PageViews, logg))
			}
		})
	})

	return r
}

func passthrough(next http.Handler) http.Handler {
	return next
}
