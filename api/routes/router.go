package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// NewRouter wires the public HTTP surface. redisClient may be nil, in which
// case rate limiting is off and readiness skips the redis check.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	ready := map[string]controllers.Pinger{"db": dbP}
	var limiter middleware.RateLimitStore
	if redisClient != nil {
		ready["redis"] = redisClient
		limiter = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, ready))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// Load already rejected malformed proxy entries.
	proxies, _ := cfg.RateLimit.ProxyPrefixes()
	policy := middleware.NewRateLimitPolicy("api", cfg.RateLimit.Window, cfg.RateLimit.Requests).
		WithTrustedProxies(proxies)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(middleware.IdentityOptions{
			JWT:          cfg.JWT,
			CookieName:   cfg.Cart.SessionCookie,
			SecureCookie: cfg.App.IsProd(),
		}, logg))
		r.Use(middleware.RateLimit(policy, limiter, logg))
		r.Use(middleware.CartScope())

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Post("/", controllers.CartAddItem(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Get("/validate", controllers.CartValidate(cartService, logg))
			r.Post("/abandon", controllers.CartAbandon(cartService, logg))
			r.With(middleware.RequireUser(logg)).Post("/merge", controllers.CartMerge(cartService, logg))
			r.Put("/{itemId}", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/{itemId}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Post("/checkout", controllers.Checkout(checkoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(ordersService, logg))
		})
	})

	// Back-office order updates stay unmounted until an admin token is set.
	if cfg.Admin.Token != "" {
		r.Route("/api/admin/orders/{orderId}", func(r chi.Router) {
			r.Use(middleware.RequireAdminToken(cfg.Admin.Token, logg))
			r.Put("/status", controllers.AdminOrderStatus(ordersService, logg))
			r.Put("/payment-status", controllers.AdminOrderPaymentStatus(ordersService, logg))
		})
	}

	return r
}
