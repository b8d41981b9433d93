package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/perfumichi/storefront/api/controllers"
	"github.com/perfumichi/storefront/api/middleware"
	"github.com/perfumichi/storefront/internal/cart"
	checkoutsvc "github.com/perfumichi/storefront/internal/checkout"
	"github.com/perfumichi/storefront/internal/identity"
	"github.com/perfumichi/storefront/pkg/auth/session"
	"github.com/perfumichi/storefront/pkg/config"
	"github.com/perfumichi/storefront/pkg/db"
	"github.com/perfumichi/storefront/pkg/logger"
	"github.com/perfumichi/storefront/pkg/metrics"
	"github.com/perfumichi/storefront/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DBPinger        db.Pinger
	Redis           *redis.Client
	SessionManager  sessionManager
	CartService     cart.Service
	CheckoutService checkoutsvc.Service
	IdentityService identity.Service
	HTTPMetrics     *metrics.HTTPMetrics
	MetricsGatherer prometheus.Gatherer
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if p.HTTPMetrics != nil {
		r.Use(p.HTTPMetrics.Middleware)
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DBPinger, p.Redis))
	})

	if p.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.IdentityService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/google", controllers.AuthGoogleLogin(p.IdentityService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.IdentityService, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.IdentityService, logg))
		r.With(middleware.Auth(cfg.JWT, p.SessionManager, logg)).Post("/logout", controllers.AuthLogout(p.IdentityService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CartToken(logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(p.CartService, logg))
			r.Get("/count", controllers.CartCount(p.CartService, logg))
			r.Post("/items", controllers.CartAddItem(p.CartService, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(p.CartService, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(p.CartService, logg))
			r.Delete("/", controllers.CartClear(p.CartService, logg))
		})

		r.Post("/checkout", controllers.Checkout(p.CheckoutService, logg))
		r.Get("/orders/pending", controllers.PendingOrder(p.CartService, logg))
	})

	return r
}
