package main

import (
	"context"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/perfumichi/storefront/api/routes"
	"github.com/perfumichi/storefront/internal/cart"
	"github.com/perfumichi/storefront/internal/checkout"
	"github.com/perfumichi/storefront/internal/identity"
	"github.com/perfumichi/storefront/internal/notifications"
	"github.com/perfumichi/storefront/internal/users"
	"github.com/perfumichi/storefront/pkg/auth/session"
	"github.com/perfumichi/storefront/pkg/config"
	"github.com/perfumichi/storefront/pkg/db"
	"github.com/perfumichi/storefront/pkg/kv"
	"github.com/perfumichi/storefront/pkg/logger"
	"github.com/perfumichi/storefront/pkg/metrics"
	"github.com/perfumichi/storefront/pkg/migrate"
	"github.com/perfumichi/storefront/pkg/redis"
	"github.com/perfumichi/storefront/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	instance := os.Getenv("DYNO")
	if instance == "" {
		instance = uuid.NewString()
	}

	store, err := kv.NewRedis(redisClient, instance, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create kv store", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	dispatchMetrics := metrics.NewDispatchMetrics(registry)

	cartService, err := cart.NewService(store, store, cfg.Cart, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe client", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		cartService,
		checkout.NewStripeSessionClient(stripeClient),
		store,
		cfg.Checkout,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	emailService, err := notifications.NewService(cfg.Email, logg, dispatchMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create email service", err)
		os.Exit(1)
	}

	identityService, err := identity.NewService(identity.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		EmailSender:    emailService,
		Guard:          store,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create identity service", err)
		os.Exit(1)
	}

	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	cartService.Subscribe(func(ctx context.Context, token string) {
		ctx = logg.WithFields(ctx, map[string]any{"cart_token": token})
		logg.Info(ctx, "cart changed")
	})
	go func() {
		if err := cartService.WatchRemote(watchCtx); err != nil && watchCtx.Err() == nil {
			logg.Error(watchCtx, "cart change feed stopped", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			DBPinger:        dbClient,
			Redis:           redisClient,
			SessionManager:  sessionManager,
			CartService:     cartService,
			CheckoutService: checkoutService,
			IdentityService: identityService,
			HTTPMetrics:     httpMetrics,
			MetricsGatherer: registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
