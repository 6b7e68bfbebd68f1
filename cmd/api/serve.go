package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/config"
	"github.com/georgemunganga/storefront-backend/internal/events"
	"github.com/georgemunganga/storefront-backend/internal/logging"
	"github.com/georgemunganga/storefront-backend/internal/modules/admin"
	"github.com/georgemunganga/storefront-backend/internal/modules/auth"
	"github.com/georgemunganga/storefront-backend/internal/modules/cart"
	"github.com/georgemunganga/storefront-backend/internal/modules/catalog"
	"github.com/georgemunganga/storefront-backend/internal/modules/message"
	"github.com/georgemunganga/storefront-backend/internal/modules/order"
	"github.com/georgemunganga/storefront-backend/internal/modules/settings"
	"github.com/georgemunganga/storefront-backend/internal/modules/user"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, logger, db, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer logger.Sync()
		defer db.Close()

		return serve(ctx, cfg, logger, db)
	},
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger, db *sql.DB) error {
	// ── Storage & events ────────────────────────────────────
	var cartStorage cart.Storage = cart.NewMemoryStorage()
	if cfg.RedisURL != "" {
		rs, err := cart.NewRedisStorage(ctx, cfg.RedisURL, cfg.CartTTL)
		if err != nil {
			return err
		}
		defer rs.Close()
		cartStorage = rs
	} else {
		logger.Warn("REDIS_URL not set, carts are kept in memory")
	}

	var publisher events.Publisher = events.NewRecorder()
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.OrderTopic)
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events are not published")
	}
	defer publisher.Close()

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(logging.Middleware(logger))

	// ── Identity ────────────────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	authService := auth.NewService(userRepo, cfg.JWTSecret, auth.DefaultTokenTTL)
	checker := auth.NewAdminChecker(userRepo, cfg.AdminCheckTimeout, logger)
	guard := auth.NewGuard(authService, checker, logger)

	user.NewHandler(userService, guard.RequireUser, guard.RequireAdmin, logger).RegisterRoutes(router)
	auth.NewHandler(authService, guard, logger).RegisterRoutes(router)

	// ── Content ─────────────────────────────────────────────
	settingsService := settings.NewService(settings.NewPostgresRepository(db), logger)
	if cfg.SettingsFile != "" {
		seed, err := config.LoadSettingsSeed(cfg.SettingsFile)
		if err != nil {
			return err
		}
		if err := settingsService.Seed(ctx, seed); err != nil {
			return err
		}
	}
	settings.NewHandler(settingsService, guard.RequireAdmin, logger).RegisterRoutes(router)

	messageService := message.NewService(message.NewPostgresRepository(db))
	message.NewHandler(messageService, guard.RequireAdmin, logger).RegisterRoutes(router)

	// ── Catalog, cart & orders ──────────────────────────────
	catalogService := catalog.NewService(catalog.NewPostgresRepository(db))
	catalog.NewHandler(catalogService, guard.RequireAdmin, logger).RegisterRoutes(router)

	policy := settingsService.ShippingPolicy(cart.ShippingPolicy{
		FreeThreshold: cfg.FreeShippingThreshold,
		FlatRate:      cfg.FlatShippingRate,
	})
	cartService := cart.NewService(cartStorage, catalogService, policy)
	cart.NewHandler(cartService, cfg.CartTTL, logger).RegisterRoutes(router)

	orderService := order.NewService(order.NewPostgresRepository(db), cartService, publisher, cfg.CheckoutDelay, logger)
	order.NewHandler(orderService, order.Guards{
		Optional:     guard.Optional,
		RequireUser:  guard.RequireUser,
		RequireAdmin: guard.RequireAdmin,
	}, cfg.CartTTL, logger).RegisterRoutes(router)

	// ── Admin dashboard ─────────────────────────────────────
	adminService := admin.NewService(admin.Sources{
		Products: catalogService.CountProducts,
		Revenue:  orderService.Revenue,
		Pending:  orderService.CountPending,
		Unread:   messageService.CountUnread,
	})
	admin.NewHandler(adminService, guard.RequireAdmin, logger).RegisterRoutes(router)

	// ── Start Server ─────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, "storefront-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("storefront API server starting", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
