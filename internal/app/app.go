// Package app wires configuration, storage, domain services, and HTTP
// transport into a runnable server.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oatandmatcha/storefront/internal/domain/catalog"
	"github.com/oatandmatcha/storefront/internal/domain/checkout"
	"github.com/oatandmatcha/storefront/internal/domain/delivery"
	"github.com/oatandmatcha/storefront/internal/domain/payment"
	"github.com/oatandmatcha/storefront/internal/handler"
	"github.com/oatandmatcha/storefront/internal/storage/postgres"
	"github.com/oatandmatcha/storefront/internal/sumup"
	"github.com/oatandmatcha/storefront/pkg/health"
	"github.com/oatandmatcha/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server and the pending-order
// poller, and handles graceful shutdown. It is the single wiring point for
// the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Catalog and delivery rules are static configuration, loaded once.
	cat, err := catalog.Load()
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}
	rules := delivery.NewRules(delivery.DefaultLocations())

	// Payment provider, checkout assembly, and status reconciliation.
	gateway := sumup.NewClient(cfg.SumUp.APIKey, cfg.SumUp.MerchantCode,
		sumup.WithAPIBase(cfg.SumUp.APIBase),
	)
	orderRepo := postgres.NewOrderRepository(pool)
	checkoutSvc := checkout.NewService(cat, rules, gateway, orderRepo, cfg.BaseURL)
	reconciler := payment.NewReconciler(orderRepo, gateway)

	// HTTP routes: health endpoints + API routes on one server.
	h := handler.NewHandler(
		handler.Config{AdminPassword: cfg.AdminPassword},
		cat, rules, checkoutSvc, reconciler, orderRepo,
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "X-Admin-Password"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("storefront-api", m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.LogRequests(),
		),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	// Catch paid orders whose webhooks never arrived.
	g.Go(func() error {
		runPoller(gctx, reconciler, cfg.Poll)
		return nil
	})

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	g.Go(func() error {
		<-gctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})

	return g.Wait()
}

// runPoller periodically re-verifies stale pending orders through the
// provider pull path until ctx is cancelled.
func runPoller(ctx context.Context, reconciler *payment.Reconciler, cfg PollConfig) {
	lg := zctx.From(ctx)
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := reconciler.ReconcilePending(ctx, now.Add(-cfg.PendingAge), cfg.BatchLimit); err != nil {
				lg.Error("Pending order poll failed", zap.Error(err))
			}
		}
	}
}
