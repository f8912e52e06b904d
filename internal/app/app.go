// Package app wires configuration, storage, domain services and the HTTP
// server together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/scoop/internal/domain/auth"
	"github.com/xenking/scoop/internal/domain/customer"
	"github.com/xenking/scoop/internal/domain/flavor"
	"github.com/xenking/scoop/internal/domain/order"
	"github.com/xenking/scoop/internal/handler"
	"github.com/xenking/scoop/internal/repository"
	"github.com/xenking/scoop/pkg/health"
	"github.com/xenking/scoop/pkg/httpmiddleware"
)

// Version is set at build time.
var Version = "dev"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr), zap.String("version", Version))

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Repositories.
	customerRepo := repository.NewCustomerRepository(pool)
	flavorRepo := repository.NewFlavorRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	apikeyRepo := repository.NewAPIKeyRepository(pool)

	// Domain services.
	tokens := auth.NewTokens([]byte(cfg.Token.Secret), cfg.Token.TTL)
	orderService, err := order.NewService(orderRepo, customerRepo, flavorRepo,
		order.Config{
			TxTimeout:       cfg.Order.TxTimeout,
			DefaultPageSize: cfg.Order.DefaultPageSize,
			MaxPageSize:     cfg.Order.MaxPageSize,
		},
		order.WithTracerProvider(m.TracerProvider()),
		order.WithMeterProvider(m.MeterProvider()),
	)
	if err != nil {
		return errors.Wrap(err, "create order service")
	}

	h := handler.New(
		handler.Config{ImageBaseURL: cfg.ImageBaseURL, Version: Version},
		flavor.NewService(flavorRepo),
		customer.NewService(customerRepo, tokens),
		orderService,
		handler.NewAuthenticator(apikeyRepo, []byte(cfg.APIKeyPepper), tokens),
	)

	mux := http.NewServeMux()
	mux.Handle("GET /livez", healthSvc.LiveHandler())
	mux.Handle("GET /readyz", healthSvc.ReadyHandler())
	h.Register(mux)

	middlewares := []httpmiddleware.Middleware{
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.Instrument("scoop-api", m.TracerProvider(), m.MeterProvider()),
		httpmiddleware.LogRequests(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization", handler.HeaderAPIKey},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
	}
	var limiter *httpmiddleware.Limiter
	if cfg.RateLimit.RPS > 0 {
		limiter = httpmiddleware.NewLimiter(httpmiddleware.RateLimitConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		})
		middlewares = append(middlewares, limiter.Middleware())
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           httpmiddleware.Wrap(mux, middlewares...),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return healthSvc.Run(gctx, 10*time.Second)
	})
	if limiter != nil {
		g.Go(func() error {
			return limiter.Run(gctx)
		})
	}
	g.Go(func() error {
		// Graceful shutdown: drop readiness, wait for balancers, then drain.
		<-gctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	g.Go(func() error {
		healthSvc.SetReady(true)
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	return g.Wait()
}
