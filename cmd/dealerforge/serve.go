package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	cfhttp "github.com/Strob0t/DealerForge/internal/adapter/http"
	"github.com/Strob0t/DealerForge/internal/adapter/memstore"
	cfnats "github.com/Strob0t/DealerForge/internal/adapter/nats"
	"github.com/Strob0t/DealerForge/internal/adapter/natskv"
	cfotel "github.com/Strob0t/DealerForge/internal/adapter/otel"
	"github.com/Strob0t/DealerForge/internal/adapter/postgres"
	"github.com/Strob0t/DealerForge/internal/adapter/prometheus"
	"github.com/Strob0t/DealerForge/internal/adapter/ristretto"
	"github.com/Strob0t/DealerForge/internal/adapter/tiered"
	"github.com/Strob0t/DealerForge/internal/adapter/ws"
	"github.com/Strob0t/DealerForge/internal/config"
	"github.com/Strob0t/DealerForge/internal/domain/tenant"
	"github.com/Strob0t/DealerForge/internal/logger"
	"github.com/Strob0t/DealerForge/internal/middleware"
	"github.com/Strob0t/DealerForge/internal/port/broadcast"
	"github.com/Strob0t/DealerForge/internal/port/cache"
	"github.com/Strob0t/DealerForge/internal/port/database"
	"github.com/Strob0t/DealerForge/internal/resilience"
	"github.com/Strob0t/DealerForge/internal/secrets"
	"github.com/Strob0t/DealerForge/internal/service"
)

const (
	statusCacheMaxTenants = 100_000
	idempotencyBucket     = "DEALERFORGE_IDEMPOTENCY"
	idempotencyTTL        = 24 * time.Hour
	idempotencyL1Expire   = time.Minute
)

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	lg, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(lg)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
		"log_level", cfg.Logging.Level,
		"nats", cfg.NATS.URL != "",
		"tenant_status_ttl", cfg.Cache.TenantStatusTTL,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---

	shutdownOTEL, err := cfotel.Setup(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownOTEL(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()
	txMetrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}
	promMetrics := prometheus.New()

	// --- Storage ---

	store, closeStore, err := openStore(ctx, cfg, txMetrics)
	if err != nil {
		return err
	}
	defer closeStore()

	// --- Secrets ---

	vault, err := secrets.NewVault(secretLoader(&cfg.Auth), secrets.KeyJWTSecret)
	if err != nil {
		return fmt.Errorf("secrets: %w", err)
	}

	// --- Services ---

	tokens := service.NewTokenService(vault, cfg.Auth.TokenTTL)
	gate := service.NewAccessGate(tokens, store, cfg.Auth.LegacyAdminUsername)
	gate.SetMetrics(txMetrics)
	if cfg.Cache.TenantStatusTTL > 0 {
		sc, err := ristretto.NewStatusCache(cfg.Cache.TenantStatusTTL, statusCacheMaxTenants)
		if err != nil {
			return fmt.Errorf("status cache: %w", err)
		}
		defer sc.Close()
		gate.SetStatusCache(sc)
	}

	authSvc := service.NewAuthService(store, tokens, &cfg.Auth)
	authSvc.SetHashPool(resilience.NewPool(cfg.Auth.HashConcurrency))
	tenantSvc := service.NewTenantService(store, authSvc, gate, cfg.Auth.DefaultAdminPassword)

	hub := ws.NewHub(cfg.Server.CORSOrigins)
	promMetrics.RegisterGauge("ws", "connections", "Open live feed connections.", func() float64 {
		return float64(hub.ConnectionCount())
	})

	l1, err := ristretto.New(cfg.Cache.MaxCostBytes)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer l1.Close()

	var (
		events      broadcast.Broadcaster = hub
		idempotency cache.Cache           = l1
	)
	onStatus := func(_ context.Context, ch tenant.StatusChange) {
		gate.InvalidateTenant(ch.TenantID)
		if ch.Status != tenant.StatusActive {
			hub.DisconnectTenant(ch.TenantID)
		}
	}

	if cfg.NATS.URL != "" {
		queue, err := cfnats.Connect(ctx, cfg.NATS.URL, cfg.NATS.Stream)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = queue.Close() }()

		bus := cfnats.NewBus(queue, hub)
		stopBus, err := bus.Start(ctx, onStatus)
		if err != nil {
			return fmt.Errorf("event bus: %w", err)
		}
		defer stopBus()
		events = bus
		tenantSvc.OnStatusChange(bus.PublishStatus)

		l2, err := natskv.Open(ctx, queue.JetStream(), idempotencyBucket, idempotencyTTL)
		if err != nil {
			return fmt.Errorf("idempotency store: %w", err)
		}
		idempotency = tiered.New(l1, l2, idempotencyL1Expire)
		slog.Info("nats connected", "stream", cfg.NATS.Stream)
	} else {
		tenantSvc.OnStatusChange(onStatus)
	}

	if _, err := authSvc.BootstrapSuperAdmin(ctx, cfg.Auth.BootstrapSuperAdminUser, cfg.Auth.BootstrapSuperAdminPassword); err != nil {
		return fmt.Errorf("bootstrap super-admin: %w", err)
	} else if cfg.Auth.BootstrapSuperAdminUser != "" {
		slog.Info("super-admin ensured", "username", cfg.Auth.BootstrapSuperAdminUser)
	}

	// --- HTTP ---

	handlers := &cfhttp.Handlers{
		Auth:      authSvc,
		Tenants:   tenantSvc,
		Clients:   service.NewClientService(store),
		Options:   service.NewOptionService(store),
		Vehicles:  service.NewVehicleService(store, events),
		Sales:     service.NewSaleService(store, events),
		Entries:   service.NewEntryService(store),
		Documents: service.NewDocumentService(store),
		Settings:  service.NewSettingsService(store),
		BodyLimit: cfg.Server.BodyLimit,
	}

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	r := cfhttp.NewRouter(cfg.Server, handlers, cfhttp.RouteDeps{
		Gate:           gate,
		WS:             hub.HandleWS,
		Metrics:        promMetrics.Handler(),
		Idempotency:    idempotency,
		IdempotencyTTL: idempotencyTTL,
		LoginLimiter:   limiter,
		Instrument: []func(http.Handler) http.Handler{
			cfotel.HTTPMiddleware(cfg.OTEL.ServiceName),
			promMetrics.Middleware,
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		reloadSecrets(gctx, vault)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		hub.Close()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// openStore connects the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config, metrics *cfotel.Metrics) (database.Store, func(), error) {
	if cfg.Storage.Driver == "memory" {
		slog.Warn("using in-memory store, data is lost on exit")
		return memstore.New(), func() {}, nil
	}

	store, closePool, err := postgres.Open(ctx, cfg.Postgres, metrics)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: %w", err)
	}
	return store, closePool, nil
}

// secretLoader reads the signing secret from config, overridden by the
// secrets file when one is configured.
func secretLoader(cfg *config.Auth) secrets.Loader {
	base := secrets.StaticLoader(map[string]string{secrets.KeyJWTSecret: cfg.JWTSecret})
	if cfg.SecretsFile == "" {
		return base
	}
	return secrets.Chain(base, secrets.FileLoader(cfg.SecretsFile))
}

// reloadSecrets re-reads the vault on every SIGHUP until ctx is done.
func reloadSecrets(ctx context.Context, vault *secrets.Vault) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := vault.Reload(); err != nil {
				slog.Error("secret reload failed", "error", err)
				continue
			}
			slog.Info("secrets reloaded")
		}
	}
}
