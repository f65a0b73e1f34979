package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // storefront timezones without system zoneinfo

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	cfhttp "github.com/agendei/agendei/internal/adapter/http"
	cfnats "github.com/agendei/agendei/internal/adapter/nats"
	"github.com/agendei/agendei/internal/adapter/natskv"
	cfotel "github.com/agendei/agendei/internal/adapter/otel"
	"github.com/agendei/agendei/internal/adapter/postgres"
	"github.com/agendei/agendei/internal/adapter/ristretto"
	"github.com/agendei/agendei/internal/adapter/tiered"
	"github.com/agendei/agendei/internal/adapter/ws"
	"github.com/agendei/agendei/internal/config"
	"github.com/agendei/agendei/internal/logger"
	"github.com/agendei/agendei/internal/middleware"
	"github.com/agendei/agendei/internal/port/cache"
	"github.com/agendei/agendei/internal/resilience"
	"github.com/agendei/agendei/internal/secrets"
	"github.com/agendei/agendei/internal/service"
)

// connectionsPerPage is how many pool connections one storefront page
// assembly holds at once.
const connectionsPerPage = 5

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	appLogger, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(appLogger)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	shutdownOTEL, err := cfotel.Setup(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTEL(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()
	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := metrics.Observe("agendei.log.dropped", "Log records dropped by the async buffer", func() float64 {
		return float64(closeLog.Dropped())
	}); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Secrets ---
	vault, err := secrets.NewVault(secrets.WithFallback(
		secrets.EnvLoader(secrets.JWTSecret),
		map[string]string{secrets.JWTSecret: cfg.Auth.JWTSecret},
	))
	if err != nil {
		return fmt.Errorf("secrets: %w", err)
	}
	stopReload := vault.ReloadOnSignal(ctx, syscall.SIGHUP)
	defer stopReload()
	slog.Info("signing secret loaded", "jwt_secret", vault.Redacted(secrets.JWTSecret))

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")
	store := postgres.NewStore(pool)

	// NATS
	queue, err := cfnats.ConnectStream(ctx, cfg.NATS.URL, cfg.NATS.Stream)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	// Caches: ristretto in process, NATS KV shared between replicas.
	l1, err := ristretto.NewMB(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return fmt.Errorf("l1 cache: %w", err)
	}
	defer l1.Close()
	if err := metrics.Observe("agendei.cache.l1_hit_ratio", "Share of slug lookups answered in process", l1.HitRatio); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	slugKV, err := queue.KeyValue(ctx, cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
	if err != nil {
		return fmt.Errorf("l2 cache: %w", err)
	}
	slugCache := tiered.New(l1, natskv.New(slugKV), cfg.Cache.L1TTL)

	idemKV, err := queue.KeyValue(ctx, cfg.Idempotency.Bucket, cfg.Idempotency.TTL)
	if err != nil {
		return fmt.Errorf("idempotency store: %w", err)
	}
	var idemCache cache.Cache = natskv.New(idemKV)

	// --- Realtime ---
	tokens := service.NewPrincipalResolver(cfg.Auth).WithSecretSource(vault.Source(secrets.JWTSecret))
	accounts := service.NewAccountChecker(store, store)
	hub := ws.NewHub(cfg.Server.CORSOrigin, tokens).WithAccounts(accounts)
	stopRelay, err := ws.Relay(ctx, queue, hub)
	if err != nil {
		return fmt.Errorf("ws relay: %w", err)
	}
	defer stopRelay()

	// --- Services ---
	breaker := resilience.NewNamedBreaker("nats-publish", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	breaker.OnStateChange(func(name string, _, to resilience.State) {
		metrics.RecordBreakerTransition(name, to.String())
	})
	events := service.NewEventPublisher(queue, hub, breaker)

	bookingSvc := service.NewBookingService(cfg.Booking, events)
	bookingSvc.SetMetrics(metrics)
	appointmentSvc := service.NewAppointmentService(events)
	appointmentSvc.SetMetrics(metrics)
	reviewSvc := service.NewReviewService(events)
	reviewSvc.SetMetrics(metrics)
	storefrontSvc := service.NewStorefrontService(store, store, slugCache, cfg.Cache.L2TTL, cfg.Booking.DefaultTimezone)
	storefrontSvc.SetPageBulkhead(resilience.NewBulkhead(int(cfg.Postgres.MaxConns) / connectionsPerPage))

	handlers := &cfhttp.Handlers{
		Scoper:        store,
		Booking:       bookingSvc,
		Appointments:  appointmentSvc,
		Catalog:       service.NewCatalogService(),
		Storefront:    storefrontSvc,
		Reviews:       reviewSvc,
		Notifications: service.NewNotificationService(),
		Users:         service.NewUserService(cfg.Booking.GuestEmailDomain),
	}

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst).WithKey(middleware.StorefrontKey)
	stopCleanup := limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	// --- HTTP ---
	r := chi.NewRouter()
	r.Use(cfotel.HTTPMiddleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID)
	r.Use(cfhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cfhttp.SecurityHeaders)
	r.Use(cfhttp.CORS(cfg.Server.CORSOrigin))

	r.Get("/ready", readyHandler(store, queue))

	cfhttp.MountRoutes(r, handlers, cfhttp.RouteDeps{
		Tokens:         tokens,
		Accounts:       accounts,
		Limiter:        limiter,
		Idempotency:    idemCache,
		IdempotencyTTL: cfg.Idempotency.TTL,
		WebSocket:      hub.HandleWS,
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.TimeoutHandler(r, cfg.Server.RequestTimeout, `{"error":"request timeout"}`),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	// WebSocket upgrades need the raw writer, so /ws bypasses the timeout.
	srv.Handler = routeWS(r, srv.Handler)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := queue.Drain(); err != nil {
		slog.Warn("nats drain", "error", err)
	}
	return nil
}

// routeWS sends /ws to the router directly and everything else to next.
func routeWS(r http.Handler, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/ws" {
			r.ServeHTTP(w, req)
			return
		}
		next.ServeHTTP(w, req)
	})
}

type pinger interface {
	Ping(ctx context.Context) error
}

type connChecker interface {
	IsConnected() bool
}

// readyHandler reports whether the database and the message bus are reachable.
func readyHandler(db pinger, bus connChecker) http.HandlerFunc {
	type readiness struct {
		Status   string `json:"status"`
		Postgres string `json:"postgres"`
		NATS     string `json:"nats"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		res := readiness{Status: "ok", Postgres: "ok", NATS: "ok"}
		code := http.StatusOK
		if err := db.Ping(r.Context()); err != nil {
			res.Status, res.Postgres, code = "degraded", "unreachable", http.StatusServiceUnavailable
		}
		if !bus.IsConnected() {
			res.Status, res.NATS, code = "degraded", "disconnected", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(res)
	}
}
