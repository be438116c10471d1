package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"checkin-offers-api/internal/cache"
	"checkin-offers-api/internal/catalog"
	"checkin-offers-api/internal/config"
	"checkin-offers-api/internal/database"
	"checkin-offers-api/internal/events"
	"checkin-offers-api/internal/features"
	"checkin-offers-api/internal/handler"
	"checkin-offers-api/internal/logging"
	"checkin-offers-api/internal/middleware"
	"checkin-offers-api/internal/service"
	tlsconfig "checkin-offers-api/internal/tls"
	"checkin-offers-api/internal/tracing"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configFile := flag.String("config", "", "Path to a YAML or JSON config file")
	seedFile := flag.String("seed", "", "Catalog file (.json, .yaml) to import at startup; overrides CATALOG_SEED_FILE")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *seedFile != "" {
		cfg.Catalog.SeedFile = *seedFile
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("Invalid configuration")
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	tracer, err := tracing.InitTracing(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Environment: cfg.Tracing.Environment,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize tracing")
	}

	// Initialize database
	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	recCache := newCache(cfg)
	if rc, ok := recCache.(*cache.RedisCache); ok {
		defer rc.Close()
	}

	eventManager := events.NewManager(cfg.Events.Enabled)
	eventManager.SubscribeAll(events.AuditLog())

	flags := features.NewDefaultManager(cfg.Cache.Enabled, cfg.Events.Enabled)

	// Initialize service
	svc := service.NewServiceWithOptions(db, service.Options{
		Cache:    recCache,
		Events:   eventManager,
		Features: flags,
		Tracer:   tracer,
		CacheTTL: time.Duration(cfg.Cache.TTL) * time.Second,
	})

	if cfg.Catalog.SeedFile != "" {
		seedCatalog(svc, cfg.Catalog.SeedFile)
	}

	// Initialize handlers
	h := handler.NewHandlerWithOptions(svc, handler.NewHandlerOptions{
		MaxBodySize: cfg.Security.MaxRequestBodySize,
		Features:    flags,
	})

	// Setup router
	r := chi.NewRouter()

	// Middleware (order matters)
	r.Use(chimw.RequestID)
	if cfg.Server.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger())
	r.Use(chimw.Recoverer)

	if cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimit(cfg.RateLimit.Rate, time.Duration(cfg.RateLimit.Window)*time.Second))
	}

	r.Use(middleware.TracingMiddleware())

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOriginList(),
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Routes
	h.Routes(r)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("UNAVAILABLE"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Handle("/metrics", promhttp.Handler())

	// Configure TLS if enabled
	var tlsConfig *tls.Config
	if cfg.Server.EnableTLS {
		tlsCfg := tlsconfig.Config{
			CertFile: cfg.Server.CertFile,
			KeyFile:  cfg.Server.KeyFile,
		}

		tlsConfig, err = tlsconfig.LoadTLSConfig(tlsCfg)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to load TLS configuration")
		}

		if tlsCfg.SelfSigned() {
			logging.Warn().Msg("No certificate files provided, using self-signed certificate for development")
		}
	}

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
	}

	protocol := "HTTP"
	if tlsConfig != nil {
		protocol = "HTTPS"
	}
	logging.Info().
		Str("protocol", protocol).
		Str("addr", addr).
		Str("database", cfg.Database.Path).
		Bool("trust_proxy", cfg.Server.TrustProxy).
		Bool("rate_limit", cfg.RateLimit.Enabled).
		Int("rate", cfg.RateLimit.Rate).
		Int("window_seconds", cfg.RateLimit.Window).
		Msg("Starting server")

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		logging.Info().Msg("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("Error shutting down server")
		}
		eventManager.Shutdown()
		if err := tracing.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("Error shutting down tracer")
		}
	}()

	if err := serve(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal().Err(err).Msg("Server failed")
	}
	<-done
}

// serve starts the listener. With a TLS config the certificates are already
// loaded, so the file arguments stay empty.
func serve(server *http.Server) error {
	if server.TLSConfig != nil {
		return server.ListenAndServeTLS("", "")
	}
	return server.ListenAndServe()
}

// newCache picks Redis when an address is configured, falling back to the
// in-memory cache if Redis is unreachable.
func newCache(cfg *config.Config) cache.Cache {
	if cfg.Cache.RedisAddr == "" {
		return cache.NewInMemoryCache()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, "checkin-offers:")
	if err != nil {
		logging.Warn().Err(err).Str("addr", cfg.Cache.RedisAddr).Msg("Redis unavailable, using in-memory cache")
		return cache.NewInMemoryCache()
	}

	logging.Info().Str("addr", cfg.Cache.RedisAddr).Msg("Using Redis recommendation cache")
	return rc
}

func seedCatalog(svc *service.Service, path string) {
	offers, err := catalog.LoadFile(path)
	if err != nil {
		logging.Fatal().Err(err).Str("file", path).Msg("Failed to read seed catalog")
	}

	n, err := svc.ImportOffers(context.Background(), offers)
	if err != nil {
		logging.Fatal().Err(err).Str("file", path).Msg("Failed to import seed catalog")
	}
	logging.Info().Int("offers", n).Str("file", path).Msg("Seeded offer catalog")
}
