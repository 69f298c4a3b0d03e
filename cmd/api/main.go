package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"staffledger/internal/api"
	"staffledger/internal/attendance"
	"staffledger/internal/auth"
	"staffledger/internal/board"
	"staffledger/internal/config"
	"staffledger/internal/geoclient"
	"staffledger/internal/geofence"
	"staffledger/internal/httpmiddleware"
	"staffledger/internal/logging"
	"staffledger/internal/metrics"
	"staffledger/internal/queue"
	"staffledger/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, log); err != nil {
		log.Error("http server failed", "error", err)
		os.Exit(1)
	}
}

func runHTTP(cfg config.App, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		version, _, err := store.Migrate(cfg.DatabaseURL, "up")
		if err != nil {
			return err
		}
		log.Info("migrations applied", "version", version)
	}

	pool, err := store.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var q queue.Queue
	if cfg.QueueBackend == "memory" || redisClient == nil {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, queue.DefaultKey, log)
	}

	var limiter httpmiddleware.Limiter
	if cfg.RateLimitBackend == "memory" || redisClient == nil {
		limiter = httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	} else {
		limiter = httpmiddleware.NewRedisLimiter(redisClient.Client, cfg.RateLimitPerMin)
	}

	var presence api.BoardReader
	if redisClient != nil {
		presence = board.New(redisClient.Client, cfg.Location())
	}

	var provider geofence.Provider = geofence.Reported{}
	if cfg.GeoProvider == "http" {
		office := geofence.Point{Latitude: cfg.OfficeLatitude, Longitude: cfg.OfficeLongitude}
		geo := geoclient.New(cfg.GeoServiceURL, cfg.GeoSkip, office)
		if !cfg.GeoSkip {
			if err := geo.Health(ctx); err != nil {
				log.Warn("geolocation service not available", "url", cfg.GeoServiceURL, "error", err)
			}
		}
		provider = geo
	}
	guard := geofence.NewGuard(provider, geofence.Fence{
		Center:       geofence.Point{Latitude: cfg.OfficeLatitude, Longitude: cfg.OfficeLongitude},
		RadiusMeters: cfg.GeofenceRadiusMeters,
	}, cfg.GeoTimeout)

	loc := cfg.Location()
	repo := attendance.NewRepository(pool)
	tx := store.NewTransactionManager(pool)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	handler := api.New(api.Deps{
		Staff:                   repo,
		Declarations:            attendance.NewDeclarationLedger(repo, repo, nil, loc),
		Sessions:                attendance.NewSessionLedger(repo, repo, tx, loc),
		Reports:                 attendance.NewReportService(repo, repo, repo, nil, loc),
		Guard:                   guard,
		Queue:                   q,
		Board:                   presence,
		Metrics:                 m,
		Log:                     log,
		SessionRequiresLocation: cfg.SessionRequiresLocation,
		Location:                loc,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           24 * time.Hour,
	}))
	r.Use(securityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	r.GET("/healthz", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		dbHealthy := pool.Ping(pingCtx) == nil
		redisHealthy := redisClient == nil || redisClient.Healthy(c.Request.Context())
		status := http.StatusOK
		if !dbHealthy || !redisHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"db": dbHealthy, "redis": redisHealthy})
	})

	v1 := r.Group("/v1",
		auth.Bearer(cfg.JWTSigningKey, cfg.JWTIssuer),
		httpmiddleware.Middleware(limiter, auth.Subject, log),
	)
	handler.Register(v1)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "port", cfg.HTTPPort, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server forced shutdown", "error", err)
	}
	log.Info("server exited")
	return nil
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
