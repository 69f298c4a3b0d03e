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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"staffledger/internal/board"
	"staffledger/internal/config"
	"staffledger/internal/logging"
	"staffledger/internal/metrics"
	"staffledger/internal/queue"
	"staffledger/internal/store"
)

// Worker consumes ledger notifications and keeps the presence board current.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := store.NewRedis(cfg.RedisAddr)
	if redisClient == nil {
		log.Error("worker needs REDIS_ADDR for the presence board")
		os.Exit(1)
	}
	defer redisClient.Close()
	if cfg.QueueBackend == "memory" {
		log.Warn("memory queue is per process; the worker will only see notifications it publishes itself")
	}

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, queue.DefaultKey, log)
	}

	b := board.New(redisClient.Client, cfg.Location())
	collectors := metrics.New(prometheus.DefaultRegisterer)
	go serveMetrics(ctx, cfg.WorkerMetricsPort, log)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Error("queue consume init failed", "error", err)
		os.Exit(1)
	}

	log.Info("worker started, waiting for notifications")
	run(ctx, messages, b, collectors, log)
	log.Info("worker stopped")
}

type applier interface {
	Apply(ctx context.Context, n queue.Notification) error
}

func run(ctx context.Context, messages <-chan queue.Notification, b applier, m *metrics.Collectors, log *slog.Logger) {
	for n := range messages {
		if err := b.Apply(ctx, n); err != nil {
			m.BoardUpdates.WithLabelValues(n.Type, "error").Inc()
			log.Warn("board update failed", "type", n.Type, "staff_id", n.StaffID, "day", n.Day, "error", err)
			continue
		}
		m.BoardUpdates.WithLabelValues(n.Type, "ok").Inc()
		log.Debug("board updated", "type", n.Type, "staff_id", n.StaffID, "day", n.Day)
	}
}

func serveMetrics(ctx context.Context, port string, log *slog.Logger) {
	if port == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn("metrics server failed", "port", port, "error", err)
	}
}
