package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/propstack/proximity/internal/config"
	"github.com/propstack/proximity/internal/geocode"
	"github.com/propstack/proximity/internal/httpclient"
	"github.com/propstack/proximity/internal/invalidation/kafkaconsumer"
	"github.com/propstack/proximity/internal/logger"
	"github.com/propstack/proximity/internal/observability"
	"github.com/propstack/proximity/internal/overpass"
	"github.com/propstack/proximity/internal/proximity"
	"github.com/propstack/proximity/internal/router"
	"github.com/propstack/proximity/internal/server"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// .env is optional; real deployments configure the environment directly
	_ = godotenv.Load()

	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		Component: "proximity",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting proximity service",
		"addr", cfg.Addr,
		"version", Version,
		"overpass_mirrors", len(cfg.OverpassURLs))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := httpclient.NewOutbound()

	chain := geocode.NewChain(appLog, cfg.GeocodeTimeout,
		geocode.NewNominatim(cfg.NominatimURL, client, cfg.GeocodeRatePerSec),
		geocode.NewPhoton(cfg.PhotonURL, client),
	)
	engine := overpass.New(appLog, client, cfg.OverpassURLs,
		overpass.WithTimeout(cfg.SpatialTimeout),
		overpass.WithMaxRetries(cfg.SpatialMaxRetries),
		overpass.WithBackoff(cfg.SpatialBackoff),
	)

	svc := proximity.NewService(appLog, chain, engine, proximity.Options{
		CacheMaxSize: cfg.CacheMaxSize,
		ResultsTTL:   cfg.CacheTTLResults,
		SpatialTTL:   cfg.CacheTTLSpatial,
	})
	svc.StartSweepers(ctx, cfg.CacheSweepInterval)

	if cfg.Invalidation.Enabled && cfg.Invalidation.Driver == "kafka" {
		consumer := kafkaconsumer.New(kafkaconsumer.FromConfig(cfg.Invalidation), appLog, svc)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				appLog.Error("invalidation consumer exited", "err", err)
			}
		}()
	}

	if os.Getenv("METRICS_ENABLED") == "true" {
		startMetrics(ctx)
	}

	handler := router.New(appLog, svc)
	if err := server.Run(ctx, cfg, appLog, handler); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

func startMetrics(ctx context.Context) {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		addr = ":9090"
	}
	path := os.Getenv("METRICS_PATH")
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("metrics: listening on %s%s", addr, path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("metrics: shutdown error: %v", err)
		}
	}()
}
