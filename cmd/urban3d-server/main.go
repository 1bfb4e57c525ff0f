package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"urban3d/internal/api"
	"urban3d/internal/backend"
	"urban3d/internal/config"
	"urban3d/internal/logging"
	"urban3d/internal/observability"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics, err := observability.NewCollector(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal(err)
	}
	svc, closeBackend, err := backend.NewFromConfig(ctx, cfg, logger, metrics)
	if err != nil {
		log.Fatal(err)
	}
	defer closeBackend()

	r := api.NewEngine(api.Deps{
		Service:     svc,
		Log:         logger,
		Metrics:     metrics,
		DefaultBBox: cfg.BBox(),
	})
	srv := &http.Server{Addr: cfg.Addr(), Handler: r}

	go func() {
		logger.Info(ctx, "listening", logging.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "server stopped", logging.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "shutdown", logging.Err(err))
	}
}
