package main

import (
	"context"
	"log"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"

	"urban3d/internal/api"
	"urban3d/internal/backend"
	"urban3d/internal/config"
	"urban3d/internal/logging"
	"urban3d/internal/observability"
	"urban3d/internal/tui"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run returns instead of exiting so every deferred close runs.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if len(os.Args) > 1 {
		cfg.DataFile = os.Args[1]
	}

	// stdout belongs to the UI, so logs go to a file or nowhere.
	logger := logging.Noop()
	if cfg.LogFile != "" {
		l, f, err := logging.OpenFile(cfg.LogFile, logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
		if err != nil {
			return err
		}
		defer f.Close()
		logger = l
	}

	metrics, err := observability.NewCollector(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	if cfg.MetricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, metrics.Handler()); err != nil {
				logger.Error(context.Background(), "metrics server stopped", logging.Err(err))
			}
		}()
	}

	var svc backend.Service
	if cfg.APIBase != "" {
		svc = api.NewClient(cfg.APIBase)
		logger.Info(context.Background(), "using remote backend", logging.String("api_base", cfg.APIBase))
	} else {
		local, closeBackend, err := backend.NewFromConfig(context.Background(), cfg, logger, metrics)
		if err != nil {
			closeBackend()
			return err
		}
		defer closeBackend()
		svc = local
	}

	m := tui.New(tui.Options{
		Service:  svc,
		Logger:   logger,
		Metrics:  metrics,
		BBox:     cfg.BBox(),
		Username: cfg.Username,
		FPS:      cfg.FPS,
		DataFile: cfg.DataFile,
	})
	defer m.Close()

	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
