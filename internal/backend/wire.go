package backend

import (
	"context"
	"errors"
	"os"

	"urban3d/internal/cache"
	"urban3d/internal/config"
	"urban3d/internal/logging"
	"urban3d/internal/osm"
	"urban3d/internal/store"
)

// NewFromConfig assembles a Local from cfg: Overpass (or DATA_FILE) as the
// source, Redis or memory as the cache, Postgres or memory for projects.
// The returned func closes whatever was opened.
func NewFromConfig(ctx context.Context, cfg config.Config, log logging.Logger, metrics Recorder) (*Local, func() error, error) {
	if log == nil {
		log = logging.Noop()
	}
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	var src Source
	if cfg.DataFile != "" {
		src = FileSource{Path: cfg.DataFile}
		log.Info(ctx, "serving buildings from file", logging.String("path", cfg.DataFile))
	} else {
		src = osm.NewClient(cfg.OverpassURL, log)
	}

	var c cache.Store = cache.NewMemory(nil)
	if cfg.RedisURL != "" {
		r, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, closeAll, err
		}
		c = r
		closers = append(closers, r.Close)
		log.Info(ctx, "connected to redis")
	}

	var projects store.Projects = store.NewMemory(nil)
	if cfg.DBURL != "" {
		pg, err := store.OpenPostgres(cfg.DBURL, os.Stderr)
		if err != nil {
			return nil, closeAll, err
		}
		projects = pg
		closers = append(closers, pg.Close)
		log.Info(ctx, "connected to postgres")
	}

	l := NewLocal(Options{
		Source:   src,
		Cache:    c,
		Projects: projects,
		Log:      log,
		Metrics:  metrics,
		FreshTTL: cfg.CacheTTL,
		StaleTTL: cfg.CacheStaleTTL,
	})
	return l, closeAll, nil
}
