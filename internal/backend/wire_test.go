package backend

import (
	"context"
	"testing"

	"urban3d/internal/cache"
	"urban3d/internal/config"
	"urban3d/internal/osm"
	"urban3d/internal/store"
)

func TestNewFromConfigInMemory(t *testing.T) {
	cfg := config.Config{OverpassURL: "http://127.0.0.1:1/api/interpreter"}
	l, closeFn, err := NewFromConfig(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("NewFromConfig error = %v", err)
	}
	defer closeFn()

	if _, ok := l.opts.Source.(*osm.Client); !ok {
		t.Fatalf("source = %T, want *osm.Client", l.opts.Source)
	}
	if _, ok := l.opts.Cache.(*cache.Memory); !ok {
		t.Fatalf("cache = %T, want *cache.Memory", l.opts.Cache)
	}
	if _, ok := l.opts.Projects.(*store.Memory); !ok {
		t.Fatalf("projects = %T, want *store.Memory", l.opts.Projects)
	}
}

func TestNewFromConfigDataFile(t *testing.T) {
	l, closeFn, err := NewFromConfig(context.Background(), config.Config{DataFile: "city.geojson"}, nil, nil)
	if err != nil {
		t.Fatalf("NewFromConfig error = %v", err)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("close error = %v", err)
	}
	fs, ok := l.opts.Source.(FileSource)
	if !ok || fs.Path != "city.geojson" {
		t.Fatalf("source = %#v, want FileSource{city.geojson}", l.opts.Source)
	}
}
