// Package backend is the building and project service behind the HTTP API and
// the terminal client.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"urban3d/internal/building"
	"urban3d/internal/cache"
	"urban3d/internal/geom"
	"urban3d/internal/logging"
	"urban3d/internal/query"
	"urban3d/internal/store"
)

// Where a building set came from.
const (
	SourceCache      = "cache"
	SourceLive       = "live"
	SourceStaleCache = "stale-cache"
)

// NoFilterReason accompanies an empty match list when nothing was parsed.
const NoFilterReason = "Could not parse a filter from the query."

var ErrNoData = errors.New("backend: no building data available")

// BBox is the wire form of a lon/lat box.
type BBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

func WireBBox(bb geom.BBox) BBox {
	return BBox{West: bb.MinX, South: bb.MinY, East: bb.MaxX, North: bb.MaxY}
}

func (b BBox) Geom() geom.BBox {
	return geom.BBox{MinX: b.West, MinY: b.South, MaxX: b.East, MaxY: b.North}
}

// BuildingsResult is the payload of a building fetch.
type BuildingsResult struct {
	BBox      BBox                `json:"bbox"`
	Count     int                 `json:"count"`
	Buildings []building.Building `json:"buildings"`
	Source    string              `json:"source"`
	Warning   string              `json:"warning,omitempty"`
}

// FilterResult is the payload of a query interpretation.
type FilterResult struct {
	Filter      *query.Filter `json:"filter"`
	MatchingIDs []int64       `json:"matching_ids"`
	Reason      string        `json:"reason,omitempty"`
}

// Service is implemented by Local and by the HTTP client in package api.
type Service interface {
	Buildings(ctx context.Context, bb geom.BBox, refresh bool) (*BuildingsResult, error)
	Filter(ctx context.Context, text string, bs []building.Building) (*FilterResult, error)
	SaveProject(ctx context.Context, username, name string, filters json.RawMessage) (int64, error)
	Projects(ctx context.Context, username string) ([]store.Summary, error)
	LoadProject(ctx context.Context, id int64) (json.RawMessage, error)
	DeleteProject(ctx context.Context, username string, id int64) (int64, error)
}

// Source produces buildings for a bbox.
type Source interface {
	Fetch(ctx context.Context, bb geom.BBox) ([]building.Building, error)
}

// FileSource serves a local GeoJSON, CSV, KML or PBF file. The bbox only
// filters PBF extracts.
type FileSource struct {
	Path string
}

func (f FileSource) Fetch(_ context.Context, bb geom.BBox) ([]building.Building, error) {
	return geom.Load(f.Path, bb)
}

// Recorder receives fetch outcomes. *observability.Collector satisfies it.
type Recorder interface {
	FetchServed(source string)
}

type nopRecorder struct{}

func (nopRecorder) FetchServed(string) {}

// Options configures Local.
type Options struct {
	Source   Source
	Cache    cache.Store
	Projects store.Projects
	Log      logging.Logger
	Metrics  Recorder

	// FreshTTL is how long a cached set is served without refetching;
	// StaleTTL bounds how old a set may be when used as a fallback.
	FreshTTL time.Duration
	StaleTTL time.Duration

	Now func() time.Time
}

// Local composes a Source, a cache and a project store in process.
type Local struct {
	opts Options
}

func NewLocal(opts Options) *Local {
	if opts.Cache == nil {
		opts.Cache = cache.NewMemory(opts.Now)
	}
	if opts.Projects == nil {
		opts.Projects = store.NewMemory(opts.Now)
	}
	if opts.Log == nil {
		opts.Log = logging.Noop()
	}
	if opts.Metrics == nil {
		opts.Metrics = nopRecorder{}
	}
	if opts.FreshTTL <= 0 {
		opts.FreshTTL = 6 * time.Hour
	}
	if opts.StaleTTL < opts.FreshTTL {
		opts.StaleTTL = 365 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Local{opts: opts}
}

// Buildings serves a fresh cache entry unless refresh is set, otherwise
// fetches live and caches the result. A failed fetch falls back to any entry
// younger than StaleTTL with a warning.
func (l *Local) Buildings(ctx context.Context, bb geom.BBox, refresh bool) (*BuildingsResult, error) {
	if !bb.Valid() {
		return nil, fmt.Errorf("backend: invalid bbox %+v", bb)
	}
	log := logging.FromContext(ctx, l.opts.Log).With(logging.String("bbox", bb.Key()))
	key := bb.Key()
	now := l.opts.Now()

	cached, cerr := l.opts.Cache.Get(ctx, key)
	hit := cerr == nil
	if cerr != nil && !errors.Is(cerr, cache.ErrMiss) {
		log.Warn(ctx, "cache read failed", logging.Err(cerr))
	}
	if hit && !refresh && cached.Age(now) < l.opts.FreshTTL {
		return l.result(bb, cached.Buildings, SourceCache, ""), nil
	}

	if l.opts.Source == nil {
		return nil, ErrNoData
	}
	bs, err := l.opts.Source.Fetch(ctx, bb)
	if err == nil {
		e := cache.Entry{Buildings: bs, FetchedAt: now}
		if serr := l.opts.Cache.Set(ctx, key, e, l.opts.StaleTTL); serr != nil {
			log.Warn(ctx, "cache write failed", logging.Err(serr))
		}
		log.Info(ctx, "buildings fetched", logging.Int("count", len(bs)))
		return l.result(bb, bs, SourceLive, ""), nil
	}

	log.Warn(ctx, "live fetch failed", logging.Err(err))
	if hit && cached.Age(now) < l.opts.StaleTTL {
		return l.result(bb, cached.Buildings, SourceStaleCache, "live fetch failed: "+err.Error()), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrNoData, err)
}

func (l *Local) result(bb geom.BBox, bs []building.Building, source, warning string) *BuildingsResult {
	if bs == nil {
		bs = []building.Building{}
	}
	l.opts.Metrics.FetchServed(source)
	return &BuildingsResult{
		BBox:      WireBBox(bb),
		Count:     len(bs),
		Buildings: bs,
		Source:    source,
		Warning:   warning,
	}
}

// Filter parses text and evaluates it against bs.
func (l *Local) Filter(_ context.Context, text string, bs []building.Building) (*FilterResult, error) {
	f := query.Parse(text)
	if f == nil {
		return &FilterResult{MatchingIDs: []int64{}, Reason: NoFilterReason}, nil
	}
	return &FilterResult{Filter: f, MatchingIDs: query.Apply(bs, f)}, nil
}

func (l *Local) SaveProject(ctx context.Context, username, name string, filters json.RawMessage) (int64, error) {
	return l.opts.Projects.SaveProject(ctx, strings.TrimSpace(username), strings.TrimSpace(name), filters)
}

func (l *Local) Projects(ctx context.Context, username string) ([]store.Summary, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return []store.Summary{}, nil
	}
	return l.opts.Projects.Projects(ctx, username)
}

func (l *Local) LoadProject(ctx context.Context, id int64) (json.RawMessage, error) {
	return l.opts.Projects.LoadProject(ctx, id)
}

func (l *Local) DeleteProject(ctx context.Context, username string, id int64) (int64, error) {
	return l.opts.Projects.DeleteProject(ctx, strings.TrimSpace(username), id)
}
