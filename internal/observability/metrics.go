// Package observability exposes the Prometheus metrics of the viewer, the
// backend and the HTTP API.
package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the metrics. A nil *Collector is valid and records
// nothing, so callers never need to guard it.
type Collector struct {
	gatherer prometheus.Gatherer

	Rebuilds           prometheus.Counter
	Meshes             prometheus.Gauge
	Skipped            prometheus.Counter
	Picks              *prometheus.CounterVec
	HighlightedMeshes  prometheus.Gauge
	FrameSeconds       prometheus.Histogram
	Fetches            *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPRequestSeconds *prometheus.HistogramVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice on the same registry reuses the
// existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	c := &Collector{gatherer: gatherer}
	var err error

	if c.Rebuilds, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "urban3d_rebuilds_total",
		Help: "Number of times the mesh set was rebuilt from a building list.",
	})); err != nil {
		return nil, err
	}
	if c.Meshes, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "urban3d_meshes",
		Help: "Number of building meshes in the current scene.",
	})); err != nil {
		return nil, err
	}
	if c.Skipped, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "urban3d_buildings_skipped_total",
		Help: "Buildings rejected as malformed during rebuilds.",
	})); err != nil {
		return nil, err
	}
	if c.Picks, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "urban3d_picks_total",
		Help: "Pointer picks, labeled by result (hit or miss).",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if c.HighlightedMeshes, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "urban3d_highlighted_meshes",
		Help: "Number of meshes currently drawn in the highlight colour.",
	})); err != nil {
		return nil, err
	}
	if c.FrameSeconds, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "urban3d_frame_seconds",
		Help:    "Time spent updating controls and rasterizing one frame.",
		Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})); err != nil {
		return nil, err
	}
	if c.Fetches, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "urban3d_building_fetches_total",
		Help: "Building list requests, labeled by the source that served them.",
	}, []string{"source"})); err != nil {
		return nil, err
	}
	if c.HTTPRequests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "urban3d_http_requests_total",
		Help: "HTTP requests handled by the API, labeled by method, route and status code.",
	}, []string{"method", "route", "code"})); err != nil {
		return nil, err
	}
	if c.HTTPRequestSeconds, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "urban3d_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method", "route"})); err != nil {
		return nil, err
	}
	return c, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Rebuilt records one mesh-set rebuild.
func (c *Collector) Rebuilt(meshes, skipped int) {
	if c == nil {
		return
	}
	c.Rebuilds.Inc()
	c.Meshes.Set(float64(meshes))
	c.Skipped.Add(float64(skipped))
}

// Picked records a pick result.
func (c *Collector) Picked(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.Picks.WithLabelValues(result).Inc()
}

func (c *Collector) Highlighted(n int) {
	if c == nil {
		return
	}
	c.HighlightedMeshes.Set(float64(n))
}

func (c *Collector) FrameRendered(d time.Duration) {
	if c == nil {
		return
	}
	c.FrameSeconds.Observe(d.Seconds())
}

// FetchServed counts a building list answered from source.
func (c *Collector) FetchServed(source string) {
	if c == nil {
		return
	}
	c.Fetches.WithLabelValues(source).Inc()
}

// ObserveHTTP records one handled request.
func (c *Collector) ObserveHTTP(method, route string, code int, d time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	c.HTTPRequestSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}

func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	if err := reg.Register(col); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %T already registered with incompatible type", col)
		}
		var zero T
		return zero, err
	}
	return col, nil
}
