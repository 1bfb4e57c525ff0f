package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorRecordsViewerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	c.Rebuilt(5, 2)
	c.Rebuilt(3, 1)
	c.Picked(true)
	c.Picked(false)
	c.Picked(false)
	c.Highlighted(4)
	c.FrameRendered(3 * time.Millisecond)

	if got := testutil.ToFloat64(c.Rebuilds); got != 2 {
		t.Fatalf("urban3d_rebuilds_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.Meshes); got != 3 {
		t.Fatalf("urban3d_meshes = %v, want 3", got)
	}
	if got := testutil.ToFloat64(c.Skipped); got != 3 {
		t.Fatalf("urban3d_buildings_skipped_total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(c.Picks.WithLabelValues("miss")); got != 2 {
		t.Fatalf("urban3d_picks_total{miss} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.HighlightedMeshes); got != 4 {
		t.Fatalf("urban3d_highlighted_meshes = %v, want 4", got)
	}
	if got := testutil.CollectAndCount(c.FrameSeconds); got != 1 {
		t.Fatalf("urban3d_frame_seconds series = %d, want 1", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.Rebuilt(1, 1)
	c.Picked(true)
	c.Highlighted(1)
	c.FrameRendered(time.Millisecond)
	c.FetchServed("live")
	c.ObserveHTTP("GET", "/", 200, time.Millisecond)
}

func TestRegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewCollector(reg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second NewCollector: %v", err)
	}
	a.FetchServed("cache")
	if got := testutil.ToFloat64(b.Fetches.WithLabelValues("cache")); got != 1 {
		t.Fatalf("shared fetch counter = %v, want 1", got)
	}
}

func TestHandlerExposesHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatal(err)
	}
	c.ObserveHTTP(http.MethodGet, "/api/buildings", 200, 10*time.Millisecond)
	c.ObserveHTTP(http.MethodGet, "", 404, time.Millisecond)

	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	for _, want := range []string{
		`urban3d_http_requests_total{code="200",method="GET",route="/api/buildings"} 1`,
		`urban3d_http_requests_total{code="404",method="GET",route="unmatched"} 1`,
		"urban3d_http_request_duration_seconds_count",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}
