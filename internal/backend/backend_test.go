package backend

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"urban3d/internal/building"
	"urban3d/internal/cache"
	"urban3d/internal/geom"
)

var testBBox = geom.BBox{MinX: -114.0715, MinY: 51.0455, MaxX: -114.0665, MaxY: 51.0493}

type fakeSource struct {
	bs    []building.Building
	err   error
	calls int
}

func (f *fakeSource) Fetch(context.Context, geom.BBox) ([]building.Building, error) {
	f.calls++
	return f.bs, f.err
}

type countingRecorder map[string]int

func (c countingRecorder) FetchServed(source string) { c[source]++ }

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLocal(src *fakeSource, clk *clock, rec Recorder) *Local {
	return NewLocal(Options{
		Source:   src,
		Cache:    cache.NewMemory(clk.now),
		Metrics:  rec,
		FreshTTL: 6 * time.Hour,
		StaleTTL: 365 * 24 * time.Hour,
		Now:      clk.now,
	})
}

func TestBuildingsCacheLifecycle(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	src := &fakeSource{bs: []building.Building{{ID: 1, HeightM: 10}, {ID: 2, HeightM: 20}}}
	rec := countingRecorder{}
	l := newTestLocal(src, clk, rec)

	steps := []struct {
		name    string
		advance time.Duration
		refresh bool
		fail    bool
		source  string
		calls   int
	}{
		{"first fetch is live", 0, false, false, SourceLive, 1},
		{"fresh hit", time.Hour, false, false, SourceCache, 1},
		{"refresh bypasses cache", 0, true, false, SourceLive, 2},
		{"expired entry refetches", 7 * time.Hour, false, false, SourceLive, 3},
		{"failure falls back to stale", 7 * time.Hour, false, true, SourceStaleCache, 4},
	}
	for _, st := range steps {
		clk.t = clk.t.Add(st.advance)
		src.err = nil
		if st.fail {
			src.err = errors.New("overpass down")
		}
		res, err := l.Buildings(ctx, testBBox, st.refresh)
		if err != nil {
			t.Fatalf("%s: Buildings: %v", st.name, err)
		}
		if res.Source != st.source || src.calls != st.calls {
			t.Fatalf("%s: source=%s calls=%d, want %s %d", st.name, res.Source, src.calls, st.source, st.calls)
		}
		if res.Count != 2 || len(res.Buildings) != 2 {
			t.Fatalf("%s: count = %d", st.name, res.Count)
		}
		if st.fail != (res.Warning != "") {
			t.Fatalf("%s: warning = %q", st.name, res.Warning)
		}
	}
	if want := (countingRecorder{SourceLive: 3, SourceCache: 1, SourceStaleCache: 1}); !reflect.DeepEqual(rec, want) {
		t.Fatalf("recorded = %v, want %v", rec, want)
	}
}

func TestBuildingsStaleWarning(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Unix(0, 0)}
	src := &fakeSource{bs: []building.Building{{ID: 1, HeightM: 10}}}
	l := newTestLocal(src, clk, nil)
	if _, err := l.Buildings(ctx, testBBox, false); err != nil {
		t.Fatal(err)
	}
	src.err = errors.New("HTTP 504")
	res, err := l.Buildings(ctx, testBBox, true)
	if err != nil {
		t.Fatalf("Buildings: %v", err)
	}
	if res.Warning != "live fetch failed: HTTP 504" {
		t.Fatalf("Warning = %q", res.Warning)
	}
	if res.BBox != (BBox{West: -114.0715, South: 51.0455, East: -114.0665, North: 51.0493}) || res.BBox.Geom() != testBBox {
		t.Fatalf("BBox = %v", res.BBox)
	}
}

func TestBuildingsNoData(t *testing.T) {
	clk := &clock{t: time.Unix(0, 0)}
	l := newTestLocal(&fakeSource{err: errors.New("boom")}, clk, nil)
	_, err := l.Buildings(context.Background(), testBBox, false)
	if !errors.Is(err, ErrNoData) || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v, want ErrNoData wrapping the fetch error", err)
	}
}

func TestBuildingsEmptyIsNotNil(t *testing.T) {
	clk := &clock{t: time.Unix(0, 0)}
	l := newTestLocal(&fakeSource{}, clk, nil)
	res, err := l.Buildings(context.Background(), testBBox, false)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := json.Marshal(res)
	if !strings.Contains(string(data), `"buildings":[]`) || strings.Contains(string(data), "warning") {
		t.Fatalf("json = %s", data)
	}
}

func TestFilter(t *testing.T) {
	l := NewLocal(Options{})
	bs := []building.Building{
		{ID: 1, Type: "office", HeightM: 45},
		{ID: 2, Type: "house", HeightM: 8},
		{ID: 3, Type: "commercial", HeightM: 25},
	}
	res, err := l.Filter(context.Background(), "height >= 20", bs)
	if err != nil {
		t.Fatal(err)
	}
	if res.Filter == nil || !reflect.DeepEqual(res.MatchingIDs, []int64{1, 3}) || res.Reason != "" {
		t.Fatalf("Filter = %+v", res)
	}

	res, _ = l.Filter(context.Background(), "hello there", bs)
	if res.Filter != nil || len(res.MatchingIDs) != 0 || res.MatchingIDs == nil || res.Reason != NoFilterReason {
		t.Fatalf("unparsed Filter = %+v", res)
	}
	data, _ := json.Marshal(res)
	if want := `{"filter":null,"matching_ids":[],"reason":"Could not parse a filter from the query."}`; string(data) != want {
		t.Fatalf("json = %s, want %s", data, want)
	}
}

func TestProjectsTrimmed(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(Options{})
	id, err := l.SaveProject(ctx, "  alice ", " towers ", json.RawMessage(`[{"query":"height 30"}]`))
	if err != nil {
		t.Fatal(err)
	}
	list, err := l.Projects(ctx, "alice")
	if err != nil || len(list) != 1 || list[0].Name != "towers" || list[0].ID != id {
		t.Fatalf("Projects = %+v, %v", list, err)
	}
	if list, _ := l.Projects(ctx, "   "); list == nil || len(list) != 0 {
		t.Fatalf("Projects(blank) = %#v", list)
	}
	if n, err := l.DeleteProject(ctx, " alice", id); err != nil || n != 1 {
		t.Fatalf("DeleteProject = %d, %v", n, err)
	}
}
