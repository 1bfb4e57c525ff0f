package osm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v5"

	"urban3d/internal/geom"
)

var testBBox = geom.BBox{MinX: -114.0715, MinY: 51.0455, MaxX: -114.0665, MaxY: 51.0493}

const sample = `{"elements":[
 {"type":"way","id":10,"nodes":[1,2,3,4,1],"tags":{"building":"office","addr:housenumber":"100","addr:street":"9 Ave SW","height":"42 m","building:levels":"10"}},
 {"type":"way","id":11,"nodes":[1,2,3],"tags":{"building":"yes"}},
 {"type":"way","id":12,"nodes":[1,2,3,99],"tags":{"building":"yes"}},
 {"type":"way","id":13,"nodes":[1,2,3,4],"tags":{"building":"house","building:levels":"2"}},
 {"type":"node","id":1,"lat":51.0460,"lon":-114.0700},
 {"type":"node","id":2,"lat":51.0460,"lon":-114.0690},
 {"type":"node","id":3,"lat":51.0470,"lon":-114.0690},
 {"type":"node","id":4,"lat":51.0470,"lon":-114.0700}
]}`

func testClient(url string) *Client {
	c := NewClient(url, nil)
	c.NewBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return c
}

func TestBuildQuery(t *testing.T) {
	q := BuildQuery(testBBox)
	for _, want := range []string{
		"[out:json][timeout:60];",
		`way["building"](51.045500,-114.071500,51.049300,-114.066500);`,
		"(._;>;);",
		"out body;",
	} {
		if !strings.Contains(q, want) {
			t.Fatalf("query %q missing %q", q, want)
		}
	}
}

func TestFetchConverts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ua := r.Header.Get("User-Agent"); ua != DefaultUserAgent {
			t.Errorf("User-Agent = %q", ua)
		}
		if err := r.ParseForm(); err != nil || !strings.Contains(r.PostForm.Get("data"), `way["building"]`) {
			t.Errorf("data = %q (%v)", r.PostForm.Get("data"), err)
		}
		fmt.Fprint(w, sample)
	}))
	defer srv.Close()

	bs, err := testClient(srv.URL).Fetch(context.Background(), testBBox)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(bs) != 2 {
		t.Fatalf("len = %d, want 2 (short and dangling ways skipped)", len(bs))
	}
	b := bs[0]
	if b.ID != 10 || b.Address != "100 9 Ave SW" || b.Type != "office" || b.HeightM != 42 || b.Levels != "10" {
		t.Fatalf("building = %+v", b)
	}
	if b.Coords[0] != b.Coords[len(b.Coords)-1] {
		t.Fatal("ring not closed")
	}
	// roughly 70 m x 111 m
	if b.AreaM2 < 7000 || b.AreaM2 > 8500 {
		t.Fatalf("AreaM2 = %v", b.AreaM2)
	}
	open := bs[1]
	if open.ID != 13 || len(open.Coords) != 5 || open.HeightM != 6 {
		t.Fatalf("open way = %+v", open)
	}
}

func TestFetchRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, sample)
	}))
	defer srv.Close()

	bs, err := testClient(srv.URL).Fetch(context.Background(), testBBox)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
	if len(bs) != 2 {
		t.Fatalf("len = %d, want 2", len(bs))
	}
}

func TestFetchGivesUp(t *testing.T) {
	tests := []struct {
		name  string
		code  int
		calls int32
	}{
		{"gateway timeout exhausts tries", http.StatusGatewayTimeout, 3},
		{"bad request is permanent", http.StatusBadRequest, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.code)
			}))
			defer srv.Close()

			_, err := testClient(srv.URL).Fetch(context.Background(), testBBox)
			if !errors.Is(err, ErrStatus) {
				t.Fatalf("err = %v, want ErrStatus", err)
			}
			if got := calls.Load(); got != tt.calls {
				t.Fatalf("calls = %d, want %d", got, tt.calls)
			}
		})
	}
}

func TestFetchRejectsBadBBox(t *testing.T) {
	_, err := testClient("http://127.0.0.1:0").Fetch(context.Background(), geom.BBox{MinX: 1, MaxX: 0, MinY: 0, MaxY: 1})
	if !errors.Is(err, ErrBadBBox) {
		t.Fatalf("err = %v, want ErrBadBBox", err)
	}
}

func TestConvertEmpty(t *testing.T) {
	if got := Convert(nil, testBBox); got == nil || len(got) != 0 {
		t.Fatalf("Convert(nil) = %#v, want empty slice", got)
	}
}
