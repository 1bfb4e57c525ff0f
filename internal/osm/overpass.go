// Package osm fetches building footprints from an Overpass API endpoint.
package osm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"urban3d/internal/building"
	"urban3d/internal/geom"
	"urban3d/internal/logging"
)

const (
	DefaultUserAgent = "urban-3d/1.0 (contact: none)"
	DefaultMaxTries  = 3
	defaultTimeout   = 90 * time.Second
)

var (
	ErrStatus   = errors.New("osm: unexpected overpass status")
	ErrBadBBox  = errors.New("osm: invalid bbox")
	ErrResponse = errors.New("osm: malformed overpass response")
)

// Client talks to one Overpass interpreter URL.
type Client struct {
	URL       string
	UserAgent string
	MaxTries  uint
	HTTP      *http.Client
	Log       logging.Logger

	// NewBackOff returns the delay policy for one Fetch. Tests swap in a
	// zero backoff.
	NewBackOff func() backoff.BackOff
}

func NewClient(endpoint string, log logging.Logger) *Client {
	if log == nil {
		log = logging.Noop()
	}
	return &Client{
		URL:       endpoint,
		UserAgent: DefaultUserAgent,
		MaxTries:  DefaultMaxTries,
		HTTP:      &http.Client{Timeout: defaultTimeout},
		Log:       log,
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			return b
		},
	}
}

// BuildQuery returns the Overpass QL for every building way inside bb, with
// the referenced nodes recursed in.
func BuildQuery(bb geom.BBox) string {
	return fmt.Sprintf(`[out:json][timeout:60];
(
  way["building"](%f,%f,%f,%f);
);
(._;>;);
out body;`, bb.MinY, bb.MinX, bb.MaxY, bb.MaxX)
}

// Element is one Overpass JSON element; nodes carry Lat/Lon, ways carry
// Nodes and Tags.
type Element struct {
	Type  string            `json:"type"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat"`
	Lon   float64           `json:"lon"`
	Nodes []int64           `json:"nodes"`
	Tags  map[string]string `json:"tags"`
}

type Response struct {
	Elements []Element `json:"elements"`
}

func retryable(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Fetch runs the building query for bb, retrying on 429/5xx and transport
// errors, and converts the result.
func (c *Client) Fetch(ctx context.Context, bb geom.BBox) ([]building.Building, error) {
	if !bb.Valid() {
		return nil, fmt.Errorf("%w: %+v", ErrBadBBox, bb)
	}
	q := BuildQuery(bb)
	attempt := 0

	op := func() (*Response, error) {
		attempt++
		resp, err := c.post(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			c.Log.Warn(ctx, "overpass request failed", logging.Int("attempt", attempt), logging.Err(err))
			return nil, err
		}
		return resp, nil
	}

	tries := c.MaxTries
	if tries == 0 {
		tries = DefaultMaxTries
	}
	opts := []backoff.RetryOption{backoff.WithMaxTries(tries)}
	if c.NewBackOff != nil {
		opts = append(opts, backoff.WithBackOff(c.NewBackOff()))
	}
	resp, err := backoff.Retry(ctx, op, opts...)
	if err != nil {
		return nil, err
	}
	bs := Convert(resp, bb)
	c.Log.Info(ctx, "overpass fetch ok",
		logging.Int("elements", len(resp.Elements)),
		logging.Int("buildings", len(bs)),
		logging.Int("attempts", attempt))
	return bs, nil
}

func (c *Client) post(ctx context.Context, q string) (*Response, error) {
	form := url.Values{"data": {q}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.UserAgent)

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	res, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		err := fmt.Errorf("%w: %d %s", ErrStatus, res.StatusCode, strings.TrimSpace(string(body)))
		if retryable(res.StatusCode) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	var out Response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: %v", ErrResponse, err))
	}
	return &out, nil
}

// Convert turns ways into buildings. Ways with fewer than four nodes or a
// node missing from the response are skipped. Areas are computed about the
// center of bb.
func Convert(resp *Response, bb geom.BBox) []building.Building {
	if resp == nil {
		return []building.Building{}
	}
	nodes := make(map[int64][2]float64)
	for _, e := range resp.Elements {
		if e.Type == "node" {
			nodes[e.ID] = [2]float64{e.Lat, e.Lon}
		}
	}

	p := geom.NewProjector(bb.Center())
	out := make([]building.Building, 0)
ways:
	for _, e := range resp.Elements {
		if e.Type != "way" || len(e.Nodes) < building.MinWayNodes {
			continue
		}
		coords := make([][2]float64, 0, len(e.Nodes)+1)
		for _, id := range e.Nodes {
			c, ok := nodes[id]
			if !ok {
				continue ways
			}
			coords = append(coords, c)
		}
		b, ok := building.FromWay(e.ID, e.Tags, coords)
		if !ok {
			continue
		}
		b.AreaM2 = building.Round2(p.Area(&b))
		out = append(out, b)
	}
	return out
}
