package geom

import (
	"errors"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// ParseFootprintWKT parses a POLYGON or MULTIPOLYGON footprint and returns its
// outer ring as [lat, lon] pairs. A closed LINESTRING is accepted as well.
func ParseFootprintWKT(s string) ([][2]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty wkt")
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, err
	}
	var ring orb.Ring
	switch g := g.(type) {
	case orb.LineString:
		ring = orb.Ring(g)
	default:
		r, ok := outerRing(g)
		if !ok {
			return nil, errors.New("wkt: footprint must be a polygon")
		}
		ring = r
	}
	if len(ring) == 0 {
		return nil, errors.New("wkt: no coordinates parsed")
	}
	out := make([][2]float64, 0, len(ring))
	for _, p := range ring {
		out = append(out, [2]float64{p[1], p[0]})
	}
	return out, nil
}
