package geom

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"urban3d/internal/building"
)

// LoadGeoJSON reads a Feature or FeatureCollection of building footprints.
// Polygon and MultiPolygon features are kept (the largest outer ring of a
// MultiPolygon); other geometries are ignored.
func LoadGeoJSON(path string) ([]building.Building, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeGeoJSON(data)
}

// DecodeGeoJSON is LoadGeoJSON for an in-memory document.
func DecodeGeoJSON(data []byte) ([]building.Building, error) {
	var features []*geojson.Feature
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err == nil && len(fc.Features) > 0 {
		features = fc.Features
	} else {
		f, ferr := geojson.UnmarshalFeature(data)
		if ferr != nil {
			if err != nil {
				return nil, fmt.Errorf("geojson: %w", err)
			}
			return nil, fmt.Errorf("geojson: %w", ferr)
		}
		features = []*geojson.Feature{f}
	}
	var out []building.Building
	for i, f := range features {
		ring, ok := outerRing(f.Geometry)
		if !ok {
			continue
		}
		b := building.Building{ID: featureID(f, int64(i+1))}
		for _, p := range ring {
			b.Coords = append(b.Coords, [2]float64{p[1], p[0]})
		}
		applyProperties(&b, f.Properties)
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil, errors.New("geojson: no building polygons found")
	}
	return out, nil
}

// MarshalGeoJSON encodes buildings as a FeatureCollection of polygons.
func MarshalGeoJSON(bs []building.Building) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for i := range bs {
		b := &bs[i]
		ring := make(orb.Ring, 0, len(b.Coords)+1)
		for _, c := range b.Closed() {
			ring = append(ring, orb.Point{c[1], c[0]})
		}
		f := geojson.NewFeature(orb.Polygon{ring})
		f.ID = b.ID
		f.Properties["id"] = b.ID
		f.Properties["address"] = b.Address
		f.Properties["type"] = b.Type
		f.Properties["height_m"] = b.HeightM
		f.Properties["area_m2"] = b.AreaM2
		f.Properties["levels"] = b.Levels
		fc.Append(f)
	}
	return fc.MarshalJSON()
}

func outerRing(g orb.Geometry) (orb.Ring, bool) {
	switch g := g.(type) {
	case orb.Polygon:
		if len(g) == 0 {
			return nil, false
		}
		return g[0], true
	case orb.MultiPolygon:
		var best orb.Ring
		bestArea := -1.0
		for _, poly := range g {
			if len(poly) == 0 {
				continue
			}
			if a := math.Abs(planar.Area(poly[0])); a > bestArea {
				best, bestArea = poly[0], a
			}
		}
		return best, best != nil
	}
	return nil, false
}

func featureID(f *geojson.Feature, fallback int64) int64 {
	candidates := []interface{}{f.ID, f.Properties["id"], f.Properties["@id"]}
	for _, c := range candidates {
		switch v := c.(type) {
		case float64:
			return int64(v)
		case int64:
			return v
		case int:
			return int64(v)
		case string:
			// accept "way/123" style ids
			if i := strings.LastIndex(v, "/"); i >= 0 {
				v = v[i+1:]
			}
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n
			}
		}
	}
	return fallback
}

func applyProperties(b *building.Building, props geojson.Properties) {
	tags := make(map[string]string, len(props))
	for k, v := range props {
		switch t := v.(type) {
		case string:
			tags[k] = t
		case float64:
			tags[k] = strconv.FormatFloat(t, 'f', -1, 64)
		}
	}
	b.FromTags(tags)
	if a := props.MustString("address", ""); a != "" {
		b.Address = a
	}
	if t := props.MustString("type", ""); t != "" {
		b.Type = t
	}
	if h := props.MustFloat64("height_m", 0); h != 0 {
		b.HeightM = h
	}
	if l, ok := tags["levels"]; ok && l != "" {
		b.Levels = l
	}
	b.AreaM2 = props.MustFloat64("area_m2", 0)
}
