// Package building holds the building record shared by the data sources, the
// backend and the 3D viewer.
package building

import (
	"errors"
	"fmt"
	"math"
)

// Building is one extruded footprint. Coords are [lat, lon] pairs forming a
// ring; the closing vertex may or may not repeat the first one.
type Building struct {
	ID      int64        `json:"id"`
	Address string       `json:"address"`
	Type    string       `json:"type"`
	HeightM float64      `json:"height_m"`
	AreaM2  float64      `json:"area_m2"`
	Levels  string       `json:"levels"`
	Coords  [][2]float64 `json:"coords"`
}

var (
	ErrTooFewPoints      = errors.New("building: fewer than 3 distinct footprint points")
	ErrInvalidHeight     = errors.New("building: height must be a positive finite number")
	ErrInvalidCoordinate = errors.New("building: coordinate is not a finite lat/lon")
)

// Validate reports why b cannot be extruded, or nil.
func (b *Building) Validate() error {
	if math.IsNaN(b.HeightM) || math.IsInf(b.HeightM, 0) || b.HeightM <= 0 {
		return fmt.Errorf("%w: id=%d height=%v", ErrInvalidHeight, b.ID, b.HeightM)
	}
	for i, c := range b.Coords {
		lat, lon := c[0], c[1]
		if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) ||
			lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return fmt.Errorf("%w: id=%d vertex=%d", ErrInvalidCoordinate, b.ID, i)
		}
	}
	if len(b.Ring()) < 3 {
		return fmt.Errorf("%w: id=%d", ErrTooFewPoints, b.ID)
	}
	return nil
}

// Ring returns the footprint as an open ring: consecutive duplicates and the
// closing vertex are dropped.
func (b *Building) Ring() [][2]float64 {
	out := make([][2]float64, 0, len(b.Coords))
	for _, c := range b.Coords {
		if n := len(out); n > 0 && out[n-1] == c {
			continue
		}
		out = append(out, c)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// Closed returns the ring with the first vertex repeated at the end.
func (b *Building) Closed() [][2]float64 {
	r := b.Ring()
	if len(r) == 0 {
		return r
	}
	return append(r, r[0])
}
