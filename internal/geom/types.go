package geom

import (
	"fmt"

	"urban3d/internal/building"
)

// BBox is a lon/lat bounding box (X = longitude, Y = latitude).
type BBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Valid reports whether the box spans a non-empty area.
func (b BBox) Valid() bool { return b.MaxX > b.MinX && b.MaxY > b.MinY }

// Contains reports whether lon/lat lies inside the box (edges included).
func (b BBox) Contains(lon, lat float64) bool {
	return lon >= b.MinX && lon <= b.MaxX && lat >= b.MinY && lat <= b.MaxY
}

// Center returns the box center as lat, lon.
func (b BBox) Center() (lat, lon float64) {
	return (b.MinY + b.MaxY) / 2, (b.MinX + b.MaxX) / 2
}

// Key formats the box as a stable cache key (west,south,east,north).
func (b BBox) Key() string {
	return fmt.Sprintf("b:%.5f,%.5f,%.5f,%.5f", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// BBoxOf returns the lon/lat bounds of every vertex in bs.
func BBoxOf(bs []building.Building) (BBox, bool) {
	var bb BBox
	seen := false
	for i := range bs {
		for _, c := range bs[i].Coords {
			lat, lon := c[0], c[1]
			if !seen {
				bb = BBox{MinX: lon, MinY: lat, MaxX: lon, MaxY: lat}
				seen = true
				continue
			}
			if lon < bb.MinX {
				bb.MinX = lon
			}
			if lat < bb.MinY {
				bb.MinY = lat
			}
			if lon > bb.MaxX {
				bb.MaxX = lon
			}
			if lat > bb.MaxY {
				bb.MaxY = lat
			}
		}
	}
	return bb, seen
}
