package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"urban3d/internal/building"
)

// EarthRadiusM is the WGS84 equatorial radius.
const EarthRadiusM = 6378137.0

// Projector maps lat/lon onto a local east/north plane in meters using an
// equirectangular approximation around a fixed reference point. It is only
// accurate for extents of a few kilometers.
type Projector struct {
	Lat0 float64
	Lon0 float64
}

func NewProjector(lat0, lon0 float64) Projector {
	return Projector{Lat0: lat0, Lon0: lon0}
}

// ProjectorFor anchors a projector at the first vertex of the first building
// that passes Validate. It reports false when no building does.
func ProjectorFor(bs []building.Building) (Projector, bool) {
	for i := range bs {
		if bs[i].Validate() != nil {
			continue
		}
		c := bs[i].Coords[0]
		return NewProjector(c[0], c[1]), true
	}
	return Projector{}, false
}

// Project returns x (east) and y (north) in meters.
func (p Projector) Project(lat, lon float64) orb.Point {
	x := degToRad(lon-p.Lon0) * EarthRadiusM * math.Cos(degToRad((lat+p.Lat0)/2))
	z := degToRad(lat-p.Lat0) * EarthRadiusM
	return orb.Point{x, z}
}

// ProjectRing projects a [lat, lon] ring.
func (p Projector) ProjectRing(coords [][2]float64) orb.Ring {
	r := make(orb.Ring, 0, len(coords))
	for _, c := range coords {
		r = append(r, p.Project(c[0], c[1]))
	}
	return r
}

// Area returns the footprint area of b in square meters.
func (p Projector) Area(b *building.Building) float64 {
	r := p.ProjectRing(b.Closed())
	if len(r) < 4 {
		return 0
	}
	return math.Abs(planar.Area(r))
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
