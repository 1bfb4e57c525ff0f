// Package scene turns building footprints into extruded meshes and owns the
// camera, orbit controls, picking and highlight state of the 3D view.
package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"urban3d/internal/building"
	"urban3d/internal/geom"
	"urban3d/internal/raster"
)

var (
	ErrSelfIntersecting = errors.New("scene: footprint ring intersects itself")
	ErrZeroArea         = errors.New("scene: footprint has zero area")
	ErrTriangulation    = errors.New("scene: footprint could not be triangulated")
	ErrDuplicateID      = errors.New("scene: duplicate building id")
)

// minAreaM2 is the smallest footprint treated as non-degenerate.
const minAreaM2 = 1e-6

// AABB is an axis-aligned box in world meters.
type AABB struct {
	Min, Max mgl64.Vec3
}

func emptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{Min: mgl64.Vec3{inf, inf, inf}, Max: mgl64.Vec3{-inf, -inf, -inf}}
}

// Empty reports whether the box contains no point.
func (b AABB) Empty() bool { return b.Min.X() > b.Max.X() }

func (b *AABB) extend(p mgl64.Vec3) {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
}

// Union returns the smallest box containing b and o.
func (b AABB) Union(o AABB) AABB {
	if o.Empty() {
		return b
	}
	b.extend(o.Min)
	b.extend(o.Max)
	return b
}

func (b AABB) Size() mgl64.Vec3   { return b.Max.Sub(b.Min) }
func (b AABB) Center() mgl64.Vec3 { return b.Min.Add(b.Max).Mul(0.5) }

// Translate shifts the box by d.
func (b AABB) Translate(d mgl64.Vec3) AABB {
	return AABB{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

// Face is one triangle of a mesh in local coordinates.
type Face struct {
	V      [3]mgl64.Vec3
	Normal mgl64.Vec3
}

// Mesh is the extruded solid of one building. Faces and Bounds are local;
// Position is the translation applied when the view is fitted.
type Mesh struct {
	Building    *building.Building
	Faces       []Face
	Bounds      AABB
	Position    mgl64.Vec3
	Color       raster.Color
	Highlighted bool
}

// ID is the id of the source building.
func (m *Mesh) ID() int64 { return m.Building.ID }

// Height is the extrusion height in meters.
func (m *Mesh) Height() float64 { return m.Bounds.Max.Y() - m.Bounds.Min.Y() }

// WorldBounds is Bounds shifted by Position.
func (m *Mesh) WorldBounds() AABB { return m.Bounds.Translate(m.Position) }

func (m *Mesh) dispose() {
	m.Faces = nil
	m.Bounds = emptyAABB()
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// BuildMesh extrudes b from y = 0 to y = HeightM. World axes are X east,
// Y up and Z south. Malformed footprints are rejected with a wrapped
// building or scene error.
func BuildMesh(b *building.Building, p geom.Projector) (*Mesh, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	ring := b.Ring()
	pts := make([]mgl64.Vec2, 0, len(ring))
	for _, c := range ring {
		q := p.Project(c[0], c[1])
		if !finite(q[0]) || !finite(q[1]) {
			return nil, fmt.Errorf("%w: id=%d projected=%v", building.ErrInvalidCoordinate, b.ID, q)
		}
		v := mgl64.Vec2{q[0], q[1]}
		if n := len(pts); n > 0 && pts[n-1] == v {
			continue
		}
		pts = append(pts, v)
	}
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 3 {
		return nil, fmt.Errorf("%w: id=%d", building.ErrTooFewPoints, b.ID)
	}
	if selfIntersects(pts) {
		return nil, fmt.Errorf("%w: id=%d", ErrSelfIntersecting, b.ID)
	}
	area := signedArea(pts)
	if math.Abs(area) < minAreaM2 {
		return nil, fmt.Errorf("%w: id=%d", ErrZeroArea, b.ID)
	}
	if area < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	tris, err := earClip(pts)
	if err != nil {
		return nil, fmt.Errorf("%w: id=%d", err, b.ID)
	}

	h := b.HeightM
	world := func(v mgl64.Vec2, y float64) mgl64.Vec3 { return mgl64.Vec3{v.X(), y, -v.Y()} }
	m := &Mesh{Building: b, Bounds: emptyAABB()}
	m.Faces = make([]Face, 0, 2*len(tris)+2*len(pts))
	up, down := mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, -1, 0}
	for _, t := range tris {
		a, bb, c := pts[t[0]], pts[t[1]], pts[t[2]]
		m.Faces = append(m.Faces,
			Face{V: [3]mgl64.Vec3{world(a, h), world(bb, h), world(c, h)}, Normal: up},
			Face{V: [3]mgl64.Vec3{world(a, 0), world(c, 0), world(bb, 0)}, Normal: down},
		)
	}
	for i := range pts {
		a, c := pts[i], pts[(i+1)%len(pts)]
		d := c.Sub(a)
		// outward normal of a counter-clockwise ring, with north flipped onto -Z
		n := mgl64.Vec3{d.Y(), 0, d.X()}
		if n.Len() > 0 {
			n = n.Normalize()
		}
		a0, a1, c0, c1 := world(a, 0), world(a, h), world(c, 0), world(c, h)
		m.Faces = append(m.Faces,
			Face{V: [3]mgl64.Vec3{a0, c0, c1}, Normal: n},
			Face{V: [3]mgl64.Vec3{a0, c1, a1}, Normal: n},
		)
	}
	for _, f := range m.Faces {
		for _, v := range f.V {
			m.Bounds.extend(v)
		}
	}
	return m, nil
}
