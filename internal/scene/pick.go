package scene

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/go-gl/mathgl/mgl64"

	"urban3d/internal/building"
)

// minRectSide pads zero-width rectangles, which rtreego rejects.
const minRectSide = 1e-6

type pickEntry struct {
	mesh *Mesh
	rect rtreego.Rect
}

func (e *pickEntry) Bounds() rtreego.Rect { return e.rect }

// pickIndex is the broad phase of picking: an R-tree over the XZ footprint
// bounds of every mesh.
type pickIndex struct {
	tree      *rtreego.Rtree
	entries   []*pickEntry
	maxHeight float64
}

func xzRect(minX, minZ, maxX, maxZ float64) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{minX, minZ},
		[]float64{math.Max(maxX-minX, minRectSide), math.Max(maxZ-minZ, minRectSide)},
	)
}

func newPickIndex(meshes []*Mesh) *pickIndex {
	ix := &pickIndex{tree: rtreego.NewTree(2, 25, 50)}
	for _, m := range meshes {
		wb := m.WorldBounds()
		if wb.Empty() {
			continue
		}
		r, err := xzRect(wb.Min.X(), wb.Min.Z(), wb.Max.X(), wb.Max.Z())
		if err != nil {
			continue
		}
		e := &pickEntry{mesh: m, rect: r}
		ix.tree.Insert(e)
		ix.entries = append(ix.entries, e)
		ix.maxHeight = math.Max(ix.maxHeight, wb.Max.Y())
	}
	return ix
}

func (ix *pickIndex) clear() {
	for _, e := range ix.entries {
		ix.tree.Delete(e)
	}
	ix.entries = nil
}

// candidates returns the meshes whose XZ bounds meet the ray segment inside
// the slab 0 <= y <= maxHeight, up to distance far.
func (ix *pickIndex) candidates(origin, dir mgl64.Vec3, far float64) []*Mesh {
	if ix == nil || len(ix.entries) == 0 {
		return nil
	}
	t0, t1 := 0.0, far
	if dir.Y() == 0 {
		if origin.Y() < 0 || origin.Y() > ix.maxHeight {
			return nil
		}
	} else {
		a := (0 - origin.Y()) / dir.Y()
		b := (ix.maxHeight - origin.Y()) / dir.Y()
		if a > b {
			a, b = b, a
		}
		t0, t1 = math.Max(t0, a), math.Min(t1, b)
	}
	if t1 < t0 {
		return nil
	}
	p, q := origin.Add(dir.Mul(t0)), origin.Add(dir.Mul(t1))
	r, err := xzRect(math.Min(p.X(), q.X()), math.Min(p.Z(), q.Z()), math.Max(p.X(), q.X()), math.Max(p.Z(), q.Z()))
	if err != nil {
		return nil
	}
	hits := ix.tree.SearchIntersect(r)
	out := make([]*Mesh, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(*pickEntry).mesh)
	}
	return out
}

// intersectTriangle is the Moller-Trumbore ray/triangle test. It returns the
// ray parameter of the hit.
func intersectTriangle(origin, dir, a, b, c mgl64.Vec3) (float64, bool) {
	const eps = 1e-9
	e1, e2 := b.Sub(a), c.Sub(a)
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < eps {
		return 0, false
	}
	inv := 1 / det
	s := origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	w := dir.Dot(q) * inv
	if w < 0 || u+w > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t <= eps {
		return 0, false
	}
	return t, true
}

// intersectMesh returns the nearest hit of the ray with m.
func intersectMesh(m *Mesh, origin, dir mgl64.Vec3) (float64, bool) {
	best, hit := math.Inf(1), false
	local := origin.Sub(m.Position)
	for _, f := range m.Faces {
		if t, ok := intersectTriangle(local, dir, f.V[0], f.V[1], f.V[2]); ok && t < best {
			best, hit = t, true
		}
	}
	return best, hit
}

// Pick returns the building under viewport pixel (px, py), nearest first.
// Only building meshes are tested; the ground never matches.
func (v *Viewer) Pick(px, py float64) (*building.Building, bool) {
	if !v.running {
		return nil, false
	}
	origin, dir, ok := v.cam.Ray(px, py, v.fb.W, v.fb.H)
	if !ok {
		v.opts.Metrics.Picked(false)
		return nil, false
	}
	var best *Mesh
	bestT := math.Inf(1)
	for _, m := range v.index.candidates(origin, dir, v.cam.Far) {
		if t, ok := intersectMesh(m, origin, dir); ok && t < bestT {
			best, bestT = m, t
		}
	}
	v.opts.Metrics.Picked(best != nil)
	if best == nil {
		return nil, false
	}
	return best.Building, true
}

// Click picks at (px, py) and notifies every OnPick listener with the
// result, nil on a miss.
func (v *Viewer) Click(px, py float64) *building.Building {
	b, _ := v.Pick(px, py)
	for _, l := range append([]pickListener(nil), v.listeners...) {
		l.fn(b)
	}
	return b
}

// OnPick registers fn for click results and returns a function removing it.
func (v *Viewer) OnPick(fn func(*building.Building)) (remove func()) {
	if v.disposed || fn == nil {
		return func() {}
	}
	v.nextListen++
	id := v.nextListen
	v.listeners = append(v.listeners, pickListener{id: id, fn: fn})
	return func() {
		for i, l := range v.listeners {
			if l.id == id {
				v.listeners = append(v.listeners[:i], v.listeners[i+1:]...)
				return
			}
		}
	}
}
