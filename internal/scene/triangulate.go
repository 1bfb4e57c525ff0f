package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const collinearEps = 1e-9

func cross2(a, b mgl64.Vec2) float64 { return a.X()*b.Y() - a.Y()*b.X() }

func orient(a, b, c mgl64.Vec2) float64 { return cross2(b.Sub(a), c.Sub(a)) }

// signedArea is positive for counter-clockwise rings.
func signedArea(pts []mgl64.Vec2) float64 {
	s := 0.0
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		s += a.X()*b.Y() - b.X()*a.Y()
	}
	return s / 2
}

func onSegment(a, b, p mgl64.Vec2) bool {
	return math.Min(a.X(), b.X()) <= p.X() && p.X() <= math.Max(a.X(), b.X()) &&
		math.Min(a.Y(), b.Y()) <= p.Y() && p.Y() <= math.Max(a.Y(), b.Y())
}

func segmentsIntersect(p1, p2, q1, q2 mgl64.Vec2) bool {
	d1 := orient(q1, q2, p1)
	d2 := orient(q1, q2, p2)
	d3 := orient(p1, p2, q1)
	d4 := orient(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	switch {
	case d1 == 0 && onSegment(q1, q2, p1):
		return true
	case d2 == 0 && onSegment(q1, q2, p2):
		return true
	case d3 == 0 && onSegment(p1, p2, q1):
		return true
	case d4 == 0 && onSegment(p1, p2, q2):
		return true
	}
	return false
}

// selfIntersects tests every pair of non-adjacent edges of an open ring.
func selfIntersects(pts []mgl64.Vec2) bool {
	n := len(pts)
	for i := 0; i < n; i++ {
		a1, a2 := pts[i], pts[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if segmentsIntersect(a1, a2, pts[j], pts[(j+1)%n]) {
				return true
			}
		}
	}
	return false
}

func inTriangle(p, a, b, c mgl64.Vec2) bool {
	if p == a || p == b || p == c {
		return false
	}
	return orient(a, b, p) >= 0 && orient(b, c, p) >= 0 && orient(c, a, p) >= 0
}

// earClip triangulates a simple counter-clockwise ring and returns index
// triples into pts. Collinear vertices are dropped without emitting a
// triangle.
func earClip(pts []mgl64.Vec2) ([][3]int, error) {
	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}
	tris := make([][3]int, 0, len(pts)-2)
	for len(idx) > 3 {
		n := len(idx)
		clipped := false
		for i := 0; i < n; i++ {
			ia, ib, ic := idx[(i+n-1)%n], idx[i], idx[(i+1)%n]
			a, b, c := pts[ia], pts[ib], pts[ic]
			cr := orient(a, b, c)
			if math.Abs(cr) <= collinearEps {
				idx = append(idx[:i], idx[i+1:]...)
				clipped = true
				break
			}
			if cr < 0 {
				continue
			}
			ear := true
			for _, j := range idx {
				if j == ia || j == ib || j == ic {
					continue
				}
				if inTriangle(pts[j], a, b, c) {
					ear = false
					break
				}
			}
			if !ear {
				continue
			}
			tris = append(tris, [3]int{ia, ib, ic})
			idx = append(idx[:i], idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			return nil, ErrTriangulation
		}
	}
	if len(idx) == 3 && math.Abs(orient(pts[idx[0]], pts[idx[1]], pts[idx[2]])) > collinearEps {
		tris = append(tris, [3]int{idx[0], idx[1], idx[2]})
	}
	if len(tris) == 0 {
		return nil, ErrTriangulation
	}
	return tris, nil
}
