package brep

import (
	"iter"
	"slices"

	"github.com/paulmach/orb"

	"github.com/openfroyo/brepcore/pkg/geom"
)

// Loop is an ordered sequence of curves. Consecutive curves of a closed loop
// share an endpoint; a curve may be stored in either direction.
type Loop struct {
	Curves []*Curve
}

// NewLoop creates a loop over curves.
func NewLoop(curves ...*Curve) *Loop {
	return &Loop{Curves: curves}
}

// DiscretePoints lazily yields the loop polyline. Each call starts a new
// traversal.
func (l *Loop) DiscretePoints() iter.Seq[geom.Point2D] {
	return func(yield func(geom.Point2D) bool) {
		var prev geom.Point2D
		for i, c := range l.Curves {
			pts := c.Points()
			if i > 0 && !geom.IsSamePoint(pts[0], prev) && geom.IsSamePoint(pts[len(pts)-1], prev) {
				pts = geom.Reversed(pts)
			} else if i == 0 && len(l.Curves) > 1 {
				next := l.Curves[1]
				if geom.IsSamePoint(pts[0], next.Start) || geom.IsSamePoint(pts[0], next.End) {
					pts = geom.Reversed(pts)
				}
			}
			start := 1
			if i == 0 {
				start = 0
			}
			for _, p := range pts[start:] {
				if !yield(p) {
					return
				}
			}
			prev = pts[len(pts)-1]
		}
	}
}

// Points materializes DiscretePoints, dropping the closing duplicate.
func (l *Loop) Points() []geom.Point2D {
	return geom.Dedupe(slices.Collect(l.DiscretePoints()))
}

// Face2d is a planar face bounded by one outer loop.
type Face2d struct {
	ID    string
	Outer *Loop
}

// NewFace2d creates a face over curves and registers it as a parent of each.
func NewFace2d(id string, curves ...*Curve) *Face2d {
	f := &Face2d{ID: id, Outer: NewLoop(curves...)}
	for _, c := range curves {
		c.AddParent(Parent{ID: id, Kind: ParentKindFace, face: f})
	}
	return f
}

// Detach unregisters the face from its curves.
func (f *Face2d) Detach() {
	for _, c := range f.Outer.Curves {
		c.RemoveParent(f.ID)
	}
}

// Curves returns the outer-loop curves.
func (f *Face2d) Curves() []*Curve {
	return f.Outer.Curves
}

// HasIdenticalCurve reports whether f and other share at least one outer
// curve ID.
func (f *Face2d) HasIdenticalCurve(other *Face2d) bool {
	if other == nil {
		return false
	}
	ids := make(map[string]struct{}, len(f.Outer.Curves))
	for _, c := range f.Outer.Curves {
		ids[c.ID] = struct{}{}
	}
	for _, c := range other.Outer.Curves {
		if _, ok := ids[c.ID]; ok {
			return true
		}
	}
	return false
}

// Bounds returns the plan bounds of the outer loop; false when the loop has
// no points.
func (f *Face2d) Bounds() (orb.Bound, bool) {
	return geom.BoundsOf(f.Outer.Points())
}

// Area returns the enclosed plan area.
func (f *Face2d) Area() float64 {
	return geom.PolygonArea(f.Outer.Points())
}
