package geom

import (
	"github.com/paulmach/orb"
)

// BoundsOf returns the axis-aligned bounds of pts. The boolean is false when
// pts is empty, in which case the returned bound must not be used.
func BoundsOf(pts []Point2D) (orb.Bound, bool) {
	if len(pts) == 0 {
		return orb.Bound{}, false
	}
	b := orb.Bound{Min: pts[0].Orb(), Max: pts[0].Orb()}
	for _, p := range pts[1:] {
		b = b.Extend(p.Orb())
	}
	return b, true
}

// BoundContainsPoint reports whether p lies inside b, widened by Tolerance.
func BoundContainsPoint(b orb.Bound, p Point2D) bool {
	return b.Pad(Tolerance).Contains(p.Orb())
}

// BoundContainsAll reports whether every point of pts lies inside b.
// An empty point list is never contained.
func BoundContainsAll(b orb.Bound, pts []Point2D) bool {
	if len(pts) == 0 {
		return false
	}
	padded := b.Pad(Tolerance)
	for _, p := range pts {
		if !padded.Contains(p.Orb()) {
			return false
		}
	}
	return true
}

// BoundContainsBound reports whether inner lies within outer (tolerance-padded).
func BoundContainsBound(outer, inner orb.Bound) bool {
	padded := outer.Pad(Tolerance)
	return padded.Contains(inner.Min) && padded.Contains(inner.Max)
}
