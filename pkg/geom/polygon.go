package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Ring converts an open point list into a closed orb.Ring.
func Ring(pts []Point2D) orb.Ring {
	ring := make(orb.Ring, 0, len(pts)+1)
	for _, p := range pts {
		ring = append(ring, p.Orb())
	}
	if len(pts) > 0 && !IsSamePoint(pts[0], pts[len(pts)-1]) {
		ring = append(ring, pts[0].Orb())
	}
	return ring
}

// PolygonArea returns the unsigned area enclosed by pts.
func PolygonArea(pts []Point2D) float64 {
	if len(pts) < 3 {
		return 0
	}
	return math.Abs(planar.Area(Ring(pts)))
}

// IsCounterClockwise reports whether pts wind counter-clockwise.
func IsCounterClockwise(pts []Point2D) bool {
	if len(pts) < 3 {
		return false
	}
	return Ring(pts).Orientation() == orb.CCW
}

// PolygonContains reports whether p lies inside the polygon pts.
func PolygonContains(pts []Point2D, p Point2D) bool {
	if len(pts) < 3 {
		return false
	}
	return planar.RingContains(Ring(pts), p.Orb())
}

// Reversed returns a copy of pts in reverse order.
func Reversed(pts []Point2D) []Point2D {
	out := make([]Point2D, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// Dedupe drops consecutive duplicate points, including a closing point equal
// to the first.
func Dedupe(pts []Point2D) []Point2D {
	out := make([]Point2D, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && IsSamePoint(out[len(out)-1], p) {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 1 && IsSamePoint(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}
