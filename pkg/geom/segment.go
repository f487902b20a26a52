package geom

import "math"

// Segment2D is a straight piece between two plan points.
type Segment2D struct {
	A Point2D `json:"a" yaml:"a"`
	B Point2D `json:"b" yaml:"b"`
}

// Seg is a convenience constructor for Segment2D.
func Seg(a, b Point2D) Segment2D {
	return Segment2D{A: a, B: b}
}

// Length returns the segment length.
func (s Segment2D) Length() float64 {
	return s.A.Distance(s.B)
}

// Direction returns the unnormalized vector from A to B.
func (s Segment2D) Direction() Point2D {
	return s.B.Sub(s.A)
}

// Side returns the signed area of (A, B, p): positive when p is left of the
// directed line A->B, negative when right, zero when collinear.
func (s Segment2D) Side(p Point2D) float64 {
	return s.Direction().Cross(p.Sub(s.A))
}

// DistanceToLine returns the distance from p to the infinite line through s.
func (s Segment2D) DistanceToLine(p Point2D) float64 {
	l := s.Length()
	if l <= Tolerance {
		return p.Distance(s.A)
	}
	return math.Abs(s.Side(p)) / l
}

// Project returns the parameter of p's projection onto the line through s,
// where 0 is A and 1 is B.
func (s Segment2D) Project(p Point2D) float64 {
	d := s.Direction()
	l2 := d.Dot(d)
	if l2 == 0 {
		return 0
	}
	return p.Sub(s.A).Dot(d) / l2
}

// LineIntersection intersects s with the infinite line through l. It returns
// the parameter along s and false when the two are parallel.
func (s Segment2D) LineIntersection(l Segment2D) (float64, bool) {
	d := s.Direction()
	e := l.Direction()
	den := d.Cross(e)
	if math.Abs(den) <= 1e-12 {
		return 0, false
	}
	return l.A.Sub(s.A).Cross(e) / den, true
}

// CollinearOverlap returns the length s and o share when they lie on the
// same line; zero otherwise.
func (s Segment2D) CollinearOverlap(o Segment2D) float64 {
	if s.Length() <= Tolerance || o.Length() <= Tolerance {
		return 0
	}
	if s.DistanceToLine(o.A) > Tolerance || s.DistanceToLine(o.B) > Tolerance {
		return 0
	}
	t0, t1 := s.Project(o.A), s.Project(o.B)
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	lo, hi := math.Max(0, t0), math.Min(1, t1)
	if hi <= lo {
		return 0
	}
	return (hi - lo) * s.Length()
}
