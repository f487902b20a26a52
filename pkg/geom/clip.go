package geom

// SplitPolygonByLine clips the polygon pts against both half-planes of the
// infinite line through cut. left holds the part on the left of cut.A->cut.B
// and right the rest. Either side is nil when the line does not cross the
// polygon's interior.
func SplitPolygonByLine(pts []Point2D, cut Segment2D) (left, right []Point2D) {
	if len(pts) < 3 || cut.Length() <= Tolerance {
		return nil, nil
	}
	left = Dedupe(clipHalfPlane(pts, cut, 1))
	right = Dedupe(clipHalfPlane(pts, cut, -1))
	minArea := Tolerance * Tolerance
	if len(left) < 3 || PolygonArea(left) <= minArea {
		left = nil
	}
	if len(right) < 3 || PolygonArea(right) <= minArea {
		right = nil
	}
	if left == nil || right == nil {
		return nil, nil
	}
	return left, right
}

// clipHalfPlane keeps the part of the polygon where sign*Side(p) >= 0
// (Sutherland-Hodgman against a single edge).
func clipHalfPlane(pts []Point2D, cut Segment2D, sign float64) []Point2D {
	inside := func(p Point2D) bool {
		return sign*cut.Side(p)/cut.Length() >= -Tolerance
	}
	out := make([]Point2D, 0, len(pts)+2)
	for i := range pts {
		cur := pts[i]
		prev := pts[(i+len(pts)-1)%len(pts)]
		curIn, prevIn := inside(cur), inside(prev)
		switch {
		case curIn && prevIn:
			out = append(out, cur)
		case curIn && !prevIn:
			if p, ok := crossing(prev, cur, cut); ok {
				out = append(out, p)
			}
			out = append(out, cur)
		case !curIn && prevIn:
			if p, ok := crossing(prev, cur, cut); ok {
				out = append(out, p)
			}
		}
	}
	return out
}

func crossing(a, b Point2D, cut Segment2D) (Point2D, bool) {
	s := Seg(a, b)
	t, ok := s.LineIntersection(cut)
	if !ok {
		return Point2D{}, false
	}
	return a.Lerp(b, t), true
}
