package region

import (
	"github.com/openfroyo/brepcore/pkg/brep"
	"github.com/openfroyo/brepcore/pkg/geom"
)

// PathCoEdge is one oriented piece of a region boundary.
type PathCoEdge struct {
	ID       string
	Curve    *brep.Curve
	Reversed bool
}

// NewPathCoEdge creates a path co-edge along curve.
func NewPathCoEdge(id string, curve *brep.Curve, reversed bool) *PathCoEdge {
	return &PathCoEdge{ID: id, Curve: curve, Reversed: reversed}
}

// Start returns the point the co-edge leaves.
func (c *PathCoEdge) Start() geom.Point2D {
	if c.Reversed {
		return c.Curve.End
	}
	return c.Curve.Start
}

// End returns the point the co-edge arrives at.
func (c *PathCoEdge) End() geom.Point2D {
	if c.Reversed {
		return c.Curve.Start
	}
	return c.Curve.End
}

// Points returns the co-edge polyline in traversal order.
func (c *PathCoEdge) Points() []geom.Point2D {
	pts := c.Curve.Points()
	if c.Reversed {
		return geom.Reversed(pts)
	}
	return pts
}

// Length returns the curve length.
func (c *PathCoEdge) Length() float64 {
	return c.Curve.Length()
}

// PathSegment is one straight piece of the discretized boundary.
type PathSegment struct {
	geom.Segment2D

	// Index is the position of the co-edge the segment comes from.
	Index int
}

// CoEdgePath is the ordered closed boundary of a region.
type CoEdgePath struct {
	CoEdges []*PathCoEdge
}

// NewCoEdgePath creates a path over coedges.
func NewCoEdgePath(coedges ...*PathCoEdge) *CoEdgePath {
	return &CoEdgePath{CoEdges: coedges}
}

// PathFromPoints builds a closed path of straight co-edges through pts,
// drawing curve IDs from tags.
func PathFromPoints(tags *brep.TagAllocator, pts ...geom.Point2D) *CoEdgePath {
	path := &CoEdgePath{}
	for i := range pts {
		c := brep.NewLine(tags.Next("c"), pts[i], pts[(i+1)%len(pts)])
		path.CoEdges = append(path.CoEdges, NewPathCoEdge(tags.Next("ce"), c, false))
	}
	return path
}

// Len returns the number of co-edges.
func (p *CoEdgePath) Len() int {
	if p == nil {
		return 0
	}
	return len(p.CoEdges)
}

// Segments discretizes every co-edge. Arcs yield several segments with the
// same Index.
func (p *CoEdgePath) Segments() []PathSegment {
	var segs []PathSegment
	for i, c := range p.CoEdges {
		pts := c.Points()
		for j := 0; j+1 < len(pts); j++ {
			segs = append(segs, PathSegment{Segment2D: geom.Seg(pts[j], pts[j+1]), Index: i})
		}
	}
	return segs
}

// Curves returns the underlying curves in path order.
func (p *CoEdgePath) Curves() []*brep.Curve {
	curves := make([]*brep.Curve, len(p.CoEdges))
	for i, c := range p.CoEdges {
		curves[i] = c.Curve
	}
	return curves
}

// Perimeter returns the summed co-edge length.
func (p *CoEdgePath) Perimeter() float64 {
	var total float64
	for _, c := range p.CoEdges {
		total += c.Length()
	}
	return total
}
