package brep

import (
	"github.com/openfroyo/brepcore/pkg/geom"
)

// Vertex3d is a tagged model-space point.
type Vertex3d struct {
	Tag   string
	Point geom.Point3D
}

// Edge is an undirected connection between two vertices.
type Edge struct {
	Tag string
	V0  *Vertex3d
	V1  *Vertex3d
}

// Length returns the distance between the edge endpoints.
func (e *Edge) Length() float64 {
	return e.V0.Point.Distance(e.V1.Point)
}

// CoEdge3d is an oriented use of an Edge by one face.
type CoEdge3d struct {
	Edge    *Edge
	SameDir bool
}

// NewCoEdge creates a co-edge running along e (sameDir) or against it.
func NewCoEdge(e *Edge, sameDir bool) *CoEdge3d {
	return &CoEdge3d{Edge: e, SameDir: sameDir}
}

// StartVertex returns the vertex the co-edge leaves.
func (c *CoEdge3d) StartVertex() *Vertex3d {
	if c.SameDir {
		return c.Edge.V0
	}
	return c.Edge.V1
}

// EndVertex returns the vertex the co-edge arrives at.
func (c *CoEdge3d) EndVertex() *Vertex3d {
	if c.SameDir {
		return c.Edge.V1
	}
	return c.Edge.V0
}

// EdgeTag returns the tag of the underlying edge.
func (c *CoEdge3d) EdgeTag() string {
	return c.Edge.Tag
}

// SameDirWithEdge reports whether the co-edge follows the edge direction.
func (c *CoEdge3d) SameDirWithEdge() bool {
	return c.SameDir
}

// Wire is an ordered chain of co-edges where each co-edge starts at the
// vertex the previous one ends at. Wires are immutable.
type Wire struct {
	coedges []*CoEdge3d
}

// NewWire creates a wire over a copy of coedges.
func NewWire(coedges []*CoEdge3d) *Wire {
	return &Wire{coedges: append([]*CoEdge3d(nil), coedges...)}
}

// CoEdges returns a copy of the wire's co-edges.
func (w *Wire) CoEdges() []*CoEdge3d {
	return append([]*CoEdge3d(nil), w.coedges...)
}

// Len returns the number of co-edges.
func (w *Wire) Len() int {
	return len(w.coedges)
}

// StartTag returns the tag of the first start vertex.
func (w *Wire) StartTag() string {
	if len(w.coedges) == 0 {
		return ""
	}
	return w.coedges[0].StartVertex().Tag
}

// EndTag returns the tag of the last end vertex.
func (w *Wire) EndTag() string {
	if len(w.coedges) == 0 {
		return ""
	}
	return w.coedges[len(w.coedges)-1].EndVertex().Tag
}

// IsClosed reports whether the wire ends where it starts.
func (w *Wire) IsClosed() bool {
	return len(w.coedges) >= 2 && w.StartTag() == w.EndTag()
}

// Points returns the start point of every co-edge followed by the last end
// point.
func (w *Wire) Points() []geom.Point3D {
	if len(w.coedges) == 0 {
		return nil
	}
	pts := make([]geom.Point3D, 0, len(w.coedges)+1)
	for _, c := range w.coedges {
		pts = append(pts, c.StartVertex().Point)
	}
	return append(pts, w.coedges[len(w.coedges)-1].EndVertex().Point)
}

// Length returns the summed edge length.
func (w *Wire) Length() float64 {
	var total float64
	for _, c := range w.coedges {
		total += c.Edge.Length()
	}
	return total
}
