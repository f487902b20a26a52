package brep

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/openfroyo/brepcore/pkg/geom"
)

// Face3d is a planar polygonal face of a shell.
type Face3d struct {
	Tag    string
	Normal mgl64.Vec3

	outer []*CoEdge3d
}

// CoEdges returns the face boundary in order.
func (f *Face3d) CoEdges() []*CoEdge3d {
	return append([]*CoEdge3d(nil), f.outer...)
}

// Points returns the start vertex of every boundary co-edge.
func (f *Face3d) Points() []geom.Point3D {
	pts := make([]geom.Point3D, len(f.outer))
	for i, c := range f.outer {
		pts[i] = c.StartVertex().Point
	}
	return pts
}

// Polygon2D projects the boundary onto the floor plane.
func (f *Face3d) Polygon2D() []geom.Point2D {
	pts := make([]geom.Point2D, len(f.outer))
	for i, c := range f.outer {
		pts[i] = c.StartVertex().Point.XY()
	}
	return pts
}

// Bounding returns the face's axis-aligned box.
func (f *Face3d) Bounding() geom.Box3 {
	b := geom.NewBox3()
	for _, p := range f.Points() {
		b = b.ExpandByPoint(p)
	}
	return b
}

// IsHorizontalAt reports whether every point lies at height z.
func (f *Face3d) IsHorizontalAt(z float64) bool {
	if len(f.outer) == 0 {
		return false
	}
	for _, p := range f.Points() {
		if math.Abs(p.Z-z) > geom.Tolerance {
			return false
		}
	}
	return true
}

// IsHorizontal reports whether the face lies in a plane of constant z.
func (f *Face3d) IsHorizontal() bool {
	if len(f.outer) == 0 {
		return false
	}
	return f.IsHorizontalAt(f.outer[0].StartVertex().Point.Z)
}

// IsVertical reports whether the face normal has no z component.
func (f *Face3d) IsVertical() bool {
	return math.Abs(f.Normal.Z()) <= geom.Tolerance
}

// Elevation returns the lowest z of the face.
func (f *Face3d) Elevation() float64 {
	b := f.Bounding()
	return b.Min.Z()
}

// Area returns the true 3D area of the face.
func (f *Face3d) Area() float64 {
	return newell(f.Points()).Len() / 2
}

// newell returns the unnormalized polygon normal; its length is twice the
// polygon area.
func newell(pts []geom.Point3D) mgl64.Vec3 {
	var n mgl64.Vec3
	for i := range pts {
		a := pts[i].Vec()
		b := pts[(i+1)%len(pts)].Vec()
		n = n.Add(a.Cross(b))
	}
	return n
}
