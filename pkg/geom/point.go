package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
)

// Tolerance is the length below which two coordinates are considered equal.
const Tolerance = 1e-3

// Point2D is a position in the floor plane.
type Point2D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Pt2 is a convenience constructor for Point2D.
func Pt2(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Add returns p+q.
func (p Point2D) Add(q Point2D) Point2D {
	return Point2D{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point2D) Sub(q Point2D) Point2D {
	return Point2D{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul scales p by s.
func (p Point2D) Mul(s float64) Point2D {
	return Point2D{X: p.X * s, Y: p.Y * s}
}

// Dot returns the dot product of p and q treated as vectors.
func (p Point2D) Dot(q Point2D) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Cross returns the z component of the 3D cross product of p and q.
func (p Point2D) Cross(q Point2D) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Length returns the vector length of p.
func (p Point2D) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Distance returns the distance between p and q.
func (p Point2D) Distance(q Point2D) float64 {
	return p.Sub(q).Length()
}

// Lerp interpolates between p (t=0) and q (t=1).
func (p Point2D) Lerp(q Point2D, t float64) Point2D {
	return Point2D{X: p.X + (q.X-p.X)*t, Y: p.Y + (q.Y-p.Y)*t}
}

// Orb converts p to an orb.Point.
func (p Point2D) Orb() orb.Point {
	return orb.Point{p.X, p.Y}
}

// At lifts p to a 3D point at height z.
func (p Point2D) At(z float64) Point3D {
	return Point3D{X: p.X, Y: p.Y, Z: z}
}

func (p Point2D) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// IsSamePoint reports whether a and b coincide within Tolerance.
func IsSamePoint(a, b Point2D) bool {
	return IsSamePointTol(a, b, Tolerance)
}

// IsSamePointTol reports whether a and b coincide within tol.
func IsSamePointTol(a, b Point2D, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

// Point3D is a position in model space.
type Point3D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Pt3 is a convenience constructor for Point3D.
func Pt3(x, y, z float64) Point3D {
	return Point3D{X: x, Y: y, Z: z}
}

// FromVec converts an mgl64 vector to a Point3D.
func FromVec(v mgl64.Vec3) Point3D {
	return Point3D{X: v[0], Y: v[1], Z: v[2]}
}

// Vec returns p as an mgl64 vector.
func (p Point3D) Vec() mgl64.Vec3 {
	return mgl64.Vec3{p.X, p.Y, p.Z}
}

// XY drops the Z coordinate.
func (p Point3D) XY() Point2D {
	return Point2D{X: p.X, Y: p.Y}
}

// Distance returns the distance between p and q.
func (p Point3D) Distance(q Point3D) float64 {
	return p.Vec().Sub(q.Vec()).Len()
}

func (p Point3D) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}

// IsSamePoint3D reports whether a and b coincide within Tolerance on every axis.
func IsSamePoint3D(a, b Point3D) bool {
	return math.Abs(a.X-b.X) <= Tolerance &&
		math.Abs(a.Y-b.Y) <= Tolerance &&
		math.Abs(a.Z-b.Z) <= Tolerance
}

// NearlyEqual compares two scalars within Tolerance.
func NearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= Tolerance
}
