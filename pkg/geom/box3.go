package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Box3 is an axis-aligned 3D bounding box. The zero value is empty.
type Box3 struct {
	Min mgl64.Vec3 `json:"min"`
	Max mgl64.Vec3 `json:"max"`

	set bool
}

// NewBox3 returns an empty box.
func NewBox3() Box3 {
	return Box3{}
}

// IsEmpty reports whether no point has been added to the box.
func (b Box3) IsEmpty() bool {
	return !b.set
}

// ExpandByPoint grows the box so it contains p.
func (b Box3) ExpandByPoint(p Point3D) Box3 {
	v := p.Vec()
	if !b.set {
		return Box3{Min: v, Max: v, set: true}
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], v[i])
		b.Max[i] = math.Max(b.Max[i], v[i])
	}
	return b
}

// Union returns the smallest box containing both b and o.
func (b Box3) Union(o Box3) Box3 {
	if !o.set {
		return b
	}
	if !b.set {
		return o
	}
	return b.ExpandByPoint(FromVec(o.Min)).ExpandByPoint(FromVec(o.Max))
}

// Size returns the extent along each axis. Empty boxes have zero size.
func (b Box3) Size() mgl64.Vec3 {
	if !b.set {
		return mgl64.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b Box3) Center() Point3D {
	return FromVec(b.Min.Add(b.Max).Mul(0.5))
}

// ContainsPoint reports whether p lies inside the box within Tolerance.
func (b Box3) ContainsPoint(p Point3D) bool {
	if !b.set {
		return false
	}
	v := p.Vec()
	for i := 0; i < 3; i++ {
		if v[i] < b.Min[i]-Tolerance || v[i] > b.Max[i]+Tolerance {
			return false
		}
	}
	return true
}
