package brep

import (
	"fmt"

	"github.com/openfroyo/brepcore/pkg/geom"
)

// Extrusion is the result of sweeping a plan profile between two heights.
type Extrusion struct {
	Shell *Shell
	// Sides[i] is the face swept from profile segment i (profile[i] to
	// profile[i+1], wrapping around).
	Sides  []*Face3d
	Top    *Face3d
	Bottom *Face3d
}

// Extrude sweeps the closed profile from minZ to maxZ into a prism. Side
// faces point outwards whatever the profile winding.
func Extrude(profile []geom.Point2D, minZ, maxZ float64, tags *TagAllocator) (*Extrusion, error) {
	if maxZ-minZ <= geom.Tolerance {
		return nil, fmt.Errorf("extrusion height %g..%g is not positive", minZ, maxZ)
	}
	if len(profile) < 3 {
		return nil, fmt.Errorf("profile needs at least 3 points, got %d", len(profile))
	}
	ccw := geom.IsCounterClockwise(profile)

	shell := NewShell(tags)
	ext := &Extrusion{Shell: shell, Sides: make([]*Face3d, len(profile))}

	for i := range profile {
		a := profile[i]
		b := profile[(i+1)%len(profile)]
		quad := []geom.Point3D{a.At(minZ), b.At(minZ), b.At(maxZ), a.At(maxZ)}
		if !ccw {
			quad = []geom.Point3D{a.At(maxZ), b.At(maxZ), b.At(minZ), a.At(minZ)}
		}
		side, err := shell.NewFace(quad)
		if err != nil {
			return nil, fmt.Errorf("side face %d: %w", i, err)
		}
		ext.Sides[i] = side
	}

	up := profile
	if !ccw {
		up = geom.Reversed(profile)
	}
	top, err := shell.NewFace(lift(up, maxZ))
	if err != nil {
		return nil, fmt.Errorf("top cap: %w", err)
	}
	bottom, err := shell.NewFace(lift(geom.Reversed(up), minZ))
	if err != nil {
		return nil, fmt.Errorf("bottom cap: %w", err)
	}
	ext.Top, ext.Bottom = top, bottom

	shell.AddFace(ext.Sides...)
	shell.AddFace(top, bottom)
	return ext, nil
}

func lift(pts []geom.Point2D, z float64) []geom.Point3D {
	out := make([]geom.Point3D, len(pts))
	for i, p := range pts {
		out[i] = p.At(z)
	}
	return out
}
