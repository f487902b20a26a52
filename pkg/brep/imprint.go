package brep

import (
	"fmt"
	"math"

	"github.com/openfroyo/brepcore/pkg/geom"
)

// ModifiedShell records how an imprint changed one shell.
type ModifiedShell struct {
	AddFaces     []*Face3d
	RemovedFaces []*Face3d
}

// AddEdgesResult maps every shell touched by AddEdges to its changes.
type AddEdgesResult struct {
	ModifiedShellsMap map[*Shell]*ModifiedShell
}

// Modified returns the changes recorded for shell, or nil.
func (r *AddEdgesResult) Modified(shell *Shell) *ModifiedShell {
	if r == nil {
		return nil
	}
	return r.ModifiedShellsMap[shell]
}

// AddEdges imprints plan lines onto every horizontal face of shell. Faces a
// line crosses are replaced by their pieces; the pieces are reported as
// AddFaces in shell order. A shell nothing crosses is left out of the result
// map.
func AddEdges(shell *Shell, lines []geom.Segment2D) (*AddEdgesResult, error) {
	res := &AddEdgesResult{ModifiedShellsMap: make(map[*Shell]*ModifiedShell)}
	if shell == nil || len(lines) == 0 {
		return res, nil
	}

	var mod ModifiedShell
	for _, f := range append([]*Face3d(nil), shell.Faces...) {
		if !f.IsHorizontal() {
			continue
		}
		pieces := []*Face3d{f}
		for _, line := range lines {
			var next []*Face3d
			for _, p := range pieces {
				split, err := splitHorizontal(shell, p, line)
				if err != nil {
					return nil, err
				}
				if split == nil {
					next = append(next, p)
					continue
				}
				next = append(next, split...)
			}
			pieces = next
		}
		if len(pieces) == 1 {
			continue
		}
		shell.ReplaceFace(f, pieces...)
		mod.RemovedFaces = append(mod.RemovedFaces, f)
		mod.AddFaces = append(mod.AddFaces, pieces...)
	}
	if len(mod.AddFaces) > 0 {
		res.ModifiedShellsMap[shell] = &mod
	}
	return res, nil
}

// SplitFace cuts f along the vertical plane through the plan line cut and
// replaces it in shell by the two pieces. It returns nil when the plane does
// not cross the face interior.
func SplitFace(shell *Shell, f *Face3d, cut geom.Segment2D) ([]*Face3d, error) {
	var (
		pieces []*Face3d
		err    error
	)
	switch {
	case f.IsHorizontal():
		pieces, err = splitHorizontal(shell, f, cut)
	case f.IsVertical():
		pieces, err = splitVertical(shell, f, cut)
	default:
		return nil, fmt.Errorf("face %s is neither horizontal nor vertical", f.Tag)
	}
	if err != nil || pieces == nil {
		return nil, err
	}
	shell.ReplaceFace(f, pieces...)
	return pieces, nil
}

func splitHorizontal(shell *Shell, f *Face3d, cut geom.Segment2D) ([]*Face3d, error) {
	z := f.outer[0].StartVertex().Point.Z
	left, right := geom.SplitPolygonByLine(f.Polygon2D(), cut)
	if left == nil {
		return nil, nil
	}
	a, err := shell.NewFace(lift(left, z))
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", f.Tag, err)
	}
	b, err := shell.NewFace(lift(right, z))
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", f.Tag, err)
	}
	return []*Face3d{a, b}, nil
}

// splitVertical maps the face into (distance along its plan trace, z),
// clips it with the vertical line through the crossing point and maps the
// halves back.
func splitVertical(shell *Shell, f *Face3d, cut geom.Segment2D) ([]*Face3d, error) {
	trace, ok := planTrace(f)
	if !ok {
		return nil, nil
	}
	t, ok := trace.LineIntersection(cut)
	if !ok {
		return nil, nil
	}
	length := trace.Length()
	u := t * length
	if u <= geom.Tolerance || u >= length-geom.Tolerance {
		return nil, nil
	}

	box := f.Bounding()
	local := make([]geom.Point2D, 0, len(f.outer))
	for _, p := range f.Points() {
		local = append(local, geom.Pt2(trace.Project(p.XY())*length, p.Z))
	}
	vcut := geom.Seg(geom.Pt2(u, box.Min.Z()-1), geom.Pt2(u, box.Max.Z()+1))
	left, right := geom.SplitPolygonByLine(local, vcut)
	if left == nil {
		return nil, nil
	}

	toModel := func(pts []geom.Point2D) []geom.Point3D {
		out := make([]geom.Point3D, len(pts))
		for i, q := range pts {
			out[i] = trace.A.Lerp(trace.B, q.X/length).At(q.Y)
		}
		return out
	}
	a, err := shell.NewFace(toModel(left))
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", f.Tag, err)
	}
	b, err := shell.NewFace(toModel(right))
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", f.Tag, err)
	}
	return []*Face3d{a, b}, nil
}

// planTrace returns the plan segment a vertical face projects onto, spanning
// its two furthest apart points.
func planTrace(f *Face3d) (geom.Segment2D, bool) {
	pts := f.Polygon2D()
	var best geom.Segment2D
	bestLen := -math.MaxFloat64
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			if d := pts[i].Distance(pts[j]); d > bestLen {
				bestLen = d
				best = geom.Seg(pts[i], pts[j])
			}
		}
	}
	return best, bestLen > geom.Tolerance
}
