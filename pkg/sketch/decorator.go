// Package sketch holds plan-level face helpers used while merging and
// splitting floor-plan faces.
package sketch

import (
	"slices"

	"github.com/paulmach/orb"

	"github.com/openfroyo/brepcore/pkg/brep"
	"github.com/openfroyo/brepcore/pkg/geom"
)

// Face2dDecorator answers cleanup questions about one face.
type Face2dDecorator struct {
	face *brep.Face2d
}

// NewFace2dDecorator wraps face.
func NewFace2dDecorator(face *brep.Face2d) *Face2dDecorator {
	return &Face2dDecorator{face: face}
}

type neighbor struct {
	face   *brep.Face2d
	curves []*brep.Curve
	bounds orb.Bound
	ok     bool
}

// FindCurvesToRemove returns the outer-loop curves that become redundant
// when the face is merged with the faces it shares boundary curves with.
//
// Curves no neighbor shares are returned first. Otherwise the curves shared
// with the innermost enclosing neighbors win, then those shared with
// non-enclosing neighbors. The result is empty when nothing qualifies.
func (d *Face2dDecorator) FindCurvesToRemove() []*brep.Curve {
	if d.face == nil || d.face.Outer == nil {
		return []*brep.Curve{}
	}

	var (
		candidates []*brep.Curve
		neighbors  []*neighbor
		byID       = make(map[string]*neighbor)
	)
	for _, c := range d.face.Curves() {
		if c.Background {
			continue
		}
		nb := d.firstNeighbor(c)
		if nb == nil {
			candidates = append(candidates, c)
			continue
		}
		n, ok := byID[nb.ID]
		if !ok {
			n = &neighbor{face: nb}
			byID[nb.ID] = n
			neighbors = append(neighbors, n)
		}
		n.curves = append(n.curves, c)
	}
	if len(candidates) > 0 {
		return candidates
	}

	own := d.face.Outer.Points()
	var inner, outer []*neighbor
	for _, n := range neighbors {
		n.bounds, n.ok = n.face.Bounds()
		if n.ok && geom.BoundContainsAll(n.bounds, own) {
			inner = append(inner, n)
		} else {
			outer = append(outer, n)
		}
	}

	if len(inner) > 0 {
		return innermostCurves(inner)
	}

	result := []*brep.Curve{}
	for _, n := range outer {
		result = append(result, n.curves...)
	}
	return result
}

// firstNeighbor returns the first parent face, other than the decorated one,
// that shares a curve with it.
func (d *Face2dDecorator) firstNeighbor(c *brep.Curve) *brep.Face2d {
	for p := range c.Parents() {
		f := p.UniqueParent()
		if f == nil || f == d.face || f.ID == d.face.ID {
			continue
		}
		if d.face.HasIdenticalCurve(f) {
			return f
		}
	}
	return nil
}

// innermostCurves groups inner neighbors by how many other inner neighbors
// they enclose and returns the curves of the lowest group.
func innermostCurves(inner []*neighbor) []*brep.Curve {
	levels := make([]int, len(inner))
	for i, a := range inner {
		for j, b := range inner {
			if i != j && geom.BoundContainsBound(a.bounds, b.bounds) {
				levels[i]++
			}
		}
	}

	unique := slices.Clone(levels)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	for _, lvl := range unique {
		var group []*brep.Curve
		for i, n := range inner {
			if levels[i] == lvl {
				group = append(group, n.curves...)
			}
		}
		if len(group) > 0 {
			return group
		}
	}
	return []*brep.Curve{}
}
