package sketch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openfroyo/brepcore/pkg/brep"
	"github.com/openfroyo/brepcore/pkg/geom"
)

func rect(prefix string, x0, y0, w, h float64) []*brep.Curve {
	p := []geom.Point2D{
		geom.Pt2(x0, y0), geom.Pt2(x0+w, y0), geom.Pt2(x0+w, y0+h), geom.Pt2(x0, y0+h),
	}
	return []*brep.Curve{
		brep.NewLine(prefix+"-0", p[0], p[1]),
		brep.NewLine(prefix+"-1", p[1], p[2]),
		brep.NewLine(prefix+"-2", p[2], p[3]),
		brep.NewLine(prefix+"-3", p[3], p[0]),
	}
}

func ids(curves []*brep.Curve) []string {
	out := make([]string, len(curves))
	for i, c := range curves {
		out[i] = c.ID
	}
	return out
}

func TestFindCurvesToRemove_UnsharedCurvesFirst(t *testing.T) {
	curves := rect("f", 0, 0, 2, 2)
	curves[2].Background = true
	curves[3].Background = true
	face := brep.NewFace2d("F", curves...)

	// A neighbor sharing nothing but a guide parent does not count.
	curves[0].AddGuideParent("axis")

	d := NewFace2dDecorator(face)
	first := d.FindCurvesToRemove()
	second := d.FindCurvesToRemove()

	assert.Equal(t, []string{"f-0", "f-1"}, ids(first))
	assert.Equal(t, ids(first), ids(second))
}

func TestFindCurvesToRemove_FirstNeighborWins(t *testing.T) {
	curves := rect("f", 4, 4, 1, 1)
	face := brep.NewFace2d("F", curves...)

	// Both neighbors share f-0; the first registered one takes it.
	big := brep.NewFace2d("BIG", append(rect("big", 0, 0, 10, 10), curves...)...)
	brep.NewFace2d("OTHER", append(rect("other", 3, 3, 3, 3), curves[0])...)

	got := NewFace2dDecorator(face).FindCurvesToRemove()
	assert.Equal(t, []string{"f-0", "f-1", "f-2", "f-3"}, ids(got))
	assert.True(t, face.HasIdenticalCurve(big))
}

func TestFindCurvesToRemove_InnermostLevel(t *testing.T) {
	curves := rect("f", 4, 4, 1, 1)
	face := brep.NewFace2d("F", curves...)

	brep.NewFace2d("A", append(rect("a", 0, 0, 10, 10), curves[0])...)
	brep.NewFace2d("B", append(rect("b", 2, 2, 6, 6), curves[1])...)
	brep.NewFace2d("C", append(rect("c", 3, 3, 4, 4), curves[2], curves[3])...)

	got := NewFace2dDecorator(face).FindCurvesToRemove()
	assert.Equal(t, []string{"f-2", "f-3"}, ids(got), "only the innermost neighbor's curves are returned")
}

func TestFindCurvesToRemove_OuterNeighbors(t *testing.T) {
	left := rect("l", 0, 0, 2, 2)
	face := brep.NewFace2d("F", left...)

	right := rect("r", 2, 0, 2, 2)
	right[3] = left[1]
	brep.NewFace2d("R", right...)

	top := rect("t", 0, 2, 2, 2)
	top[0] = left[2]
	brep.NewFace2d("T", top...)

	below := rect("b", 0, -2, 2, 2)
	below[2] = left[0]
	brep.NewFace2d("B", below...)

	fl := rect("x", -2, 0, 2, 2)
	fl[1] = left[3]
	brep.NewFace2d("X", fl...)

	got := NewFace2dDecorator(face).FindCurvesToRemove()
	assert.Equal(t, []string{"l-0", "l-1", "l-2", "l-3"}, ids(got))
}

func TestFindCurvesToRemove_Empty(t *testing.T) {
	curves := rect("f", 0, 0, 1, 1)
	for _, c := range curves {
		c.Background = true
	}
	face := brep.NewFace2d("F", curves...)

	got := NewFace2dDecorator(face).FindCurvesToRemove()
	assert.NotNil(t, got)
	assert.Empty(t, got)

	assert.Empty(t, NewFace2dDecorator(nil).FindCurvesToRemove())
}
