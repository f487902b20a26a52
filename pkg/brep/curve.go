package brep

import (
	"iter"
	"math"

	"github.com/openfroyo/brepcore/pkg/geom"
)

// CurveKind identifies the geometry of a Curve.
type CurveKind string

const (
	// CurveLine is a straight segment.
	CurveLine CurveKind = "line"
	// CurveArc is a circular arc around Center.
	CurveArc CurveKind = "arc"
)

// arcStep is the maximum sweep covered by one segment when discretizing arcs.
const arcStep = math.Pi / 16

// ParentKind discriminates what owns a curve.
type ParentKind string

const (
	// ParentKindFace marks a Face2d parent.
	ParentKindFace ParentKind = "face"
	// ParentKindGuide marks a non-face owner such as a guide line or a wall
	// axis. Guides never take part in face decoration.
	ParentKindGuide ParentKind = "guide"
)

// Parent references one owner of a curve.
type Parent struct {
	ID   string
	Kind ParentKind

	face *Face2d
}

// UniqueParent returns the owning face, or nil for non-face parents.
func (p Parent) UniqueParent() *Face2d {
	if p.Kind != ParentKindFace {
		return nil
	}
	return p.face
}

// Curve is a plan-space boundary piece.
type Curve struct {
	ID         string
	Kind       CurveKind
	Start      geom.Point2D
	End        geom.Point2D
	Center     geom.Point2D
	Clockwise  bool
	Background bool

	parentIDs []string
	parents   map[string]Parent
}

// NewLine creates a straight curve.
func NewLine(id string, start, end geom.Point2D) *Curve {
	return &Curve{ID: id, Kind: CurveLine, Start: start, End: end}
}

// NewArc creates a circular arc from start to end around center.
func NewArc(id string, start, end, center geom.Point2D, clockwise bool) *Curve {
	return &Curve{ID: id, Kind: CurveArc, Start: start, End: end, Center: center, Clockwise: clockwise}
}

// AddParent registers p as an owner. Re-adding an ID keeps its original
// position in the iteration order.
func (c *Curve) AddParent(p Parent) {
	if c.parents == nil {
		c.parents = make(map[string]Parent)
	}
	if _, ok := c.parents[p.ID]; !ok {
		c.parentIDs = append(c.parentIDs, p.ID)
	}
	c.parents[p.ID] = p
}

// AddGuideParent registers a non-face owner.
func (c *Curve) AddGuideParent(id string) {
	c.AddParent(Parent{ID: id, Kind: ParentKindGuide})
}

// RemoveParent drops the owner with the given ID.
func (c *Curve) RemoveParent(id string) {
	if _, ok := c.parents[id]; !ok {
		return
	}
	delete(c.parents, id)
	for i, pid := range c.parentIDs {
		if pid == id {
			c.parentIDs = append(c.parentIDs[:i], c.parentIDs[i+1:]...)
			break
		}
	}
}

// Parents iterates owners in insertion order.
func (c *Curve) Parents() iter.Seq[Parent] {
	return func(yield func(Parent) bool) {
		for _, id := range c.parentIDs {
			if !yield(c.parents[id]) {
				return
			}
		}
	}
}

// ParentCount returns the number of registered owners.
func (c *Curve) ParentCount() int {
	return len(c.parentIDs)
}

// Length returns the curve length.
func (c *Curve) Length() float64 {
	if c.Kind == CurveArc {
		return c.radius() * math.Abs(c.sweep())
	}
	return c.Start.Distance(c.End)
}

// Chord returns the straight segment between the curve endpoints.
func (c *Curve) Chord() geom.Segment2D {
	return geom.Seg(c.Start, c.End)
}

// Points returns the curve as a polyline from Start to End.
func (c *Curve) Points() []geom.Point2D {
	if c.Kind != CurveArc {
		return []geom.Point2D{c.Start, c.End}
	}
	sweep := c.sweep()
	n := int(math.Ceil(math.Abs(sweep) / arcStep))
	if n < 1 {
		n = 1
	}
	r := c.radius()
	a0 := math.Atan2(c.Start.Y-c.Center.Y, c.Start.X-c.Center.X)
	pts := make([]geom.Point2D, 0, n+1)
	pts = append(pts, c.Start)
	for i := 1; i < n; i++ {
		a := a0 + sweep*float64(i)/float64(n)
		pts = append(pts, geom.Pt2(c.Center.X+r*math.Cos(a), c.Center.Y+r*math.Sin(a)))
	}
	return append(pts, c.End)
}

func (c *Curve) radius() float64 {
	return c.Start.Distance(c.Center)
}

// sweep returns the signed angle from Start to End, negative for clockwise.
func (c *Curve) sweep() float64 {
	a0 := math.Atan2(c.Start.Y-c.Center.Y, c.Start.X-c.Center.X)
	a1 := math.Atan2(c.End.Y-c.Center.Y, c.End.X-c.Center.X)
	d := a1 - a0
	if c.Clockwise {
		for d >= 0 {
			d -= 2 * math.Pi
		}
	} else {
		for d <= 0 {
			d += 2 * math.Pi
		}
	}
	return d
}
