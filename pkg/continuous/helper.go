// Package continuous treats a group of shell faces as one logical face: it
// stitches the group's boundary co-edges into wires and aggregates bounds and
// area.
package continuous

import (
	"slices"

	"github.com/rs/zerolog"

	"github.com/openfroyo/brepcore/pkg/brep"
	"github.com/openfroyo/brepcore/pkg/geom"
)

// ContinuousFace is a face group spanning several underlying faces.
// ContEdges are extra edges that always count as boundary.
type ContinuousFace struct {
	Faces     []*brep.Face3d
	ContEdges []*brep.Edge
}

// InteractiveEdgesFunc returns the boundary edges of a face group.
type InteractiveEdgesFunc func(faces []*brep.Face3d) []*brep.Edge

// Option configures a Helper.
type Option func(*Helper)

// WithInteractiveEdges replaces the boundary-edge lookup.
func WithInteractiveEdges(fn InteractiveEdgesFunc) Option {
	return func(h *Helper) {
		if fn != nil {
			h.interactive = fn
		}
	}
}

// WithLogger sets the logger used for stitching diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(h *Helper) {
		h.logger = logger
	}
}

// Helper computes wires, bounds and area of continuous faces. It keeps no
// per-call state and is safe for concurrent use.
type Helper struct {
	interactive InteractiveEdgesFunc
	logger      zerolog.Logger
}

var defaultHelper = New()

// New creates a helper.
func New(opts ...Option) *Helper {
	h := &Helper{
		interactive: InteractiveEdges,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Default returns the shared helper with default options.
func Default() *Helper {
	return defaultHelper
}

// Wires reassembles the boundary of cf into ordered wires.
func (h *Helper) Wires(cf *ContinuousFace) []*brep.Wire {
	if cf == nil || len(cf.Faces) == 0 {
		return []*brep.Wire{}
	}

	edges := slices.Concat(h.interactive(cf.Faces), cf.ContEdges)
	tags := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		if e == nil {
			continue
		}
		tags[e.Tag] = struct{}{}
	}

	var filtered []*brep.CoEdge3d
	for _, f := range cf.Faces {
		for _, c := range f.CoEdges() {
			if _, ok := tags[c.EdgeTag()]; ok {
				filtered = append(filtered, c)
			}
		}
	}

	chains := SortCoEdges(filtered)
	wires := make([]*brep.Wire, 0, len(chains))
	for _, chain := range chains {
		wires = append(wires, brep.NewWire(chain))
	}
	h.logger.Debug().
		Int("faces", len(cf.Faces)).
		Int("coedges", len(filtered)).
		Int("wires", len(wires)).
		Msg("Stitched continuous face")
	return wires
}

// Bounding returns the box around every face of cf.
func (h *Helper) Bounding(cf *ContinuousFace) geom.Box3 {
	box := geom.NewBox3()
	if cf == nil {
		return box
	}
	for _, f := range cf.Faces {
		for _, p := range f.Points() {
			box = box.ExpandByPoint(p)
		}
	}
	return box
}

// Area returns the summed plan area of the faces of cf.
func (h *Helper) Area(cf *ContinuousFace) float64 {
	if cf == nil {
		return 0
	}
	var total float64
	for _, f := range cf.Faces {
		total += geom.PolygonArea(f.Polygon2D())
	}
	return total
}
