// Package region builds wall regions: closed plan areas bounded by a co-edge
// path whose pieces are linked to walls. A region extrudes into a shell whose
// faces remember the wall they belong to, and can be cut along plan curves.
package region

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openfroyo/brepcore/pkg/brep"
	"github.com/openfroyo/brepcore/pkg/continuous"
	"github.com/openfroyo/brepcore/pkg/engine"
	"github.com/openfroyo/brepcore/pkg/floorplan"
	"github.com/openfroyo/brepcore/pkg/geom"
	"github.com/openfroyo/brepcore/pkg/sketch"
)

// FloorPlan is the part of the document a region depends on. The region
// never owns the plan.
type FloorPlan interface {
	EntityByID(id string) (floorplan.Entity, bool)
	RegisterRegion(r floorplan.Region) error
	Tags() *brep.TagAllocator
}

// LinkInfo ties one co-edge of the path to a wall.
type LinkInfo struct {
	WallID string `json:"wall_id"`
	Index  int    `json:"index"`
}

// Role is the part of the extruded body a face forms.
type Role string

const (
	RoleSide   Role = "side"
	RoleTop    Role = "top"
	RoleBottom Role = "bottom"
)

// WallTopoFace is a face of the extruded body with its wall attribution.
// Index is the path co-edge index, or -1 when no wall applies.
type WallTopoFace struct {
	Face   *brep.Face3d
	Role   Role
	WallID string
	Index  int
	IsAux  bool
}

// Option configures a WallRegion.
type Option func(*WallRegion)

// WithLogger sets the region logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *WallRegion) {
		r.logger = logger
	}
}

// WithRegionLogger derives the region logger from the final region ID.
// It takes precedence over WithLogger.
func WithRegionLogger(fn func(regionID string) zerolog.Logger) Option {
	return func(r *WallRegion) {
		r.loggerFor = fn
	}
}

// WithID overrides the generated region ID.
func WithID(id string) Option {
	return func(r *WallRegion) {
		if id != "" {
			r.ID = id
		}
	}
}

// WallRegion is a plan area bounded by wall-linked co-edges.
type WallRegion struct {
	ID string

	// LinkInfo lists linked co-edges in boundary order.
	LinkInfo   []LinkInfo
	CoEdgePath *CoEdgePath

	// ShellWrapper and TopoFaces are set by ExtrudeBody.
	ShellWrapper *brep.ShellWrapper
	TopoFaces    []*WallTopoFace

	fp        FloorPlan
	profile   *brep.Face2d
	status    engine.ExtrusionStatus
	minHeight float64
	maxHeight float64
	logger    zerolog.Logger
	loggerFor func(regionID string) zerolog.Logger
}

// Create builds a region over path and registers it with fp. wallIDs[i]
// links co-edge i; an empty string leaves it unlinked.
func Create(fp FloorPlan, path *CoEdgePath, wallIDs []string, opts ...Option) (*WallRegion, error) {
	if fp == nil {
		return nil, engine.NewMalformedError("region needs a floor plan", nil).
			WithCode(engine.ErrCodeValidation).WithOperation("create")
	}
	if path.Len() == 0 {
		return nil, engine.NewMalformedError("region needs a non-empty co-edge path", nil).
			WithCode(engine.ErrCodeValidation).WithOperation("create")
	}
	if len(wallIDs) != path.Len() {
		return nil, engine.NewMalformedError(
			fmt.Sprintf("got %d wall IDs for %d co-edges", len(wallIDs), path.Len()), nil,
		).WithCode(engine.ErrCodeValidation).WithOperation("create")
	}

	r := &WallRegion{
		ID:         uuid.New().String(),
		CoEdgePath: path,
		fp:         fp,
		status:     engine.ExtrusionStatusNone,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for i, id := range wallIDs {
		if id != "" {
			r.LinkInfo = append(r.LinkInfo, LinkInfo{WallID: id, Index: i})
		}
	}

	if err := fp.RegisterRegion(r); err != nil {
		return nil, err
	}
	r.profile = brep.NewFace2d(r.ID, path.Curves()...)
	if r.loggerFor != nil {
		r.logger = r.loggerFor(r.ID)
	} else {
		r.logger = r.logger.With().Str("region_id", r.ID).Logger()
	}
	r.logger.Debug().
		Int("coedges", path.Len()).
		Strs("wall_ids", r.LinkWallIDs()).
		Msg("Region created")
	return r, nil
}

// RegionID returns the region ID.
func (r *WallRegion) RegionID() string {
	return r.ID
}

// LinkWallIDs returns the wall ID of every LinkInfo entry in boundary order.
// A wall linked to several co-edges appears once per co-edge.
func (r *WallRegion) LinkWallIDs() []string {
	ids := make([]string, 0, len(r.LinkInfo))
	for _, li := range r.LinkInfo {
		ids = append(ids, li.WallID)
	}
	return ids
}

// TargetWallID returns the owning wall: the first linked one.
func (r *WallRegion) TargetWallID() string {
	if len(r.LinkInfo) == 0 {
		return ""
	}
	return r.LinkInfo[0].WallID
}

// TargetWallIndex returns the co-edge index of the owning wall, or -1.
func (r *WallRegion) TargetWallIndex() int {
	if len(r.LinkInfo) == 0 {
		return -1
	}
	return r.LinkInfo[0].Index
}

// TargetWall resolves the owning wall through the plan. It returns nil when
// the wall no longer exists.
func (r *WallRegion) TargetWall() *floorplan.Wall {
	id := r.TargetWallID()
	if id == "" {
		return nil
	}
	e, ok := r.fp.EntityByID(id)
	if !ok {
		return nil
	}
	w, _ := e.(*floorplan.Wall)
	return w
}

// IsValid reports whether every boundary segment has non-zero length.
func (r *WallRegion) IsValid() bool {
	segs := r.CoEdgePath.Segments()
	if len(segs) == 0 {
		return false
	}
	for _, s := range segs {
		if s.Length() <= geom.Tolerance {
			return false
		}
	}
	return true
}

// CoEdge looks up a path co-edge by ID.
func (r *WallRegion) CoEdge(id string) (*PathCoEdge, error) {
	for _, c := range r.CoEdgePath.CoEdges {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, engine.NotFound("co-edge", id).WithResource(r.ID)
}

// Status returns how the body was produced.
func (r *WallRegion) Status() engine.ExtrusionStatus {
	return r.status
}

// DiscardableCurves returns the boundary curves that become redundant when
// the region profile is merged with faces sharing its curves.
func (r *WallRegion) DiscardableCurves() []*brep.Curve {
	return sketch.NewFace2dDecorator(r.profile).FindCurvesToRemove()
}

// Outline stitches the visible top faces into wires.
func (r *WallRegion) Outline() []*brep.Wire {
	var faces []*brep.Face3d
	for _, tf := range r.TopoFaces {
		if tf.Role == RoleTop && !tf.IsAux {
			faces = append(faces, tf.Face)
		}
	}
	return continuous.New(continuous.WithLogger(r.logger)).Wires(&continuous.ContinuousFace{Faces: faces})
}

// wallAt returns the wall linked to co-edge index i, or "".
func (r *WallRegion) wallAt(i int) string {
	for _, li := range r.LinkInfo {
		if li.Index == i {
			return li.WallID
		}
	}
	return ""
}
