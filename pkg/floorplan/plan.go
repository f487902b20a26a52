// Package floorplan is a minimal in-memory document: it owns walls, the
// regions built from them and the tag allocator their geometry draws from.
package floorplan

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openfroyo/brepcore/pkg/brep"
	"github.com/openfroyo/brepcore/pkg/engine"
	"github.com/openfroyo/brepcore/pkg/geom"
)

// Entity is anything the plan can look up by ID.
type Entity interface {
	EntityID() string
}

// Region is what the plan needs to know about a registered region.
type Region interface {
	RegionID() string
	LinkWallIDs() []string
}

// Wall is a straight wall between two plan points.
type Wall struct {
	ID        string       `json:"id" yaml:"id" validate:"required"`
	From      geom.Point2D `json:"from" yaml:"from"`
	To        geom.Point2D `json:"to" yaml:"to"`
	Height    float64      `json:"height" yaml:"height" validate:"gt=0"`
	Thickness float64      `json:"thickness" yaml:"thickness" validate:"gte=0"`
}

// EntityID returns the wall ID.
func (w *Wall) EntityID() string {
	return w.ID
}

// Axis returns the wall center line.
func (w *Wall) Axis() geom.Segment2D {
	return geom.Seg(w.From, w.To)
}

// Length returns the axis length.
func (w *Wall) Length() float64 {
	return w.From.Distance(w.To)
}

// Option configures a Plan.
type Option func(*Plan)

// WithLogger sets the plan logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Plan) {
		p.logger = logger
	}
}

// WithTags shares an existing tag allocator.
func WithTags(tags *brep.TagAllocator) Option {
	return func(p *Plan) {
		if tags != nil {
			p.tags = tags
		}
	}
}

// Plan is an in-memory floor plan. It is not safe for concurrent mutation.
type Plan struct {
	ID string

	tags     *brep.TagAllocator
	entities map[string]Entity
	order    []string
	regions  []Region
	logger   zerolog.Logger
}

// NewPlan creates an empty plan. An empty id gets a random UUID.
func NewPlan(id string, opts ...Option) *Plan {
	if id == "" {
		id = uuid.New().String()
	}
	p := &Plan{
		ID:       id,
		tags:     brep.NewTagAllocator(0),
		entities: make(map[string]Entity),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Tags returns the allocator for geometry owned by this plan.
func (p *Plan) Tags() *brep.TagAllocator {
	return p.tags
}

// AddWall adds a wall; IDs must be unique.
func (p *Plan) AddWall(w *Wall) error {
	if w == nil || w.ID == "" {
		return engine.NewMalformedError("wall has empty ID", nil).WithCode(engine.ErrCodeValidation)
	}
	if _, exists := p.entities[w.ID]; exists {
		return engine.NewMalformedError(fmt.Sprintf("duplicate entity ID: %s", w.ID), nil).
			WithCode(engine.ErrCodeValidation)
	}
	p.entities[w.ID] = w
	p.order = append(p.order, w.ID)
	p.logger.Debug().Str("wall_id", w.ID).Msg("Wall added")
	return nil
}

// RemoveEntity deletes an entity. Regions linked to it keep their link info.
func (p *Plan) RemoveEntity(id string) bool {
	if _, ok := p.entities[id]; !ok {
		return false
	}
	delete(p.entities, id)
	p.order = slices.DeleteFunc(p.order, func(s string) bool { return s == id })
	p.logger.Debug().Str("entity_id", id).Msg("Entity removed")
	return true
}

// EntityByID looks up an entity.
func (p *Plan) EntityByID(id string) (Entity, bool) {
	e, ok := p.entities[id]
	return e, ok
}

// Wall looks up a wall.
func (p *Plan) Wall(id string) (*Wall, bool) {
	w, ok := p.entities[id].(*Wall)
	return w, ok
}

// Walls returns every wall in insertion order.
func (p *Plan) Walls() []*Wall {
	walls := make([]*Wall, 0, len(p.order))
	for _, id := range p.order {
		if w, ok := p.entities[id].(*Wall); ok {
			walls = append(walls, w)
		}
	}
	return walls
}

// RegisterRegion records a region built against this plan.
func (p *Plan) RegisterRegion(r Region) error {
	for _, existing := range p.regions {
		if existing.RegionID() == r.RegionID() {
			return engine.NewMalformedError(fmt.Sprintf("duplicate region ID: %s", r.RegionID()), nil).
				WithCode(engine.ErrCodeValidation)
		}
	}
	p.regions = append(p.regions, r)
	p.logger.Debug().
		Str("region_id", r.RegionID()).
		Strs("wall_ids", r.LinkWallIDs()).
		Msg("Region registered")
	return nil
}

// Regions returns the registered regions in order.
func (p *Plan) Regions() []Region {
	return slices.Clone(p.regions)
}

// RegionsOfWall returns the regions linked to wallID.
func (p *Plan) RegionsOfWall(wallID string) []Region {
	var out []Region
	for _, r := range p.regions {
		if slices.Contains(r.LinkWallIDs(), wallID) {
			out = append(out, r)
		}
	}
	return out
}
