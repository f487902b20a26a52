package config

import (
	"context"
	"fmt"
	"unicode"

	"github.com/openfroyo/brepcore/pkg/brep"
	"github.com/openfroyo/brepcore/pkg/constraint"
	"github.com/openfroyo/brepcore/pkg/continuous"
	"github.com/openfroyo/brepcore/pkg/engine"
	"github.com/openfroyo/brepcore/pkg/floorplan"
	"github.com/openfroyo/brepcore/pkg/geom"
	"github.com/openfroyo/brepcore/pkg/region"
)

// fallbackHeight is used for walls and regions when neither they nor the
// scenario settings give a height.
const fallbackHeight = 2.8

// reservedNames are predeclared in state scripts and never shadowed by a
// state global.
var reservedNames = map[string]bool{
	"states": true,
	"value":  true,
	"math":   true,
	"struct": true,
	"clamp":  true,
}

// Height returns the scenario default extrusion height.
func (s *Scenario) Height() float64 {
	if s.Settings.DefaultHeight > 0 {
		return s.Settings.DefaultHeight
	}
	return fallbackHeight
}

// BuildStates evaluates the declared states in order. A scripted state sees
// the earlier values both in a "states" dict and, when the ID is a valid
// identifier, as a global of the same name; it must assign "value".
func (s *Scenario) BuildStates(ctx context.Context, eval *StarlarkEvaluator) (constraint.StateMap, error) {
	values := make(map[string]interface{}, len(s.States))
	states := constraint.NewStateMap()

	for _, sc := range s.States {
		v := sc.Value
		if sc.Script != "" {
			if eval == nil {
				eval = NewStarlarkEvaluator(0)
			}
			got, err := evalState(ctx, eval, sc, values)
			if err != nil {
				return nil, err
			}
			v = got
		}
		values[sc.ID] = v
		states[sc.ID] = constraint.NewState(sc.ID, v)
	}
	return states, nil
}

func evalState(ctx context.Context, eval *StarlarkEvaluator, sc StateConfig, values map[string]interface{}) (float64, error) {
	fail := func(msg string, err error) error {
		return engine.NewMalformedError(msg, err).WithResource(sc.ID).WithOperation("evaluate")
	}

	known := make(map[string]interface{}, len(values))
	input := map[string]interface{}{"states": known}
	for id, v := range values {
		known[id] = v
		if isIdentifier(id) && !reservedNames[id] {
			input[id] = v
		}
	}

	res, err := eval.Evaluate(ctx, sc.Script, input)
	if err != nil {
		return 0, fail(fmt.Sprintf("state %s script failed", sc.ID), err)
	}
	switch v := res.Output["value"].(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case nil:
		return 0, fail(fmt.Sprintf("state %s script did not assign value", sc.ID), nil)
	default:
		return 0, fail(fmt.Sprintf("state %s script assigned %T, want a number", sc.ID, v), nil)
	}
}

func isIdentifier(s string) bool {
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return s != ""
}

// BuildConstraints initializes every declared constraint against states.
func (s *Scenario) BuildConstraints(states constraint.StateMap) ([]constraint.Interface, error) {
	out := make([]constraint.Interface, 0, len(s.Constraints))
	for _, data := range s.Constraints {
		c, err := constraint.FromInit(data, states)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Computables adapts constraints for an engine.Propagator.
func Computables(cs []constraint.Interface) []engine.Computable {
	out := make([]engine.Computable, len(cs))
	for i, c := range cs {
		out[i] = c
	}
	return out
}

// BuildPlan creates a floor plan named after the scenario holding its walls.
func (s *Scenario) BuildPlan(opts ...floorplan.Option) (*floorplan.Plan, error) {
	plan := floorplan.NewPlan(s.Name, opts...)
	for _, wc := range s.Walls {
		h := wc.Height
		if h == 0 {
			h = s.Height()
		}
		w := &floorplan.Wall{
			ID:        wc.ID,
			From:      wc.From.P(),
			To:        wc.To.P(),
			Height:    h,
			Thickness: wc.Thickness,
		}
		if err := plan.AddWall(w); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// BuildRegions creates the declared regions on plan. Regions are not
// extruded.
func (s *Scenario) BuildRegions(plan *floorplan.Plan, opts ...region.Option) ([]*region.WallRegion, error) {
	out := make([]*region.WallRegion, 0, len(s.Regions))
	for _, rc := range s.Regions {
		r, err := rc.Build(plan, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Build creates the region on plan.
func (rc RegionConfig) Build(plan *floorplan.Plan, opts ...region.Option) (*region.WallRegion, error) {
	pts := make([]geom.Point2D, len(rc.Points))
	for i, p := range rc.Points {
		pts[i] = p.P()
	}
	path := region.PathFromPoints(plan.Tags(), pts...)

	if rc.ID != "" {
		opts = append(opts, region.WithID(rc.ID))
	}
	return region.Create(plan, path, rc.Walls, opts...)
}

// Heights returns the extrusion range, falling back to [0, def] when no top
// is given.
func (rc RegionConfig) Heights(def float64) (float64, float64) {
	if rc.MaxHeight == 0 {
		return rc.MinHeight, rc.MinHeight + def
	}
	return rc.MinHeight, rc.MaxHeight
}

// ExtrudeOptions returns the options for extruding the region.
func (rc RegionConfig) ExtrudeOptions() region.ExtrudeOptions {
	return region.ExtrudeOptions{Imprint: segments(rc.Imprint)}
}

// CutCurves returns the configured cuts as line curves with tags from tags.
func (rc RegionConfig) CutCurves(tags *brep.TagAllocator) []*brep.Curve {
	curves := make([]*brep.Curve, len(rc.Cuts))
	for i, c := range rc.Cuts {
		curves[i] = brep.NewLine(tags.Next("cut"), c.From.P(), c.To.P())
	}
	return curves
}

func segments(cfg []SegmentConfig) []geom.Segment2D {
	if len(cfg) == 0 {
		return nil
	}
	out := make([]geom.Segment2D, len(cfg))
	for i, c := range cfg {
		out[i] = geom.Seg(c.From.P(), c.To.P())
	}
	return out
}

// Build creates the faces of the group in a fresh shell.
func (g FaceGroupConfig) Build(tags *brep.TagAllocator) (*continuous.ContinuousFace, error) {
	shell := brep.NewShell(tags)
	cf := &continuous.ContinuousFace{}
	for i, face := range g.Faces {
		pts := make([]geom.Point3D, len(face))
		for j, p := range face {
			pts[j] = p.P()
		}
		f, err := shell.NewFace(pts)
		if err != nil {
			return nil, fmt.Errorf("face group %s face %d: %w", g.ID, i, err)
		}
		shell.AddFace(f)
		cf.Faces = append(cf.Faces, f)
	}
	return cf, nil
}
