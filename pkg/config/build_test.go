package config

import (
	"context"
	"testing"
	"time"

	"github.com/openfroyo/brepcore/pkg/brep"
	"github.com/openfroyo/brepcore/pkg/continuous"
	"github.com/openfroyo/brepcore/pkg/engine"
	"github.com/openfroyo/brepcore/pkg/region"
)

func loadStudio(t *testing.T) (*Loader, *Scenario) {
	t.Helper()
	l := NewLoader()
	s, err := l.LoadCUE(context.Background(), studioCUE)
	if err != nil {
		t.Fatalf("Expected scenario, got error: %v", err)
	}
	return l, s
}

func TestBuildStates_Scripts(t *testing.T) {
	l, s := loadStudio(t)

	states, err := s.BuildStates(context.Background(), l.Evaluator())
	if err != nil {
		t.Fatalf("Expected states, got error: %v", err)
	}
	if got := states["half"].Value; got != 2 {
		t.Errorf("Expected half=2, got %v", got)
	}
	if got := states["x"].Value; got != 0 {
		t.Errorf("Expected x=0 before compute, got %v", got)
	}
}

func TestBuildStates_ScriptSeesStatesDict(t *testing.T) {
	s := &Scenario{
		Name: "dict",
		States: []StateConfig{
			{ID: "wall.len", Value: 5},
			{ID: "inset", Script: `value = clamp(states["wall.len"] - 1.0, 0.0, 3.0)`},
		},
	}
	states, err := s.BuildStates(context.Background(), nil)
	if err != nil {
		t.Fatalf("Expected states, got error: %v", err)
	}
	if got := states["inset"].Value; got != 3 {
		t.Errorf("Expected clamped inset 3, got %v", got)
	}
}

func TestBuildStates_ScriptErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"no value", "other = 1"},
		{"string value", `value = "wide"`},
		{"runtime error", "value = 1 / 0"},
		{"unknown global", "value = missing + 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Scenario{Name: "bad", States: []StateConfig{{ID: "s", Script: tt.script}}}
			_, err := s.BuildStates(context.Background(), NewStarlarkEvaluator(time.Second))
			if !engine.IsMalformed(err) {
				t.Errorf("Expected malformed error, got %v", err)
			}
		})
	}
}

func TestBuildConstraints_Propagate(t *testing.T) {
	l, s := loadStudio(t)
	ctx := context.Background()

	states, err := s.BuildStates(ctx, l.Evaluator())
	if err != nil {
		t.Fatalf("Expected states, got error: %v", err)
	}
	cs, err := s.BuildConstraints(states)
	if err != nil {
		t.Fatalf("Expected constraints, got error: %v", err)
	}
	prop, err := engine.NewPropagator(Computables(cs))
	if err != nil {
		t.Fatalf("Expected propagator, got error: %v", err)
	}
	if _, err := prop.Run(ctx); err != nil {
		t.Fatalf("Expected run to succeed, got error: %v", err)
	}

	// add half, then mul half: 0 + 2 + 2
	if got := states["x"].Value; got != 4 {
		t.Errorf("Expected x=4, got %v", got)
	}
}

func TestBuildConstraints_UnknownState(t *testing.T) {
	_, s := loadStudio(t)
	s.Constraints[0].Inputs[0].States = []string{"ghost"}

	states, _ := s.BuildStates(context.Background(), nil)
	if _, err := s.BuildConstraints(states); !engine.IsNotFound(err) {
		t.Errorf("Expected not-found error, got %v", err)
	}
}

func TestBuildPlanAndRegions(t *testing.T) {
	_, s := loadStudio(t)

	plan, err := s.BuildPlan()
	if err != nil {
		t.Fatalf("Expected plan, got error: %v", err)
	}
	if plan.ID != "studio" || len(plan.Walls()) != 2 {
		t.Fatalf("Expected plan studio with 2 walls, got %s with %d", plan.ID, len(plan.Walls()))
	}
	if w, _ := plan.Wall("w1"); w.Height != 3 {
		t.Errorf("Expected wall height from settings, got %v", w.Height)
	}

	regions, err := s.BuildRegions(plan)
	if err != nil {
		t.Fatalf("Expected regions, got error: %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("Expected 1 region, got %d", len(regions))
	}
	r := regions[0]
	if r.RegionID() != "room" || r.TargetWallID() != "w1" {
		t.Errorf("Expected room targeting w1, got %s targeting %s", r.RegionID(), r.TargetWallID())
	}
	if len(plan.Regions()) != 1 {
		t.Errorf("Expected region registered once, got %d", len(plan.Regions()))
	}

	rc := s.Regions[0]
	lo, hi := rc.Heights(s.Height())
	if lo != 0 || hi != 3 {
		t.Errorf("Expected heights [0, 3], got [%v, %v]", lo, hi)
	}
	res, err := r.ExtrudeBody(lo, hi, rc.ExtrudeOptions())
	if err != nil {
		t.Fatalf("Expected extrusion, got error: %v", err)
	}
	if res.Status != engine.ExtrusionStatusFixed {
		t.Errorf("Expected imprinted extrusion to be fixed, got %s", res.Status)
	}
}

func TestBuildRegions_DuplicateID(t *testing.T) {
	_, s := loadStudio(t)
	s.Regions = append(s.Regions, s.Regions[0])

	plan, err := s.BuildPlan()
	if err != nil {
		t.Fatalf("Expected plan, got error: %v", err)
	}
	if _, err := s.BuildRegions(plan, region.WithID("room")); !engine.IsMalformed(err) {
		t.Errorf("Expected duplicate region error, got %v", err)
	}
}

func TestRegionConfig_CutCurves(t *testing.T) {
	rc := RegionConfig{Cuts: []SegmentConfig{{From: Point{2, -1}, To: Point{2, 4}}}}
	curves := rc.CutCurves(brep.NewTagAllocator(0))
	if len(curves) != 1 {
		t.Fatalf("Expected 1 cut curve, got %d", len(curves))
	}
	if got := curves[0].Length(); got != 5 {
		t.Errorf("Expected cut length 5, got %v", got)
	}
	if opts := (RegionConfig{}).ExtrudeOptions(); opts.Imprint != nil {
		t.Errorf("Expected no imprint, got %v", opts.Imprint)
	}
}

func TestFaceGroupConfig_Build(t *testing.T) {
	g := FaceGroupConfig{
		ID: "floor",
		Faces: [][]Point3{
			{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
			{{1, 0, 0}, {2, 0, 0}, {2, 1, 0}, {1, 1, 0}},
		},
	}
	cf, err := g.Build(brep.NewTagAllocator(0))
	if err != nil {
		t.Fatalf("Expected face group, got error: %v", err)
	}

	wires := continuous.New().Wires(cf)
	if len(wires) != 1 {
		t.Fatalf("Expected 1 wire, got %d", len(wires))
	}
	if !wires[0].IsClosed() || wires[0].Len() != 6 {
		t.Errorf("Expected closed wire of 6 co-edges, got closed=%v len=%d", wires[0].IsClosed(), wires[0].Len())
	}

	bad := FaceGroupConfig{ID: "bad", Faces: [][]Point3{{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}}}
	if _, err := bad.Build(brep.NewTagAllocator(0)); err == nil {
		t.Error("Expected error for a face with no area")
	}
}
