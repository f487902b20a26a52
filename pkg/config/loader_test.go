package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openfroyo/brepcore/pkg/engine"
)

const studioCUE = `
name: "studio"
settings: default_height: 3
states: [
	{id: "width", value: 4},
	{id: "half", script: "value = width / 2"},
	{id: "x"},
]
constraints: [{
	id: "c1"
	inputs: [{method: "add", states: ["half"]}, {method: "mul", states: ["half"]}]
	output: "x"
}]
walls: [
	{id: "w1", from: [0, 0], to: [4, 0]},
	{id: "w2", from: [4, 0], to: [4, 3]},
]
regions: [{
	id:     "room"
	points: [[0, 0], [4, 0], [4, 3], [0, 3]]
	walls:  ["w1", "w2", "", ""]
	imprint: [{from: [2, 0], to: [2, 3]}]
}]
`

const studioYAML = `
name: studio
states:
  - id: a
    value: 1
  - id: b
    value: 2
  - id: out
constraints:
  - id: c1
    inputs:
      - method: add
        states: [a, b]
    output: [out]
walls:
  - id: w1
    from: [0, 0]
    to: [4, 0]
regions:
  - id: room
    points: [[0, 0], [4, 0], [4, 3], [0, 3]]
    walls: [w1, "", "", ""]
`

func TestLoader_LoadCUE(t *testing.T) {
	l := NewLoader()
	s, err := l.LoadCUE(context.Background(), studioCUE)
	if err != nil {
		t.Fatalf("Expected scenario, got error: %v", err)
	}

	if s.Name != "studio" {
		t.Errorf("Expected name studio, got %q", s.Name)
	}
	if len(s.States) != 3 || s.States[1].Script == "" {
		t.Errorf("Expected 3 states with a scripted second one, got %+v", s.States)
	}
	if len(s.Constraints) != 1 || len(s.Constraints[0].Output) != 1 || s.Constraints[0].Output[0] != "x" {
		t.Errorf("Expected scalar output to decode as [x], got %+v", s.Constraints)
	}
	if len(s.Regions) != 1 || len(s.Regions[0].Imprint) != 1 {
		t.Errorf("Expected one region with one imprint line, got %+v", s.Regions)
	}
	if s.Settings.DefaultHeight != 3 {
		t.Errorf("Expected default height 3, got %v", s.Settings.DefaultHeight)
	}
}

func TestLoader_LoadCUERejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "unknown method",
			content: `
name: "bad"
states: [{id: "a"}, {id: "b"}]
constraints: [{id: "c1", inputs: [{method: "pow", states: ["a"]}], output: "b"}]
`,
		},
		{
			name:    "unknown field",
			content: `name: "bad", colour: "red"`,
		},
		{
			name: "too few region points",
			content: `
name: "bad"
regions: [{points: [[0, 0], [1, 0]], walls: ["", ""]}]
`,
		},
		{
			name:    "empty name",
			content: `name: ""`,
		},
		{
			name:    "syntax error",
			content: `name: "bad`,
		},
	}

	l := NewLoader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.LoadCUE(context.Background(), tt.content)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !engine.IsMalformed(err) {
				t.Errorf("Expected malformed error, got %v", err)
			}
		})
	}
}

func TestLoader_LoadYAML(t *testing.T) {
	l := NewLoader()
	s, err := l.LoadYAML(context.Background(), []byte(studioYAML))
	if err != nil {
		t.Fatalf("Expected scenario, got error: %v", err)
	}
	if len(s.Constraints) != 1 || len(s.Constraints[0].Inputs[0].States) != 2 {
		t.Errorf("Expected one constraint over two states, got %+v", s.Constraints)
	}
	if s.Regions[0].Walls[0] != "w1" || s.Regions[0].Walls[1] != "" {
		t.Errorf("Expected wall links [w1 \"\" ...], got %v", s.Regions[0].Walls)
	}
}

func TestLoader_LoadYAMLUnknownField(t *testing.T) {
	l := NewLoader()
	_, err := l.LoadYAML(context.Background(), []byte("name: x\ncolour: red\n"))
	if err == nil || !engine.IsMalformed(err) {
		t.Errorf("Expected malformed error for unknown field, got %v", err)
	}
}

func TestLoader_ValidateCrossReferences(t *testing.T) {
	l := NewLoader()
	ctx := context.Background()

	t.Run("missing state", func(t *testing.T) {
		s, err := l.LoadYAML(ctx, []byte(studioYAML))
		if err != nil {
			t.Fatalf("Expected scenario, got error: %v", err)
		}
		s.Constraints[0].Inputs[0].States = []string{"a", "ghost"}
		err = l.Validate(ctx, s)
		if !engine.IsNotFound(err) {
			t.Errorf("Expected not-found error, got %v", err)
		}
	})

	t.Run("missing wall", func(t *testing.T) {
		s, _ := l.LoadYAML(ctx, []byte(studioYAML))
		s.Regions[0].Walls[2] = "w9"
		err := l.Validate(ctx, s)
		if !engine.IsNotFound(err) || !strings.Contains(err.Error(), "w9") {
			t.Errorf("Expected not-found error for w9, got %v", err)
		}
	})

	t.Run("wall count", func(t *testing.T) {
		s, _ := l.LoadYAML(ctx, []byte(studioYAML))
		s.Regions[0].Walls = s.Regions[0].Walls[:3]
		err := l.Validate(ctx, s)
		if err == nil || !strings.Contains(err.Error(), "3 wall links for 4 points") {
			t.Errorf("Expected wall count error, got %v", err)
		}
	})

	t.Run("duplicate state", func(t *testing.T) {
		s, _ := l.LoadYAML(ctx, []byte(studioYAML))
		s.States = append(s.States, StateConfig{ID: "a"})
		err := l.Validate(ctx, s)
		if err == nil || !strings.Contains(err.Error(), `duplicate state "a"`) {
			t.Errorf("Expected duplicate state error, got %v", err)
		}
	})

	t.Run("empty height range", func(t *testing.T) {
		s, _ := l.LoadYAML(ctx, []byte(studioYAML))
		s.Regions[0].MinHeight = 3
		s.Regions[0].MaxHeight = 1
		if err := l.Validate(ctx, s); err == nil {
			t.Error("Expected height range error, got nil")
		}
	})
}

func TestLoader_LoadFiles(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader()
	ctx := context.Background()

	yamlPath := filepath.Join(dir, "studio.yaml")
	if err := os.WriteFile(yamlPath, []byte(studioYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cueDir := filepath.Join(dir, "cue")
	if err := os.Mkdir(cueDir, 0o755); err != nil {
		t.Fatal(err)
	}
	cuePath := filepath.Join(cueDir, "studio.cue")
	if err := os.WriteFile(cuePath, []byte("package studio\n"+studioCUE), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{yamlPath, cuePath} {
		s, err := l.Load(ctx, path)
		if err != nil {
			t.Errorf("%s: expected scenario, got error: %v", path, err)
			continue
		}
		if s.Name != "studio" {
			t.Errorf("%s: expected name studio, got %q", path, s.Name)
		}
	}

	if _, err := l.Load(ctx, filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestValidationError_String(t *testing.T) {
	tests := []struct {
		err  ValidationError
		want string
	}{
		{ValidationError{File: "a.cue", Line: 3, Column: 7, Message: "boom"}, "a.cue:3:7: boom"},
		{ValidationError{Path: "regions.0.points", Message: "too short"}, "regions.0.points: too short"},
		{ValidationError{Message: "plain"}, "plain"},
	}
	for _, tt := range tests {
		if got := tt.err.String(); got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, got)
		}
	}
}
