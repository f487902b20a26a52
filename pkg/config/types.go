package config

import (
	"time"

	"github.com/openfroyo/brepcore/pkg/constraint"
	"github.com/openfroyo/brepcore/pkg/geom"
)

// Scenario is a kernel input document: the states and constraints to
// compute and the plan geometry to build regions from.
type Scenario struct {
	// Name identifies the scenario in the store and in logs.
	Name string `json:"name" yaml:"name" validate:"required"`

	Settings    Settings              `json:"settings,omitempty" yaml:"settings,omitempty"`
	States      []StateConfig         `json:"states,omitempty" yaml:"states,omitempty" validate:"dive"`
	Constraints []constraint.InitData `json:"constraints,omitempty" yaml:"constraints,omitempty" validate:"dive"`
	Walls       []WallConfig          `json:"walls,omitempty" yaml:"walls,omitempty" validate:"dive"`
	Regions     []RegionConfig        `json:"regions,omitempty" yaml:"regions,omitempty" validate:"dive"`
	FaceGroups  []FaceGroupConfig     `json:"face_groups,omitempty" yaml:"face_groups,omitempty" validate:"dive"`
}

// Settings are scenario-wide knobs, overridable from the command line.
type Settings struct {
	LogLevel  string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=trace debug info warn error"`
	PolicyDir string `json:"policy_dir,omitempty" yaml:"policy_dir,omitempty"`
	StorePath string `json:"store_path,omitempty" yaml:"store_path,omitempty"`

	// DefaultHeight is the extrusion top used by regions without one.
	DefaultHeight float64 `json:"default_height,omitempty" yaml:"default_height,omitempty" validate:"gte=0"`
}

// StateConfig declares one numeric state. When Script is set, the value
// is whatever the Starlark script assigns to "value"; the script sees every
// state declared before it as a global.
type StateConfig struct {
	ID     string  `json:"id" yaml:"id" validate:"required"`
	Value  float64 `json:"value,omitempty" yaml:"value,omitempty"`
	Script string  `json:"script,omitempty" yaml:"script,omitempty"`
}

// Point is a plan point written as [x, y].
type Point [2]float64

// P converts p to a geometry point.
func (p Point) P() geom.Point2D {
	return geom.Pt2(p[0], p[1])
}

// Point3 is a model point written as [x, y, z].
type Point3 [3]float64

// P converts p to a geometry point.
func (p Point3) P() geom.Point3D {
	return geom.Pt3(p[0], p[1], p[2])
}

// WallConfig declares a wall by its axis.
type WallConfig struct {
	ID        string  `json:"id" yaml:"id" validate:"required"`
	From      Point   `json:"from" yaml:"from"`
	To        Point   `json:"to" yaml:"to"`
	Height    float64 `json:"height,omitempty" yaml:"height,omitempty" validate:"gte=0"`
	Thickness float64 `json:"thickness,omitempty" yaml:"thickness,omitempty" validate:"gte=0"`
}

// SegmentConfig is a plan line segment.
type SegmentConfig struct {
	From Point `json:"from" yaml:"from"`
	To   Point `json:"to" yaml:"to"`
}

// RegionConfig declares a region boundary. Walls[i] links the edge from
// Points[i] to Points[i+1]; an empty entry leaves it unlinked.
type RegionConfig struct {
	ID        string          `json:"id,omitempty" yaml:"id,omitempty"`
	Points    []Point         `json:"points" yaml:"points" validate:"min=3"`
	Walls     []string        `json:"walls" yaml:"walls"`
	MinHeight float64         `json:"min_height,omitempty" yaml:"min_height,omitempty"`
	MaxHeight float64         `json:"max_height,omitempty" yaml:"max_height,omitempty"`
	Imprint   []SegmentConfig `json:"imprint,omitempty" yaml:"imprint,omitempty"`

	// Remove lists walls whose faces are dropped after splitting along Cuts.
	Cuts   []SegmentConfig `json:"cuts,omitempty" yaml:"cuts,omitempty"`
	Remove []string        `json:"remove,omitempty" yaml:"remove,omitempty"`
}

// FaceGroupConfig declares a group of planar faces to stitch into wires.
type FaceGroupConfig struct {
	ID    string     `json:"id" yaml:"id" validate:"required"`
	Faces [][]Point3 `json:"faces" yaml:"faces" validate:"min=1,dive,min=3"`
}

// ParsedConfig is the result of parsing CUE sources.
type ParsedConfig struct {
	Scenario    Scenario          `json:"scenario"`
	SourceFiles []string          `json:"source_files"`
	ParsedAt    time.Time         `json:"parsed_at"`
	Errors      []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a validation error with location information.
type ValidationError struct {
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`

	// Severity is the error severity (error, warning, info).
	Severity string `json:"severity" validate:"required,oneof=error warning info"`
}

// StarlarkResult represents the result of Starlark execution.
type StarlarkResult struct {
	Output        map[string]interface{} `json:"output,omitempty"`
	ExecutionTime time.Duration          `json:"execution_time"`
	Error         string                 `json:"error,omitempty"`
}
