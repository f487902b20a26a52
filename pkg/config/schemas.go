package config

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// SchemaRegistry manages CUE schemas for validation. Each registered schema
// is a closed CUE definition; data is valid when it unifies with it.
type SchemaRegistry struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
	mu      sync.RWMutex
}

// NewSchemaRegistry creates a new schema registry with built-in schemas.
func NewSchemaRegistry() *SchemaRegistry {
	sr := &SchemaRegistry{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}
	if err := sr.registerBuiltInSchemas(); err != nil {
		panic(err)
	}
	return sr
}

// builtinDefinitions maps schema names to their definition in
// builtinSchemas.
var builtinDefinitions = map[string]string{
	"scenario":   "#Scenario",
	"state":      "#State",
	"constraint": "#Constraint",
	"wall":       "#Wall",
	"region":     "#Region",
	"face_group": "#FaceGroup",
}

func (sr *SchemaRegistry) registerBuiltInSchemas() error {
	base := sr.ctx.CompileString(builtinSchemas, cue.Filename("builtin.cue"))
	if err := base.Err(); err != nil {
		return fmt.Errorf("failed to compile built-in schemas: %w", err)
	}
	for name, def := range builtinDefinitions {
		sr.schemas[name] = base.LookupPath(cue.ParsePath(def))
	}
	return nil
}

// RegisterSchema compiles schema and registers its definition def under
// name.
func (sr *SchemaRegistry) RegisterSchema(name, def, schema string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	val := sr.ctx.CompileString(schema, cue.Filename(name+".cue"))
	if err := val.Err(); err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	defVal := val.LookupPath(cue.ParsePath(def))
	if !defVal.Exists() {
		return fmt.Errorf("schema %s has no definition %s", name, def)
	}

	sr.schemas[name] = defVal
	return nil
}

// GetSchema retrieves a schema by name.
func (sr *SchemaRegistry) GetSchema(name string) (cue.Value, bool) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	val, ok := sr.schemas[name]
	return val, ok
}

// ValidateAgainstSchema validates data against a named schema.
func (sr *SchemaRegistry) ValidateAgainstSchema(ctx context.Context, schemaName string, data interface{}) error {
	schema, ok := sr.GetSchema(schemaName)
	if !ok {
		return fmt.Errorf("schema %s not found", schemaName)
	}

	sr.mu.Lock()
	dataVal := sr.ctx.Encode(data)
	sr.mu.Unlock()
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	unified := schema.Unify(dataVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

// ListSchemas returns all registered schema names, sorted.
func (sr *SchemaRegistry) ListSchemas() []string {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	names := make([]string, 0, len(sr.schemas))
	for name := range sr.schemas {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ValidateScenario validates a whole scenario document.
func (sr *SchemaRegistry) ValidateScenario(ctx context.Context, s *Scenario) error {
	return sr.ValidateAgainstSchema(ctx, "scenario", s)
}

const builtinSchemas = `
#Method: "add" | "sub" | "mul" | "div" |
	"result_add" | "result_sub" | "result_mul" | "result_div" |
	"nonnegative"

#ID: string & =~"^[A-Za-z0-9_.:-]+$"

#Point:  [number, number]
#Point3: [number, number, number]

#Segment: {
	from: #Point
	to:   #Point
}

#Settings: {
	log_level?:      "trace" | "debug" | "info" | "warn" | "error"
	policy_dir?:     string
	store_path?:     string
	default_height?: number & >=0
}

#State: {
	id:      #ID
	value?:  number
	script?: string
}

#Input: {
	method: #Method
	states: [#ID, ...#ID]
}

#Constraint: {
	id:       #ID
	localId?: string
	Class?:   "HSCore.Constraint.PositionConstraint" | "hsw.core.constraint.PositionConstraint"
	inputs:   [#Input, ...#Input]
	output:   #ID | [#ID, ...#ID]
}

#Wall: {
	id:         #ID
	from:       #Point
	to:         #Point
	height?:    number & >=0
	thickness?: number & >=0
}

#Region: {
	id?:         #ID
	points:      [#Point, #Point, #Point, ...#Point]
	walls:       [...string]
	min_height?: number
	max_height?: number
	imprint?:    [...#Segment]
	cuts?:       [...#Segment]
	remove?:     [...string]
}

#FaceGroup: {
	id:    #ID
	faces: [...[#Point3, #Point3, #Point3, ...#Point3]]
}

#Scenario: {
	name:         string & != ""
	settings?:    #Settings
	states?:      [...#State]
	constraints?: [...#Constraint]
	walls?:       [...#Wall]
	regions?:     [...#Region]
	face_groups?: [...#FaceGroup]
}
`
