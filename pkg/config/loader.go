package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/openfroyo/brepcore/pkg/engine"
)

// Loader reads and validates scenario documents. YAML and JSON files are
// decoded strictly; CUE files and directories go through the CUE parser.
type Loader struct {
	parser    *CUEParser
	validate  *validator.Validate
	evaluator *StarlarkEvaluator
}

// NewLoader creates a loader with the built-in schemas.
func NewLoader() *Loader {
	return &Loader{
		parser:    NewCUEParser(),
		validate:  validator.New(),
		evaluator: NewStarlarkEvaluator(0),
	}
}

// Evaluator returns the Starlark evaluator used for state scripts.
func (l *Loader) Evaluator() *StarlarkEvaluator {
	return l.evaluator
}

// Load reads the scenario at path and validates it.
func (l *Loader) Load(ctx context.Context, path string) (*Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenario %s: %w", path, err)
	}
	if info.IsDir() || strings.EqualFold(filepath.Ext(path), ".cue") {
		parsed, err := l.parser.Parse(ctx, []string{path})
		if err != nil {
			return nil, err
		}
		return l.fromParsed(ctx, parsed)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}
	s, err := l.LoadYAML(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// LoadYAML decodes a YAML (or JSON) scenario and validates it. Unknown
// fields are rejected.
func (l *Loader) LoadYAML(ctx context.Context, data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, engine.NewMalformedError("failed to decode scenario", err).
			WithCode(engine.ErrCodeValidation).WithOperation("load")
	}
	if err := l.Validate(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadCUE parses inline CUE content and validates the result.
func (l *Loader) LoadCUE(ctx context.Context, content string) (*Scenario, error) {
	parsed, err := l.parser.ParseInline(ctx, content)
	if err != nil {
		return nil, err
	}
	return l.fromParsed(ctx, parsed)
}

func (l *Loader) fromParsed(ctx context.Context, parsed *ParsedConfig) (*Scenario, error) {
	if len(parsed.Errors) > 0 {
		msgs := make([]string, len(parsed.Errors))
		for i, e := range parsed.Errors {
			msgs[i] = e.String()
		}
		return nil, engine.NewMalformedError("scenario failed schema validation", nil).
			WithCode(engine.ErrCodeValidation).
			WithOperation("load").
			WithDetail("errors", msgs)
	}
	s := parsed.Scenario
	if err := l.Validate(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks struct constraints, the CUE schema and cross references:
// unique IDs, region wall counts and links, and constraint state references.
func (l *Loader) Validate(ctx context.Context, s *Scenario) error {
	invalid := func(msg string, err error) error {
		return engine.NewMalformedError(msg, err).WithCode(engine.ErrCodeValidation).WithOperation("validate")
	}

	if err := l.validate.Struct(s); err != nil {
		return invalid("scenario failed validation", err)
	}
	if err := l.parser.GetSchemaRegistry().ValidateScenario(ctx, s); err != nil {
		return invalid("scenario failed schema validation", err)
	}

	var errs []error
	states := make(map[string]bool, len(s.States))
	for _, st := range s.States {
		if states[st.ID] {
			errs = append(errs, invalid(fmt.Sprintf("duplicate state %q", st.ID), nil))
		}
		states[st.ID] = true
	}

	seen := make(map[string]bool, len(s.Constraints))
	for _, c := range s.Constraints {
		if seen[c.ID] {
			errs = append(errs, invalid(fmt.Sprintf("duplicate constraint %q", c.ID), nil))
		}
		seen[c.ID] = true
		for _, in := range c.Inputs {
			if err := in.Method.Validate(); err != nil {
				errs = append(errs, err)
			}
			for _, id := range in.States {
				if !states[id] {
					errs = append(errs, engine.NotFound("state", id).WithResource(c.ID).WithOperation("validate"))
				}
			}
		}
		for _, id := range c.Output {
			if !states[id] {
				errs = append(errs, engine.NotFound("state", id).WithResource(c.ID).WithOperation("validate"))
			}
		}
	}

	walls := make(map[string]bool, len(s.Walls))
	for _, w := range s.Walls {
		if walls[w.ID] {
			errs = append(errs, invalid(fmt.Sprintf("duplicate wall %q", w.ID), nil))
		}
		walls[w.ID] = true
	}
	for i, rc := range s.Regions {
		name := rc.ID
		if name == "" {
			name = fmt.Sprintf("regions[%d]", i)
		}
		if len(rc.Walls) != len(rc.Points) {
			errs = append(errs, invalid(
				fmt.Sprintf("region %s has %d wall links for %d points", name, len(rc.Walls), len(rc.Points)), nil))
		}
		for _, id := range rc.Walls {
			if id != "" && !walls[id] {
				errs = append(errs, engine.NotFound("wall", id).WithResource(name).WithOperation("validate"))
			}
		}
		if rc.MaxHeight != 0 && rc.MaxHeight <= rc.MinHeight {
			errs = append(errs, invalid(fmt.Sprintf("region %s has an empty height range", name), nil))
		}
	}

	return errors.Join(errs...)
}

// String formats the error with its location.
func (e ValidationError) String() string {
	var loc string
	switch {
	case e.File != "" && e.Line > 0:
		loc = fmt.Sprintf("%s:%d:%d: ", e.File, e.Line, e.Column)
	case e.Path != "":
		loc = e.Path + ": "
	}
	return loc + e.Message
}
