package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
)

// CUEParser parses scenario documents written in CUE.
type CUEParser struct {
	ctx            *cue.Context
	schemaRegistry *SchemaRegistry
}

// NewCUEParser creates a new CUE parser.
func NewCUEParser() *CUEParser {
	sr := NewSchemaRegistry()
	return &CUEParser{
		ctx:            sr.ctx,
		schemaRegistry: sr,
	}
}

// Parse parses CUE files or package directories and unifies them into one
// scenario. Problems in the sources are reported in ParsedConfig.Errors;
// the returned error is reserved for I/O failures.
func (cp *CUEParser) Parse(ctx context.Context, sources []string) (*ParsedConfig, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources provided")
	}

	var (
		cueValue    cue.Value
		sourceFiles []string
		parseErrors []ValidationError
	)
	for _, source := range sources {
		info, err := os.Stat(source)
		if err != nil {
			return nil, fmt.Errorf("failed to stat source %s: %w", source, err)
		}

		var (
			val   cue.Value
			files []string
			errs  []ValidationError
		)
		if info.IsDir() {
			val, files, errs = cp.loadDirectory(source)
		} else {
			val, errs = cp.loadFile(source)
			files = []string{source}
		}
		parseErrors = append(parseErrors, errs...)
		sourceFiles = append(sourceFiles, files...)
		if val.Exists() {
			if cueValue.Exists() {
				cueValue = cueValue.Unify(val)
			} else {
				cueValue = val
			}
		}
	}

	if len(parseErrors) > 0 {
		return &ParsedConfig{SourceFiles: sourceFiles, ParsedAt: time.Now(), Errors: parseErrors}, nil
	}
	if err := cueValue.Err(); err != nil {
		return &ParsedConfig{SourceFiles: sourceFiles, ParsedAt: time.Now(), Errors: cp.convertCUEErrors(err)}, nil
	}

	return cp.extractScenario(cueValue, sourceFiles), nil
}

// ParseInline parses inline CUE content.
func (cp *CUEParser) ParseInline(ctx context.Context, content string) (*ParsedConfig, error) {
	val := cp.ctx.CompileString(content, cue.Filename("inline"))
	if err := val.Err(); err != nil {
		return &ParsedConfig{
			SourceFiles: []string{"inline"},
			ParsedAt:    time.Now(),
			Errors:      cp.convertCUEErrors(err),
		}, nil
	}
	return cp.extractScenario(val, []string{"inline"}), nil
}

// loadDirectory loads a directory as a CUE package.
func (cp *CUEParser) loadDirectory(dir string) (cue.Value, []string, []ValidationError) {
	buildInstances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(buildInstances) == 0 {
		return cue.Value{}, nil, []ValidationError{{
			File:     dir,
			Message:  "no CUE files found",
			Severity: "error",
		}}
	}

	inst := buildInstances[0]
	if inst.Err != nil {
		return cue.Value{}, nil, cp.convertCUEErrors(inst.Err)
	}

	val := cp.ctx.BuildInstance(inst)
	if err := val.Err(); err != nil {
		return cue.Value{}, nil, cp.convertCUEErrors(err)
	}

	var files []string
	for _, file := range inst.Files {
		if file.Filename != "" {
			files = append(files, file.Filename)
		}
	}
	return val, files, nil
}

// loadFile loads a single CUE file.
func (cp *CUEParser) loadFile(path string) (cue.Value, []ValidationError) {
	content, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, []ValidationError{{
			File:     path,
			Message:  fmt.Sprintf("failed to read file: %v", err),
			Severity: "error",
		}}
	}

	val := cp.ctx.CompileString(string(content), cue.Filename(path))
	if err := val.Err(); err != nil {
		return cue.Value{}, cp.convertCUEErrors(err)
	}
	return val, nil
}

// extractScenario checks val against the scenario schema and decodes it.
func (cp *CUEParser) extractScenario(val cue.Value, sourceFiles []string) *ParsedConfig {
	parsed := &ParsedConfig{SourceFiles: sourceFiles, ParsedAt: time.Now()}

	schema, _ := cp.schemaRegistry.GetSchema("scenario")
	checked := schema.Unify(val)
	if err := checked.Validate(cue.Concrete(true)); err != nil {
		parsed.Errors = cp.convertCUEErrors(err)
		return parsed
	}

	if err := checked.Decode(&parsed.Scenario); err != nil {
		parsed.Errors = append(parsed.Errors, ValidationError{
			Message:  fmt.Sprintf("failed to decode scenario: %v", err),
			Severity: "error",
		})
	}
	return parsed
}

// convertCUEErrors converts CUE errors to ValidationError slice.
func (cp *CUEParser) convertCUEErrors(err error) []ValidationError {
	var validationErrors []ValidationError
	for _, e := range errors.Errors(err) {
		var (
			file         string
			line, column int
		)
		if pos := errors.Positions(e); len(pos) > 0 {
			file = pos[0].Filename()
			line = pos[0].Line()
			column = pos[0].Column()
		}
		validationErrors = append(validationErrors, ValidationError{
			File:     file,
			Line:     line,
			Column:   column,
			Path:     pathOf(e),
			Message:  errors.Details(e, nil),
			Severity: "error",
		})
	}
	return validationErrors
}

func pathOf(e errors.Error) string {
	return strings.Join(e.Path(), ".")
}

// GetSchemaRegistry returns the schema registry.
func (cp *CUEParser) GetSchemaRegistry() *SchemaRegistry {
	return cp.schemaRegistry
}

// ExportJSON exports a scenario as indented JSON.
func (cp *CUEParser) ExportJSON(s *Scenario) ([]byte, error) {
	val := cp.ctx.Encode(s)
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("failed to encode scenario: %w", err)
	}
	var data interface{}
	if err := val.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return json.MarshalIndent(data, "", "  ")
}
