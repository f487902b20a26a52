package config

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestStarlarkEvaluator_Evaluate(t *testing.T) {
	evaluator := NewStarlarkEvaluator(5 * time.Second)
	ctx := context.Background()

	tests := []struct {
		name      string
		script    string
		input     map[string]interface{}
		checkFunc func(*testing.T, *StarlarkResult)
		wantErr   bool
	}{
		{
			name:   "arithmetic on inputs",
			script: `value = width * 2 + offset`,
			input:  map[string]interface{}{"width": 1.5, "offset": 1},
			checkFunc: func(t *testing.T, sr *StarlarkResult) {
				if sr.Output["value"] != 4.0 {
					t.Errorf("expected value=4, got %v", sr.Output["value"])
				}
			},
		},
		{
			name:   "math module",
			script: `value = math.sqrt(16.0)`,
			checkFunc: func(t *testing.T, sr *StarlarkResult) {
				if sr.Output["value"] != 4.0 {
					t.Errorf("expected value=4, got %v", sr.Output["value"])
				}
			},
		},
		{
			name:   "clamp",
			script: "lo = clamp(-1.0, 0.0, 2.0)\nhi = clamp(9.0, 0.0, 2.0)",
			checkFunc: func(t *testing.T, sr *StarlarkResult) {
				if sr.Output["lo"] != 0.0 || sr.Output["hi"] != 2.0 {
					t.Errorf("expected lo=0 hi=2, got %v %v", sr.Output["lo"], sr.Output["hi"])
				}
			},
		},
		{
			name:    "clamp with inverted bounds",
			script:  `value = clamp(1.0, 2.0, 0.0)`,
			wantErr: true,
		},
		{
			name: "functions and private names are not outputs",
			script: `
def half(x):
    return x / 2

_tmp = 10
value = half(_tmp)
`,
			checkFunc: func(t *testing.T, sr *StarlarkResult) {
				if len(sr.Output) != 1 {
					t.Errorf("expected only value in output, got %v", sr.Output)
				}
				if v, _ := sr.Output["value"].(float64); math.Abs(v-5) > 1e-9 {
					t.Errorf("expected value=5, got %v", sr.Output["value"])
				}
			},
		},
		{
			name:   "struct and dict",
			script: `p = struct(x = 1, y = 2)` + "\n" + `value = {"x": p.x, "y": p.y}`,
			checkFunc: func(t *testing.T, sr *StarlarkResult) {
				m, ok := sr.Output["value"].(map[string]interface{})
				if !ok || m["x"] != int64(1) || m["y"] != int64(2) {
					t.Errorf("expected {x:1 y:2}, got %v", sr.Output["value"])
				}
			},
		},
		{
			name:    "syntax error",
			script:  `value = (`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := evaluator.Evaluate(ctx, tt.script, tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Evaluate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.checkFunc != nil {
				tt.checkFunc(t, result)
			}
		})
	}
}

func TestStarlarkEvaluator_Timeout(t *testing.T) {
	evaluator := NewStarlarkEvaluator(100 * time.Millisecond)

	script := `
def slow():
    total = 0
    for i in range(100000000):
        total = total + i
    return total

value = slow()
`
	result, err := evaluator.Evaluate(context.Background(), script, nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if result == nil || result.Error == "" {
		t.Error("expected timeout error in result")
	}
}

func TestStarlarkEvaluator_PrintSuppressed(t *testing.T) {
	evaluator := NewStarlarkEvaluator(0)

	result, err := evaluator.Evaluate(context.Background(), "print(\"noise\")\nvalue = 1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output["value"] != int64(1) {
		t.Errorf("expected value=1, got %v", result.Output["value"])
	}
}
