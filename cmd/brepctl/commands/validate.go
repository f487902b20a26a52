package commands

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/brepcore/pkg/config"
	"github.com/openfroyo/brepcore/pkg/engine"
	"github.com/openfroyo/brepcore/pkg/policy"
)

// validateReport is what validate prints.
type validateReport struct {
	Scenario    string                   `json:"scenario"`
	States      int                      `json:"states"`
	Constraints int                      `json:"constraints"`
	Levels      int                      `json:"levels"`
	Walls       int                      `json:"walls"`
	Regions     int                      `json:"regions"`
	FaceGroups  int                      `json:"face_groups"`
	Findings    []policy.PolicyViolation `json:"findings,omitempty"`
}

func newValidateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <scenario>",
		Short: "Validate a scenario without extruding anything",
		Long: `Validate a CUE or YAML scenario.

This command checks:
  - Syntax and schema conformance (CUE schemas, struct rules)
  - Cross-references between constraints, states, walls and regions
  - State scripts
  - Constraint dependency cycles
  - Constraint policies (a constraint must not write its own input)`,
		Example: `  brepctl validate studio.cue

  # Treat policy warnings as errors
  brepctl validate --strict studio.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := loadScenario(ctx, args[0])
			if err != nil {
				printKernelErrors(err)
				return err
			}
			sc := s.scenario

			states, err := sc.BuildStates(ctx, s.loader.Evaluator())
			if err != nil {
				return err
			}
			cs, err := sc.BuildConstraints(states)
			if err != nil {
				return err
			}
			prop, err := engine.NewPropagator(config.Computables(cs))
			if err != nil {
				return err
			}
			plan, err := sc.BuildPlan()
			if err != nil {
				return err
			}
			if _, err := sc.BuildRegions(plan); err != nil {
				return err
			}

			eng, err := policy.NewEngine(s.klog.Component("policy").Zerolog())
			if err != nil {
				return err
			}

			report := validateReport{
				Scenario:    sc.Name,
				States:      len(states),
				Constraints: len(cs),
				Levels:      len(prop.Graph().Levels),
				Walls:       len(sc.Walls),
				Regions:     len(sc.Regions),
				FaceGroups:  len(sc.FaceGroups),
			}
			blocked := false
			for _, c := range cs {
				data, err := c.Dump()
				if err != nil {
					return err
				}
				result, err := eng.EvaluateConstraint(ctx, data, &policy.PolicyContext{
					Scenario:  sc.Name,
					Operation: "validate",
				})
				if err != nil {
					return err
				}
				report.Findings = append(report.Findings, result.All()...)
				if !result.Allowed || (strict && len(result.Warnings) > 0) {
					blocked = true
				}
			}

			if jsonOutput {
				if err := printJSON(report); err != nil {
					return err
				}
			} else {
				fmt.Printf("%s: %d states, %d constraints in %d levels, %d walls, %d regions, %d face groups\n",
					report.Scenario, report.States, report.Constraints, report.Levels,
					report.Walls, report.Regions, report.FaceGroups)
				for _, f := range report.Findings {
					fmt.Printf("  %s %s [%s] %s\n", f.Severity, f.Resource, f.Rule, f.Message)
				}
			}

			if blocked {
				return fmt.Errorf("scenario %s failed constraint policies", sc.Name)
			}
			log.Info().Str("scenario", sc.Name).Msg("Scenario is valid")
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail on policy warnings too")

	return cmd
}

// printKernelErrors logs every classified error joined into err.
func printKernelErrors(err error) {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			printKernelErrors(e)
		}
		return
	}
	var ke *engine.KernelError
	if errors.As(err, &ke) {
		log.Error().
			Str("class", string(ke.Class)).
			Str("code", ke.Code).
			Str("resource", ke.Resource).
			Msg(ke.Message)
	}
}
