package commands

import (
	"context"
	"fmt"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openfroyo/brepcore/pkg/config"
	"github.com/openfroyo/brepcore/pkg/engine"
	"github.com/openfroyo/brepcore/pkg/floorplan"
	"github.com/openfroyo/brepcore/pkg/policy"
	"github.com/openfroyo/brepcore/pkg/region"
	"github.com/openfroyo/brepcore/pkg/stores"
	"github.com/openfroyo/brepcore/pkg/telemetry"
)

type regionOptions struct {
	policies   []string
	persist    bool
	only       string
	allowFails bool
}

// regionOutcome is one region after extrusion, cuts and policy checks.
type regionOutcome struct {
	Report  region.Report        `json:"report"`
	Splits  int                  `json:"splits"`
	Error   string               `json:"error,omitempty"`
	Allowed bool                 `json:"allowed"`
	Policy  *policy.PolicyResult `json:"policy,omitempty"`
}

func newRegionCommand() *cobra.Command {
	opts := &regionOptions{}

	cmd := &cobra.Command{
		Use:   "region <scenario>",
		Short: "Extrude the wall regions of a scenario and check them",
		Long: `Build the plan walls and wall regions of a scenario, extrude every region
between its heights, apply its cuts and evaluate the region policies on the
result.

Built-in policies always run; --policy adds .rego files, JSON policies or
directories of them.`,
		Example: `  # Extrude and check all regions
  brepctl region studio.cue

  # Only one region, with extra policies, recording the reports
  brepctl region studio.cue --only room --policy ./policies --persist`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegions(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.policies, "policy", nil, "policy file or directory (repeatable)")
	cmd.Flags().BoolVar(&opts.persist, "persist", false, "record region reports and events in the store")
	cmd.Flags().StringVar(&opts.only, "only", "", "process only the region with this ID")
	cmd.Flags().BoolVar(&opts.allowFails, "allow-violations", false, "exit successfully even when a policy blocks a region")

	return cmd
}

func runRegions(ctx context.Context, path string, opts *regionOptions) error {
	s, err := loadScenario(ctx, path)
	if err != nil {
		return err
	}
	sc := s.scenario

	eng, err := policy.NewEngine(s.klog.Component("policy").Zerolog())
	if err != nil {
		return err
	}
	paths := slices.Clone(opts.policies)
	if sc.Settings.PolicyDir != "" {
		paths = append(paths, sc.Settings.PolicyDir)
	}
	if len(paths) > 0 {
		if err := eng.LoadPolicies(ctx, paths); err != nil {
			return err
		}
	}

	var st *stores.SQLiteStore
	var scenarioID string
	if opts.persist {
		st, scenarioID, err = s.persistScenario(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
	}

	plan, err := sc.BuildPlan(floorplan.WithLogger(s.klog.Component("floorplan").Zerolog()))
	if err != nil {
		return err
	}
	regions, err := sc.BuildRegions(plan, region.WithRegionLogger(s.regionLogger))
	if err != nil {
		s.tel.RecordError(err)
		return err
	}

	var outcomes []regionOutcome
	var results []*policy.PolicyResult
	for i, r := range regions {
		if opts.only != "" && r.ID != opts.only {
			continue
		}
		_ = s.tel.Events.PublishRegionCreated(r.ID, r.LinkWallIDs())

		out, err := processRegion(ctx, s, eng, plan, r, sc.Regions[i])
		if err != nil {
			return err
		}
		outcomes = append(outcomes, out)
		results = append(results, out.Policy)

		if st != nil {
			rec := &stores.RegionRecord{
				ScenarioID: scenarioID,
				Allowed:    out.Allowed,
				Violations: len(out.Policy.Violations),
				Report:     out.Report,
			}
			if err := st.SaveRegionReport(ctx, rec); err != nil {
				return err
			}
		}
	}
	if opts.only != "" && len(outcomes) == 0 {
		return engine.NotFound("region", opts.only)
	}

	if st != nil {
		stored, err := st.ListRegionReports(ctx, scenarioID)
		if err != nil {
			return err
		}
		s.tel.Metrics.SetRegionsStored(float64(len(stored)))
	}

	summary := policy.Summarize(results)
	if jsonOutput {
		if err := printJSON(map[string]interface{}{
			"scenario": sc.Name,
			"regions":  outcomes,
			"summary":  summary,
		}); err != nil {
			return err
		}
	} else {
		printRegions(outcomes)
	}

	if summary.Blocked > 0 && !opts.allowFails {
		return fmt.Errorf("%d of %d regions blocked by policy", summary.Blocked, summary.TotalChecks)
	}
	return nil
}

// processRegion extrudes r, applies the configured cuts and evaluates the
// policies on the final report. Kernel errors end up in the outcome; only
// policy evaluation failures are returned.
func processRegion(ctx context.Context, s *session, eng *policy.Engine, plan *floorplan.Plan, r *region.WallRegion, rc config.RegionConfig) (regionOutcome, error) {
	out := regionOutcome{}
	tel := s.tel
	logger := s.regionLogger(r.ID)

	spanCtx, span := tel.Tracer.StartRegionSpan(ctx, r.ID, "extrude")
	defer span.End()

	lo, hi := rc.Heights(s.scenario.Height())
	res, err := r.ExtrudeBody(lo, hi, rc.ExtrudeOptions())
	tel.Metrics.RecordRegionExtruded(string(res.Status))
	if len(rc.Imprint) > 0 && err == nil {
		tel.Metrics.RecordSplitFix(res.Status == engine.ExtrusionStatusFixed)
	}
	_ = tel.Events.PublishRegionExtruded(r.ID, string(res.Status), res.Faces)

	if err != nil {
		tel.RecordError(err)
		telemetry.RecordError(span, err)
		out.Error = err.Error()
		logger.Warn().Err(err).Msg("Extrusion failed")
	} else {
		telemetry.AddRegionEvent(span, r.ID, "extruded", string(res.Status))
		for _, curve := range rc.CutCurves(plan.Tags()) {
			for _, topo := range slices.Clone(r.TopoFaces) {
				split, err := r.SplitFaceByCurve(topo, curve, rc.Remove)
				tel.Metrics.RecordFaceSplit(split, err)
				if err != nil {
					tel.RecordError(err)
					logger.Warn().Err(err).Str("face", topo.Face.Tag).Msg("Face split failed")
					continue
				}
				if split {
					out.Splits++
					_ = tel.Events.PublishRegionSplit(r.ID, topo.Face.Tag, rc.Remove)
				}
			}
		}
		telemetry.RecordSuccess(span)
	}

	out.Report = r.Report()
	result, err := eng.EvaluateRegion(spanCtx, out.Report, &policy.PolicyContext{
		Scenario:  s.scenario.Name,
		Operation: "extrude",
	})
	if err != nil {
		return out, err
	}
	out.Policy = result
	out.Allowed = result.Allowed

	for _, v := range result.Violations {
		tel.Metrics.RecordPolicyViolation(v.Rule)
		_ = tel.Events.PublishPolicyViolation(v.Resource, v.Rule, v.Message)
	}
	for _, w := range result.Warnings {
		logger.Warn().Str("rule", w.Rule).Msg(w.Message)
	}
	return out, nil
}

func printRegions(outcomes []regionOutcome) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REGION\tSTATUS\tFACES\tAUX\tSPLITS\tAREA\tPOLICY")
	for _, o := range outcomes {
		verdict := "ok"
		switch {
		case !o.Allowed:
			verdict = fmt.Sprintf("blocked (%d)", len(o.Policy.Violations))
		case len(o.Policy.Warnings) > 0:
			verdict = fmt.Sprintf("warnings (%d)", len(o.Policy.Warnings))
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.3f\t%s\n",
			o.Report.ID, o.Report.Status, o.Report.Faces, o.Report.AuxFaces, o.Splits, o.Report.Area, verdict)
	}
	_ = w.Flush()

	for _, o := range outcomes {
		if o.Error != "" {
			fmt.Printf("%s: %s\n", o.Report.ID, o.Error)
		}
		for _, v := range o.Policy.Violations {
			fmt.Printf("%s: [%s] %s\n", o.Report.ID, v.Rule, v.Message)
		}
	}
}
