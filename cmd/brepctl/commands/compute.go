package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/brepcore/pkg/config"
	"github.com/openfroyo/brepcore/pkg/constraint"
	"github.com/openfroyo/brepcore/pkg/engine"
	"github.com/openfroyo/brepcore/pkg/stores"
	"github.com/openfroyo/brepcore/pkg/telemetry"
)

const watchDelay = 200 * time.Millisecond

type computeOptions struct {
	watch    bool
	persist  bool
	dot      bool
	set      []string
	parallel int
}

// computeResult is what compute prints.
type computeResult struct {
	Scenario  string             `json:"scenario"`
	Evaluated []string           `json:"evaluated"`
	Changed   []string           `json:"changed,omitempty"`
	States    map[string]float64 `json:"states"`
	Duration  time.Duration      `json:"duration"`
}

func newComputeCommand() *cobra.Command {
	opts := &computeOptions{}

	cmd := &cobra.Command{
		Use:   "compute <scenario>",
		Short: "Evaluate the constraint chains of a scenario",
		Long: `Evaluate every position constraint of a scenario in dependency order and
print the resulting state values.

With --set, the listed states are overridden after the first pass and only
the constraints downstream of them are recomputed.`,
		Example: `  # Compute all states
  brepctl compute studio.cue

  # Change a state and propagate
  brepctl compute studio.cue --set width=5

  # Recompute whenever the file changes
  brepctl compute studio.cue --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			err := computeOnce(ctx, path, opts)
			if !opts.watch {
				return err
			}
			if err != nil {
				log.Error().Err(err).Msg("Compute failed")
			}
			return watchFile(ctx, path, func() {
				if err := computeOnce(ctx, path, opts); err != nil {
					log.Error().Err(err).Msg("Compute failed")
				}
			})
		},
	}

	cmd.Flags().BoolVar(&opts.watch, "watch", false, "recompute when the scenario file changes")
	cmd.Flags().BoolVar(&opts.persist, "persist", false, "record states, constraints and the run in the store")
	cmd.Flags().BoolVar(&opts.dot, "dot", false, "print the dependency graph in Graphviz format")
	cmd.Flags().StringSliceVar(&opts.set, "set", nil, "override a state after the first pass (id=value)")
	cmd.Flags().IntVar(&opts.parallel, "parallel", 1, "maximum constraints evaluated at once within a level")

	return cmd
}

// parseAssignments parses id=value pairs.
func parseAssignments(pairs []string) (map[string]float64, []string, error) {
	values := make(map[string]float64, len(pairs))
	order := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		id, raw, ok := strings.Cut(pair, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, nil, fmt.Errorf("invalid assignment %q, want id=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid value for %s: %w", id, err)
		}
		if _, seen := values[id]; !seen {
			order = append(order, id)
		}
		values[id] = v
	}
	return values, order, nil
}

func computeOnce(ctx context.Context, path string, opts *computeOptions) error {
	overrides, changed, err := parseAssignments(opts.set)
	if err != nil {
		return err
	}

	s, err := loadScenario(ctx, path)
	if err != nil {
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

	prop, err := engine.NewPropagator(config.Computables(cs),
		engine.WithPropagatorLogger(s.klog.Component("propagator").Zerolog()),
		engine.WithComputeObserver(s.tel.ComputeObserver()),
		engine.WithParallelism(opts.parallel),
	)
	if err != nil {
		s.tel.RecordError(err)
		return err
	}
	if opts.dot {
		fmt.Println(prop.DOT())
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

	spanCtx, span := s.tel.Tracer.StartPropagationSpan(ctx, changed)
	timer := telemetry.NewTimer()
	evaluated, runErr := prop.Run(spanCtx)
	if runErr == nil && len(changed) > 0 {
		for _, id := range changed {
			state, ok := states[id]
			if !ok {
				runErr = engine.NotFound("state", id).WithOperation("compute")
				break
			}
			state.Value = overrides[id]
		}
		if runErr == nil {
			var again []string
			again, runErr = prop.Propagate(spanCtx, changed...)
			evaluated = append(evaluated, again...)
		}
	}
	duration := timer.Duration()
	s.tel.Metrics.RecordPropagation(duration)
	if runErr != nil {
		telemetry.RecordError(span, runErr)
		s.tel.RecordError(runErr)
	} else {
		telemetry.RecordSuccess(span)
	}
	span.End()

	if st != nil {
		if err := recordCompute(ctx, st, scenarioID, states, cs, &stores.Run{
			ScenarioID: scenarioID,
			Changed:    changed,
			Evaluated:  evaluated,
			Duration:   duration,
		}, runErr); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}

	result := computeResult{
		Scenario:  sc.Name,
		Evaluated: evaluated,
		Changed:   changed,
		States:    make(map[string]float64, len(states)),
		Duration:  duration,
	}
	for id, state := range states {
		result.States[id] = state.Value
	}

	s.logger.Info().
		Int("evaluated", len(evaluated)).
		Dur("duration", duration).
		Msg("Constraints computed")

	if jsonOutput {
		return printJSON(result)
	}
	for _, id := range sortedKeys(result.States) {
		fmt.Printf("%-20s %g\n", id, result.States[id])
	}
	return nil
}

// recordCompute stores the outcome of a compute run.
func recordCompute(ctx context.Context, st *stores.SQLiteStore, scenarioID string, states constraint.StateMap, cs []constraint.Interface, run *stores.Run, runErr error) error {
	values := make(map[string]float64, len(states))
	for id, state := range states {
		values[id] = state.Value
	}
	if err := st.SaveStates(ctx, scenarioID, values); err != nil {
		return err
	}

	for _, c := range cs {
		data, err := c.Dump()
		if err != nil {
			return fmt.Errorf("failed to dump constraint %s: %w", c.NodeID(), err)
		}
		rec := &stores.ConstraintRecord{ScenarioID: scenarioID, Status: c.Status(), Data: *data}
		if err := st.SaveConstraint(ctx, rec); err != nil {
			return err
		}
	}

	if runErr != nil {
		msg := runErr.Error()
		run.Error = &msg
	}
	return st.CreateRun(ctx, run)
}

// watchFile calls fn after every burst of writes to path until ctx is done.
// The directory is watched so editors that replace the file are seen.
func watchFile(ctx context.Context, path string, fn func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	dir := abs
	if !info.IsDir() {
		dir = filepath.Dir(abs)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	log.Info().Str("path", path).Msg("Watching for changes")

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !info.IsDir() && filepath.Clean(event.Name) != abs {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDelay, fn)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}
