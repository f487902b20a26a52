package commands

import (
	"context"
	"fmt"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/openfroyo/brepcore/pkg/stores"
)

func newStoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect the result store",
		Long: `Inspect what compute --persist and region --persist recorded: scenarios,
state values, region reports, propagation runs and kernel events.`,
	}

	cmd.AddCommand(newStoreScenariosCommand())
	cmd.AddCommand(newStoreStatesCommand())
	cmd.AddCommand(newStoreRegionsCommand())
	cmd.AddCommand(newStoreRunsCommand())
	cmd.AddCommand(newStoreEventsCommand())
	cmd.AddCommand(newStorePruneCommand())
	cmd.AddCommand(newStoreDeleteCommand())

	return cmd
}

// withStore opens the store named by --store for the duration of fn.
func withStore(ctx context.Context, fn func(st *stores.SQLiteStore) error) error {
	st, err := openStore(ctx, resolveStorePath(nil))
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

// scenarioID resolves a scenario name to its stored ID.
func scenarioID(ctx context.Context, st *stores.SQLiteStore, name string) (string, error) {
	sc, err := st.GetScenarioByName(ctx, name)
	if err != nil {
		return "", err
	}
	return sc.ID, nil
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

func newStoreScenariosCommand() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List stored scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withStore(ctx, func(st *stores.SQLiteStore) error {
				list, err := st.ListScenarios(ctx, limit, offset)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(list)
				}
				w := newTable()
				fmt.Fprintln(w, "NAME\tID\tSOURCE\tUPDATED")
				for _, sc := range list {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sc.Name, sc.ID, sc.Source, sc.UpdatedAt.Format(time.RFC3339))
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of scenarios")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of scenarios to skip")

	return cmd
}

func newStoreStatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "states <scenario-name>",
		Short: "Show the last computed state values of a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStore(ctx, func(st *stores.SQLiteStore) error {
				id, err := scenarioID(ctx, st, args[0])
				if err != nil {
					return err
				}
				values, err := st.GetStates(ctx, id)
				if err != nil {
					return err
				}
				constraints, err := st.ListConstraints(ctx, id)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(map[string]interface{}{
						"states":      values,
						"constraints": constraints,
					})
				}
				w := newTable()
				fmt.Fprintln(w, "STATE\tVALUE")
				for _, sid := range sortedKeys(values) {
					fmt.Fprintf(w, "%s\t%g\n", sid, values[sid])
				}
				fmt.Fprintln(w, "\nCONSTRAINT\tSTATUS\tOUTPUTS")
				for _, c := range constraints {
					fmt.Fprintf(w, "%s\t%s\t%v\n", c.ID, c.Status, c.Data.Outputs)
				}
				return w.Flush()
			})
		},
	}
}

func newStoreRegionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "regions <scenario-name>",
		Short: "Show the stored region reports of a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStore(ctx, func(st *stores.SQLiteStore) error {
				id, err := scenarioID(ctx, st, args[0])
				if err != nil {
					return err
				}
				list, err := st.ListRegionReports(ctx, id)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(list)
				}
				w := newTable()
				fmt.Fprintln(w, "REGION\tSTATUS\tALLOWED\tVIOLATIONS\tAREA\tUPDATED")
				for _, r := range list {
					fmt.Fprintf(w, "%s\t%s\t%t\t%d\t%.3f\t%s\n",
						r.RegionID, r.Status, r.Allowed, r.Violations, r.Report.Area, r.UpdatedAt.Format(time.RFC3339))
				}
				return w.Flush()
			})
		},
	}
}

func newStoreRunsCommand() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "runs <scenario-name>",
		Short: "List the propagation runs of a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStore(ctx, func(st *stores.SQLiteStore) error {
				id, err := scenarioID(ctx, st, args[0])
				if err != nil {
					return err
				}
				runs, err := st.ListRuns(ctx, id, limit, offset)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(runs)
				}
				w := newTable()
				fmt.Fprintln(w, "STARTED\tCHANGED\tEVALUATED\tDURATION\tERROR")
				for _, r := range runs {
					errMsg := ""
					if r.Error != nil {
						errMsg = *r.Error
					}
					fmt.Fprintf(w, "%s\t%v\t%d\t%s\t%s\n",
						r.StartedAt.Format(time.RFC3339), r.Changed, len(r.Evaluated), r.Duration, errMsg)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of runs to skip")

	return cmd
}

func newStoreEventsCommand() *cobra.Command {
	var (
		scenario  string
		eventType string
		level     string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recorded kernel events",
		Example: `  brepctl store events --scenario studio --level error
  brepctl store events --type policy.violation --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withStore(ctx, func(st *stores.SQLiteStore) error {
				q := stores.EventQuery{Limit: limit}
				if scenario != "" {
					id, err := scenarioID(ctx, st, scenario)
					if err != nil {
						return err
					}
					q.ScenarioID = &id
				}
				if eventType != "" {
					q.Type = &eventType
				}
				if level != "" {
					q.Level = &level
				}

				events, err := st.GetEvents(ctx, q)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(events)
				}
				w := newTable()
				fmt.Fprintln(w, "TIME\tLEVEL\tTYPE\tRESOURCE\tMESSAGE")
				for _, e := range events {
					resource := ""
					if e.ResourceID != nil {
						resource = *e.ResourceID
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						e.Timestamp.Format(time.RFC3339), e.Level, e.Type, resource, e.Message)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&scenario, "scenario", "", "only events of this scenario")
	cmd.Flags().StringVar(&eventType, "type", "", "only events of this type")
	cmd.Flags().StringVar(&level, "level", "", "only events of this level (info, warning, error)")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of events")

	return cmd
}

func newStorePruneCommand() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withStore(ctx, func(st *stores.SQLiteStore) error {
				n, err := st.DeleteEventsBefore(ctx, time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Printf("Deleted %d events\n", n)
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "delete events older than this")

	return cmd
}

func newStoreDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <scenario-name>",
		Short: "Delete a scenario and everything recorded for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStore(ctx, func(st *stores.SQLiteStore) error {
				id, err := scenarioID(ctx, st, args[0])
				if err != nil {
					return err
				}
				if err := st.DeleteScenario(ctx, id); err != nil {
					return err
				}
				fmt.Printf("Deleted scenario %s\n", args[0])
				return nil
			})
		},
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
