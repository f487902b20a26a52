package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfroyo/brepcore/pkg/brep"
	"github.com/openfroyo/brepcore/pkg/continuous"
	"github.com/openfroyo/brepcore/pkg/geom"
	"github.com/openfroyo/brepcore/pkg/telemetry"
)

// groupResult describes the stitched boundary of one face group.
type groupResult struct {
	ID     string        `json:"id"`
	Faces  int           `json:"faces"`
	Wires  []wireSummary `json:"wires"`
	Area   float64       `json:"area"`
	Bounds geom.Box3     `json:"bounds"`
}

type wireSummary struct {
	CoEdges int     `json:"coedges"`
	Closed  bool    `json:"closed"`
	Length  float64 `json:"length"`
	Start   string  `json:"start"`
	End     string  `json:"end"`
}

func newStitchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stitch <scenario>",
		Short: "Stitch the face groups of a scenario into boundary wires",
		Long: `Treat every face group of a scenario as one continuous face and stitch the
edges on its outer boundary into ordered wires. Edges shared by two faces of
the group are interior and dropped.`,
		Example: `  brepctl stitch facade.yaml --json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := loadScenario(ctx, args[0])
			if err != nil {
				return err
			}

			helper := continuous.New(continuous.WithLogger(s.klog.Component("continuous").Zerolog()))
			tags := brep.NewTagAllocator(0)

			results := make([]groupResult, 0, len(s.scenario.FaceGroups))
			for _, g := range s.scenario.FaceGroups {
				var cf *continuous.ContinuousFace
				var wires []*brep.Wire
				err := telemetry.TrackOperation(ctx, "continuous.stitch", g.ID, func(context.Context) error {
					var err error
					if cf, err = g.Build(tags); err != nil {
						return err
					}
					wires = helper.Wires(cf)
					return nil
				})
				if err != nil {
					return fmt.Errorf("face group %s: %w", g.ID, err)
				}
				s.tel.Metrics.RecordWiresStitched(len(wires))

				res := groupResult{
					ID:     g.ID,
					Faces:  len(cf.Faces),
					Area:   helper.Area(cf),
					Bounds: helper.Bounding(cf),
				}
				for _, w := range wires {
					res.Wires = append(res.Wires, wireSummary{
						CoEdges: w.Len(),
						Closed:  w.IsClosed(),
						Length:  w.Length(),
						Start:   w.StartTag(),
						End:     w.EndTag(),
					})
				}
				results = append(results, res)
			}

			if jsonOutput {
				return printJSON(results)
			}
			for _, r := range results {
				fmt.Printf("%s: %d faces, area %.3f, %d wires\n", r.ID, r.Faces, r.Area, len(r.Wires))
				for i, w := range r.Wires {
					state := "open"
					if w.Closed {
						state = "closed"
					}
					fmt.Printf("  wire %d: %d coedges, %s, length %.3f\n", i, w.CoEdges, state, w.Length)
				}
			}
			return nil
		},
	}

	return cmd
}
