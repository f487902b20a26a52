package region

import (
	"fmt"
	"slices"

	"github.com/openfroyo/brepcore/pkg/brep"
	"github.com/openfroyo/brepcore/pkg/engine"
	"github.com/openfroyo/brepcore/pkg/geom"
)

// ExtrudeOptions tunes ExtrudeBody.
type ExtrudeOptions struct {
	// Imprint lines are added to the caps, splitting them.
	Imprint []geom.Segment2D
}

// ExtrudeResult summarizes a finished extrusion.
type ExtrudeResult struct {
	Status       engine.ExtrusionStatus `json:"status"`
	Faces        int                    `json:"faces"`
	VisibleFaces int                    `json:"visible_faces"`
	AuxFaces     int                    `json:"aux_faces"`
}

// SplitClassification partitions faces produced by an imprint.
type SplitClassification struct {
	Visible []*brep.Face3d
	Aux     []*brep.Face3d
}

// ExtrudeBody sweeps the region boundary from minHeight to maxHeight,
// replacing any previous body. Each boundary segment yields a side face
// attributed to its co-edge's wall; the top and bottom caps are split by
// opts.Imprint when given.
func (r *WallRegion) ExtrudeBody(minHeight, maxHeight float64, opts ExtrudeOptions) (ExtrudeResult, error) {
	fail := func(err *engine.KernelError) (ExtrudeResult, error) {
		r.status = engine.ExtrusionStatusFailed
		return ExtrudeResult{Status: r.status}, err.WithResource(r.ID).WithOperation("extrude")
	}
	if !r.IsValid() {
		return fail(engine.NewDegenerateError("region has a zero-length boundary segment", nil))
	}
	if maxHeight-minHeight <= geom.Tolerance {
		return fail(engine.NewDegenerateError(
			fmt.Sprintf("height range %g..%g is empty", minHeight, maxHeight), nil))
	}

	segs := r.CoEdgePath.Segments()
	profile := make([]geom.Point2D, len(segs))
	for i, s := range segs {
		profile[i] = s.A
	}
	ext, err := brep.Extrude(profile, minHeight, maxHeight, r.fp.Tags())
	if err != nil {
		return fail(engine.NewDegenerateError("extrusion failed", err))
	}

	topo := make([]*WallTopoFace, 0, len(ext.Sides)+2)
	for i, side := range ext.Sides {
		idx := segs[i].Index
		topo = append(topo, &WallTopoFace{Face: side, Role: RoleSide, WallID: r.wallAt(idx), Index: idx})
	}
	topo = append(topo,
		&WallTopoFace{Face: ext.Top, Role: RoleTop, Index: -1},
		&WallTopoFace{Face: ext.Bottom, Role: RoleBottom, Index: -1},
	)

	status := engine.ExtrusionStatusPlain
	if len(opts.Imprint) > 0 {
		res, err := brep.AddEdges(ext.Shell, opts.Imprint)
		if err != nil {
			return fail(engine.NewDegenerateError("imprint failed", err))
		}
		if mod := res.Modified(ext.Shell); mod != nil && len(mod.AddFaces) > 0 {
			topo = slices.DeleteFunc(topo, func(tf *WallTopoFace) bool {
				return slices.Contains(mod.RemovedFaces, tf.Face)
			})
			cls := r.TryFixSplitAddFaces(mod.AddFaces)
			status = engine.ExtrusionStatusFallback
			if cls != nil {
				status = engine.ExtrusionStatusFixed
			}
			for _, f := range mod.AddFaces {
				role := RoleBottom
				if f.IsHorizontalAt(maxHeight) {
					role = RoleTop
				}
				tf := &WallTopoFace{Face: f, Role: role, Index: -1}
				tf.WallID, tf.Index = r.attribute(f)
				tf.IsAux = cls != nil && slices.Contains(cls.Aux, f)
				topo = append(topo, tf)
			}
		}
	}

	r.ShellWrapper = brep.NewShellWrapper(ext.Shell, r.ID)
	r.TopoFaces = topo
	r.status = status
	r.minHeight, r.maxHeight = minHeight, maxHeight

	result := ExtrudeResult{Status: status, Faces: len(topo)}
	for _, tf := range topo {
		if tf.IsAux {
			result.AuxFaces++
		} else {
			result.VisibleFaces++
		}
	}
	r.logger.Debug().
		Str("status", string(status)).
		Float64("min_height", minHeight).
		Float64("max_height", maxHeight).
		Int("faces", result.Faces).
		Int("aux_faces", result.AuxFaces).
		Msg("Region extruded")
	return result, nil
}

// TryFixSplitAddFaces sorts faces produced by a cap split into visible
// faces and auxiliary faces lying on the floor (z=0). It returns nil when
// faces does not look like a split result: fewer than two faces, or no face
// left visible. Callers then treat every face as visible.
func (r *WallRegion) TryFixSplitAddFaces(faces []*brep.Face3d) *SplitClassification {
	if len(faces) < 2 {
		return nil
	}
	cls := &SplitClassification{}
	for _, f := range faces {
		if f.IsHorizontalAt(0) {
			cls.Aux = append(cls.Aux, f)
		} else {
			cls.Visible = append(cls.Visible, f)
		}
	}
	if len(cls.Visible) == 0 {
		r.logger.Debug().Int("faces", len(faces)).Msg("Split faces all auxiliary, not fixing")
		return nil
	}
	return cls
}
