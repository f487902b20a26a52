package region

import (
	"slices"

	"github.com/openfroyo/brepcore/pkg/brep"
	"github.com/openfroyo/brepcore/pkg/engine"
	"github.com/openfroyo/brepcore/pkg/geom"
)

// SplitFaceByCurve cuts topo along the vertical plane through curve (the
// chord of an arc) and replaces it in TopoFaces by its pieces. Pieces
// attributed to a wall in wallIDsToRemove are dropped from the body. It
// reports false when the curve does not cross the face.
func (r *WallRegion) SplitFaceByCurve(topo *WallTopoFace, curve *brep.Curve, wallIDsToRemove []string) (bool, error) {
	idx := slices.Index(r.TopoFaces, topo)
	if topo == nil || idx < 0 {
		tag := ""
		if topo != nil && topo.Face != nil {
			tag = topo.Face.Tag
		}
		return false, engine.NotFound("topo face", tag).WithResource(r.ID).WithOperation("split")
	}
	if curve == nil {
		return false, engine.NewMalformedError("split needs a curve", nil).
			WithCode(engine.ErrCodeValidation).WithResource(r.ID).WithOperation("split")
	}

	shell := r.ShellWrapper.Shell
	pieces, err := brep.SplitFace(shell, topo.Face, curve.Chord())
	if err != nil {
		return false, engine.NewDegenerateError("face split failed", err).
			WithResource(r.ID).WithOperation("split")
	}
	if pieces == nil {
		return false, nil
	}

	kept := make([]*WallTopoFace, 0, len(pieces))
	for _, p := range pieces {
		tf := &WallTopoFace{Face: p, Role: topo.Role, WallID: topo.WallID, Index: topo.Index, IsAux: topo.IsAux}
		if topo.Role != RoleSide {
			tf.WallID, tf.Index = r.attribute(p)
		}
		if tf.WallID != "" && slices.Contains(wallIDsToRemove, tf.WallID) {
			shell.RemoveFace(p)
			continue
		}
		kept = append(kept, tf)
	}
	r.TopoFaces = slices.Replace(r.TopoFaces, idx, idx+1, kept...)

	r.logger.Debug().
		Str("face", topo.Face.Tag).
		Int("pieces", len(pieces)).
		Int("kept", len(kept)).
		Msg("Face split")
	return true, nil
}

// attribute returns the linked wall whose boundary segments overlap the
// face outline the most, and the co-edge index of its longest overlap. Ties
// go to the wall linked first.
func (r *WallRegion) attribute(f *brep.Face3d) (string, int) {
	poly := f.Polygon2D()
	type score struct {
		total, best float64
		index       int
	}
	scores := make(map[string]*score)
	for _, seg := range r.CoEdgePath.Segments() {
		wall := r.wallAt(seg.Index)
		if wall == "" {
			continue
		}
		var overlap float64
		for i := range poly {
			edge := geom.Seg(poly[i], poly[(i+1)%len(poly)])
			overlap += seg.CollinearOverlap(edge)
		}
		if overlap <= geom.Tolerance {
			continue
		}
		s, ok := scores[wall]
		if !ok {
			s = &score{index: seg.Index}
			scores[wall] = s
		}
		s.total += overlap
		if overlap > s.best {
			s.best, s.index = overlap, seg.Index
		}
	}

	bestWall, bestIndex, bestTotal := "", -1, 0.0
	for _, wall := range r.LinkWallIDs() {
		if s, ok := scores[wall]; ok && s.total > bestTotal+geom.Tolerance {
			bestWall, bestIndex, bestTotal = wall, s.index, s.total
		}
	}
	return bestWall, bestIndex
}
