package region

import (
	"math"

	"github.com/openfroyo/brepcore/pkg/engine"
	"github.com/openfroyo/brepcore/pkg/geom"
)

// Report is a flat description of a region, used by policy checks and the
// event store.
type Report struct {
	ID                 string                 `json:"id"`
	TargetWallID       string                 `json:"target_wall_id"`
	TargetWallIndex    int                    `json:"target_wall_index"`
	TargetWallPresent  bool                   `json:"target_wall_present"`
	LinkWallIDs        []string               `json:"link_wall_ids"`
	CoEdgeCount        int                    `json:"coedge_count"`
	Valid              bool                   `json:"valid"`
	ZeroLengthSegments int                    `json:"zero_length_segments"`
	MinSegmentLength   float64                `json:"min_segment_length"`
	Perimeter          float64                `json:"perimeter"`
	Area               float64                `json:"area"`
	Status             engine.ExtrusionStatus `json:"status"`
	MinHeight          float64                `json:"min_height"`
	MaxHeight          float64                `json:"max_height"`
	Faces              int                    `json:"faces"`
	VisibleFaces       int                    `json:"visible_faces"`
	AuxFaces           int                    `json:"aux_faces"`
	OutlineWires       int                    `json:"outline_wires"`
	OutlineClosed      bool                   `json:"outline_closed"`
}

// Report describes the region in its current state.
func (r *WallRegion) Report() Report {
	rep := Report{
		ID:                r.ID,
		TargetWallID:      r.TargetWallID(),
		TargetWallIndex:   r.TargetWallIndex(),
		TargetWallPresent: r.TargetWall() != nil,
		LinkWallIDs:       r.LinkWallIDs(),
		CoEdgeCount:       r.CoEdgePath.Len(),
		Valid:             r.IsValid(),
		Perimeter:         r.CoEdgePath.Perimeter(),
		Area:              r.profile.Area(),
		Status:            r.status,
		MinHeight:         r.minHeight,
		MaxHeight:         r.maxHeight,
		Faces:             len(r.TopoFaces),
	}

	minLen := math.Inf(1)
	for _, s := range r.CoEdgePath.Segments() {
		l := s.Length()
		if l <= geom.Tolerance {
			rep.ZeroLengthSegments++
		}
		minLen = math.Min(minLen, l)
	}
	if !math.IsInf(minLen, 1) {
		rep.MinSegmentLength = minLen
	}

	for _, tf := range r.TopoFaces {
		if tf.IsAux {
			rep.AuxFaces++
		} else {
			rep.VisibleFaces++
		}
	}
	if len(r.TopoFaces) > 0 {
		wires := r.Outline()
		rep.OutlineWires = len(wires)
		rep.OutlineClosed = len(wires) > 0
		for _, w := range wires {
			if !w.IsClosed() {
				rep.OutlineClosed = false
			}
		}
	}
	return rep
}
