package brep

import (
	"fmt"
	"math"
	"slices"

	"github.com/openfroyo/brepcore/pkg/geom"
)

type vertexKey [3]int64

type edgeKey struct {
	a, b string
}

// Shell is an ordered set of faces sharing vertices and edges.
type Shell struct {
	Tag   string
	Faces []*Face3d

	tags     *TagAllocator
	vertices map[vertexKey]*Vertex3d
	edges    map[edgeKey]*Edge
}

// NewShell creates an empty shell drawing tags from tags.
func NewShell(tags *TagAllocator) *Shell {
	if tags == nil {
		tags = &TagAllocator{}
	}
	return &Shell{
		Tag:      tags.Next("s"),
		tags:     tags,
		vertices: make(map[vertexKey]*Vertex3d),
		edges:    make(map[edgeKey]*Edge),
	}
}

// Vertex returns the shell vertex at p, creating it on first use. Points
// within geom.Tolerance of an existing vertex reuse it, even when they round
// into a neighbouring grid cell.
func (s *Shell) Vertex(p geom.Point3D) *Vertex3d {
	k := keyOf(p)
	if v, ok := s.vertices[k]; ok {
		return v
	}
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				n := vertexKey{k[0] + dx, k[1] + dy, k[2] + dz}
				if v, ok := s.vertices[n]; ok && geom.IsSamePoint3D(v.Point, p) {
					return v
				}
			}
		}
	}
	v := &Vertex3d{Tag: s.tags.Next("v"), Point: p}
	s.vertices[k] = v
	return v
}

// Edge returns the undirected edge between a and b, creating it on first use.
func (s *Shell) Edge(a, b *Vertex3d) *Edge {
	k := edgeKey{a.Tag, b.Tag}
	if a.Tag > b.Tag {
		k = edgeKey{b.Tag, a.Tag}
	}
	if e, ok := s.edges[k]; ok {
		return e
	}
	e := &Edge{Tag: s.tags.Next("e"), V0: a, V1: b}
	s.edges[k] = e
	return e
}

// NewFace builds a planar face through pts (in boundary order) without
// adding it to the shell.
func (s *Shell) NewFace(pts []geom.Point3D) (*Face3d, error) {
	pts = dedupe3(pts)
	if len(pts) < 3 {
		return nil, fmt.Errorf("face needs at least 3 distinct points, got %d", len(pts))
	}
	n := newell(pts)
	if n.Len() <= geom.Tolerance*geom.Tolerance {
		return nil, fmt.Errorf("face through %d points has no area", len(pts))
	}
	f := &Face3d{Tag: s.tags.Next("f"), Normal: n.Normalize()}
	for i := range pts {
		a := s.Vertex(pts[i])
		b := s.Vertex(pts[(i+1)%len(pts)])
		e := s.Edge(a, b)
		f.outer = append(f.outer, NewCoEdge(e, e.V0 == a))
	}
	return f, nil
}

// AddFace appends faces to the shell.
func (s *Shell) AddFace(faces ...*Face3d) {
	s.Faces = append(s.Faces, faces...)
}

// ReplaceFace swaps old for repl at the same position. It reports false when
// old is not part of the shell.
func (s *Shell) ReplaceFace(old *Face3d, repl ...*Face3d) bool {
	i := slices.Index(s.Faces, old)
	if i < 0 {
		return false
	}
	s.Faces = slices.Replace(s.Faces, i, i+1, repl...)
	return true
}

// RemoveFace drops f from the shell.
func (s *Shell) RemoveFace(f *Face3d) bool {
	return s.ReplaceFace(f)
}

// FaceByTag looks up a face.
func (s *Shell) FaceByTag(tag string) (*Face3d, bool) {
	for _, f := range s.Faces {
		if f.Tag == tag {
			return f, true
		}
	}
	return nil, false
}

// Bounding returns the union of every face box.
func (s *Shell) Bounding() geom.Box3 {
	b := geom.NewBox3()
	for _, f := range s.Faces {
		b = b.Union(f.Bounding())
	}
	return b
}

// ShellWrapper ties a shell to the entity that owns it.
type ShellWrapper struct {
	Shell *Shell
	Owner string
}

// NewShellWrapper wraps shell for owner.
func NewShellWrapper(shell *Shell, owner string) *ShellWrapper {
	return &ShellWrapper{Shell: shell, Owner: owner}
}

// Faces returns the wrapped shell's faces.
func (w *ShellWrapper) Faces() []*Face3d {
	if w == nil || w.Shell == nil {
		return nil
	}
	return w.Shell.Faces
}

func keyOf(p geom.Point3D) vertexKey {
	return vertexKey{
		int64(math.Round(p.X / geom.Tolerance)),
		int64(math.Round(p.Y / geom.Tolerance)),
		int64(math.Round(p.Z / geom.Tolerance)),
	}
}

func dedupe3(pts []geom.Point3D) []geom.Point3D {
	out := make([]geom.Point3D, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && geom.IsSamePoint3D(out[len(out)-1], p) {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 1 && geom.IsSamePoint3D(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}
