// Package brep is the boundary-representation layer the floor-plan algorithms
// operate on.
//
// 2D side: a Curve (line or circular arc) belongs to one or more parents,
// tracked in insertion order with an explicit ParentKind. A Face2d owns a
// single outer Loop and registers itself as a parent of every curve on it, so
// faces that share a curve can find each other.
//
// 3D side: a Shell owns planar Face3d values bounded by CoEdge3d lists. Each
// co-edge is an oriented reference to an undirected Edge between two Vertex3d.
// Vertices and edges are shared through the shell, keyed by position, so
// neighbouring faces reference the same topology. A Wire is an ordered chain of
// co-edges built by the stitching code in package continuous.
//
// Extrude turns a closed plan profile into a prism; AddEdges imprints plan
// lines onto its horizontal caps and reports the faces it added, and SplitFace
// cuts a single face along a plan line.
//
// Object tags come from a TagAllocator owned by the document and passed
// explicitly.
package brep
