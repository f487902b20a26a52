// Package geom provides the value types and numeric helpers shared by the
// BREP kernel: 2D/3D points with tolerance-based equality, planar bounds,
// 3D bounding boxes, polygon area and half-plane polygon splitting.
//
// # Conventions
//
// X increases to the right and Y increases up the page, so a
// counter-clockwise ring encloses positive area. Z is height above the
// floor plane; z=0 is the floor.
//
// 2D bounds are github.com/paulmach/orb values so callers can hand them to
// any orb-aware code. 3D vector math goes through github.com/go-gl/mathgl/mgl64.
//
// All comparisons use Tolerance (1e-3 length units) unless a function takes
// an explicit tolerance.
package geom
