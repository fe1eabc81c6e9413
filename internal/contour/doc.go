// Package contour provides the contour-tracing primitive and the polygon
// geometry shared by the detection pipelines.
//
// Tracing follows the Suzuki–Abe border-following algorithm: every connected
// foreground region yields one outer border, and every background region
// enclosed by it yields one hole border. Each border is returned as a closed
// sequence of integer pixel coordinates (the last point connects back to the
// first) together with its border type and the index of its parent border.
//
// # Coordinate System
//
// Points use the image convention:
//   - Origin (0, 0) at the top-left pixel
//   - X increases rightward
//   - Y increases downward
//
// # Geometry
//
// Besides tracing, the package owns the polygon operations built on top of
// contours:
//
//   - Area: signed shoelace area of a closed point sequence
//   - ConvexHull: Andrew's monotone chain over an arbitrary point set
//   - InsideHull: strict point-in-convex-polygon test (edges count as outside)
//   - FillPolygon: scanline rasterization of a closed polygon into a mask
//
// # Thread Safety
//
// All functions are stateless. Inputs are never modified and every call
// allocates its own scratch buffers, so independent calls may run
// concurrently.
package contour
