// Package detection implements the geometric feature-extraction pipelines
// run on grayscale SEM micrographs of graphene.
//
// Two independent pipelines are exposed:
//
//   - ComputeExclusion measures the fraction of the field of view lying within
//     a physical distance of a graphene edge (the bacteria-exclusion ratio).
//   - ComputeFlakes estimates the orientation and long-axis length of every
//     elongated flake in the image.
//
// # Exclusion Pipeline
//
//  1. Directional contrast: every pixel is compared against its opposing
//     neighbour pairs in the 3×3 neighbourhood and thresholded into an edge
//     mask (DirectionalContrast).
//  2. Area filter: contours of the edge mask smaller than a minimum area are
//     discarded and the survivors are redrawn as filled polygons
//     (FilterByArea).
//  3. Exclusion zone: a squared Euclidean distance transform of the filtered
//     mask is thresholded at the squared pixel radius (SquaredDistanceTransform).
//  4. Optional field-of-view normalization: pixels outside the convex hull of
//     the stitched imaging region are ignored and the remaining ones are
//     averaged per radial distance from the optical center, then integrated
//     by annulus area (NormalizeFieldOfView).
//
// # Flake Pipeline
//
// The image is blurred and thresholded, outer contours are traced, and each
// contour is reduced to its long axis (farthest pair of sampled points) and
// its width (largest perpendicular deviation from that axis). Contours that
// are too small or too round are skipped silently (AnalyzeContour).
//
// # Coordinate System
//
// All coordinates use the image convention: origin at the top-left pixel,
// X increasing rightward and Y increasing downward. Images are expected to
// start at (0, 0); callers convert with imaging.ToGray.
//
// # Errors
//
// Only configuration problems are errors (ErrInvalidScale,
// ErrExclusionRadiusTooSmall). Degenerate geometry such as empty contours,
// zero-length axes or straight-line contours is filtered, never reported.
//
// # Thread Safety
//
// Every function is pure: inputs are never modified and all scratch buffers
// are allocated per call, so independent images may be processed
// concurrently.
package detection
