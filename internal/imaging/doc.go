// Package imaging provides the grayscale image operations the analyses are
// built on, along with loading and rendering helpers.
//
// Micrographs are handled as *image.Gray rebased to (0,0). Conversion, crop
// and Gaussian blur go through disintegration/imaging; the histogram used
// for equalization and PNG output come from bild. Overlays are drawn on
// *image.RGBA copies and never modify their input.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive and Max is exclusive
//
// # Loading
//
// ImageCache decodes PNG, JPEG, GIF, TIFF and BMP files and keeps them by
// path. It is safe for concurrent use. Long-running processes should Evict
// images once analysed; TIFF micrographs are large.
package imaging
