package detection

import (
	"image"
	"math"

	"github.com/ironsheep/graphene-metrics/internal/contour"
)

// RadialBucket is the running mean of the excluded/not-excluded samples at
// one rounded pixel distance from the optical center.
type RadialBucket struct {
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// RadialProfile is the outcome of field-of-view normalization.
type RadialProfile struct {
	// Buckets is indexed by rounded pixel distance from the optical center
	// and has one entry per image column.
	Buckets []RadialBucket `json:"buckets"`

	// Hull is the convex hull delimiting the valid imaging region.
	Hull []contour.Point `json:"hull"`

	// Ratio is the annulus-weighted exclusion ratio.
	Ratio float64 `json:"ratio"`
}

// OpticalCenter returns the assumed optical center of a stitched panorama:
// the middle of the right image edge, (width, height/2) with integer
// division. Flipped or rotated inputs would need this to become
// configurable.
func OpticalCenter(width, height int) image.Point {
	return image.Pt(width, height/2)
}

// NormalizeFieldOfView corrects an exclusion mask for the radial sampling of
// stitched micrographs.
//
// Parameters:
//   - raw: The unprocessed grayscale image. Its contours at threshold 1
//     outline the stitched region; the black margin around it is ignored.
//   - zone: The exclusion mask produced from raw (same size, 0 or 255).
//
// # Algorithm
//
//  1. Trace raw at threshold 1 and take the convex hull of every contour
//     point.
//  2. Skip pixels that are not strictly inside the hull. Pixels on a hull
//     edge are skipped, and a hull with fewer than three vertices admits
//     nothing.
//  3. Bucket the remaining pixels by their rounded distance d to
//     OpticalCenter, dropping d >= width, and keep a running mean of 1 for
//     excluded and 0 for free pixels.
//  4. Ratio = Σ mean_d · (π d² − π (d−1)²) / (π (width−1)²), weighting
//     every radius by the area of the annulus it represents.
//
// Images narrower than two pixels have no full circle to normalize by and
// yield a zero ratio.
func NormalizeFieldOfView(raw, zone *image.Gray) *RadialProfile {
	bounds := raw.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	var points []contour.Point
	for _, c := range contour.TraceWithThreshold(raw, 1) {
		points = append(points, c.Points...)
	}

	profile := &RadialProfile{
		Buckets: make([]RadialBucket, width),
		Hull:    contour.ConvexHull(points),
	}

	center := OpticalCenter(width, height)
	zb := zone.Bounds()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !contour.InsideHull(profile.Hull, contour.Point{X: x, Y: y}) {
				continue
			}

			dx := float64(center.X - x)
			dy := float64(y - center.Y)
			d := int(math.Round(math.Sqrt(dx*dx + dy*dy)))
			if d >= len(profile.Buckets) {
				continue
			}

			sample := 0.0
			if zone.Pix[zone.PixOffset(zb.Min.X+x, zb.Min.Y+y)] == 255 {
				sample = 1
			}
			b := &profile.Buckets[d]
			b.Count++
			b.Mean += (sample - b.Mean) / float64(b.Count)
		}
	}

	if width < 2 {
		return profile
	}

	var excluded float64
	for d, b := range profile.Buckets {
		r := float64(d)
		annulus := r*r*math.Pi - (r-1)*(r-1)*math.Pi
		excluded += annulus * b.Mean
	}
	full := float64(width-1) * float64(width-1) * math.Pi
	profile.Ratio = excluded / full

	return profile
}
