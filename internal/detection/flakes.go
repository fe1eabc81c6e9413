package detection

import (
	"image"
	"math"

	"github.com/ironsheep/graphene-metrics/internal/contour"
	"github.com/ironsheep/graphene-metrics/internal/imaging"
)

// sampleStep keeps every fifth contour point when searching for the long
// axis, which bounds the quadratic farthest-pair search.
const sampleStep = 5

// FlakeConfig holds the fully resolved parameters of the flake pipeline.
type FlakeConfig struct {
	// BlurSigma is the Gaussian blur standard deviation; <= 0 disables blur.
	BlurSigma float64 `json:"blur_sigma"`

	// Threshold separates flakes (strictly brighter) from background.
	Threshold uint8 `json:"threshold"`

	// MinimumSize is the shortest accepted long axis, in micrometers.
	MinimumSize float64 `json:"minimum_size"`

	// MinimumElongation is the smallest accepted ratio between the long axis
	// and the largest perpendicular deviation from it.
	MinimumElongation float64 `json:"minimum_elongation"`
}

// PointF is a sub-pixel image coordinate.
type PointF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Flake describes one accepted graphene flake.
type Flake struct {
	// Center is the midpoint of the long axis.
	Center PointF `json:"center"`

	// Angle is the orientation in radians, in (-π/2, π/2]. Zero is a
	// vertical long axis and ±π/2 a horizontal one; positive angles point
	// south-east and north-west.
	Angle float64 `json:"angle"`

	// Length is the long-axis length in micrometers.
	Length float64 `json:"length"`

	// Elongation is the long axis divided by the perpendicular deviation.
	Elongation float64 `json:"elongation"`

	// Start and End are the long-axis end points.
	Start contour.Point `json:"start"`
	End   contour.Point `json:"end"`

	// Apex is the sampled point farthest from the long axis.
	Apex contour.Point `json:"apex"`
}

// FlakeResult is the outcome of ComputeFlakes.
type FlakeResult struct {
	// Flakes holds the accepted flakes in tracing order.
	Flakes []Flake `json:"flakes"`

	// Candidates is the number of outer contours examined.
	Candidates int `json:"candidates"`

	// Mask is the blurred and thresholded image the contours came from.
	Mask *image.Gray `json:"-"`
}

// ComputeFlakes finds elongated graphene flakes in img and measures their
// orientation and length.
//
// The image is blurred with cfg.BlurSigma, thresholded at cfg.Threshold and
// traced. Hole contours are ignored; every outer contour goes through
// AnalyzeContour and rejected contours are dropped without error.
//
// Returns ErrInvalidScale when scale is not a finite positive number.
func ComputeFlakes(img *image.Gray, cfg FlakeConfig, scale float64) (*FlakeResult, error) {
	if err := checkScale(scale); err != nil {
		return nil, err
	}

	mask := imaging.Threshold(imaging.Blur(img, cfg.BlurSigma), cfg.Threshold)

	result := &FlakeResult{
		Flakes: make([]Flake, 0),
		Mask:   mask,
	}
	for _, c := range contour.Trace(mask) {
		if c.Border == contour.Hole {
			continue
		}
		result.Candidates++
		if flake, ok := AnalyzeContour(c.Points, cfg, scale); ok {
			result.Flakes = append(result.Flakes, flake)
		}
	}

	return result, nil
}

// AnalyzeContour reduces a contour to a flake record.
//
// # Algorithm
//
//  1. Keep every fifth point.
//  2. The farthest pair (p1, p2) of kept points is the long axis; the first
//     pair reaching the maximum wins.
//  3. Reject when |p1p2| · scale < cfg.MinimumSize.
//  4. The kept point p3 farthest from line p1p2 gives the width
//     |(p2−p1) × (p1−p3)| / |p1p2|. Reject when it is zero (a straight
//     contour) or when |p1p2| / width < cfg.MinimumElongation.
//  5. Center is the midpoint of p1p2 and the angle is
//     π/2 − (atan2(dy, dx) mod π), so axes pointing in opposite directions
//     share one angle.
//
// The boolean result is false for rejected contours.
func AnalyzeContour(points []contour.Point, cfg FlakeConfig, scale float64) (Flake, bool) {
	if len(points) == 0 {
		return Flake{}, false
	}

	samples := make([]contour.Point, 0, len(points)/sampleStep+1)
	for i := 0; i < len(points); i += sampleStep {
		samples = append(samples, points[i])
	}

	p1, p2 := samples[0], samples[0]
	longest := 0.0
	for _, a := range samples {
		for _, b := range samples {
			if d := distance(a, b); longest < d {
				p1, p2 = a, b
				longest = d
			}
		}
	}

	if longest == 0 || longest*scale < cfg.MinimumSize {
		return Flake{}, false
	}

	p3 := samples[0]
	width := 0.0
	for _, p := range samples {
		cross := float64((p2.Y-p1.Y)*(p1.X-p.X) - (p1.Y-p.Y)*(p2.X-p1.X))
		if d := math.Abs(cross) / longest; width < d {
			p3 = p
			width = d
		}
	}

	if width == 0 {
		return Flake{}, false
	}
	elongation := longest / width
	if elongation < cfg.MinimumElongation {
		return Flake{}, false
	}

	return Flake{
		Center: PointF{
			X: float64(p1.X+p2.X) / 2,
			Y: float64(p1.Y+p2.Y) / 2,
		},
		Angle:      orientation(p1, p2),
		Length:     longest * scale,
		Elongation: elongation,
		Start:      p1,
		End:        p2,
		Apex:       p3,
	}, true
}

// orientation returns π/2 minus the direction of p1->p2 reduced modulo π,
// which lies in (-π/2, π/2].
func orientation(p1, p2 contour.Point) float64 {
	theta := math.Mod(math.Atan2(float64(p2.Y-p1.Y), float64(p2.X-p1.X)), math.Pi)
	if theta < 0 {
		theta += math.Pi
	}
	if theta >= math.Pi {
		theta -= math.Pi
	}
	return math.Pi/2 - theta
}

func distance(a, b contour.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}
