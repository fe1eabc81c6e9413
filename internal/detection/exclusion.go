package detection

import (
	"fmt"
	"image"
)

// ExclusionConfig holds the fully resolved parameters of the exclusion
// pipeline.
type ExclusionConfig struct {
	// ContrastThreshold is the minimum average directional difference of an
	// edge pixel (0-255).
	ContrastThreshold float64 `json:"contrast_threshold"`

	// MinimumEdgeArea is the area in square pixels an edge contour must
	// exceed to survive denoising.
	MinimumEdgeArea int `json:"minimum_edge_area"`

	// ExclusionRadius is the physical radius around edges, in micrometers.
	ExclusionRadius float64 `json:"exclusion_radius"`

	// RadiusAdjusted enables field-of-view normalization.
	RadiusAdjusted bool `json:"radius_adjusted"`
}

// ExclusionResult is the outcome of ComputeExclusion along with its
// intermediate buffers.
type ExclusionResult struct {
	// Ratio is the final exclusion ratio in [0, 1]. With RadiusAdjusted it
	// is the normalized ratio of Profile.
	Ratio float64 `json:"ratio"`

	// PixelRatio is the share of excluded pixels over the whole image,
	// before any normalization.
	PixelRatio float64 `json:"pixel_ratio"`

	// RadiusPixels is the exclusion radius converted to pixels.
	RadiusPixels float64 `json:"radius_pixels"`

	// Contrast is the directional contrast magnitude image.
	Contrast *image.Gray `json:"-"`

	// Edges is the denoised edge mask.
	Edges *image.Gray `json:"-"`

	// Zone is the exclusion mask.
	Zone *image.Gray `json:"-"`

	// Profile is the radial bucket table; nil unless RadiusAdjusted.
	Profile *RadialProfile `json:"profile,omitempty"`
}

// ComputeExclusion computes the bacteria-exclusion ratio of img: the share of
// pixels lying closer than cfg.ExclusionRadius to a graphene edge.
//
// Parameters:
//   - img: Grayscale image with the calibration footer already removed.
//   - cfg: Pipeline parameters.
//   - scale: Micrometers per pixel.
//
// Returns:
//   - *ExclusionResult: The ratio and every intermediate buffer.
//   - error: ErrInvalidScale for a non-positive or non-finite scale, and
//     ErrExclusionRadiusTooSmall when cfg.ExclusionRadius / scale is below
//     one pixel. A radius of exactly one pixel is accepted.
//
// # Algorithm
//
//  1. DirectionalContrast at cfg.ContrastThreshold.
//  2. FilterByArea at cfg.MinimumEdgeArea.
//  3. SquaredDistanceTransform of the filtered edges; a pixel is excluded
//     iff its squared distance is below the squared pixel radius.
//  4. With cfg.RadiusAdjusted, NormalizeFieldOfView replaces the ratio.
func ComputeExclusion(img *image.Gray, cfg ExclusionConfig, scale float64) (*ExclusionResult, error) {
	if err := checkScale(scale); err != nil {
		return nil, err
	}

	contrast, edges := DirectionalContrast(img, cfg.ContrastThreshold)
	filtered := FilterByArea(edges, cfg.MinimumEdgeArea)

	radius := cfg.ExclusionRadius / scale
	if radius < 1.0 {
		return nil, fmt.Errorf("radius %.4f px: %w", radius, ErrExclusionRadiusTooSmall)
	}

	field := SquaredDistanceTransform(filtered)
	limit := radius * radius

	zone := image.NewGray(image.Rect(0, 0, field.Width, field.Height))
	excluded := 0
	for i, d := range field.Values {
		if d < limit {
			zone.Pix[i] = 255
			excluded++
		}
	}

	result := &ExclusionResult{
		RadiusPixels: radius,
		Contrast:     contrast,
		Edges:        filtered,
		Zone:         zone,
	}
	if total := len(field.Values); total > 0 {
		result.PixelRatio = float64(excluded) / float64(total)
	}
	result.Ratio = result.PixelRatio

	if cfg.RadiusAdjusted {
		result.Profile = NormalizeFieldOfView(img, zone)
		result.Ratio = result.Profile.Ratio
	}

	return result, nil
}
