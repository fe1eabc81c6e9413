package imaging

import (
	"image"
	"math"
)

// DistanceResult is a distance between two points of a micrograph.
type DistanceResult struct {
	DistancePixels float64 `json:"distance_pixels"`
	DeltaX         int     `json:"delta_x"`
	DeltaY         int     `json:"delta_y"`

	// AngleDegrees is the direction from the first point to the second;
	// 0 points right and 90 down.
	AngleDegrees float64 `json:"angle_degrees"`

	// DistanceMicrometers is set when the scale is known.
	DistanceMicrometers float64 `json:"distance_micrometers,omitempty"`
}

// MeasureDistance measures the distance from a to b. umPerPixel converts
// it to micrometers and may be 0 when the scale is unknown.
func MeasureDistance(a, b image.Point, umPerPixel float64) *DistanceResult {
	d := b.Sub(a)
	distance := math.Hypot(float64(d.X), float64(d.Y))
	angle := math.Atan2(float64(d.Y), float64(d.X)) * 180 / math.Pi

	result := &DistanceResult{
		DistancePixels: math.Round(distance*100) / 100,
		DeltaX:         d.X,
		DeltaY:         d.Y,
		AngleDegrees:   math.Round(angle*10) / 10,
	}
	if umPerPixel > 0 {
		result.DistanceMicrometers = math.Round(distance*umPerPixel*1000) / 1000
	}
	return result
}
