package detection

import (
	"image"
	"math"

	"github.com/ironsheep/graphene-metrics/internal/contour"
)

// SurvivingContours traces mask and returns the contours whose rounded
// absolute shoelace area is strictly greater than minimumArea, in tracing
// order. Hole contours are kept when large enough.
func SurvivingContours(mask *image.Gray, minimumArea int) []contour.Contour {
	contours := contour.Trace(mask)
	kept := contours[:0]
	for _, c := range contours {
		area := int(math.Round(math.Abs(contour.Area(c.Points))))
		if minimumArea < area {
			kept = append(kept, c)
		}
	}
	return kept
}

// FilterByArea removes small, noisy regions from a binary mask.
//
// Every contour of mask is measured with the shoelace formula; contours of
// rounded area at most minimumArea are dropped and the rest are redrawn as
// filled polygons into a new blank mask of the same size. Filling means
// enclosed holes of a surviving region come back filled.
//
// The operation is idempotent for a fixed minimumArea, and raising
// minimumArea never increases the number of surviving contours.
func FilterByArea(mask *image.Gray, minimumArea int) *image.Gray {
	bounds := mask.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for _, c := range SurvivingContours(mask, minimumArea) {
		contour.FillPolygon(out, c.Points, 255)
	}
	return out
}
