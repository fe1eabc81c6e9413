package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/histogram"
)

// EqualizeHistogram spreads the intensities of g over the full 0-255 range.
//
// Each sample v is mapped to min(255, 255 · cdf(v) / N), truncated, where
// cdf is the cumulative histogram and N the number of pixels. The returned
// image is new; g is left untouched.
func EqualizeHistogram(g *image.Gray) *image.Gray {
	bounds := g.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return out
	}

	cdf := histogram.NewRGBAHistogram(g).Cumulative().R.Bins

	var lut [256]uint8
	for v := range lut {
		lut[v] = uint8(min(255, 255*cdf[v]/total))
	}

	for y := 0; y < bounds.Dy(); y++ {
		row := g.Pix[g.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			dst[x] = lut[row[x]]
		}
	}
	return out
}
