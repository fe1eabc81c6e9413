package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// ToGray converts img into an 8-bit grayscale image whose bounds start at
// (0, 0).
//
// *image.Gray inputs are copied sample for sample. Every other colour model
// goes through imaging.Grayscale, which weights the channels as
// 0.299R + 0.587G + 0.114B.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return CloneGray(g)
	}
	return redChannel(imaging.Grayscale(img))
}

// CloneGray returns a copy of g rebased to (0, 0).
func CloneGray(g *image.Gray) *image.Gray {
	bounds := g.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		off := g.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		copy(out.Pix[y*out.Stride:], g.Pix[off:off+bounds.Dx()])
	}
	return out
}

// Blur applies a Gaussian blur with the given standard deviation. A sigma of
// zero or less returns an unblurred copy.
func Blur(g *image.Gray, sigma float64) *image.Gray {
	if sigma <= 0 {
		return CloneGray(g)
	}
	return redChannel(imaging.Blur(g, sigma))
}

// CropGray extracts rect from g. The rectangle is clipped to the image and
// the result is rebased to (0, 0); an empty intersection yields an empty
// image.
func CropGray(g *image.Gray, rect image.Rectangle) *image.Gray {
	rect = rect.Intersect(g.Bounds())
	if rect.Empty() {
		return image.NewGray(image.Rectangle{})
	}
	return redChannel(imaging.Crop(g, rect))
}

// Threshold returns a binary mask that is 255 where g is strictly brighter
// than level and 0 elsewhere.
func Threshold(g *image.Gray, level uint8) *image.Gray {
	bounds := g.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		row := g.Pix[g.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			if row[x] > level {
				dst[x] = 255
			}
		}
	}
	return out
}

// redChannel copies the red samples of a grayscale NRGBA image into a Gray.
func redChannel(src *image.NRGBA) *image.Gray {
	bounds := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		row := src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			dst[x] = row[x*4]
		}
	}
	return out
}
