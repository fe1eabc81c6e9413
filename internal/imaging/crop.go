package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Zoom crops rect from img, resizes it by factor and encodes the result for
// a JSON response. A factor of 0 or 1 keeps the original size.
func Zoom(img image.Image, rect image.Rectangle, factor float64) (*EncodedImage, error) {
	bounds := img.Bounds()
	if !rect.In(bounds) {
		return nil, fmt.Errorf("region %v outside image bounds %v", rect, bounds)
	}
	if rect.Empty() {
		return nil, fmt.Errorf("empty region %v", rect)
	}
	if factor < 0 {
		return nil, fmt.Errorf("invalid zoom factor %g", factor)
	}

	cropped := imaging.Crop(img, rect)
	if factor != 0 && factor != 1 {
		width := max(1, int(float64(rect.Dx())*factor))
		height := max(1, int(float64(rect.Dy())*factor))
		cropped = imaging.Resize(cropped, width, height, imaging.Lanczos)
	}
	return EncodePNGBase64(cropped)
}

// NamedRegion resolves a region name within bounds: one of the quadrants
// ("top-left", "top-right", "bottom-left", "bottom-right"), a half
// ("top-half", "bottom-half", "left-half", "right-half") or "center", the
// middle 50% of each side.
func NamedRegion(bounds image.Rectangle, name string) (image.Rectangle, error) {
	w, h := bounds.Dx(), bounds.Dy()
	midX, midY := w/2, h/2

	var r image.Rectangle
	switch name {
	case "top-left":
		r = image.Rect(0, 0, midX, midY)
	case "top-right":
		r = image.Rect(midX, 0, w, midY)
	case "bottom-left":
		r = image.Rect(0, midY, midX, h)
	case "bottom-right":
		r = image.Rect(midX, midY, w, h)
	case "top-half":
		r = image.Rect(0, 0, w, midY)
	case "bottom-half":
		r = image.Rect(0, midY, w, h)
	case "left-half":
		r = image.Rect(0, 0, midX, h)
	case "right-half":
		r = image.Rect(midX, 0, w, h)
	case "center":
		r = image.Rect(w/4, h/4, w-w/4, h-h/4)
	default:
		return image.Rectangle{}, fmt.Errorf("unknown region: %s", name)
	}
	return r.Add(bounds.Min), nil
}
