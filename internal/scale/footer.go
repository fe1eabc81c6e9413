package scale

import (
	"image"
)

const (
	// skipBottomPixels rows at the bottom of every column are ignored so the
	// calibration bar and its label do not count as the footer edge.
	skipBottomPixels = 40

	// footerCeiling is the brightness above which a sample is treated as
	// footer text and skipped.
	footerCeiling = 200

	// footerRise is the minimum brightness increase, scanning upward, that
	// marks the top of the footer.
	footerRise = 16
)

// FooterTop returns the row where the footer begins, that is the most common
// row at which a column brightens by more than footerRise while scanning
// upward from just above the bottom skipBottomPixels rows. Ties go to the
// upper row. The second return value lists the transition found in each
// column, for diagnostics.
func FooterTop(img *image.Gray) (int, []image.Point, error) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height <= skipBottomPixels {
		return 0, nil, ErrImageTooSmall
	}

	at := func(x, y int) uint8 {
		return img.Pix[img.PixOffset(b.Min.X+x, b.Min.Y+y)]
	}

	counts := make([]int, height)
	var transitions []image.Point
	for x := 0; x < width; x++ {
		previous := at(x, height-skipBottomPixels-1)
		for y := height - skipBottomPixels - 1; y >= 0; y-- {
			brightness := at(x, y)
			if previous > footerCeiling || brightness < previous {
				continue
			}
			if brightness-previous > footerRise {
				counts[y]++
				transitions = append(transitions, image.Pt(x, y))
				break
			}
			previous = brightness
		}
	}

	top, best := 0, 0
	for y, n := range counts {
		if n > best {
			top, best = y, n
		}
	}
	if best == 0 {
		return 0, nil, ErrFooterNotFound
	}
	return top, transitions, nil
}
