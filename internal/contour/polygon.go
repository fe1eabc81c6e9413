package contour

import (
	"image"
	"sort"
)

// Area returns the signed shoelace area of the closed polygon described by
// points, wrapping from the last point back to the first. The sign depends on
// the traversal direction; callers that only care about size take the
// absolute value.
func Area(points []Point) float64 {
	if len(points) < 3 {
		return 0
	}

	var sum int
	prev := points[len(points)-1]
	for _, p := range points {
		sum += (prev.X + p.X) * (prev.Y - p.Y)
		prev = p
	}
	return float64(sum) / 2
}

// FillPolygon rasterizes the closed polygon described by points into mask,
// setting every pixel inside or on the polygon to value.
//
// The interior is filled scanline by scanline with a half-open edge rule
// (an edge covers ymin <= y < ymax) so vertices are never counted twice, and
// the outline is drawn afterwards so every polygon vertex and edge pixel is
// set even where the scanline pass leaves gaps (horizontal edges, bottom
// vertices). Pixels outside the mask bounds are clipped.
func FillPolygon(mask *image.Gray, points []Point, value uint8) {
	if len(points) == 0 {
		return
	}

	bounds := mask.Bounds()
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	minY = max(minY, 0)
	maxY = min(maxY, bounds.Dy()-1)

	xs := make([]int, 0, 8)
	for y := minY; y <= maxY; y++ {
		xs = xs[:0]
		prev := points[len(points)-1]
		for _, p := range points {
			a, b := prev, p
			prev = p
			if a.Y == b.Y {
				continue
			}
			if a.Y > b.Y {
				a, b = b, a
			}
			if y < a.Y || y >= b.Y {
				continue
			}
			// floor(x + 1/2) of the exact rational intersection.
			dy := b.Y - a.Y
			num := 2*(y-a.Y)*(b.X-a.X) + 2*a.X*dy + dy
			xs = append(xs, floorDiv(num, 2*dy))
		}
		sort.Ints(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			for x := xs[i]; x <= xs[i+1]; x++ {
				setClipped(mask, x, y, value)
			}
		}
	}

	prev := points[len(points)-1]
	for _, p := range points {
		DrawLine(mask, prev, p, value)
		prev = p
	}
}

// DrawLine draws the segment a-b into mask using Bresenham's algorithm.
func DrawLine(mask *image.Gray, a, b Point, value uint8) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	x, y := a.X, a.Y
	for {
		setClipped(mask, x, y, value)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// setClipped writes value at (x, y) relative to the mask origin, ignoring
// coordinates outside the mask.
func setClipped(mask *image.Gray, x, y int, value uint8) {
	bounds := mask.Bounds()
	if x < 0 || y < 0 || x >= bounds.Dx() || y >= bounds.Dy() {
		return
	}
	mask.Pix[y*mask.Stride+x] = value
}

// floorDiv divides num by a positive den, rounding toward negative infinity.
func floorDiv(num, den int) int {
	q := num / den
	if (num%den != 0) && (num < 0) {
		q--
	}
	return q
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
