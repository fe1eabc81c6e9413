package contour

import (
	"image"
)

// Point is an integer pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// BorderType tells whether a contour bounds a foreground region from the
// outside or encloses a background hole inside one.
type BorderType int

const (
	// Outer is the outside border of a connected foreground region.
	Outer BorderType = iota
	// Hole is the border of a background region enclosed by foreground.
	Hole
)

func (b BorderType) String() string {
	if b == Hole {
		return "hole"
	}
	return "outer"
}

// Contour is a closed border traced in a binary image.
type Contour struct {
	// Points is the ordered border. It always holds at least one point and
	// the last point connects back to the first.
	Points []Point `json:"points"`

	// Border is Outer or Hole.
	Border BorderType `json:"border"`

	// Parent is the index of the enclosing contour in the slice returned by
	// Trace, or -1 for top-level outer borders.
	Parent int `json:"parent"`
}

// neighbours lists the 8-neighbourhood in clockwise order on screen
// (y grows downward), starting east.
var neighbours = [8]Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// direction returns the neighbourhood index of the offset (dx, dy).
func direction(dx, dy int) int {
	for i, n := range neighbours {
		if n.X == dx && n.Y == dy {
			return i
		}
	}
	return 0
}

// Trace finds every contour in img, treating non-zero pixels as foreground.
//
// This is the shared tracing capability used by the area filter, the
// field-of-view normalizer and the flake analyzer. Contours are returned in
// the order their starting pixel is met by a raster scan.
func Trace(img *image.Gray) []Contour {
	return TraceWithThreshold(img, 1)
}

// TraceWithThreshold finds every contour in img, treating pixels whose value
// is at least threshold as foreground. A threshold of 0 makes the whole image
// one region.
func TraceWithThreshold(img *image.Gray, threshold uint8) []Contour {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	// Labels live in a grid padded by one background pixel on each side so the
	// neighbourhood walks never need bounds checks.
	pw := width + 2
	ph := height + 2
	labels := make([]int32, pw*ph)
	for y := 0; y < height; y++ {
		row := img.Pix[(y)*img.Stride : (y)*img.Stride+width]
		for x, v := range row {
			if v >= threshold {
				labels[(y+1)*pw+x+1] = 1
			}
		}
	}

	at := func(x, y int) int32 { return labels[y*pw+x] }
	set := func(x, y int, v int32) { labels[y*pw+x] = v }

	contours := make([]Contour, 0)
	// borderKinds[n-2] / parents[n-2] describe border number n; number 1 is
	// the image frame, which behaves as a hole with no parent.
	var borderKinds []BorderType

	nbd := int32(1)
	for y := 1; y < ph-1; y++ {
		lnbd := int32(1)
		for x := 1; x < pw-1; x++ {
			v := at(x, y)
			if v == 0 {
				continue
			}

			var kind BorderType
			var from Point
			switch {
			case v == 1 && at(x-1, y) == 0:
				kind = Outer
				from = Point{x - 1, y}
			case v >= 1 && at(x+1, y) == 0:
				kind = Hole
				from = Point{x + 1, y}
				if v > 1 {
					lnbd = v
				}
			default:
				if v != 1 {
					lnbd = abs32(v)
				}
				continue
			}

			nbd++
			parent := parentOf(kind, lnbd, borderKinds, contours)
			borderKinds = append(borderKinds, kind)

			points := follow(at, set, Point{x, y}, from, nbd)
			for i := range points {
				points[i].X--
				points[i].Y--
			}
			contours = append(contours, Contour{
				Points: points,
				Border: kind,
				Parent: parent,
			})

			if cur := at(x, y); cur != 1 {
				lnbd = abs32(cur)
			}
		}
	}

	return contours
}

// parentOf resolves the parent contour index of a new border from the last
// border met on the current row (lnbd).
func parentOf(kind BorderType, lnbd int32, kinds []BorderType, contours []Contour) int {
	if lnbd <= 1 {
		return -1
	}
	idx := int(lnbd) - 2
	if kinds[idx] == kind {
		// Same kind: siblings share a parent.
		return contours[idx].Parent
	}
	return idx
}

// follow walks one border starting at start, whose background neighbour that
// triggered the border is from. Visited pixels are relabelled with ±nbd.
func follow(at func(x, y int) int32, set func(x, y int, v int32), start, from Point, nbd int32) []Point {
	// Clockwise search around start for the first foreground neighbour.
	dir := direction(from.X-start.X, from.Y-start.Y)
	first := Point{-1, -1}
	for i := 0; i < 8; i++ {
		n := neighbours[(dir+i)%8]
		if at(start.X+n.X, start.Y+n.Y) != 0 {
			first = Point{start.X + n.X, start.Y + n.Y}
			break
		}
	}
	if first.X < 0 {
		// Isolated pixel.
		set(start.X, start.Y, -nbd)
		return []Point{start}
	}

	points := make([]Point, 0, 16)
	prev := first
	cur := start
	for {
		points = append(points, cur)

		// Counter-clockwise search around cur, starting just after prev.
		dir := direction(prev.X-cur.X, prev.Y-cur.Y)
		var next Point
		eastExamined := false
		for i := 1; i <= 8; i++ {
			d := (dir - i + 8) % 8
			n := neighbours[d]
			if at(cur.X+n.X, cur.Y+n.Y) != 0 {
				next = Point{cur.X + n.X, cur.Y + n.Y}
				break
			}
			if d == 0 {
				eastExamined = true
			}
		}

		if eastExamined {
			set(cur.X, cur.Y, -nbd)
		} else if at(cur.X, cur.Y) == 1 {
			set(cur.X, cur.Y, nbd)
		}

		if next == start && cur == first {
			break
		}
		prev = cur
		cur = next
	}

	return points
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
