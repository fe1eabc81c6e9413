package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Marker colours used by DrawFlakeMarkers.
var (
	startColor = color.RGBA{0, 255, 0, 255}
	endColor   = color.RGBA{255, 0, 0, 255}
	apexColor  = color.RGBA{0, 0, 255, 255}
)

const (
	arrowLength = 25.0
	arrowHead   = 10.0
	markerSize  = 2
)

// ParseColor parses a "#RRGGBB" hex colour.
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// ToRGBA converts g into a colour canvas for drawing diagnostics.
func ToRGBA(g *image.Gray) *image.RGBA {
	bounds := g.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), g, bounds.Min, draw.Src)
	return out
}

// OverlayMask paints every non-zero pixel of mask onto a colour copy of base.
// Both images must have the same size.
func OverlayMask(base, mask *image.Gray, c color.Color) *image.RGBA {
	out := ToRGBA(base)
	mb := mask.Bounds()
	for y := 0; y < mb.Dy(); y++ {
		row := mask.Pix[mask.PixOffset(mb.Min.X, mb.Min.Y+y):]
		for x := 0; x < mb.Dx(); x++ {
			if row[x] != 0 {
				out.Set(x, y, c)
			}
		}
	}
	return out
}

// DrawPolygon draws the closed outline through points onto dst.
func DrawPolygon(dst draw.Image, points []image.Point, c color.Color) {
	if len(points) == 0 {
		return
	}
	prev := points[len(points)-1]
	for _, p := range points {
		drawLine(dst, float64(prev.X), float64(prev.Y), float64(p.X), float64(p.Y), c)
		prev = p
	}
}

// FlakeMarker is the drawable summary of one flake.
type FlakeMarker struct {
	// Start and End are the long-axis end points.
	Start, End image.Point
	// Apex is the point farthest from the long axis.
	Apex image.Point
	// CenterX and CenterY locate the arrow origin.
	CenterX, CenterY float64
	// Angle is the orientation in radians, in (-π/2, π/2].
	Angle float64
}

// AngleColor maps an orientation in (-π/2, π/2] onto the hue circle, so
// flakes with similar orientations share a colour.
func AngleColor(angle float64) color.Color {
	hue := (angle + math.Pi/2) / math.Pi * 360
	return colorful.Hsv(math.Mod(hue, 360), 1, 1).Clamped()
}

// DrawFlakeMarkers renders the flake diagnostics over a colour copy of base:
// the long-axis ends in green and red, the apex in blue, and an arrow from
// the flake center pointing along its orientation, coloured by AngleColor.
func DrawFlakeMarkers(base *image.Gray, markers []FlakeMarker) *image.RGBA {
	out := ToRGBA(base)
	for _, m := range markers {
		fillCircle(out, m.Start, markerSize, startColor)
		fillCircle(out, m.End, markerSize, endColor)
		fillCircle(out, m.Apex, markerSize, apexColor)

		c := AngleColor(m.Angle)
		tipX := m.CenterX + math.Cos(m.Angle)*arrowLength
		tipY := m.CenterY + math.Sin(m.Angle)*arrowLength
		drawLine(out, m.CenterX, m.CenterY, tipX, tipY, c)
		for _, side := range []float64{math.Pi / 8, -math.Pi / 8} {
			drawLine(out, tipX, tipY,
				tipX-math.Cos(m.Angle+side)*arrowHead,
				tipY-math.Sin(m.Angle+side)*arrowHead, c)
		}
	}
	return out
}

// drawLine draws a segment with rounded end points, clipping to dst.
func drawLine(dst draw.Image, x0, y0, x1, y1 float64, c color.Color) {
	ax, ay := int(math.Round(x0)), int(math.Round(y0))
	bx, by := int(math.Round(x1)), int(math.Round(y1))

	dx := abs(bx - ax)
	dy := -abs(by - ay)
	sx, sy := 1, 1
	if ax > bx {
		sx = -1
	}
	if ay > by {
		sy = -1
	}
	bounds := dst.Bounds()
	err := dx + dy
	for {
		if (image.Point{ax, ay}).In(bounds) {
			dst.Set(ax, ay, c)
		}
		if ax == bx && ay == by {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			ax += sx
		}
		if e2 <= dx {
			err += dx
			ay += sy
		}
	}
}

func fillCircle(dst draw.Image, center image.Point, radius int, c color.Color) {
	bounds := dst.Bounds()
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y > radius*radius {
				continue
			}
			p := image.Point{center.X + x, center.Y + y}
			if p.In(bounds) {
				dst.Set(p.X, p.Y, c)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
