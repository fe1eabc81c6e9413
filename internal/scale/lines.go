package scale

import (
	"image"
	"math"

	"github.com/ironsheep/graphene-metrics/internal/contour"
	"github.com/ironsheep/graphene-metrics/internal/imaging"
)

const (
	// footerCropWidth is the width of the right part of the footer searched
	// for calibration lines.
	footerCropWidth = 650

	// lineThreshold separates the white calibration lines from the footer.
	lineThreshold = 240

	// minimumRunLength is the shortest horizontal run accepted as part of a
	// calibration line.
	minimumRunLength = 16

	// horizontalRatio is the minimum |Δx| / |Δy| between the outer line ends.
	horizontalRatio = 20
)

// CalibrationLine is one end of the calibration bar, in footer crop
// coordinates.
type CalibrationLine struct {
	// Outer is the x of the end facing away from the label.
	Outer int `json:"outer"`
	// Inner is the x of the end facing the label.
	Inner int `json:"inner"`
	// Y is the row of the run.
	Y int `json:"y"`
}

// CalibrationLines holds the left-most and right-most horizontal runs found
// in a thresholded footer crop.
type CalibrationLines struct {
	Left  CalibrationLine `json:"left"`
	Right CalibrationLine `json:"right"`
}

// PixelLength is the distance between the outer ends of the two lines.
func (l CalibrationLines) PixelLength() int {
	return l.Right.Outer - l.Left.Outer
}

// FindCalibrationLines traces mask and splits every contour into horizontal
// runs of consecutive points on the same row. A one pixel thick line is
// traced out and back along its row and forms a single run. Runs shorter
// than minimumRunLength are ignored; the run reaching furthest left and the
// one reaching furthest right are returned.
//
// The two runs must be distinct, leaving room for a label between them, and
// level to within 1:20.
func FindCalibrationLines(mask *image.Gray) (CalibrationLines, error) {
	left := CalibrationLine{Outer: math.MaxInt}
	right := CalibrationLine{Outer: math.MinInt}

	closeRun := func(r run) {
		if r.hi-r.lo < minimumRunLength {
			return
		}
		if r.lo < left.Outer {
			left = CalibrationLine{Outer: r.lo, Inner: r.hi, Y: r.y}
		}
		if r.hi > right.Outer {
			right = CalibrationLine{Outer: r.hi, Inner: r.lo, Y: r.y}
		}
	}

	for _, c := range contour.Trace(mask) {
		current := newRun(c.Points[0])
		for _, p := range c.Points[1:] {
			if p.Y == current.y {
				current.lo = min(current.lo, p.X)
				current.hi = max(current.hi, p.X)
				continue
			}
			closeRun(current)
			current = newRun(p)
		}
		closeRun(current)
	}

	lines := CalibrationLines{Left: left, Right: right}
	if left.Outer == math.MaxInt || right.Inner <= left.Inner {
		return lines, ErrInsufficientCalibrationLines
	}
	if abs(right.Outer-left.Outer) < horizontalRatio*abs(right.Y-left.Y) {
		return lines, ErrNonHorizontalCalibrationLine
	}
	return lines, nil
}

// run is a stretch of consecutive contour points on one row.
type run struct {
	y      int
	lo, hi int
}

func newRun(p contour.Point) run {
	return run{y: p.Y, lo: p.X, hi: p.X}
}

// drawRuns marks the accepted calibration runs on a copy of mask.
func drawRuns(mask *image.Gray, lines CalibrationLines) *image.Gray {
	out := imaging.CloneGray(mask)
	contour.DrawLine(out,
		contour.Point{X: lines.Left.Outer, Y: lines.Left.Y},
		contour.Point{X: lines.Left.Inner, Y: lines.Left.Y}, 64)
	contour.DrawLine(out,
		contour.Point{X: lines.Right.Inner, Y: lines.Right.Y},
		contour.Point{X: lines.Right.Outer, Y: lines.Right.Y}, 64)
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
