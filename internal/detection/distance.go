package detection

import (
	"image"
	"math"
)

// DistanceField holds, for every pixel of a mask, the squared Euclidean
// distance to the nearest set pixel. Pixels of a mask without any set pixel
// hold +Inf.
type DistanceField struct {
	Width  int
	Height int
	Values []float64
}

// At returns the squared distance stored for (x, y).
func (d *DistanceField) At(x, y int) float64 {
	return d.Values[y*d.Width+x]
}

// SquaredDistanceTransform computes the exact squared Euclidean distance
// transform of mask, where any non-zero sample is a feature.
//
// # Algorithm
//
// The transform is separable (Felzenszwalb & Huttenlocher): a 1-D lower
// envelope of parabolas is computed along every column, and the same 1-D
// pass is then run along every row of the intermediate result. Both passes
// are linear, so the whole transform is O(width × height).
func SquaredDistanceTransform(mask *image.Gray) *DistanceField {
	bounds := mask.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	field := &DistanceField{
		Width:  width,
		Height: height,
		Values: make([]float64, width*height),
	}
	if width == 0 || height == 0 {
		return field
	}

	inf := math.Inf(1)
	for y := 0; y < height; y++ {
		row := mask.Pix[mask.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
		for x := 0; x < width; x++ {
			if row[x] == 0 {
				field.Values[y*width+x] = inf
			}
		}
	}

	n := max(width, height)
	env := newEnvelope(n)
	line := make([]float64, n)

	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			line[y] = field.Values[y*width+x]
		}
		env.transform(line[:height])
		for y := 0; y < height; y++ {
			field.Values[y*width+x] = line[y]
		}
	}

	for y := 0; y < height; y++ {
		env.transform(field.Values[y*width : (y+1)*width])
	}

	return field
}

// envelope is the scratch space of the 1-D transform.
type envelope struct {
	f []float64 // input copy
	v []int     // parabola vertices
	z []float64 // boundaries between parabolas
}

func newEnvelope(n int) *envelope {
	return &envelope{
		f: make([]float64, n),
		v: make([]int, n),
		z: make([]float64, n+1),
	}
}

// transform replaces line with its 1-D squared distance transform. Entries
// that are +Inf contribute no parabola; a line with no finite entry stays
// +Inf everywhere.
func (e *envelope) transform(line []float64) {
	n := len(line)
	f := e.f[:n]
	copy(f, line)

	k := -1
	for q := 0; q < n; q++ {
		if math.IsInf(f[q], 1) {
			continue
		}
		if k < 0 {
			k = 0
			e.v[0] = q
			e.z[0] = math.Inf(-1)
			e.z[1] = math.Inf(1)
			continue
		}
		s := intersect(f, e.v[k], q)
		for s <= e.z[k] {
			k--
			s = intersect(f, e.v[k], q)
		}
		k++
		e.v[k] = q
		e.z[k] = s
		e.z[k+1] = math.Inf(1)
	}
	if k < 0 {
		return
	}

	k = 0
	for q := 0; q < n; q++ {
		for e.z[k+1] < float64(q) {
			k++
		}
		d := float64(q - e.v[k])
		line[q] = d*d + f[e.v[k]]
	}
}

// intersect returns the abscissa where the parabolas rooted at p and q meet.
func intersect(f []float64, p, q int) float64 {
	fp := f[p] + float64(p*p)
	fq := f[q] + float64(q*q)
	return (fq - fp) / float64(2*q-2*p)
}
