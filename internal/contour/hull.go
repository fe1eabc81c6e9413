package contour

import "sort"

// ConvexHull computes the convex hull of points using Andrew's monotone chain.
//
// The hull is returned without repeated or collinear vertices, starting at the
// point with the smallest X (then smallest Y) and going counter-clockwise in
// the numeric frame, which is clockwise on screen because Y grows downward.
// For that orientation every interior point q satisfies, for each hull edge
// a->b, (a-b) x (q-b) < 0; see InsideHull.
//
// Fewer than three distinct points yield those points (possibly empty), which
// InsideHull treats as enclosing nothing.
func ConvexHull(points []Point) []Point {
	pts := make([]Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	pts = dedupe(pts)
	if len(pts) < 3 {
		return pts
	}

	hull := make([]Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// The last point repeats the first.
	return hull[:len(hull)-1]
}

// InsideHull reports whether q lies strictly inside hull, which must be
// ordered as returned by ConvexHull. Points on an edge, and every point when
// the hull has fewer than three vertices, are outside.
func InsideHull(hull []Point, q Point) bool {
	if len(hull) < 3 {
		return false
	}
	prev := hull[len(hull)-1]
	for _, p := range hull {
		side := (prev.X-p.X)*(q.Y-p.Y) - (q.X-p.X)*(prev.Y-p.Y)
		if side >= 0 {
			return false
		}
		prev = p
	}
	return true
}

// OnOrInsideHull reports whether q lies inside hull or on its boundary.
func OnOrInsideHull(hull []Point, q Point) bool {
	switch len(hull) {
	case 0:
		return false
	case 1:
		return hull[0] == q
	case 2:
		return cross(hull[0], hull[1], q) == 0 && between(hull[0], hull[1], q)
	}
	prev := hull[len(hull)-1]
	for _, p := range hull {
		if (prev.X-p.X)*(q.Y-p.Y)-(q.X-p.X)*(prev.Y-p.Y) > 0 {
			return false
		}
		prev = p
	}
	return true
}

// cross is the z component of (a-o) x (b-o).
func cross(o, a, b Point) int {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func between(a, b, q Point) bool {
	return q.X >= min(a.X, b.X) && q.X <= max(a.X, b.X) &&
		q.Y >= min(a.Y, b.Y) && q.Y <= max(a.Y, b.Y)
}

func dedupe(sorted []Point) []Point {
	if len(sorted) == 0 {
		return sorted
	}
	out := sorted[:1]
	for _, p := range sorted[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}
