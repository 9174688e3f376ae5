package pdfregion

import "github.com/golang/geo/r2"

// Contains reports whether p lies inside the polygon described by points
// using the even-odd rule: a ray cast from p towards +x toggles the result at
// every edge it crosses. Self-intersecting polygons are handled by the same
// rule. Points exactly on an edge may be classified either way.
func Contains(points []Point, p Point) bool {
	inside := false
	for i, j := 0, len(points)-1; i < len(points); j, i = i, i+1 {
		pi, pj := points[i], points[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

// AnchorOf maps the origin of a text run into viewport coordinates.
//
// PDF user space has its origin at the bottom-left with y growing upward, so
// the y translation is flipped against the scaled page height.
func AnchorOf(run TextRun, scale, pageHeight float64) Point {
	return Point{
		X: run.Transform[4] * scale,
		Y: pageHeight - run.Transform[5]*scale,
	}
}

// regionMatcher tests anchors against one polygon, optionally rejecting
// anchors outside the bounding box before walking the edges. An anchor
// strictly outside the box never satisfies the even-odd test, so the
// prefilter cannot change the outcome.
type regionMatcher struct {
	points    []Point
	bounds    r2.Rect
	prefilter bool
}

func newRegionMatcher(points []Point, prefilter bool) regionMatcher {
	return regionMatcher{
		points:    points,
		bounds:    r2.RectFromPoints(points...),
		prefilter: prefilter,
	}
}

func (m regionMatcher) match(p Point) bool {
	if m.prefilter && !m.bounds.ContainsPoint(p) {
		return false
	}
	return Contains(m.points, p)
}
