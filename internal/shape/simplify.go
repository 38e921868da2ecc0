package shape

import (
	"arc-tracer/internal/vision"
)

// Polygon is a closed polygon whose vertices are a subset of a boundary
// curve's points.
type Polygon = vision.Curve

// Simplifier reduces boundary curves to polygons. The tolerance is
// samplingRate times each curve's own closed perimeter.
type Simplifier struct {
	tk vision.Toolkit
}

// NewSimplifier creates a Simplifier backed by the given toolkit.
func NewSimplifier(tk vision.Toolkit) *Simplifier {
	return &Simplifier{tk: tk}
}

// Simplify approximates c with a closed polygon and also returns the
// curve's closed perimeter, which the tolerance was derived from.
// Degenerate curves may yield 0 or 1 vertices.
func (s *Simplifier) Simplify(c vision.Curve, samplingRate float64) (Polygon, float64) {
	if len(c) == 0 {
		return nil, 0
	}
	perimeter := s.tk.ArcLength(c)
	return s.tk.ApproximatePolygon(c, samplingRate*perimeter), perimeter
}
