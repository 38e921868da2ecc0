package shape

import (
	"image"
	"testing"

	"arc-tracer/internal/vision"
	"arc-tracer/internal/vision/visiontest"

	"github.com/stretchr/testify/assert"
)

func TestSimplifier_Perimeter(t *testing.T) {
	tk := visiontest.New()
	s := NewSimplifier(tk)
	square := vision.Curve{image.Pt(0, 0), image.Pt(0, 10), image.Pt(10, 10), image.Pt(10, 0)}

	poly, perimeter := s.Simplify(square, 0.05)
	assert.Len(t, poly, 4)
	assert.InDelta(t, 40.0, perimeter, 1e-12)
	assert.Equal(t, 1, tk.Calls("ArcLength"))
}

func TestSimplifier_Simplify(t *testing.T) {
	s := NewSimplifier(visiontest.New())

	// A square with a midpoint on every side and a slight bump.
	curve := vision.Curve{
		image.Pt(0, 0), image.Pt(0, 5), image.Pt(0, 10),
		image.Pt(5, 10), image.Pt(10, 10),
		image.Pt(10, 5), image.Pt(10, 0),
		image.Pt(5, 1),
	}

	tests := []struct {
		name string
		rate float64
		want int
	}{
		{"coarse drops collinear points", 0.05, 4},
		{"fine keeps the bump", 0.001, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poly, _ := s.Simplify(curve, tt.rate)
			assert.Len(t, poly, tt.want)
			assert.LessOrEqual(t, len(poly), len(curve))
			for _, p := range poly {
				assert.Contains(t, curve, p)
			}
		})
	}
}

func TestSimplifier_Degenerate(t *testing.T) {
	s := NewSimplifier(visiontest.New())

	poly, perimeter := s.Simplify(nil, 0.05)
	assert.Nil(t, poly)
	assert.Zero(t, perimeter)

	poly, _ = s.Simplify(vision.Curve{image.Pt(3, 3)}, 0.05)
	assert.Len(t, poly, 1)

	poly, perimeter = s.Simplify(vision.Curve{image.Pt(3, 3), image.Pt(3, 9)}, 0.05)
	assert.Len(t, poly, 2)
	assert.InDelta(t, 12.0, perimeter, 1e-12)
}
