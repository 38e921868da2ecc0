package geometry

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// ErrTimeOutOfRange is returned when a mapped time does not fit in an int.
var ErrTimeOutOfRange = errors.New("time out of range")

// Bounds of float64 values that convert to int without overflow.
const (
	minTime = float64(math.MinInt)
	maxTime = -float64(math.MinInt) // exclusive
)

// Frame describes the pixel dimensions of a source image. Pixel coordinates
// are normalized against the longer side so aspect ratio is preserved.
type Frame struct {
	Width  int
	Height int
}

// NewFrame creates a Frame for an image of the given size.
func NewFrame(width, height int) Frame {
	return Frame{Width: width, Height: height}
}

// MaxDimension returns the longer of width and height.
func (f Frame) MaxDimension() int {
	return max(f.Width, f.Height)
}

// Normalize maps a pixel coordinate into unit space with the vertical axis
// flipped, so pixel "down" becomes output "up". The longer image axis spans
// [0,1].
func (f Frame) Normalize(p image.Point) Point2D {
	d := float64(f.MaxDimension())
	if d == 0 {
		return Point2D{}
	}
	return Point2D{
		X: float64(p.X) / d,
		Y: float64(f.Height-p.Y) / d,
	}
}

// Placement positions unit-space points in the output space: a uniform
// scale followed by an offset.
type Placement struct {
	Scale  float64
	Offset Point2D
	xf     AffineTransform
}

// NewPlacement creates a Placement for the given scale and offset.
func NewPlacement(scale float64, offset Point2D) Placement {
	return Placement{
		Scale:  scale,
		Offset: offset,
		xf:     Translation(offset.X, offset.Y).Compose(Scale(scale, scale)),
	}
}

// Apply returns coord*scale + offset for both axes.
func (p Placement) Apply(pt Point2D) Point2D {
	return p.xf.Apply(pt)
}

// ApplyX returns x*scale + offsetX.
func (p Placement) ApplyX(x float64) float64 {
	return p.Apply(Point2D{X: x}).X
}

// TimeInterval maps a normalized vertical coordinate onto a time axis.
type TimeInterval struct {
	Start int
	End   int
}

// Map returns trunc(yNorm*scale*(End-Start) + Start). Truncation is toward
// zero. Results that are NaN or do not fit in an int yield
// ErrTimeOutOfRange.
func (ti TimeInterval) Map(yNorm, scale float64) (int, error) {
	span := float64(ti.End) - float64(ti.Start)
	t := float64(float64(yNorm*scale)*span) + float64(ti.Start)
	if !(t >= minTime && t < maxTime) {
		return 0, errors.Wrapf(ErrTimeOutOfRange, "%g", t)
	}
	return int(t), nil
}
