// Package preview maps arc instructions back onto their source image so the
// vectorization can be checked by eye.
package preview

import (
	"image"
	"math"

	"arc-tracer/internal/arc"
	"arc-tracer/internal/pipeline"
	"arc-tracer/internal/vision"
	"arc-tracer/pkg/geometry"

	"github.com/pkg/errors"
)

// maxCoord bounds projected pixel coordinates; lines are clipped to the
// image when drawn anyway.
const maxCoord = 1 << 20

// Projection inverts the instruction emitter for one image and parameter
// set, turning instruction endpoints back into pixel coordinates.
type Projection struct {
	frame     geometry.Frame
	placement geometry.Placement
	interval  geometry.TimeInterval
	mode      arc.Mode
}

// NewProjection creates a Projection for a width×height source image. The
// params must be the ones the instructions were produced with.
func NewProjection(width, height int, params pipeline.Params) (*Projection, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	mode, err := arc.ParseMode(params.Mode)
	if err != nil {
		return nil, err
	}
	return &Projection{
		frame:     geometry.NewFrame(width, height),
		placement: geometry.NewPlacement(params.Scale, geometry.NewPoint2D(params.OriginX, params.OriginY)),
		interval:  geometry.TimeInterval{Start: params.TimeStart, End: params.TimeEnd},
		mode:      mode,
	}, nil
}

// Segments returns one pixel-space segment per instruction.
//
// In vertical mode both endpoints come from the x and y fields. In timeline
// mode the vertical position is recovered from the times; with an empty
// time interval every segment lies on the bottom edge.
func (p *Projection) Segments(ins []arc.Instruction) []vision.Segment {
	out := make([]vision.Segment, len(ins))
	for i, in := range ins {
		y1, y2 := p.unscale(in.Y1, p.placement.Offset.Y), p.unscale(in.Y2, p.placement.Offset.Y)
		if p.mode == arc.ModeTimeline {
			y1, y2 = p.untime(in.Start), p.untime(in.End)
		}
		out[i] = vision.Segment{
			From: p.pixel(p.unscale(in.X1, p.placement.Offset.X), y1),
			To:   p.pixel(p.unscale(in.X2, p.placement.Offset.X), y2),
		}
	}
	return out
}

func (p *Projection) unscale(v, offset float64) float64 {
	return (v - offset) / p.placement.Scale
}

func (p *Projection) untime(t int) float64 {
	span := float64(p.interval.End) - float64(p.interval.Start)
	if span == 0 {
		return 0
	}
	return (float64(t) - float64(p.interval.Start)) / (p.placement.Scale * span)
}

// pixel undoes Frame.Normalize.
func (p *Projection) pixel(xNorm, yNorm float64) image.Point {
	d := float64(p.frame.MaxDimension())
	return image.Pt(
		clampCoord(xNorm*d),
		clampCoord(float64(p.frame.Height)-yNorm*d),
	)
}

func clampCoord(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(math.Max(-maxCoord, math.Min(maxCoord, v))))
}

// Renderer is the part of vision.Toolkit a preview needs.
type Renderer interface {
	Decode(data []byte) (*image.Gray, error)
	RenderSegments(img *image.Gray, segments []vision.Segment) ([]byte, error)
}

// Render decodes the source image, projects the instructions onto it and
// returns the drawing as PNG bytes.
func Render(r Renderer, data []byte, ins []arc.Instruction, params pipeline.Params) ([]byte, error) {
	img, err := r.Decode(data)
	if err != nil {
		return nil, pipeline.DecodeError("could not decode image", err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, pipeline.DecodeError("could not decode image", vision.ErrEmptyImage)
	}

	b := img.Bounds()
	proj, err := NewProjection(b.Dx(), b.Dy(), params)
	if err != nil {
		return nil, err
	}

	out, err := r.RenderSegments(img, proj.Segments(ins))
	if err != nil {
		return nil, errors.Wrap(err, "render preview")
	}
	return out, nil
}
