package arc

import (
	"image"

	"arc-tracer/pkg/geometry"
)

// Emitter converts polygons in pixel space into instructions. It is
// immutable and safe for concurrent use.
type Emitter struct {
	frame     geometry.Frame
	placement geometry.Placement
	interval  geometry.TimeInterval
	mode      Mode
}

// NewEmitter creates an Emitter for one image and parameter set. The mode
// must be valid; see ParseMode.
func NewEmitter(frame geometry.Frame, placement geometry.Placement, interval geometry.TimeInterval, mode Mode) (*Emitter, error) {
	if !mode.Valid() {
		return nil, ErrUnsupportedMode
	}
	return &Emitter{
		frame:     frame,
		placement: placement,
		interval:  interval,
		mode:      mode,
	}, nil
}

// Emit returns one instruction per edge of the closed polygon, including
// the wraparound edge. Polygons with fewer than 2 vertices yield none. In
// timeline mode a vertex whose time does not fit in an int fails with
// geometry.ErrTimeOutOfRange.
func (e *Emitter) Emit(polygon []image.Point) ([]Instruction, error) {
	norm := make([]geometry.Point2D, len(polygon))
	for i, p := range polygon {
		norm[i] = e.frame.Normalize(p)
	}

	edges := geometry.ClosedEdges(norm)
	out := make([]Instruction, 0, len(edges))
	for _, edge := range edges {
		in, err := e.edge(edge)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

// EmitAll emits every polygon in order and concatenates the results.
func (e *Emitter) EmitAll(polygons [][]image.Point) ([]Instruction, error) {
	var out []Instruction
	for _, p := range polygons {
		ins, err := e.Emit(p)
		if err != nil {
			return nil, err
		}
		out = append(out, ins...)
	}
	return out, nil
}

func (e *Emitter) edge(edge geometry.Edge) (Instruction, error) {
	if e.mode == ModeTimeline {
		t1, err := e.interval.Map(edge.From.Y, e.placement.Scale)
		if err != nil {
			return Instruction{}, err
		}
		t2, err := e.interval.Map(edge.To.Y, e.placement.Scale)
		if err != nil {
			return Instruction{}, err
		}
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		y := e.placement.Offset.Y
		return Instruction{
			Start: t1,
			End:   t2,
			X1:    e.placement.ApplyX(edge.From.X),
			X2:    e.placement.ApplyX(edge.To.X),
			Y1:    y,
			Y2:    y,
		}, nil
	}

	from := e.placement.Apply(edge.From)
	to := e.placement.Apply(edge.To)
	return Instruction{
		Start: e.interval.Start,
		End:   e.interval.Start,
		X1:    from.X,
		X2:    to.X,
		Y1:    from.Y,
		Y2:    to.Y,
	}, nil
}
