// Package pipeline drives one vectorization run: validate parameters,
// decode, extract boundaries, simplify them into polygons and emit arc
// instructions.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"arc-tracer/internal/arc"
	"arc-tracer/internal/debug"
	"arc-tracer/internal/observability"
	"arc-tracer/internal/shape"
	"arc-tracer/internal/vision"
	"arc-tracer/pkg/geometry"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Runner produces instructions for an encoded image.
type Runner interface {
	Run(ctx context.Context, data []byte, params Params) ([]arc.Instruction, error)
}

// Result is the outcome of a successful run.
type Result struct {
	RunID        string
	Instructions []arc.Instruction
	Stats        Stats
	// DebugPath is where the debug artifact was written, if any.
	DebugPath string
}

// Pipeline is stateless apart from its collaborators and is safe for
// concurrent use.
type Pipeline struct {
	tk         vision.Toolkit
	extractor  *shape.Extractor
	simplifier *shape.Simplifier
	sink       debug.Sink
	logger     *observability.Logger
}

var _ Runner = (*Pipeline)(nil)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSink sends each run's mask and curves to s.
func WithSink(s debug.Sink) Option {
	return func(p *Pipeline) { p.sink = s }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *observability.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a Pipeline on top of tk.
func New(tk vision.Toolkit, opts ...Option) *Pipeline {
	p := &Pipeline{
		tk:         tk,
		extractor:  shape.NewExtractor(tk),
		simplifier: shape.NewSimplifier(tk),
		logger:     observability.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run returns the instructions for data. See Process.
func (p *Pipeline) Run(ctx context.Context, data []byte, params Params) ([]arc.Instruction, error) {
	res, err := p.Process(ctx, data, params)
	if err != nil {
		return nil, err
	}
	return res.Instructions, nil
}

// Process validates params before touching data, then runs every stage. It
// returns either the complete result or an *Error; partial results are never
// returned.
func (p *Pipeline) Process(ctx context.Context, data []byte, params Params) (res *Result, err error) {
	cfg, err := params.resolve()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, InternalError("run canceled", err)
	}

	runID := uuid.NewString()
	log := p.logger.WithContext(ctx).WithRun(runID)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = InternalError("unexpected failure", fmt.Errorf("panic: %v", r))
			log.Error().Err(err).Msg("run panicked")
		}
	}()

	if len(data) == 0 {
		return nil, DecodeError("could not decode image", vision.ErrEmptyImage)
	}
	img, err := p.tk.Decode(data)
	if err != nil {
		return nil, DecodeError("could not decode image", err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, DecodeError("could not decode image", vision.ErrEmptyImage)
	}

	extraction, err := p.extractor.Extract(img, cfg.method)
	if err != nil {
		log.Error().Stack().Err(err).Msg("boundary extraction failed")
		return nil, InternalError("boundary extraction failed", err)
	}

	b := img.Bounds()
	emitter, err := arc.NewEmitter(geometry.NewFrame(b.Dx(), b.Dy()), cfg.placement(), cfg.interval(), cfg.mode)
	if err != nil {
		return nil, InternalError("create emitter", err)
	}

	var stats collector
	instructions := make([]arc.Instruction, 0)
	for _, curve := range extraction.Curves {
		poly, perimeter := p.simplifier.Simplify(curve, cfg.SamplingRate)
		stats.add(len(poly), perimeter)

		ins, err := emitter.Emit(poly)
		if errors.Is(err, geometry.ErrTimeOutOfRange) {
			return nil, ValidationError("time out of range", err)
		}
		if err != nil {
			return nil, InternalError("emit instructions", err)
		}
		instructions = append(instructions, ins...)
	}

	res = &Result{
		RunID:        runID,
		Instructions: instructions,
		Stats:        stats.stats(len(instructions), time.Since(start)),
	}

	if p.sink != nil {
		res.DebugPath = p.writeDebug(ctx, log, debug.Artifact{
			RunID:    runID,
			Skeleton: cfg.method == shape.MethodThinning,
			Mask:     extraction.Mask,
			Curves:   extraction.Curves,
		})
	}

	log.Info().
		Str("method", cfg.Method).
		Str("mode", cfg.Mode).
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Int("curves", res.Stats.Curves).
		Int("polygons", res.Stats.Polygons).
		Int("instructions", res.Stats.Instructions).
		Float64("mean_vertices", res.Stats.MeanVertices).
		Float64("total_perimeter", res.Stats.TotalPerimeter).
		Dur("duration", res.Stats.Duration).
		Msg("run complete")

	return res, nil
}

// writeDebug hands the artifact to the sink and returns the written path.
// Sink failures, panics included, are logged and never fail the run.
func (p *Pipeline) writeDebug(ctx context.Context, log *observability.Logger, a debug.Artifact) (path string) {
	defer func() {
		if r := recover(); r != nil {
			path = ""
			log.Error().Str("panic", fmt.Sprint(r)).Msg("debug sink panicked")
		}
	}()

	path, err := p.sink.Write(ctx, a)
	if err != nil {
		log.Warn().Err(err).Msg("debug artifact not written")
		return ""
	}
	return path
}
