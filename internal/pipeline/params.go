package pipeline

import (
	"fmt"
	"math"

	"arc-tracer/internal/arc"
	"arc-tracer/internal/shape"
	"arc-tracer/pkg/geometry"
)

// Sampling rate bounds, inclusive.
const (
	MinSamplingRate = 0.001
	MaxSamplingRate = 0.1
)

// Params are the caller-supplied settings of one run.
type Params struct {
	SamplingRate float64 `json:"sampling_rate" yaml:"sampling_rate"`
	OriginX      float64 `json:"origin_x" yaml:"origin_x"`
	OriginY      float64 `json:"origin_y" yaml:"origin_y"`
	Scale        float64 `json:"scale" yaml:"scale"`
	TimeStart    int     `json:"time_s" yaml:"time_s"`
	TimeEnd      int     `json:"time_e" yaml:"time_e"`
	Method       string  `json:"method" yaml:"method"`
	Mode         string  `json:"mode" yaml:"mode"`
}

// DefaultParams returns the settings used when a caller supplies none.
func DefaultParams() Params {
	return Params{
		SamplingRate: 0.05,
		Scale:        1.0,
		Method:       string(shape.MethodContour),
		Mode:         string(arc.ModeVertical),
	}
}

// Validate checks the parameters in a fixed order: sampling rate, scale,
// origin, method, mode, then the timeline range. The first failure is
// returned as a validation *Error.
func (p Params) Validate() error {
	_, err := p.resolve()
	return err
}

// resolved holds validated, parsed parameters.
type resolved struct {
	Params
	method shape.Method
	mode   arc.Mode
}

func (p Params) resolve() (resolved, error) {
	if !(p.SamplingRate >= MinSamplingRate && p.SamplingRate <= MaxSamplingRate) {
		return resolved{}, ValidationError("sampling rate out of range", nil)
	}
	if !(p.Scale > 0) {
		return resolved{}, ValidationError("scale must be positive", nil)
	}
	if math.IsInf(p.Scale, 0) {
		return resolved{}, ValidationError("scale must be finite", nil)
	}
	if !isFinite(p.OriginX) || !isFinite(p.OriginY) {
		return resolved{}, ValidationError("origin must be finite", nil)
	}
	method, err := shape.ParseMethod(p.Method)
	if err != nil {
		return resolved{}, ValidationError("unsupported method", err)
	}
	mode, err := arc.ParseMode(p.Mode)
	if err != nil {
		return resolved{}, ValidationError("unsupported mode", err)
	}

	r := resolved{Params: p, method: method, mode: mode}
	r.Method = string(method)
	r.Mode = string(mode)

	// Normalized y lies in [0,1] and Map is monotonic in it, so both ends
	// fitting means every vertex fits.
	if mode == arc.ModeTimeline {
		if _, err := r.interval().Map(1, r.Scale); err != nil {
			return resolved{}, ValidationError("time out of range", err)
		}
	}
	return r, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (r resolved) placement() geometry.Placement {
	return geometry.NewPlacement(r.Scale, geometry.NewPoint2D(r.OriginX, r.OriginY))
}

func (r resolved) interval() geometry.TimeInterval {
	return geometry.TimeInterval{Start: r.TimeStart, End: r.TimeEnd}
}

// canonical renders the parameters so equivalent inputs compare equal.
func (r resolved) canonical() string {
	return fmt.Sprintf("%v|%v|%v|%v|%d|%d|%s|%s",
		r.SamplingRate, r.OriginX, r.OriginY, r.Scale,
		r.TimeStart, r.TimeEnd, r.Method, r.Mode)
}
