package pipeline

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes one run.
type Stats struct {
	Curves         int           `json:"curves"`
	Polygons       int           `json:"polygons"`
	Degenerate     int           `json:"degenerate"`
	Instructions   int           `json:"instructions"`
	MeanVertices   float64       `json:"mean_vertices"`
	TotalPerimeter float64       `json:"total_perimeter"`
	Duration       time.Duration `json:"duration"`
}

// collector accumulates per-curve measurements.
type collector struct {
	vertices   []float64
	perimeters []float64
	degenerate int
}

func (c *collector) add(vertices int, perimeter float64) {
	c.vertices = append(c.vertices, float64(vertices))
	c.perimeters = append(c.perimeters, perimeter)
	if vertices < 2 {
		c.degenerate++
	}
}

func (c *collector) stats(instructions int, d time.Duration) Stats {
	s := Stats{
		Curves:       len(c.vertices),
		Polygons:     len(c.vertices) - c.degenerate,
		Degenerate:   c.degenerate,
		Instructions: instructions,
		Duration:     d,
	}
	if len(c.vertices) > 0 {
		s.MeanVertices = stat.Mean(c.vertices, nil)
		s.TotalPerimeter = floats.Sum(c.perimeters)
	}
	return s
}
