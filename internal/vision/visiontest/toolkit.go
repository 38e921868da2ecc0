// Package visiontest provides a deterministic, pure-Go vision.Toolkit for
// tests that must not depend on OpenCV.
package visiontest

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"

	"arc-tracer/internal/vision"
	"arc-tracer/pkg/geometry"
)

// Toolkit is a fake vision.Toolkit.
//
// Binarize uses a fixed threshold instead of Otsu. TraceBoundaries returns
// Curves when set; otherwise it returns the bounding-box corners of each
// 8-connected foreground component in scan order. ApproximatePolygon is a
// closed Douglas-Peucker.
type Toolkit struct {
	Threshold uint8
	Curves    []vision.Curve

	DecodeErr      error
	BinarizeErr    error
	SkeletonizeErr error
	TraceErr       error
	RenderErr      error
	PanicOnTrace   bool

	mu    sync.Mutex
	calls map[string]int
}

var _ vision.Toolkit = (*Toolkit)(nil)

// New returns a fake toolkit with a mid-gray threshold.
func New() *Toolkit {
	return &Toolkit{Threshold: 128}
}

// Calls returns how many times the named operation was invoked.
func (tk *Toolkit) Calls(op string) int {
	tk.mu.Lock()
	defer tk.mu.Unlock()
	return tk.calls[op]
}

func (tk *Toolkit) record(op string) {
	tk.mu.Lock()
	defer tk.mu.Unlock()
	if tk.calls == nil {
		tk.calls = make(map[string]int)
	}
	tk.calls[op]++
}

func (tk *Toolkit) Decode(data []byte) (*image.Gray, error) {
	tk.record("Decode")
	if tk.DecodeErr != nil {
		return nil, tk.DecodeErr
	}
	return vision.DecodeGray(data)
}

func (tk *Toolkit) Binarize(img *image.Gray) (*image.Gray, error) {
	tk.record("Binarize")
	if tk.BinarizeErr != nil {
		return nil, tk.BinarizeErr
	}
	src := vision.ToGray(img)
	mask := image.NewGray(src.Bounds())
	for i, v := range src.Pix {
		if v < tk.Threshold {
			mask.Pix[i] = vision.Foreground
		}
	}
	return mask, nil
}

func (tk *Toolkit) Skeletonize(mask *image.Gray) (*image.Gray, error) {
	tk.record("Skeletonize")
	if tk.SkeletonizeErr != nil {
		return nil, tk.SkeletonizeErr
	}
	return vision.ThinGuoHall(vision.ToGray(mask)), nil
}

func (tk *Toolkit) TraceBoundaries(mask *image.Gray) ([]vision.Curve, error) {
	tk.record("TraceBoundaries")
	if tk.PanicOnTrace {
		panic("visiontest: trace panic")
	}
	if tk.TraceErr != nil {
		return nil, tk.TraceErr
	}
	if tk.Curves != nil {
		out := make([]vision.Curve, len(tk.Curves))
		copy(out, tk.Curves)
		return out, nil
	}
	return componentBoxes(vision.ToGray(mask)), nil
}

func (tk *Toolkit) ArcLength(c vision.Curve) float64 {
	tk.record("ArcLength")
	return geometry.ClosedLength(toFloat(c))
}

func (tk *Toolkit) ApproximatePolygon(c vision.Curve, epsilon float64) vision.Curve {
	if len(c) <= 2 {
		return append(vision.Curve(nil), c...)
	}

	// Split the closed curve at the point farthest from the first vertex and
	// simplify both open halves.
	pts := toFloat(c)
	far, dmax := 0, -1.0
	for i, p := range pts {
		if d := p.Distance(pts[0]); d > dmax {
			far, dmax = i, d
		}
	}
	if far == 0 {
		return vision.Curve{c[0]}
	}

	first := simplifyPath(pts[:far+1], epsilon)
	second := simplifyPath(append(append([]geometry.Point2D(nil), pts[far:]...), pts[0]), epsilon)

	out := make(vision.Curve, 0, len(first)+len(second))
	for _, p := range first {
		out = append(out, toPixel(p))
	}
	for _, p := range second[1 : len(second)-1] {
		out = append(out, toPixel(p))
	}
	return out
}

func (tk *Toolkit) RenderOverlay(mask *image.Gray, curves []vision.Curve) ([]byte, error) {
	tk.record("RenderOverlay")
	if tk.RenderErr != nil {
		return nil, tk.RenderErr
	}
	rgba := toRGBA(mask)
	green := color.RGBA{G: 255, A: 255}
	for _, c := range curves {
		for _, p := range c {
			rgba.Set(p.X, p.Y, green)
		}
	}
	return encodePNG(rgba)
}

// RenderSegments draws 1-pixel red lines; pixels outside the image are
// dropped.
func (tk *Toolkit) RenderSegments(img *image.Gray, segments []vision.Segment) ([]byte, error) {
	tk.record("RenderSegments")
	if tk.RenderErr != nil {
		return nil, tk.RenderErr
	}
	rgba := toRGBA(img)
	red := color.RGBA{R: 255, A: 255}
	for _, s := range segments {
		drawLine(rgba, s.From, s.To, red)
	}
	return encodePNG(rgba)
}

func toRGBA(img *image.Gray) *image.RGBA {
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := img.GrayAt(x, y).Y
			rgba.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return rgba
}

// drawLine rasterizes a line with Bresenham's algorithm. RGBA.Set ignores
// points outside the bounds.
func drawLine(img *image.RGBA, from, to image.Point, c color.RGBA) {
	dx := abs(to.X - from.X)
	dy := -abs(to.Y - from.Y)
	sx, sy := 1, 1
	if from.X > to.X {
		sx = -1
	}
	if from.Y > to.Y {
		sy = -1
	}

	x, y := from.X, from.Y
	e := dx + dy
	for {
		img.Set(x, y, c)
		if x == to.X && y == to.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// componentBoxes labels 8-connected foreground components and returns each
// component's bounding box as a counter-clockwise corner list starting at
// the top-left.
func componentBoxes(mask *image.Gray) []vision.Curve {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	seen := make([]bool, w*h)

	var curves []vision.Curve
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if seen[i] || mask.Pix[y*mask.Stride+x] == 0 {
				continue
			}

			minP, maxP := image.Pt(x, y), image.Pt(x, y)
			stack := []image.Point{{X: x, Y: y}}
			seen[i] = true
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				minP.X, minP.Y = min(minP.X, p.X), min(minP.Y, p.Y)
				maxP.X, maxP.Y = max(maxP.X, p.X), max(maxP.Y, p.Y)
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						q := image.Pt(p.X+dx, p.Y+dy)
						if q.X < 0 || q.Y < 0 || q.X >= w || q.Y >= h {
							continue
						}
						j := q.Y*w + q.X
						if seen[j] || mask.Pix[q.Y*mask.Stride+q.X] == 0 {
							continue
						}
						seen[j] = true
						stack = append(stack, q)
					}
				}
			}

			switch {
			case minP == maxP:
				curves = append(curves, vision.Curve{minP})
			case minP.X == maxP.X || minP.Y == maxP.Y:
				curves = append(curves, vision.Curve{minP, maxP})
			default:
				curves = append(curves, vision.Curve{
					minP,
					image.Pt(minP.X, maxP.Y),
					maxP,
					image.Pt(maxP.X, minP.Y),
				})
			}
		}
	}
	return curves
}

// simplifyPath reduces the number of vertices using Douglas-Peucker algorithm.
func simplifyPath(path []geometry.Point2D, epsilon float64) []geometry.Point2D {
	if len(path) <= 2 {
		return path
	}

	dmax := 0.0
	index := 0
	end := len(path) - 1

	for i := 1; i < end; i++ {
		d := perpendicularDistance(path[i], path[0], path[end])
		if d > dmax {
			dmax = d
			index = i
		}
	}

	if dmax > epsilon {
		left := simplifyPath(path[:index+1], epsilon)
		right := simplifyPath(path[index:], epsilon)

		result := make([]geometry.Point2D, 0, len(left)+len(right)-1)
		result = append(result, left[:len(left)-1]...)
		result = append(result, right...)
		return result
	}

	return []geometry.Point2D{path[0], path[end]}
}

// perpendicularDistance calculates the perpendicular distance from point p to line a-b.
func perpendicularDistance(p, a, b geometry.Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y

	if dx == 0 && dy == 0 {
		return p.Distance(a)
	}

	num := math.Abs(dy*p.X - dx*p.Y + b.X*a.Y - b.Y*a.X)
	den := math.Sqrt(dx*dx + dy*dy)
	return num / den
}

func toFloat(c vision.Curve) []geometry.Point2D {
	out := make([]geometry.Point2D, len(c))
	for i, p := range c {
		out[i] = geometry.FromPixel(p)
	}
	return out
}

func toPixel(p geometry.Point2D) image.Point {
	return image.Pt(int(p.X), int(p.Y))
}
