// Package vision defines the image-processing capabilities the vectorizer
// consumes: decoding, binarization, skeletonization, boundary tracing and
// polygon approximation.
//
// Masks are *image.Gray values where foreground pixels are 255 and
// background pixels are 0.
package vision

import (
	"image"
)

const (
	// Foreground is the mask value of foreground pixels.
	Foreground uint8 = 255
	// Background is the mask value of background pixels.
	Background uint8 = 0
)

// Curve is an ordered, closed sequence of pixel coordinates.
type Curve []image.Point

// Segment is a straight line between two pixel coordinates.
type Segment struct {
	From, To image.Point
}

// Toolkit is the set of primitive image operations used by the shape
// extractor and polygon simplifier.
type Toolkit interface {
	// Decode decodes encoded image bytes into a single-channel intensity grid.
	Decode(data []byte) (*image.Gray, error)

	// Binarize applies an automatic threshold with inverted polarity, so dark
	// content on a light background becomes foreground.
	Binarize(img *image.Gray) (*image.Gray, error)

	// Skeletonize reduces the mask to a 1-pixel-wide skeleton preserving
	// connectivity.
	Skeletonize(mask *image.Gray) (*image.Gray, error)

	// TraceBoundaries returns the boundaries of every foreground region as a
	// flat list, each in compressed form (only the vertices needed to rebuild
	// straight and diagonal runs).
	TraceBoundaries(mask *image.Gray) ([]Curve, error)

	// ArcLength returns the perimeter of the closed curve.
	ArcLength(c Curve) float64

	// ApproximatePolygon simplifies the closed curve so no point deviates more
	// than epsilon from the result.
	ApproximatePolygon(c Curve, epsilon float64) Curve

	// RenderOverlay draws the curves over the mask and returns PNG bytes.
	RenderOverlay(mask *image.Gray, curves []Curve) ([]byte, error)

	// RenderSegments draws the segments over a color copy of img and returns
	// PNG bytes. Segments may extend past the image and are clipped.
	RenderSegments(img *image.Gray, segments []Segment) ([]byte, error)
}
