// Package shape extracts boundary curves from grayscale images and reduces
// them to small closed polygons.
package shape

import (
	"image"
	"strings"

	"arc-tracer/internal/vision"

	"github.com/pkg/errors"
)

// Method selects how boundaries are extracted from the binarized image.
type Method string

const (
	// MethodContour traces the outer and inner boundaries of every foreground
	// region.
	MethodContour Method = "contour"
	// MethodThinning skeletonizes the foreground first and traces the
	// skeleton strands.
	MethodThinning Method = "thinning"
)

// legacyEdge is the older name for MethodContour, still accepted on input.
const legacyEdge = "edge"

// ErrUnsupportedMethod is returned for method names that are not recognized.
var ErrUnsupportedMethod = errors.New("unsupported method")

// ParseMethod converts a method name to a Method. Matching is
// case-insensitive and "edge" is accepted as an alias for "contour".
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(MethodContour), legacyEdge:
		return MethodContour, nil
	case string(MethodThinning):
		return MethodThinning, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedMethod, "%q", s)
	}
}

func (m Method) String() string {
	return string(m)
}

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	return m == MethodContour || m == MethodThinning
}

// Extraction holds the result of boundary extraction.
type Extraction struct {
	Method Method
	// Mask is the binary image the curves were traced from: the thresholded
	// image for MethodContour, the skeleton for MethodThinning.
	Mask   *image.Gray
	Curves []vision.Curve
}

// Extractor binarizes images and traces their boundaries.
type Extractor struct {
	tk vision.Toolkit
}

// NewExtractor creates an Extractor backed by the given toolkit.
func NewExtractor(tk vision.Toolkit) *Extractor {
	return &Extractor{tk: tk}
}

// Extract binarizes img (dark content becomes foreground) and traces the
// boundaries of the result according to method.
func (e *Extractor) Extract(img *image.Gray, method Method) (*Extraction, error) {
	if !method.Valid() {
		return nil, errors.Wrapf(ErrUnsupportedMethod, "%q", string(method))
	}
	if img == nil || img.Bounds().Empty() {
		return nil, errors.WithStack(vision.ErrEmptyImage)
	}

	mask, err := e.tk.Binarize(img)
	if err != nil {
		return nil, errors.Wrap(err, "binarize")
	}

	if method == MethodThinning {
		mask, err = e.tk.Skeletonize(mask)
		if err != nil {
			return nil, errors.Wrap(err, "skeletonize")
		}
	}

	curves, err := e.tk.TraceBoundaries(mask)
	if err != nil {
		return nil, errors.Wrapf(err, "trace %s boundaries", method)
	}

	return &Extraction{
		Method: method,
		Mask:   mask,
		Curves: curves,
	}, nil
}
