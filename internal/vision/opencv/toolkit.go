// Package opencv implements vision.Toolkit on top of OpenCV via gocv.
package opencv

import (
	"image"
	"image/color"

	"arc-tracer/internal/vision"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// overlayColor is the stroke color of traced boundaries in debug renders.
var overlayColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}

// overlayThickness is the stroke width of traced boundaries in debug renders.
const overlayThickness = 2

// segmentColor is the stroke color of instruction previews.
var segmentColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}

// Toolkit is the OpenCV-backed vision.Toolkit. It holds no state and is safe
// for concurrent use; every call allocates and releases its own Mats.
type Toolkit struct{}

var _ vision.Toolkit = Toolkit{}

// New returns an OpenCV toolkit.
func New() Toolkit {
	return Toolkit{}
}

// Decode decodes the bytes as grayscale with OpenCV, falling back to the Go
// image decoders for formats the OpenCV build does not support.
func (Toolkit) Decode(data []byte) (*image.Gray, error) {
	if len(data) == 0 {
		return nil, vision.ErrEmptyImage
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadGrayScale)
	if err != nil || mat.Empty() {
		if err == nil {
			mat.Close()
		}
		gray, ferr := vision.DecodeGray(data)
		if ferr != nil {
			return nil, errors.Wrap(ferr, "opencv could not decode image")
		}
		return gray, nil
	}
	defer mat.Close()

	return grayFromMat(mat)
}

// Binarize applies Otsu's threshold with inverted polarity.
func (Toolkit) Binarize(img *image.Gray) (*image.Gray, error) {
	src, err := matFromGray(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(src, &binary, 0, 255, gocv.ThresholdBinaryInv|gocv.ThresholdOtsu)

	return grayFromMat(binary)
}

// Skeletonize thins the mask with Guo-Hall thinning.
func (Toolkit) Skeletonize(mask *image.Gray) (*image.Gray, error) {
	return vision.ThinGuoHall(vision.ToGray(mask)), nil
}

// TraceBoundaries finds all contours of the mask without hierarchy, using
// simple chain compression.
func (Toolkit) TraceBoundaries(mask *image.Gray) ([]vision.Curve, error) {
	src, err := matFromGray(mask)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	contours := gocv.FindContours(src, gocv.RetrievalList, gocv.ChainApproxSimple)
	defer contours.Close()

	curves := make([]vision.Curve, 0, contours.Size())
	for _, pts := range contours.ToPoints() {
		curves = append(curves, vision.Curve(pts))
	}
	return curves, nil
}

// ArcLength returns the closed perimeter of the curve.
func (Toolkit) ArcLength(c vision.Curve) float64 {
	if len(c) == 0 {
		return 0
	}
	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()

	return gocv.ArcLength(pv, true)
}

// ApproximatePolygon runs closed Douglas-Peucker approximation.
func (Toolkit) ApproximatePolygon(c vision.Curve, epsilon float64) vision.Curve {
	if len(c) == 0 {
		return nil
	}
	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()

	approx := gocv.ApproxPolyDP(pv, epsilon, true)
	defer approx.Close()

	return vision.Curve(approx.ToPoints())
}

// RenderOverlay draws the curves in green over a color copy of the mask and
// encodes the result as PNG.
func (Toolkit) RenderOverlay(mask *image.Gray, curves []vision.Curve) ([]byte, error) {
	src, err := matFromGray(mask)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	canvas := gocv.NewMat()
	defer canvas.Close()
	gocv.CvtColor(src, &canvas, gocv.ColorGrayToBGR)

	pts := make([][]image.Point, len(curves))
	for i, c := range curves {
		pts[i] = c
	}
	contours := gocv.NewPointsVectorFromPoints(pts)
	defer contours.Close()

	gocv.DrawContours(&canvas, contours, -1, overlayColor, overlayThickness)

	return encodePNG(canvas)
}

// RenderSegments draws each segment in red over a color copy of img and
// encodes the result as PNG.
func (Toolkit) RenderSegments(img *image.Gray, segments []vision.Segment) ([]byte, error) {
	src, err := matFromGray(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	canvas := gocv.NewMat()
	defer canvas.Close()
	gocv.CvtColor(src, &canvas, gocv.ColorGrayToBGR)

	for _, s := range segments {
		gocv.Line(&canvas, s.From, s.To, segmentColor, overlayThickness)
	}

	return encodePNG(canvas)
}

// encodePNG copies the PNG encoding of mat out of native memory.
func encodePNG(mat gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// matFromGray copies an *image.Gray into a single-channel 8-bit Mat.
func matFromGray(img *image.Gray) (gocv.Mat, error) {
	if img == nil || img.Bounds().Empty() {
		return gocv.Mat{}, errors.WithStack(vision.ErrEmptyImage)
	}
	g := vision.ToGray(img)
	b := g.Bounds()

	mat, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC1, g.Pix)
	if err != nil {
		return gocv.Mat{}, errors.Wrap(err, "create mat")
	}
	return mat, nil
}

// grayFromMat copies a single-channel 8-bit Mat into an *image.Gray.
func grayFromMat(mat gocv.Mat) (*image.Gray, error) {
	if mat.Empty() {
		return nil, errors.WithStack(vision.ErrEmptyImage)
	}
	if mat.Type() != gocv.MatTypeCV8UC1 {
		return nil, errors.Errorf("unexpected mat type %v", mat.Type())
	}

	rows, cols := mat.Rows(), mat.Cols()
	data := mat.ToBytes()
	if len(data) < rows*cols {
		return nil, errors.Errorf("mat data too short: %d < %d", len(data), rows*cols)
	}

	gray := image.NewGray(image.Rect(0, 0, cols, rows))
	copy(gray.Pix, data[:rows*cols])
	return gray, nil
}
