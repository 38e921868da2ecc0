package vision

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrEmptyImage is returned when there are no bytes to decode or the decoded
// image has no pixels.
var ErrEmptyImage = errors.New("empty image")

// DecodeGray decodes any registered image format and converts it to
// grayscale. The result always has its origin at (0,0).
func DecodeGray(data []byte) (*image.Gray, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, errors.Wrapf(ErrEmptyImage, "decoded %s image", format)
	}

	return ToGray(img), nil
}

// ToGray converts img to an origin-anchored *image.Gray, copying when the
// source is already gray but offset or strided.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) && g.Stride == b.Dx() {
		return g
	}

	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}
