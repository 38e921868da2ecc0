// Package debug writes diagnostic renders of pipeline runs.
package debug

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sync"

	"arc-tracer/internal/vision"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Artifact is what a single run exposes for diagnostics.
type Artifact struct {
	RunID string
	// Skeleton is set when Mask is a thinned skeleton rather than a
	// thresholded image.
	Skeleton bool
	Mask     *image.Gray
	Curves   []vision.Curve
}

// Sink receives one artifact per run and returns where it was stored.
type Sink interface {
	Write(ctx context.Context, a Artifact) (string, error)
}

// Renderer turns a mask and its curves into encoded image bytes.
type Renderer interface {
	RenderOverlay(mask *image.Gray, curves []vision.Curve) ([]byte, error)
}

// FixedName is the file written by a FileSink in overwrite mode.
const FixedName = "contours.png"

// FileSink renders artifacts as PNG files in a directory.
//
// By default every run gets its own contours-<run id>.png. In overwrite mode
// all runs share FixedName and writes are serialized.
type FileSink struct {
	renderer  Renderer
	dir       string
	overwrite bool

	mu sync.Mutex
}

// NewFileSink creates a FileSink writing into dir.
func NewFileSink(r Renderer, dir string, overwrite bool) *FileSink {
	return &FileSink{renderer: r, dir: dir, overwrite: overwrite}
}

// Write renders a and stores it. Contour artifacts are drawn as boundaries
// over the mask; skeleton artifacts are written as the bare skeleton.
func (s *FileSink) Write(ctx context.Context, a Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if a.Mask == nil {
		return "", errors.WithStack(vision.ErrEmptyImage)
	}

	curves := a.Curves
	if a.Skeleton {
		curves = nil
	}
	data, err := s.renderer.RenderOverlay(a.Mask, curves)
	if err != nil {
		return "", errors.Wrap(err, "render debug overlay")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create debug dir")
	}

	if s.overwrite {
		s.mu.Lock()
		defer s.mu.Unlock()
		path := filepath.Join(s.dir, FixedName)
		return path, writeFileAtomic(path, data)
	}

	id := a.RunID
	if id == "" {
		id = uuid.NewString()
	}
	path := filepath.Join(s.dir, "contours-"+id+".png")
	return path, writeFileAtomic(path, data)
}

// writeFileAtomic writes through a temp file so readers never see a partial
// image.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".debug-*.png")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write debug image")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close debug image")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "rename debug image")
}
