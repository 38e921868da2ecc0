package debug

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"arc-tracer/internal/vision"
	"arc-tracer/internal/vision/visiontest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArtifact(runID string) Artifact {
	mask := image.NewGray(image.Rect(0, 0, 20, 20))
	for y := 5; y < 15; y++ {
		for x := 5; x < 15; x++ {
			mask.Pix[y*mask.Stride+x] = vision.Foreground
		}
	}
	return Artifact{
		RunID:  runID,
		Mask:   mask,
		Curves: []vision.Curve{{image.Pt(5, 5), image.Pt(5, 14), image.Pt(14, 14), image.Pt(14, 5)}},
	}
}

func TestFileSink_PerRunPaths(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(visiontest.New(), dir, false)

	p1, err := sink.Write(context.Background(), testArtifact("a"))
	require.NoError(t, err)
	p2, err := sink.Write(context.Background(), testArtifact("b"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "contours-a.png"), p1)
	assert.Equal(t, filepath.Join(dir, "contours-b.png"), p2)

	data, err := os.ReadFile(p1)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 20), img.Bounds())

	_, g, _, _ := img.At(5, 5).RGBA()
	assert.Equal(t, uint32(0xffff), g)
}

func TestFileSink_GeneratesRunID(t *testing.T) {
	dir := t.TempDir()
	p, err := NewFileSink(visiontest.New(), dir, false).Write(context.Background(), testArtifact(""))
	require.NoError(t, err)
	assert.Regexp(t, `contours-[0-9a-f-]{36}\.png$`, p)
}

func TestFileSink_OverwriteIsSerialized(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(visiontest.New(), dir, true)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := sink.Write(context.Background(), testArtifact("x"))
			assert.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, FixedName), p)
		}()
	}
	wg.Wait()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, FixedName))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}

func TestFileSink_SkeletonOmitsCurves(t *testing.T) {
	dir := t.TempDir()
	a := testArtifact("s")
	a.Skeleton = true

	p, err := NewFileSink(visiontest.New(), dir, false).Write(context.Background(), a)
	require.NoError(t, err)

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	r, g, b, _ := img.At(5, 5).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}

func TestFileSink_Errors(t *testing.T) {
	tk := visiontest.New()
	tk.RenderErr = assert.AnError

	_, err := NewFileSink(tk, t.TempDir(), false).Write(context.Background(), testArtifact("e"))
	assert.ErrorIs(t, err, assert.AnError)

	_, err = NewFileSink(visiontest.New(), t.TempDir(), false).Write(context.Background(), Artifact{})
	assert.ErrorIs(t, err, vision.ErrEmptyImage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFileSink(visiontest.New(), t.TempDir(), false).Write(ctx, testArtifact("c"))
	assert.ErrorIs(t, err, context.Canceled)
}
