package frame

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProcessor(t *testing.T) *Processor {
	t.Helper()
	p, err := NewProcessor(256, 256, zerolog.Nop())
	require.NoError(t, err)
	return p
}

func testFrame(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x % 256),
				G: uint8(y % 256),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	return img
}

func TestNewProcessor_RejectsBadSize(t *testing.T) {
	_, err := NewProcessor(0, 256, zerolog.Nop())
	assert.Error(t, err)
	_, err = NewProcessor(256, -1, zerolog.Nop())
	assert.Error(t, err)
}

func TestResize_ExactSize(t *testing.T) {
	p := newProcessor(t)

	out, err := p.Resize(testFrame(512, 300), 256, 256, false)
	require.NoError(t, err)
	assert.Equal(t, 256, out.Bounds().Dx())
	assert.Equal(t, 256, out.Bounds().Dy())
}

func TestResize_MaintainAspectFitsWithinBox(t *testing.T) {
	p := newProcessor(t)

	out, err := p.Resize(testFrame(512, 256), 256, 256, true)
	require.NoError(t, err)
	assert.LessOrEqual(t, out.Bounds().Dx(), 256)
	assert.LessOrEqual(t, out.Bounds().Dy(), 256)
	// 2:1 input keeps its ratio, so height shrinks below the box
	assert.Equal(t, 256, out.Bounds().Dx())
	assert.Equal(t, 128, out.Bounds().Dy())
}

func TestResize_Errors(t *testing.T) {
	p := newProcessor(t)

	_, err := p.Resize(nil, 256, 256, false)
	var perr *ProcessError
	require.ErrorAs(t, err, &perr)

	_, err = p.Resize(testFrame(10, 10), 0, 256, false)
	assert.Error(t, err)
}

func TestCropToSquare(t *testing.T) {
	p := newProcessor(t)

	out, err := p.CropToSquare(testFrame(600, 400))
	require.NoError(t, err)
	assert.Equal(t, 400, out.Bounds().Dx())
	assert.Equal(t, 400, out.Bounds().Dy())
}

func TestCropToSquare_SquareInputKeepsSize(t *testing.T) {
	p := newProcessor(t)

	out, err := p.CropToSquare(testFrame(128, 128))
	require.NoError(t, err)
	assert.Equal(t, 128, out.Bounds().Dx())
	assert.Equal(t, 128, out.Bounds().Dy())
}

func TestAdjustBrightness_IdentityAtOne(t *testing.T) {
	p := newProcessor(t)
	in := testFrame(32, 32)

	out, err := p.AdjustBrightness(in, 1.0)
	require.NoError(t, err)
	assert.Equal(t, in.Pix, out.Pix)
}

func TestAdjustContrast_IdentityAtOne(t *testing.T) {
	p := newProcessor(t)
	in := testFrame(32, 32)

	out, err := p.AdjustContrast(in, 1.0)
	require.NoError(t, err)
	assert.Equal(t, in.Pix, out.Pix)
}

func TestBlur_RejectsNonPositiveRadius(t *testing.T) {
	p := newProcessor(t)
	_, err := p.Blur(testFrame(32, 32), 0)
	assert.Error(t, err)
}

func TestOptimizeForDisplay_AlwaysTargetResolution(t *testing.T) {
	p := newProcessor(t)

	for _, dims := range [][2]int{{512, 512}, {300, 700}, {129, 1024}} {
		out, err := p.OptimizeForDisplay(testFrame(dims[0], dims[1]), 1.2, 1.1, true)
		require.NoError(t, err)
		assert.Equal(t, 256, out.Bounds().Dx(), "input %v", dims)
		assert.Equal(t, 256, out.Bounds().Dy(), "input %v", dims)
	}
	assert.EqualValues(t, 3, p.Processed())
}

func TestOptimizeForDisplay_NeutralFactorsIdempotent(t *testing.T) {
	p := newProcessor(t)
	in := testFrame(256, 256)

	once, err := p.OptimizeForDisplay(in, 1.0, 1.0, false)
	require.NoError(t, err)
	twice, err := p.OptimizeForDisplay(once, 1.0, 1.0, false)
	require.NoError(t, err)

	require.Equal(t, len(once.Pix), len(twice.Pix))
	for i := range once.Pix {
		diff := int(once.Pix[i]) - int(twice.Pix[i])
		if diff < 0 {
			diff = -diff
		}
		// Allow rounding drift of one step per channel
		assert.LessOrEqual(t, diff, 1, "pixel byte %d drifted", i)
	}
}

func TestConvertFile(t *testing.T) {
	p := newProcessor(t)
	dir := t.TempDir()

	in := filepath.Join(dir, "in.png")
	require.NoError(t, imaging.Save(testFrame(64, 64), in))

	out := filepath.Join(dir, "nested", "out.png")
	require.NoError(t, p.ConvertFile(in, out))

	img, err := imaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())
}

func TestConvertFile_MissingInput(t *testing.T) {
	p := newProcessor(t)
	err := p.ConvertFile(filepath.Join(t.TempDir(), "nope.png"), "out.png")
	var perr *ProcessError
	require.ErrorAs(t, err, &perr)
}

func TestConvertDir_SkipsBadFiles(t *testing.T) {
	p := newProcessor(t)
	inDir := t.TempDir()
	outDir := t.TempDir()

	require.NoError(t, imaging.Save(testFrame(64, 64), filepath.Join(inDir, "good.png")))
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "bad.png"), []byte("not a png"), 0o644))

	converted, err := p.ConvertDir(inDir, outDir, "*.png")
	require.NoError(t, err)
	assert.Equal(t, 1, converted)
}
