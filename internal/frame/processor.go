// Package frame prepares rendered frames for the fan display: resizing
// to the device resolution, enhancement filters, and format conversion.
package frame

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/rmagana/holofan/internal/metrics"
)

// ProcessError reports a failed frame transform. No partial output is
// ever returned alongside one.
type ProcessError struct {
	Op  string
	Err error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("frame %s: %v", e.Op, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

func processErrorf(op, format string, args ...any) *ProcessError {
	return &ProcessError{Op: op, Err: fmt.Errorf(format, args...)}
}

// Processor transforms raw frames into the exact resolution and visual
// profile the fan expects.
type Processor struct {
	targetW int
	targetH int
	logger  zerolog.Logger

	processed int64
}

// NewProcessor creates a Processor for the given device resolution.
func NewProcessor(width, height int, logger zerolog.Logger) (*Processor, error) {
	if width <= 0 || height <= 0 {
		return nil, processErrorf("init", "non-positive target size %dx%d", width, height)
	}
	return &Processor{
		targetW: width,
		targetH: height,
		logger:  logger.With().Str("component", "frame").Logger(),
	}, nil
}

// TargetSize returns the configured device resolution as (width, height).
func (p *Processor) TargetSize() (int, int) { return p.targetW, p.targetH }

// Processed returns how many frames have gone through OptimizeForDisplay.
func (p *Processor) Processed() int64 { return p.processed }

func validateFrame(op string, img *image.NRGBA) error {
	if img == nil {
		return processErrorf(op, "nil frame")
	}
	if img.Bounds().Dx() <= 0 || img.Bounds().Dy() <= 0 {
		return processErrorf(op, "empty frame bounds %v", img.Bounds())
	}
	return nil
}

// Resize scales a frame to the given size. With maintainAspect the
// output fits within (width, height) preserving ratio and may be
// smaller than requested in one dimension; without it the output is
// exactly (width, height).
func (p *Processor) Resize(img *image.NRGBA, width, height int, maintainAspect bool) (*image.NRGBA, error) {
	if err := validateFrame("resize", img); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, processErrorf("resize", "non-positive target size %dx%d", width, height)
	}

	var out *image.NRGBA
	if maintainAspect {
		out = imaging.Fit(img, width, height, imaging.Lanczos)
	} else {
		out = imaging.Resize(img, width, height, imaging.Lanczos)
	}
	p.logger.Debug().Int("width", width).Int("height", height).
		Bool("maintainAspect", maintainAspect).Msg("Frame resized")
	return out, nil
}

// CropToSquare center-crops a frame to min(height, width) per side.
// Square frames pass through unchanged in size.
func (p *Processor) CropToSquare(img *image.NRGBA) (*image.NRGBA, error) {
	if err := validateFrame("crop", img); err != nil {
		return nil, err
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	side := min(w, h)
	out := imaging.CropCenter(img, side, side)
	p.logger.Debug().
		Int("from_w", w).Int("from_h", h).Int("side", side).
		Msg("Frame cropped to square")
	return out, nil
}

// AdjustBrightness scales perceived brightness; factor 1.0 is identity.
func (p *Processor) AdjustBrightness(img *image.NRGBA, factor float64) (*image.NRGBA, error) {
	if err := validateFrame("brightness", img); err != nil {
		return nil, err
	}
	if factor < 0 {
		return nil, processErrorf("brightness", "negative factor %v", factor)
	}
	return imaging.AdjustBrightness(img, (factor-1)*100), nil
}

// AdjustContrast scales contrast; factor 1.0 is identity.
func (p *Processor) AdjustContrast(img *image.NRGBA, factor float64) (*image.NRGBA, error) {
	if err := validateFrame("contrast", img); err != nil {
		return nil, err
	}
	if factor < 0 {
		return nil, processErrorf("contrast", "negative factor %v", factor)
	}
	return imaging.AdjustContrast(img, (factor-1)*100), nil
}

// Blur applies a Gaussian blur with the given radius.
func (p *Processor) Blur(img *image.NRGBA, radius float64) (*image.NRGBA, error) {
	if err := validateFrame("blur", img); err != nil {
		return nil, err
	}
	if radius <= 0 {
		return nil, processErrorf("blur", "non-positive radius %v", radius)
	}
	return imaging.Blur(img, radius), nil
}

// Sharpen applies the fixed sharpening filter.
func (p *Processor) Sharpen(img *image.NRGBA) (*image.NRGBA, error) {
	if err := validateFrame("sharpen", img); err != nil {
		return nil, err
	}
	return imaging.Sharpen(img, 1.0), nil
}

// OptimizeForDisplay runs the fixed display pipeline: resize to the
// device resolution, then brightness, then contrast, then optional
// sharpening. The order is a contract; reordering changes output.
func (p *Processor) OptimizeForDisplay(img *image.NRGBA, brightness, contrast float64, sharpen bool) (*image.NRGBA, error) {
	out, err := p.Resize(img, p.targetW, p.targetH, false)
	if err != nil {
		return nil, err
	}
	if out, err = p.AdjustBrightness(out, brightness); err != nil {
		return nil, err
	}
	if out, err = p.AdjustContrast(out, contrast); err != nil {
		return nil, err
	}
	if sharpen {
		if out, err = p.Sharpen(out); err != nil {
			return nil, err
		}
	}

	p.processed++
	metrics.FramesProcessed.Inc()
	p.logger.Debug().Int64("processed", p.processed).Msg("Frame optimized for display")
	return out, nil
}

// ConvertFile decodes an image file, resizes it to the device
// resolution, and writes it as PNG.
func (p *Processor) ConvertFile(inputPath, outputPath string) error {
	src, err := imaging.Open(inputPath)
	if err != nil {
		return processErrorf("convert", "open %s: %w", inputPath, err)
	}

	out := imaging.Resize(src, p.targetW, p.targetH, imaging.Lanczos)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return processErrorf("convert", "create output dir: %w", err)
	}
	if err := imaging.Save(out, outputPath); err != nil {
		return processErrorf("convert", "save %s: %w", outputPath, err)
	}

	p.processed++
	p.logger.Info().Str("input", inputPath).Str("output", outputPath).Msg("Frame converted")
	return nil
}

// ConvertDir converts every image matching pattern in inputDir into
// outputDir. Files that fail individually are skipped, not fatal.
func (p *Processor) ConvertDir(inputDir, outputDir, pattern string) (int, error) {
	if pattern == "" {
		pattern = "*.png"
	}
	if _, err := os.Stat(inputDir); err != nil {
		return 0, processErrorf("convert", "input dir: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(inputDir, pattern))
	if err != nil {
		return 0, processErrorf("convert", "bad pattern %q: %w", pattern, err)
	}

	converted := 0
	for _, in := range matches {
		out := filepath.Join(outputDir, replaceExt(filepath.Base(in), ".png"))
		if err := p.ConvertFile(in, out); err != nil {
			p.logger.Warn().Err(err).Str("file", in).Msg("Skipped file during batch convert")
			continue
		}
		converted++
	}

	p.logger.Info().Int("converted", converted).Int("matched", len(matches)).
		Msg("Batch conversion complete")
	return converted, nil
}

func replaceExt(name, ext string) string {
	return name[:len(name)-len(filepath.Ext(name))] + ext
}
