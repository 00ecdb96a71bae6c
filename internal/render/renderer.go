// Package render produces animation frames for the fan display. The
// fan presents a persistence-of-vision cylinder, so "rotation" is faked
// in 2D: content is squashed horizontally by the cosine of the view
// angle, which reads as a spinning panel once streamed at speed.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/rmagana/holofan/internal/metrics"
)

// Renderer turns a line of text and a view angle into one frame.
type Renderer interface {
	Render(text string, angle float64) (*image.NRGBA, error)
}

// RenderError wraps a frame generation failure with its view angle.
type RenderError struct {
	Angle float64
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render: frame at %.1f degrees: %v", e.Angle, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// minSquash keeps edge-on frames a sliver wide instead of vanishing,
// which avoids a visible flicker at 90 and 270 degrees.
const minSquash = 0.05

var (
	textColor = color.NRGBA{R: 0, G: 255, B: 255, A: 255}
	backColor = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
)

// TextRenderer rasterizes text with a fixed bitmap font and applies
// the rotation squash. It is stateless apart from a frame counter.
type TextRenderer struct {
	width  int
	height int
	logger zerolog.Logger

	framesRendered int64
}

// NewTextRenderer creates a renderer producing width x height frames.
func NewTextRenderer(width, height int, logger zerolog.Logger) (*TextRenderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render: invalid frame size %dx%d", width, height)
	}
	return &TextRenderer{
		width:  width,
		height: height,
		logger: logger.With().Str("component", "render").Logger(),
	}, nil
}

// FramesRendered returns the number of frames produced so far.
func (r *TextRenderer) FramesRendered() int64 { return r.framesRendered }

// Render draws text centered on a black frame, squashed horizontally
// for the given view angle in degrees.
func (r *TextRenderer) Render(text string, angle float64) (*image.NRGBA, error) {
	flat, err := r.drawText(text)
	if err != nil {
		return nil, &RenderError{Angle: angle, Err: err}
	}

	squash := math.Abs(math.Cos(mgl64.DegToRad(angle)))
	if squash < minSquash {
		squash = minSquash
	}

	frame := image.NewNRGBA(image.Rect(0, 0, r.width, r.height))
	draw.Draw(frame, frame.Bounds(), image.NewUniform(backColor), image.Point{}, draw.Src)

	squashedW := int(math.Round(float64(r.width) * squash))
	if squashedW < 1 {
		squashedW = 1
	}
	squashed := imaging.Resize(flat, squashedW, r.height, imaging.Lanczos)

	offset := image.Pt((r.width-squashedW)/2, 0)
	draw.Draw(frame, squashed.Bounds().Add(offset), squashed, image.Point{}, draw.Over)

	r.framesRendered++
	metrics.FramesRendered.Inc()
	return frame, nil
}

// drawText rasterizes the text centered on an unrotated frame.
func (r *TextRenderer) drawText(text string) (*image.NRGBA, error) {
	img := image.NewNRGBA(image.Rect(0, 0, r.width, r.height))
	draw.Draw(img, img.Bounds(), image.NewUniform(backColor), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: face,
	}

	textWidth := drawer.MeasureString(text).Ceil()
	if textWidth > r.width {
		// Long lines overflow symmetrically rather than clip from one
		// side only.
		r.logger.Debug().Str("text", text).Int("width", textWidth).
			Msg("Text wider than frame")
	}

	x := (r.width - textWidth) / 2
	y := (r.height + face.Metrics().Ascent.Ceil() - face.Metrics().Descent.Ceil()) / 2
	drawer.Dot = fixed.P(x, y)
	drawer.DrawString(text)

	return img, nil
}
