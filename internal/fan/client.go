// Package fan implements the HTTP delivery client for holographic LED
// fan displays. Fans accept one frame per multipart upload and signal
// acceptance only through the status code, so the client owns retry,
// backoff, and rate-paced streaming on top of that bare contract.
package fan

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rmagana/holofan/internal/metrics"
)

// DeliveryError reports a frame that was dropped after every upload
// attempt failed.
type DeliveryError struct {
	Attempts int
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("fan: failed to send frame after %d attempts: %v", e.Attempts, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Config holds delivery client settings.
type Config struct {
	BaseURL    string
	UploadPath string
	FrameRate  int
	Width      int
	Height     int

	// ConnectTimeout bounds dialing; ReadTimeout bounds the whole
	// request. Both are mandatory: an unresponsive fan must not hang
	// the pipeline.
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	RetryCount     int
}

// DefaultConfig returns the settings that match the stock fan firmware.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "http://192.168.1.100",
		UploadPath:     "/upload_frame",
		FrameRate:      30,
		Width:          256,
		Height:         256,
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    30 * time.Second,
		RetryCount:     3,
	}
}

// StreamResult is the aggregate outcome of one streaming session.
// Sent < Total is an expected steady-state condition, not an error.
type StreamResult struct {
	Sent  int
	Total int
}

// Client owns the HTTP session to one fan. It is driven by a single
// caller sequence at a time; concurrent sessions would need their own
// locking around the connection and the sent counter.
type Client struct {
	cfg        *Config
	url        string
	httpClient *http.Client
	logger     zerolog.Logger

	framesSent int64

	// sleep is swapped out in tests to assert backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error

	// onFrame, when set, receives every encoded frame as it is sent.
	// Used for the local preview mirror.
	onFrame func(pngData []byte)
}

// NewClient creates a delivery client for the configured fan endpoint.
func NewClient(cfg *Config, logger zerolog.Logger) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
	}

	c := &Client{
		cfg: cfg,
		url: strings.TrimRight(cfg.BaseURL, "/") + cfg.UploadPath,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.ReadTimeout,
		},
		logger: logger.With().Str("component", "fan").Logger(),
		sleep:  sleepCtx,
	}

	c.logger.Info().Str("url", c.url).Msg("Fan client initialized")
	return c
}

// SetFrameObserver registers a callback receiving each frame's PNG
// bytes as it is uploaded.
func (c *Client) SetFrameObserver(fn func(pngData []byte)) {
	c.onFrame = fn
}

// URL returns the full upload endpoint.
func (c *Client) URL() string { return c.url }

// FramesSent returns how many frames the fan has confirmed.
func (c *Client) FramesSent() int64 { return c.framesSent }

// SendFrame uploads one frame with the configured retry count.
func (c *Client) SendFrame(ctx context.Context, frame *image.NRGBA) error {
	return c.SendFrameRetry(ctx, frame, c.cfg.RetryCount)
}

// SendFrameRetry uploads one frame, retrying up to retryCount times.
// Each attempt re-encodes and re-sends; HTTP 200 is the only success
// signal. Failed attempts are separated by a linear 0.5s x attempt
// backoff (the fan's input queue saturates quickly, so exponential
// backoff only wastes session time). The backoff sleep honors ctx.
func (c *Client) SendFrameRetry(ctx context.Context, frame *image.NRGBA, retryCount int) error {
	if retryCount <= 0 {
		retryCount = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retryCount; attempt++ {
		err := c.upload(ctx, frame)
		if err == nil {
			c.framesSent++
			metrics.FramesSent.Inc()
			c.logger.Debug().Int64("framesSent", c.framesSent).Msg("Frame sent")
			return nil
		}
		lastErr = err
		c.logger.Warn().Err(err).
			Int("attempt", attempt).Int("retryCount", retryCount).
			Msg("Frame upload failed")

		if attempt < retryCount {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			if serr := c.sleep(ctx, backoff); serr != nil {
				metrics.FramesFailed.Inc()
				return &DeliveryError{Attempts: attempt, Err: serr}
			}
		}
	}

	metrics.FramesFailed.Inc()
	return &DeliveryError{Attempts: retryCount, Err: lastErr}
}

// upload performs a single attempt: encode the frame as PNG and POST it
// as the multipart part named "frame".
func (c *Client) upload(ctx context.Context, frame *image.NRGBA) error {
	if frame == nil {
		return fmt.Errorf("nil frame")
	}

	var encoded bytes.Buffer
	if err := png.Encode(&encoded, frame); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	if c.onFrame != nil {
		c.onFrame(encoded.Bytes())
	}

	return c.post(ctx, encoded.Bytes(), "frame.png")
}

// post sends already-encoded PNG bytes to the fan.
func (c *Client) post(ctx context.Context, pngData []byte, filename string) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="frame"; filename=%q`, filename))
	header.Set("Content-Type", "image/png")

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(pngData); err != nil {
		return fmt.Errorf("write multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	metrics.SendAttempts.Inc()
	resp, err := c.httpClient.Do(req)
	metrics.SendDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) // body carries no contract, drain for keep-alive

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fan rejected frame: status %d", resp.StatusCode)
	}
	return nil
}

// SendFile uploads a single image file as-is, one attempt.
func (c *Client) SendFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &DeliveryError{Attempts: 1, Err: fmt.Errorf("read %s: %w", path, err)}
	}
	if err := c.post(ctx, data, filepath.Base(path)); err != nil {
		return &DeliveryError{Attempts: 1, Err: err}
	}
	c.framesSent++
	metrics.FramesSent.Inc()
	c.logger.Info().Str("file", path).Msg("Frame from file sent")
	return nil
}

// StreamFrames pushes frames in order at the target rate. A frame that
// fails even after its retries is counted and skipped; holding cadence
// for the remaining frames beats back-pressuring the whole animation
// on one bad frame. The session result is always returned, even when
// every frame failed or the context was cancelled mid-stream.
func (c *Client) StreamFrames(ctx context.Context, frames []*image.NRGBA, frameRate int) StreamResult {
	if frameRate <= 0 {
		frameRate = c.cfg.FrameRate
	}
	frameDelay := time.Second / time.Duration(frameRate)

	result := StreamResult{Total: len(frames)}
	c.logger.Info().Int("frames", result.Total).Int("fps", frameRate).
		Msg("Starting frame stream")

	for i, frame := range frames {
		if ctx.Err() != nil {
			c.logger.Warn().Int("delivered", i).Msg("Frame stream cancelled")
			break
		}

		start := time.Now()
		if err := c.SendFrame(ctx, frame); err != nil {
			c.logger.Error().Err(err).Int("index", i).Msg("Dropping frame, continuing stream")
		} else {
			result.Sent++
		}

		if remaining := frameDelay - time.Since(start); remaining > 0 {
			if err := c.sleep(ctx, remaining); err != nil {
				c.logger.Warn().Int("delivered", i+1).Msg("Frame stream cancelled")
				break
			}
		}

		if (i+1)%10 == 0 {
			c.logger.Info().Int("streamed", i+1).Int("total", result.Total).Msg("Stream progress")
		}
	}

	metrics.StreamSessions.Inc()
	c.logger.Info().Int("sent", result.Sent).Int("total", result.Total).
		Msg("Stream complete")
	return result
}

// TestConnection uploads a synthetic test frame to health-check the
// fan. Failure is reported as false, never as an error.
func (c *Client) TestConnection(ctx context.Context) bool {
	if err := c.SendFrame(ctx, c.testFrame()); err != nil {
		c.logger.Warn().Err(err).Msg("Fan connection test failed")
		return false
	}
	c.logger.Info().Msg("Fan connection test successful")
	return true
}

// testFrame builds a red vertical gradient at the device resolution.
func (c *Client) testFrame() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, c.cfg.Width, c.cfg.Height))
	for y := 0; y < c.cfg.Height; y++ {
		r := uint8(255 * y / c.cfg.Height)
		for x := 0; x < c.cfg.Width; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i] = r
			img.Pix[i+3] = 255
		}
	}
	return img
}

// Stats is a point-in-time snapshot of the client.
type Stats struct {
	FramesSent int64  `json:"framesSent"`
	URL        string `json:"url"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FrameRate  int    `json:"frameRate"`
}

// GetStats snapshots delivery counters and configuration.
func (c *Client) GetStats() Stats {
	return Stats{
		FramesSent: c.framesSent,
		URL:        c.url,
		Width:      c.cfg.Width,
		Height:     c.cfg.Height,
		FrameRate:  c.cfg.FrameRate,
	}
}

// Close releases idle connections held by the HTTP session.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
	c.logger.Info().Msg("Fan client closed")
}

// sleepCtx blocks for d or until ctx is done, whichever comes first.
// Keeps retry backoff and frame pacing responsive to shutdown.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
