package watch

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmagana/holofan/internal/frame"
)

func TestIsImage(t *testing.T) {
	assert.True(t, isImage("photo.PNG"))
	assert.True(t, isImage("/some/dir/photo.jpeg"))
	assert.False(t, isImage("notes.txt"))
	assert.False(t, isImage("archive"))
}

func TestWatcher_ConvertsDroppedImage(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()

	proc, err := frame.NewProcessor(64, 64, zerolog.Nop())
	require.NoError(t, err)
	w, err := New(proc, outDir, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, inDir) }()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 32, 32))))
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "drop.png"), buf.Bytes(), 0o644))

	outPath := filepath.Join(outDir, "drop.png")
	deadline := time.Now().Add(3 * time.Second)
	for {
		if _, err := os.Stat(outPath); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("converted file never appeared")
		}
		time.Sleep(20 * time.Millisecond)
	}

	out, err := imaging.Open(outPath)
	require.NoError(t, err)
	assert.Equal(t, 64, out.Bounds().Dx())
	assert.Equal(t, 64, out.Bounds().Dy())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.GreaterOrEqual(t, w.Converted(), int64(1))
}

func TestWatcher_SkipsNonImages(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()

	proc, err := frame.NewProcessor(64, 64, zerolog.Nop())
	require.NoError(t, err)
	w, err := New(proc, outDir, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, inDir) }()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(inDir, "notes.txt"), []byte("hi"), 0o644))
	time.Sleep(200 * time.Millisecond)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	cancel()
	<-done
}
