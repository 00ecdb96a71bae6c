// Package watch converts images dropped into a directory as they
// arrive. It backs the `holofan watch` command: point it at a folder,
// and anything saved there comes out fan-ready in the output folder.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/rmagana/holofan/internal/frame"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
}

// Watcher converts new images in a watched directory.
type Watcher struct {
	processor *frame.Processor
	outDir    string
	logger    zerolog.Logger
	watcher   *fsnotify.Watcher

	converted int64
}

// New creates a watcher converting into outDir.
func New(processor *frame.Processor, outDir string, logger zerolog.Logger) (*Watcher, error) {
	if processor == nil {
		return nil, fmt.Errorf("watch: processor is required")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	return &Watcher{
		processor: processor,
		outDir:    outDir,
		logger:    logger.With().Str("component", "watch").Logger(),
		watcher:   fsw,
	}, nil
}

// Converted returns how many files have been converted so far.
func (w *Watcher) Converted() int64 { return w.converted }

// Run watches dir until ctx is cancelled. Conversion failures are
// logged and skipped; a half-written file showing up as unreadable is
// normal and the next write event retries it.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch: add %s: %w", dir, err)
	}
	defer w.watcher.Close()

	w.logger.Info().Str("dir", dir).Str("outDir", w.outDir).Msg("Watching for images")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Int64("converted", w.converted).Msg("Watch stopped")
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isImage(event.Name) {
				continue
			}
			w.convert(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("Watcher error")
		}
	}
}

func (w *Watcher) convert(path string) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(w.outDir, base+".png")

	if err := w.processor.ConvertFile(path, outPath); err != nil {
		w.logger.Warn().Err(err).Str("file", path).Msg("Conversion failed, skipping")
		return
	}
	w.converted++
	w.logger.Info().Str("in", path).Str("out", outPath).Msg("Image converted")
}

func isImage(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}
