package squareframe

import (
	"context"
	"crypto/sha256"
	"image"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
	"github.com/k1LoW/errors"
	"github.com/lestrrat-go/backoff/v2"
	"golang.org/x/sync/errgroup"
)

// Watch runs the pipeline once and again every time the file at inputPath changes,
// until ctx is canceled. Failures of a single run are logged and do not stop watching.
func (p *Pipeline) Watch(ctx context.Context, inputPath, outputPath string) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if inputPath == "" || IsURL(inputPath) {
		return ioError("watch requires a local input file: %q", inputPath)
	}
	if outputPath == "" {
		return ioError("watch requires an output file")
	}
	if err := CheckFormat(outputPath); err != nil {
		return err
	}
	abs, err := filepath.Abs(inputPath)
	if err != nil {
		return ioError("failed to resolve %s: %w", inputPath, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return ioError("failed to create watcher: %w", err)
	}
	defer w.Close()
	// Watch the directory: editors often replace the file instead of writing to it.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return ioError("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	changes := make(chan struct{}, 1)
	changes <- struct{}{}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				return ioError("failed to watch %s: %w", inputPath, err)
			}
		}
	})
	eg.Go(func() error {
		var last *snapshot
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-changes:
				snap, err := p.process(ctx, inputPath, outputPath, last)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					p.logger().Error("failed to process image", slog.String("path", inputPath), slog.String("error", err.Error()))
					continue
				}
				last = snap
			}
		}
	})
	return eg.Wait()
}

// snapshot identifies a processed image.
// hash is a cheap pre-check, sum covers every pixel.
type snapshot struct {
	hash *goimagehash.ImageHash
	size image.Point
	sum  [sha256.Size]byte
}

func takeSnapshot(src image.Image) (*snapshot, error) {
	hash, err := goimagehash.PerceptionHash(src)
	if err != nil {
		return nil, decodeError("failed to compute perceptual hash: %w", err)
	}
	return &snapshot{
		hash: hash,
		size: src.Bounds().Size(),
		sum:  sha256.Sum256(imaging.Clone(src).Pix),
	}, nil
}

// same reports whether s and o were taken from pixel-identical images.
func (s *snapshot) same(o *snapshot) bool {
	if s == nil || o == nil {
		return false
	}
	if distance, err := s.hash.Distance(o.hash); err != nil || distance != 0 {
		return false
	}
	return s.size == o.size && s.sum == o.sum
}

// process frames inputPath unless it is identical to the image taken as last.
func (p *Pipeline) process(ctx context.Context, inputPath, outputPath string, last *snapshot) (*snapshot, error) {
	src, err := p.loadWithRetry(ctx, inputPath)
	if err != nil {
		return last, err
	}
	snap, err := takeSnapshot(src)
	if err != nil {
		return last, err
	}
	if snap.same(last) {
		p.logger().Info("skipped unchanged image", slog.String("path", inputPath))
		return last, nil
	}
	c, err := p.compositor()
	if err != nil {
		return last, err
	}
	out, err := c.Compose(src)
	if err != nil {
		return last, err
	}
	if _, err := p.Emit(ctx, out, outputPath); err != nil {
		return last, err
	}
	return snap, nil
}

// loadWithRetry retries Load while the file may still be being written.
func (p *Pipeline) loadWithRetry(ctx context.Context, path string) (image.Image, error) {
	policy := backoff.Exponential(
		backoff.WithMinInterval(50*time.Millisecond),
		backoff.WithMaxInterval(time.Second),
		backoff.WithJitterFactor(0.05),
		backoff.WithMaxRetries(5),
	)
	b := policy.Start(ctx)
	var lastErr error
	for backoff.Continue(b) {
		img, err := Load(ctx, path, p.logger())
		if err == nil {
			return img, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		return nil, ctx.Err()
	}
	return nil, lastErr
}
