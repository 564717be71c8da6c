package squareframe

import (
	"context"
	"image"
	"io"
	"log/slog"

	"github.com/k1LoW/errors"
)

// Pipeline acquires an image, frames it and emits the result.
// An empty input or output path means the clipboard.
type Pipeline struct {
	Compositor *Compositor
	Clipboard  Clipboard
	BackupDir  string
	Logger     *slog.Logger
}

// Result describes a completed run.
type Result struct {
	Layout     *Layout
	OutputPath string
	BackupPath string
}

// Run acquires the source image, composes the square frame and emits the result.
func (p *Pipeline) Run(ctx context.Context, inputPath, outputPath string) (_ *Result, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if outputPath != "" {
		// fail before any work if the result could not be written anyway
		if err := CheckFormat(outputPath); err != nil {
			return nil, err
		}
	}
	src, err := p.Acquire(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	l, err := Plan(src.Bounds().Dx(), src.Bounds().Dy())
	if err != nil {
		return nil, err
	}
	c, err := p.compositor()
	if err != nil {
		return nil, err
	}
	out, err := c.Compose(src)
	if err != nil {
		return nil, err
	}
	backupPath, err := p.Emit(ctx, out, outputPath)
	if err != nil {
		return nil, err
	}
	return &Result{
		Layout:     l,
		OutputPath: outputPath,
		BackupPath: backupPath,
	}, nil
}

// Acquire loads the source image from inputPath, or from the clipboard when inputPath is empty.
func (p *Pipeline) Acquire(ctx context.Context, inputPath string) (_ image.Image, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if inputPath == "" {
		if p.Clipboard == nil {
			return nil, clipboardError("clipboard is not available")
		}
		return p.Clipboard.ReadImage(ctx)
	}
	return Load(ctx, inputPath, p.logger())
}

// Emit writes img to outputPath, backing up an existing file first,
// or copies it to the clipboard when outputPath is empty.
func (p *Pipeline) Emit(ctx context.Context, img image.Image, outputPath string) (_ string, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if outputPath == "" {
		if p.Clipboard == nil {
			return "", clipboardError("clipboard is not available")
		}
		return "", p.Clipboard.WriteImage(ctx, img)
	}
	backupPath, err := Backup(outputPath, p.BackupDir)
	if err != nil {
		return "", err
	}
	if backupPath != "" {
		p.logger().Info("backed up original file", slog.String("path", outputPath), slog.String("backup", backupPath))
	}
	if err := Save(img, outputPath); err != nil {
		return backupPath, err
	}
	p.logger().Info("saved image", slog.String("path", outputPath))
	return backupPath, nil
}

func (p *Pipeline) compositor() (*Compositor, error) {
	if p.Compositor == nil {
		c, err := New(WithLogger(p.Logger))
		if err != nil {
			return nil, err
		}
		p.Compositor = c
	}
	return p.Compositor, nil
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p.Logger
}
