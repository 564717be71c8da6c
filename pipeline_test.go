package squareframe

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memClipboard struct {
	in      image.Image
	out     image.Image
	readErr error
}

func (c *memClipboard) ReadImage(ctx context.Context) (image.Image, error) {
	if c.readErr != nil {
		return nil, c.readErr
	}
	return c.in, nil
}

func (c *memClipboard) WriteImage(ctx context.Context, img image.Image) error {
	c.out = img
	return nil
}

func TestPipelineFileToFile(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, "in.png", gradient(20, 10))
	out := filepath.Join(dir, "out.png")
	previous := encodePNG(t, gradient(1, 1))
	require.NoError(t, os.WriteFile(out, previous, 0o644))

	p := &Pipeline{BackupDir: filepath.Join(dir, "backups")}
	res, err := p.Run(context.Background(), in, out)
	require.NoError(t, err)

	assert.Equal(t, 20, res.Layout.Side)
	assert.Equal(t, out, res.OutputPath)
	require.NotEmpty(t, res.BackupPath)
	b, err := os.ReadFile(res.BackupPath)
	require.NoError(t, err)
	assert.Equal(t, previous, b, "backup should hold the pre-write bytes")

	img, err := Load(context.Background(), out, nil)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(20, 20), img.Bounds().Size())
}

func TestPipelineNoBackupForNewFile(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, "in.png", gradient(10, 30))
	out := filepath.Join(dir, "new.jpg")

	p := &Pipeline{BackupDir: filepath.Join(dir, "backups")}
	res, err := p.Run(context.Background(), in, out)
	require.NoError(t, err)
	assert.Empty(t, res.BackupPath)
	_, err = os.Stat(filepath.Join(dir, "backups"))
	assert.True(t, os.IsNotExist(err), "backup directory should not be created")
}

func TestPipelineClipboard(t *testing.T) {
	src := gradient(30, 12)
	cb := &memClipboard{in: src}
	p := &Pipeline{Clipboard: cb}
	res, err := p.Run(context.Background(), "", "")
	require.NoError(t, err)
	assert.Empty(t, res.BackupPath)
	require.NotNil(t, cb.out)
	out, ok := cb.out.(*image.NRGBA)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 30, 30), out.Bounds())
	assertForeground(t, out, src, image.Pt(0, 9))
}

func TestPipelineErrors(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, "in.png", gradient(4, 2))
	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o644))
	outDir := filepath.Join(dir, "out.png")
	require.NoError(t, os.Mkdir(outDir, 0o755))

	tests := []struct {
		name   string
		p      *Pipeline
		input  string
		output string
		want   Kind
	}{
		{"missing input", &Pipeline{}, filepath.Join(dir, "missing.png"), filepath.Join(dir, "a.png"), KindIO},
		{"undecodable input", &Pipeline{}, bad, filepath.Join(dir, "a.png"), KindDecode},
		{"unsupported output", &Pipeline{}, in, filepath.Join(dir, "a.txt"), KindIO},
		{"output is a directory", &Pipeline{}, in, outDir, KindIO},
		{"clipboard unavailable", &Pipeline{}, "", filepath.Join(dir, "a.png"), KindClipboard},
		{"clipboard read failure", &Pipeline{Clipboard: &memClipboard{readErr: &Error{Kind: KindClipboard, Err: errors.New("no image")}}}, "", "", KindClipboard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.p.Run(context.Background(), tt.input, tt.output)
			require.Error(t, err)
			assert.Equal(t, tt.want, KindOf(err), "error: %v", err)
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindIO, KindOf(ioError("failed to write: %w", os.ErrPermission)))
	assert.ErrorIs(t, ioError("failed to write: %w", os.ErrPermission), os.ErrPermission)
	// the outermost kind wins
	assert.Equal(t, KindClipboard, KindOf(clipboardError("failed to read clipboard image: %w", decodeError("bad data"))))
	assert.Equal(t, "decode", KindDecode.String())
}
