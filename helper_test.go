package squareframe

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// gradient returns an opaque image whose pixels are distinct enough to detect misplacement.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 5), B: uint8(x + y), A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, encodePNG(t, img), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// assertForeground fails unless out holds src unmodified at offset.
func assertForeground(t *testing.T, out *image.NRGBA, src image.Image, offset image.Point) {
	t.Helper()
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			want := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			got := out.NRGBAAt(offset.X+x-b.Min.X, offset.Y+y-b.Min.Y)
			if got != want {
				t.Fatalf("pixel (%d, %d) of source = %v, got %v at (%d, %d)", x, y, want, got, offset.X+x-b.Min.X, offset.Y+y-b.Min.Y)
			}
		}
	}
}
