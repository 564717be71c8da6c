package squareframe

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/k1LoW/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const userAgent = "squareframe (+https://github.com/k1LoW/squareframe)"

// IsURL reports whether pathOrURL should be fetched over HTTP.
func IsURL(pathOrURL string) bool {
	return strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://")
}

// Load reads and decodes an image from a file path or an http(s) URL.
func Load(ctx context.Context, pathOrURL string, logger *slog.Logger) (_ image.Image, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var b []byte
	if IsURL(pathOrURL) {
		b, err = fetch(ctx, pathOrURL, logger)
		if err != nil {
			return nil, err
		}
	} else {
		b, err = os.ReadFile(pathOrURL)
		if err != nil {
			return nil, ioError("failed to open image file %s: %w", pathOrURL, err)
		}
	}
	logger.Info("opened image", slog.String("path", pathOrURL))
	img, format, err := Decode(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	logger.Info("decoded image", slog.String("format", format), slog.Int("width", img.Bounds().Dx()), slog.Int("height", img.Bounds().Dy()))
	return img, nil
}

// Decode decodes an image and returns it together with its format name.
// EXIF orientation of JPEG images is applied.
func Decode(r io.Reader) (_ image.Image, _ string, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, "", ioError("failed to read image data: %w", err)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, "", decodeError("failed to decode image: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", decodeError("failed to decode %s image: %w", format, err)
	}
	if img.Bounds().Empty() {
		return nil, "", decodeError("image is empty")
	}
	return img, format, nil
}

// Save encodes img to path. The format is chosen by the file extension.
func Save(img image.Image, path string) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if err := CheckFormat(path); err != nil {
		return err
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(95)); err != nil {
		return ioError("failed to save image to %s: %w", path, err)
	}
	return nil
}

// CheckFormat returns an error if no encoder is available for path's extension.
func CheckFormat(path string) error {
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return ioError("unsupported output format %q: %w", filepath.Ext(path), err)
	}
	return nil
}

// Encode writes img to w as PNG.
func Encode(w io.Writer, img image.Image) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return ioError("failed to encode image: %w", err)
	}
	return nil
}

func fetch(ctx context.Context, rawURL string, logger *slog.Logger) (_ []byte, err error) {
	if _, err := url.Parse(rawURL); err != nil {
		return nil, ioError("invalid URL %s: %w", rawURL, err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, ioError("failed to fetch image from URL %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	res, err := newHTTPClient(logger).Do(req)
	if err != nil {
		return nil, ioError("failed to fetch image from URL %s: %w", rawURL, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, ioError("failed to fetch image from URL %s: status code %d", rawURL, res.StatusCode)
	}
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, ioError("failed to read image from URL %s: %w", rawURL, err)
	}
	return b, nil
}

func newHTTPClient(logger *slog.Logger) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.HTTPClient.Timeout = 30 * time.Second
	c.RetryMax = 3
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 5 * time.Second
	c.Logger = newHTTPLogger(logger)
	return c
}

var _ retryablehttp.LeveledLogger = (*httpLogger)(nil)

type httpLogger struct {
	l *slog.Logger
}

func newHTTPLogger(l *slog.Logger) retryablehttp.LeveledLogger {
	return &httpLogger{
		l: l.WithGroup("http"),
	}
}

func (l *httpLogger) Error(msg string, keysAndValues ...any) {
	l.l.Error(msg, keysAndValues...)
}

func (l *httpLogger) Info(msg string, keysAndValues ...any) {
	l.l.Info(msg, keysAndValues...)
}

func (l *httpLogger) Debug(msg string, keysAndValues ...any) {
	l.l.Debug(msg, keysAndValues...)
}

func (l *httpLogger) Warn(msg string, keysAndValues ...any) {
	l.l.Warn(msg, keysAndValues...)
}

func describe(img image.Image) string {
	return fmt.Sprintf("%dx%d", img.Bounds().Dx(), img.Bounds().Dy())
}
