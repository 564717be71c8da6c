package squareframe

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/k1LoW/errors"
	"github.com/nfnt/resize"
)

const (
	DefaultBlurSigma = 16.0
	DefaultFilter    = "bilinear"

	// MaxBlurSigma bounds the blur kernel, which grows linearly with sigma.
	MaxBlurSigma = 1000.0
)

var filters = map[string]resize.InterpolationFunction{
	"nearest":  resize.NearestNeighbor,
	"bilinear": resize.Bilinear,
	"bicubic":  resize.Bicubic,
	"mitchell": resize.MitchellNetravali,
	"lanczos2": resize.Lanczos2,
	"lanczos3": resize.Lanczos3,
}

// Filters returns the names accepted by WithFilter.
func Filters() []string {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Layout is the geometry of a square frame for a W×H source.
type Layout struct {
	Width        int `json:"width"`
	Height       int `json:"height"`
	Side         int `json:"side"`
	ScaledWidth  int `json:"scaled_width"`
	ScaledHeight int `json:"scaled_height"`
	CropX        int `json:"crop_x"`
	CropY        int `json:"crop_y"`
	OffsetX      int `json:"offset_x"`
	OffsetY      int `json:"offset_y"`
}

// Plan computes the Layout for a width×height source.
// The background is scaled so that its shorter side equals the square side,
// then the centered square is cropped out of it.
func Plan(width, height int) (_ *Layout, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if width < 1 || height < 1 {
		return nil, decodeError("invalid image size: %dx%d", width, height)
	}
	side := max(width, height)
	short := min(width, height)
	sw := width * side / short
	sh := height * side / short
	return &Layout{
		Width:        width,
		Height:       height,
		Side:         side,
		ScaledWidth:  sw,
		ScaledHeight: sh,
		CropX:        (sw - side) / 2,
		CropY:        (sh - side) / 2,
		OffsetX:      (side - width) / 2,
		OffsetY:      (side - height) / 2,
	}, nil
}

// Square reports whether the source already has a 1:1 aspect ratio.
func (l *Layout) Square() bool {
	return l.Width == l.Height
}

// Foreground returns the region of the canvas covered by the source.
func (l *Layout) Foreground() image.Rectangle {
	return image.Rect(l.OffsetX, l.OffsetY, l.OffsetX+l.Width, l.OffsetY+l.Height)
}

// Compositor pads images into squares filled with a blurred copy of themselves.
type Compositor struct {
	sigma      float64
	filterName string
	filter     resize.InterpolationFunction
	logger     *slog.Logger
}

// Option configures a Compositor.
type Option func(*Compositor) error

// WithBlurSigma sets the standard deviation of the Gaussian blur applied to the background.
// Zero disables blurring. Sigma must be finite and within [0, MaxBlurSigma].
func WithBlurSigma(sigma float64) Option {
	return func(c *Compositor) error {
		if math.IsNaN(sigma) || math.IsInf(sigma, 0) || sigma < 0 || sigma > MaxBlurSigma {
			return fmt.Errorf("invalid blur sigma: %v (must be between 0 and %v)", sigma, MaxBlurSigma)
		}
		c.sigma = sigma
		return nil
	}
}

// WithFilter sets the resampling filter used to scale the background.
func WithFilter(name string) Option {
	return func(c *Compositor) error {
		if name == "" {
			return nil
		}
		f, ok := filters[strings.ToLower(name)]
		if !ok {
			return fmt.Errorf("unknown filter: %s (available: %s)", name, strings.Join(Filters(), ", "))
		}
		c.filterName = strings.ToLower(name)
		c.filter = f
		return nil
	}
}

// WithLogger sets the logger that receives progress records. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compositor) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// New creates a new Compositor.
func New(opts ...Option) (_ *Compositor, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	c := &Compositor{
		sigma:      DefaultBlurSigma,
		filterName: DefaultFilter,
		filter:     filters[DefaultFilter],
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Compose returns a new S×S image, S = max(W, H), with src centered unmodified
// on top of a blurred copy of src scaled to cover the square. src is not modified.
func (c *Compositor) Compose(src image.Image) (_ *image.NRGBA, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if src == nil {
		return nil, decodeError("image is nil")
	}
	b := src.Bounds()
	l, err := Plan(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	if l.Square() {
		c.logger.Info("image is already square", slog.Int("side", l.Side))
		return imaging.Clone(src), nil
	}
	bg := c.Background(src, l)
	c.logger.Info("composing image", slog.Int("offset_x", l.OffsetX), slog.Int("offset_y", l.OffsetY))
	out := imaging.Paste(bg, src, image.Pt(l.OffsetX, l.OffsetY))
	c.logger.Info("composed image", slog.Int("side", l.Side))
	return out, nil
}

// Background returns the blurred S×S fill for src laid out as l.
func (c *Compositor) Background(src image.Image, l *Layout) *image.NRGBA {
	c.logger.Info("scaling background", slog.Int("width", l.ScaledWidth), slog.Int("height", l.ScaledHeight), slog.String("filter", c.filterName))
	scaled := resize.Resize(uint(l.ScaledWidth), uint(l.ScaledHeight), src, c.filter)
	c.logger.Info("scaled background")

	// resize returns src itself when no scaling is needed, so crop relative to its origin.
	crop := image.Rect(l.CropX, l.CropY, l.CropX+l.Side, l.CropY+l.Side).Add(scaled.Bounds().Min)
	bg := imaging.Crop(scaled, crop)
	c.logger.Info("cropped background", slog.Int("x", l.CropX), slog.Int("y", l.CropY))

	if c.sigma > 0 {
		bg = imaging.Blur(bg, c.sigma)
	}
	c.logger.Info("blurred background", slog.Float64("sigma", c.sigma))
	return bg
}
