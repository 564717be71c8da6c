package progress

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/k1LoW/errors"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow, color.Bold).SprintFunc()
)

// steps maps in-flight messages to the label shown next to the spinner.
var steps = map[string]string{
	"scaling background": "Creating blurred background",
	"composing image":    "Constructing final image",
}

var _ slog.Handler = (*progressHandler)(nil)

type progressHandler struct {
	handler slog.Handler
	spinner *spinner.Spinner
	out     io.Writer
	mu      *sync.Mutex
}

// New returns a slog.Handler that renders pipeline progress to out and forwards nothing else.
// h decides which levels are enabled.
func New(h slog.Handler, out io.Writer) (_ *progressHandler, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	if err := s.Color("yellow"); err != nil {
		return nil, err
	}
	return &progressHandler{
		handler: h,
		spinner: s,
		out:     out,
		mu:      &sync.Mutex{},
	}, nil
}

func (h *progressHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *progressHandler) Handle(ctx context.Context, r slog.Record) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	h.mu.Lock()
	defer h.mu.Unlock()

	if label, ok := steps[r.Message]; ok {
		h.stop()
		h.spinner.Suffix = " " + label + "..."
		h.spinner.Start()
		return nil
	}
	if r.Level >= slog.LevelError || strings.HasPrefix(r.Message, "failed to") {
		h.stop()
		return h.printf("%s %s\n", red("!"), r.Message)
	}
	switch r.Message {
	case "opened image", "accessed clipboard":
		return h.printf("%s %s%s\n", gray("-"), capitalize(r.Message), attr(r, "path"))
	case "decoded image", "read clipboard image":
		return h.printf("%s %s%s\n", gray("-"), capitalize(r.Message), attr(r, "format"))
	case "scaled background", "cropped background", "blurred background":
		return h.printf("%s %s: done\n", green("✓"), capitalize(strings.TrimSuffix(r.Message, " background")))
	case "image is already square":
		return h.printf("%s %s\n", cyan("*"), capitalize(r.Message))
	case "composed image":
		h.stop()
		return h.printf("%s Done!\n", green("✓"))
	case "backed up original file":
		h.stop()
		return h.printf("%s Original file backed up to %s\n", yellow("+"), attrValue(r, "backup"))
	case "saved image":
		h.stop()
		return h.printf("%s Saved image to %s\n", green("✓"), attrValue(r, "path"))
	case "copied image to clipboard":
		h.stop()
		return h.printf("%s Edited image copied to clipboard!\n", green("✓"))
	}
	return nil
}

func (h *progressHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &progressHandler{handler: h.handler.WithAttrs(attrs), spinner: h.spinner, out: h.out, mu: h.mu}
}

func (h *progressHandler) WithGroup(name string) slog.Handler {
	return &progressHandler{handler: h.handler.WithGroup(name), spinner: h.spinner, out: h.out, mu: h.mu}
}

// Stop stops the spinner if it is running.
func (h *progressHandler) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stop()
}

func (h *progressHandler) stop() {
	if h.spinner.Active() {
		h.spinner.Stop()
	}
}

func (h *progressHandler) printf(format string, a ...any) error {
	_, err := fmt.Fprintf(h.out, format, a...)
	return err
}

func attr(r slog.Record, key string) string {
	v := attrValue(r, key)
	if v == "" {
		return ""
	}
	return " " + gray("("+v+")")
}

func attrValue(r slog.Record, key string) string {
	var v string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			v = a.Value.String()
			return false
		}
		return true
	})
	return v
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
