package squareframe

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	osexec "os/exec"
	"runtime"
	"strings"

	"github.com/k1LoW/errors"
	"github.com/k1LoW/exec"
)

// Clipboard reads and writes images on the system clipboard.
type Clipboard interface {
	ReadImage(ctx context.Context) (image.Image, error)
	WriteImage(ctx context.Context, img image.Image) error
}

// ClipboardCommands are shell command lines used to access the clipboard.
// ReadCommand must print an image to stdout. WriteCommand receives PNG data on stdin.
type ClipboardCommands struct {
	ReadCommand  string
	WriteCommand string
}

const darwinWriteCommand = `f="$(mktemp -t squareframe).png" && cat > "$f" && osascript -e "set the clipboard to (read (POSIX file \"$f\") as «class PNGf»)"; s=$?; rm -f "$f"; exit $s`

// DefaultClipboardCommands returns the clipboard commands for the running platform.
func DefaultClipboardCommands() ClipboardCommands {
	switch {
	case runtime.GOOS == "darwin":
		return ClipboardCommands{
			ReadCommand:  "pngpaste -",
			WriteCommand: darwinWriteCommand,
		}
	case os.Getenv("WAYLAND_DISPLAY") != "":
		return ClipboardCommands{
			ReadCommand:  "wl-paste --type image/png",
			WriteCommand: "wl-copy --type image/png",
		}
	case runtime.GOOS == "windows":
		return ClipboardCommands{}
	default:
		return ClipboardCommands{
			ReadCommand:  "xclip -selection clipboard -t image/png -o",
			WriteCommand: "xclip -selection clipboard -t image/png -i",
		}
	}
}

var _ Clipboard = (*commandClipboard)(nil)

type commandClipboard struct {
	cmds   ClipboardCommands
	logger *slog.Logger
}

// NewClipboardCommands fills the empty commands of cmds with DefaultClipboardCommands.
func NewClipboardCommands(cmds ClipboardCommands) ClipboardCommands {
	def := DefaultClipboardCommands()
	if cmds.ReadCommand == "" {
		cmds.ReadCommand = def.ReadCommand
	}
	if cmds.WriteCommand == "" {
		cmds.WriteCommand = def.WriteCommand
	}
	return cmds
}

// NewClipboard returns a Clipboard backed by external commands.
// Empty commands fall back to DefaultClipboardCommands.
func NewClipboard(cmds ClipboardCommands, logger *slog.Logger) Clipboard {
	cmds = NewClipboardCommands(cmds)
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &commandClipboard{
		cmds:   cmds,
		logger: logger,
	}
}

// ReadImage runs the read command and decodes its output.
func (c *commandClipboard) ReadImage(ctx context.Context) (_ image.Image, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if c.cmds.ReadCommand == "" {
		return nil, clipboardError("no clipboard read command configured for %s", runtime.GOOS)
	}
	cmd, err := c.command(ctx, c.cmds.ReadCommand)
	if err != nil {
		return nil, err
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, clipboardError("failed to read clipboard image: %w\nstderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	c.logger.Info("accessed clipboard", slog.Int("bytes", stdout.Len()))
	if stdout.Len() == 0 {
		return nil, clipboardError("failed to read clipboard image: clipboard is empty")
	}
	img, format, err := Decode(&stdout)
	if err != nil {
		return nil, clipboardError("failed to read clipboard image (perhaps it does not hold an image?): %w", err)
	}
	c.logger.Info("read clipboard image", slog.String("format", format), slog.String("size", describe(img)))
	return img, nil
}

// WriteImage encodes img as PNG and pipes it into the write command.
func (c *commandClipboard) WriteImage(ctx context.Context, img image.Image) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if c.cmds.WriteCommand == "" {
		return clipboardError("no clipboard write command configured for %s", runtime.GOOS)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, img); err != nil {
		return err
	}
	cmd, err := c.command(ctx, c.cmds.WriteCommand)
	if err != nil {
		return err
	}
	var stderr bytes.Buffer
	cmd.Stdin = &buf
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return clipboardError("failed to copy image to clipboard: %w\nstderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	c.logger.Info("copied image to clipboard", slog.String("size", describe(img)))
	return nil
}

func (c *commandClipboard) command(ctx context.Context, line string) (*osexec.Cmd, error) {
	shell, args, err := buildCommand(line)
	if err != nil {
		return nil, clipboardError("failed to build clipboard command: %w", err)
	}
	cmd := exec.CommandContext(ctx, shell, args...)
	cmd.Env = os.Environ()
	return cmd, nil
}

// buildCommand wraps cmdStr into an invocation of the current shell.
func buildCommand(cmdStr string) (string, []string, error) {
	shell, err := detectShell()
	if err != nil {
		return "", nil, err
	}
	return shell, []string{"-c", cmdStr}, nil
}

func detectShell() (string, error) {
	shells := []string{
		os.Getenv("SHELL"),
		"/bin/bash",
		"/bin/sh",
	}
	for _, shell := range shells {
		if shell == "" {
			continue
		}
		if _, err := os.Stat(shell); err == nil {
			return shell, nil
		}
	}
	return "", fmt.Errorf("failed to detect shell")
}

// CommandName returns the executable a clipboard command line starts with.
func CommandName(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
