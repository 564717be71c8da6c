package squareframe

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"
)

func TestCommandClipboard(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, "clipboard.png", gradient(9, 4))
	out := filepath.Join(dir, "copied.png")
	cb := NewClipboard(ClipboardCommands{
		ReadCommand:  fmt.Sprintf("cat %q", in),
		WriteCommand: fmt.Sprintf("cat > %q", out),
	}, nil)

	img, err := cb.ReadImage(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Size(); got != image.Pt(9, 4) {
		t.Errorf("size = %v, want 9x4", got)
	}

	if err := cb.WriteImage(context.Background(), img); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	copied, format, err := Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if format != "png" {
		t.Errorf("format = %q, want png", format)
	}
	if got := copied.Bounds().Size(); got != image.Pt(9, 4) {
		t.Errorf("size = %v, want 9x4", got)
	}
}

func TestCommandClipboardErrors(t *testing.T) {
	tests := []struct {
		name string
		cmds ClipboardCommands
	}{
		{"failing command", ClipboardCommands{ReadCommand: "echo nope >&2; exit 3", WriteCommand: "exit 1"}},
		{"empty clipboard", ClipboardCommands{ReadCommand: "true", WriteCommand: "exit 1"}},
		{"not an image", ClipboardCommands{ReadCommand: "echo hello", WriteCommand: "exit 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := NewClipboard(tt.cmds, nil)
			_, err := cb.ReadImage(context.Background())
			if err == nil {
				t.Fatal("ReadImage() should fail")
			}
			if got := KindOf(err); got != KindClipboard {
				t.Errorf("KindOf() = %v, want %v", got, KindClipboard)
			}
			err = cb.WriteImage(context.Background(), gradient(2, 2))
			if err == nil {
				t.Fatal("WriteImage() should fail")
			}
			if got := KindOf(err); got != KindClipboard {
				t.Errorf("KindOf() = %v, want %v", got, KindClipboard)
			}
		})
	}
}

func TestNewClipboardCommands(t *testing.T) {
	def := DefaultClipboardCommands()
	got := NewClipboardCommands(ClipboardCommands{ReadCommand: "custom-paste"})
	if got.ReadCommand != "custom-paste" {
		t.Errorf("ReadCommand = %q, want custom-paste", got.ReadCommand)
	}
	if got.WriteCommand != def.WriteCommand {
		t.Errorf("WriteCommand = %q, want %q", got.WriteCommand, def.WriteCommand)
	}
}

func TestDefaultClipboardCommandsWayland(t *testing.T) {
	t.Setenv("WAYLAND_DISPLAY", "wayland-0")
	got := DefaultClipboardCommands()
	if CommandName(got.ReadCommand) == "" || CommandName(got.WriteCommand) == "" {
		t.Errorf("DefaultClipboardCommands() = %+v, want commands", got)
	}
}

func TestCommandName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"xclip -selection clipboard -o", "xclip"},
		{"  wl-paste --type image/png", "wl-paste"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CommandName(tt.in); got != tt.want {
			t.Errorf("CommandName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
