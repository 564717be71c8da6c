package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		files   map[string]string
		env     map[string]string
		want    *Config
	}{
		{
			name: "no config file",
			want: &Config{},
		},
		{
			name: "default config",
			files: map[string]string{
				"config.yml": `
blurSigma: 8.5
filter: lanczos3
backupDir: /tmp/backups
clipboard:
  readCommand: my-paste
  writeCommand: my-copy
`,
			},
			want: &Config{
				BlurSigma: float64Ptr(8.5),
				Filter:    "lanczos3",
				BackupDir: "/tmp/backups",
				Clipboard: &Clipboard{
					ReadCommand:  "my-paste",
					WriteCommand: "my-copy",
				},
			},
		},
		{
			name: "yaml extension",
			files: map[string]string{
				"config.yaml": `filter: nearest`,
			},
			want: &Config{Filter: "nearest"},
		},
		{
			name:    "profile takes precedence",
			profile: "work",
			files: map[string]string{
				"config.yml":      `filter: nearest`,
				"config-work.yml": `filter: bicubic`,
			},
			want: &Config{Filter: "bicubic"},
		},
		{
			name:    "missing profile falls back to default",
			profile: "missing",
			files: map[string]string{
				"config.yml": `filter: nearest`,
			},
			want: &Config{Filter: "nearest"},
		},
		{
			name: "environment variables are expanded",
			files: map[string]string{
				"config.yml": `backupDir: ${SQUAREFRAME_TEST_BACKUP}/frames`,
			},
			env: map[string]string{
				"SQUAREFRAME_TEST_BACKUP": "/var/tmp",
			},
			want: &Config{BackupDir: "/var/tmp/frames"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			t.Setenv("XDG_CONFIG_HOME", tmpDir)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			configHomePath = ""
			t.Cleanup(func() {
				configHomePath = ""
			})

			dir := filepath.Join(tmpDir, "squareframe")
			if err := os.MkdirAll(dir, 0755); err != nil {
				t.Fatalf("Failed to create config directory: %v", err)
			}
			for name, content := range tt.files {
				if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
					t.Fatalf("Failed to write config file: %v", err)
				}
			}

			got, err := Load(tt.profile)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	configHomePath = ""
	t.Cleanup(func() {
		configHomePath = ""
	})
	dir := filepath.Join(tmpDir, "squareframe")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte("blurSigma: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(""); err == nil {
		t.Error("Load() should fail on malformed YAML")
	}
}

func TestClipboardCommands(t *testing.T) {
	var nilConfig *Config
	if got := nilConfig.ReadCommand(); got != "" {
		t.Errorf("ReadCommand() = %q, want empty", got)
	}
	cfg := &Config{Clipboard: &Clipboard{ReadCommand: "r", WriteCommand: "w"}}
	if got := cfg.ReadCommand(); got != "r" {
		t.Errorf("ReadCommand() = %q, want %q", got, "r")
	}
	if got := cfg.WriteCommand(); got != "w" {
		t.Errorf("WriteCommand() = %q, want %q", got, "w")
	}
}

func TestStateHomePath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/xdg/state")
	stateHomePath = ""
	t.Cleanup(func() {
		stateHomePath = ""
	})
	if got, want := StateHomePath(), filepath.Join("/xdg/state", "squareframe"); got != want {
		t.Errorf("StateHomePath() = %q, want %q", got, want)
	}
}

func float64Ptr(v float64) *float64 {
	return &v
}
