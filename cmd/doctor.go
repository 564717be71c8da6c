/*
Copyright © 2025 Ken'ichiro Oyama <k1lowxb@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/k1LoW/exec"
	"github.com/k1LoW/squareframe"
	"github.com/k1LoW/squareframe/config"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "check the environment for squareframe",
	Long:  `check the environment for squareframe.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStderr()
		green := color.New(color.FgGreen)
		red := color.New(color.FgRed)
		yellow := color.New(color.FgYellow)
		bold := color.New(color.Bold)

		allOK := true

		// 1. Check configuration file (optional)
		cmd.Print("🔧 Checking configuration file ... ")
		cfg, err := config.Load(profile)
		if err != nil {
			_, _ = yellow.Fprintln(out, "⚠️ CONFIG ERROR")
			cmd.Printf("   Error loading config: %v\n", err)
			cfg = &config.Config{}
			allOK = false
		} else {
			_, _ = green.Fprintln(out, "✓ OK")
			cmd.Printf("   Config directory: %s\n", config.ConfigHomePath())
		}
		s := resolveSettings(cmd, cfg)

		// 2. Check clipboard commands
		cmds := squareframe.NewClipboardCommands(s.clipboard)
		for _, c := range []struct {
			name string
			line string
		}{
			{"read", cmds.ReadCommand},
			{"write", cmds.WriteCommand},
		} {
			cmd.Printf("📋 Checking clipboard %s command ... ", c.name)
			path, err := checkCommand(c.line)
			if err != nil {
				_, _ = red.Fprintln(out, "✗ NOT AVAILABLE")
				cmd.Printf("   %v\n", err)
				allOK = false
				continue
			}
			_, _ = green.Fprintln(out, "✓ OK")
			cmd.Printf("   %s\n", path)
		}

		// 3. Check backup directory
		cmd.Print("💾 Checking backup directory ... ")
		dir := s.backupDir
		if dir == "" {
			dir = os.TempDir()
		}
		if err := checkBackupDir(dir); err != nil {
			_, _ = red.Fprintln(out, "✗ NOT WRITABLE")
			cmd.Printf("   %v\n", err)
			allOK = false
		} else {
			_, _ = green.Fprintln(out, "✓ OK")
			cmd.Printf("   Backups are written to: %s\n", dir)
		}

		// Final message
		cmd.Println()
		if allOK {
			_, _ = bold.Fprint(out, "🎉 ")
			_, _ = green.Fprint(out, "All checks passed! You are ready to use squareframe")
			_, _ = bold.Fprintln(out, ".")
		} else {
			_, _ = red.Fprintln(out, "⚠️  Setup is incomplete.")
			cmd.Println("\nWithout clipboard commands, use --input-path and --output-path.")
			cmd.Printf("Clipboard commands can be configured in %s/config.yml:\n", config.ConfigHomePath())
			_, _ = yellow.Fprintln(out, "  clipboard:\n    readCommand: <command printing an image>\n    writeCommand: <command reading PNG from stdin>")
		}
		return nil
	},
}

// checkCommand resolves the executable a command line starts with.
// Lines that start with a shell assignment cannot be resolved and are only checked for the shell.
func checkCommand(line string) (string, error) {
	if strings.TrimSpace(line) == "" {
		return "", fmt.Errorf("no command configured")
	}
	name := squareframe.CommandName(line)
	if strings.Contains(name, "=") {
		return fmt.Sprintf("custom shell script: %s", line), nil
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH", name)
	}
	return path, nil
}

// checkBackupDir verifies that a file can be created in dir.
func checkBackupDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".squareframe-doctor-*")
	if err != nil {
		return fmt.Errorf("failed to write to %s: %w", dir, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
