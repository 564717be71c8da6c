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
	"log/slog"

	"github.com/k1LoW/squareframe"
	"github.com/k1LoW/squareframe/config"
	"github.com/spf13/cobra"
)

// settings are the effective options: flag > config > default.
type settings struct {
	sigma     float64
	filter    string
	backupDir string
	clipboard squareframe.ClipboardCommands
}

func loadSettings(cmd *cobra.Command) (*settings, error) {
	cfg, err := config.Load(profile)
	if err != nil {
		return nil, err
	}
	return resolveSettings(cmd, cfg), nil
}

func resolveSettings(cmd *cobra.Command, cfg *config.Config) *settings {
	s := &settings{
		sigma:     blurSigma,
		filter:    filter,
		backupDir: backupDir,
		clipboard: squareframe.ClipboardCommands{
			ReadCommand:  cfg.ReadCommand(),
			WriteCommand: cfg.WriteCommand(),
		},
	}
	flags := cmd.Flags()
	if !flags.Changed("blur") && cfg.BlurSigma != nil {
		s.sigma = *cfg.BlurSigma
	}
	if !flags.Changed("filter") && cfg.Filter != "" {
		s.filter = cfg.Filter
	}
	if !flags.Changed("backup-dir") && cfg.BackupDir != "" {
		s.backupDir = cfg.BackupDir
	}
	return s
}

func (s *settings) pipeline(logger *slog.Logger) (*squareframe.Pipeline, error) {
	c, err := squareframe.New(
		squareframe.WithBlurSigma(s.sigma),
		squareframe.WithFilter(s.filter),
		squareframe.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return &squareframe.Pipeline{
		Compositor: c,
		Clipboard:  squareframe.NewClipboard(s.clipboard, logger),
		BackupDir:  s.backupDir,
		Logger:     logger,
	}, nil
}
