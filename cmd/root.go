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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/k1LoW/errors"
	"github.com/k1LoW/squareframe"
	"github.com/k1LoW/squareframe/config"
	"github.com/k1LoW/squareframe/logger/progress"
	"github.com/k1LoW/squareframe/version"
	"github.com/mattn/go-colorable"
	"github.com/pkg/browser"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"
)

var (
	profile    string
	inputPath  string
	outputPath string
	blurSigma  float64
	filter     string
	backupDir  string
	quiet      bool
	dryRun     bool
	openResult bool
)

var rootCmd = &cobra.Command{
	Use:   "squareframe",
	Short: "squareframe creates a square frame with a blurred background for any image",
	Long: `squareframe creates a square frame with a blurred background for any image, to match the aspect ratio 1:1.

The image is read from --input-path (a file or an http(s) URL) or from the clipboard,
and the result is written to --output-path or copied to the clipboard.
An existing output file is backed up before it is overwritten.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       fmt.Sprintf("%s (rev:%s)", version.Version, version.Revision),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if dryRun {
			return runDryRun(ctx, cmd.OutOrStdout(), s)
		}
		logger, stop, err := newLogger(cmd.OutOrStdout(), quiet)
		if err != nil {
			return err
		}
		defer stop()
		p, err := s.pipeline(logger)
		if err != nil {
			return err
		}
		if _, err := p.Run(ctx, inputPath, outputPath); err != nil {
			logger.Error("failed to create square frame", slog.String("error", err.Error()))
			return err
		}
		if openResult && outputPath != "" {
			if err := browser.OpenFile(outputPath); err != nil {
				return fmt.Errorf("failed to open %s: %w", outputPath, err)
			}
		}
		return nil
	},
}

type errorData struct {
	LatestLogs  []any     `json:"latest_logs"`
	StackTraces any       `json:"stack_traces"`
	Kind        string    `json:"kind"`
	CreatedAt   time.Time `json:"created_at"`
	Version     string    `json:"version"`
	Revision    string    `json:"revision"`
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		stderr := colorable.NewColorableStderr()
		_, _ = fmt.Fprintf(stderr, "ERROR: %s\n", color.New(color.FgRed, color.Bold).Sprint(err.Error()))
		if err := dumpError(err); err != nil {
			_, _ = fmt.Fprintf(stderr, "%v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	switch squareframe.KindOf(err) {
	case squareframe.KindDecode:
		return 2
	case squareframe.KindClipboard:
		return 3
	case squareframe.KindIO:
		return 4
	default:
		return 1
	}
}

// dumpError writes the latest logs and stack traces to the state directory.
func dumpError(err error) error {
	var latestLogs []any
	for _, line := range tb.Lines() {
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			latestLogs = append(latestLogs, line)
		} else {
			latestLogs = append(latestLogs, m)
		}
	}
	d := &errorData{
		LatestLogs:  latestLogs,
		StackTraces: errors.StackTraces(err),
		Kind:        squareframe.KindOf(err).String(),
		CreatedAt:   time.Now(),
		Version:     version.Version,
		Revision:    version.Revision,
	}
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	dir := config.StateHomePath()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}
	dumpPath := filepath.Join(dir, "error.json")
	if err := os.WriteFile(dumpPath, b, 0o600); err != nil {
		return fmt.Errorf("failed to write error.json to %s: %w", dumpPath, err)
	}
	return nil
}

// newLogger fans records out to the progress display and to the recent log buffer.
func newLogger(out io.Writer, quiet bool) (*slog.Logger, func(), error) {
	handlers := []slog.Handler{
		slog.NewJSONHandler(tb, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}
	stop := func() {}
	if !quiet {
		if out == os.Stdout {
			out = colorable.NewColorableStdout()
		}
		h, err := progress.New(slog.NewTextHandler(io.Discard, nil), out)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, h)
		stop = h.Stop
	}
	return slog.New(slogmulti.Fanout(handlers...)), stop, nil
}

func runDryRun(ctx context.Context, out io.Writer, s *settings) error {
	logger, stop, err := newLogger(io.Discard, true)
	if err != nil {
		return err
	}
	defer stop()
	p, err := s.pipeline(logger)
	if err != nil {
		return err
	}
	src, err := p.Acquire(ctx, inputPath)
	if err != nil {
		return err
	}
	l, err := squareframe.Plan(src.Bounds().Dx(), src.Bounds().Dy())
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "", "", "profile name")
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input-path", "i", "", "input file path or URL, defaults to clipboard")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output-path", "o", "", "output file path, defaults to clipboard")
	rootCmd.PersistentFlags().Float64VarP(&blurSigma, "blur", "", squareframe.DefaultBlurSigma, "sigma of the Gaussian blur applied to the background")
	rootCmd.PersistentFlags().StringVarP(&filter, "filter", "", squareframe.DefaultFilter, "resampling filter for the background")
	rootCmd.PersistentFlags().StringVarP(&backupDir, "backup-dir", "", "", "directory for backups of overwritten files, defaults to the temporary directory")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "do not show progress")
	rootCmd.Flags().BoolVarP(&dryRun, "dry-run", "", false, "print the layout of the square frame as JSON without writing anything")
	rootCmd.Flags().BoolVarP(&openResult, "open", "", false, "open the output file after writing it")
}
