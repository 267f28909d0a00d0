// Package exporter runs the ultralytics ONNX export in a Python subprocess.
package exporter

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/rs/zerolog"

	"pt2rknn/internal/common/fsutil"
	"pt2rknn/internal/common/procutil"
	"pt2rknn/internal/pipeline"
)

//go:embed export.py
var exportScript string

// Defaults applied when the corresponding Options fields are unset.
const (
	DefaultPython = "python3"
	DefaultOpset  = 12
)

// Options configures the ultralytics exporter.
type Options struct {
	// Python is the interpreter with ultralytics installed.
	Python string
	// Opset is the ONNX opset passed to the exporter.
	Opset int
	// ExtraArgs is a shell-quoted list of key=value export arguments,
	// e.g. `simplify=True half=False`.
	ExtraArgs string
}

// Ultralytics implements pipeline.Exporter.
type Ultralytics struct {
	opts  Options
	extra []string
	log   zerolog.Logger
	// newCmd builds the command for the given script arguments; tests swap it.
	newCmd func(args ...string) procutil.Cmd
}

// New validates opts and returns an exporter.
func New(opts Options, log zerolog.Logger) (*Ultralytics, error) {
	if strings.TrimSpace(opts.Python) == "" {
		opts.Python = DefaultPython
	}
	if opts.Opset <= 0 {
		opts.Opset = DefaultOpset
	}
	extra, err := shellwords.Parse(opts.ExtraArgs)
	if err != nil {
		return nil, fmt.Errorf("invalid export args: %w", err)
	}
	for _, kv := range extra {
		k, _, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid export arg %q: expected key=value", kv)
		}
		switch k {
		case "format", "imgsz", "opset":
			return nil, fmt.Errorf("invalid export arg %q: %s is set by the converter", kv, k)
		}
	}
	u := &Ultralytics{opts: opts, extra: extra, log: log}
	u.newCmd = func(args ...string) procutil.Cmd {
		return procutil.Cmd{Path: u.opts.Python, Args: append([]string{"-c", exportScript}, args...)}
	}
	return u, nil
}

// Export writes "<base>.onnx" next to model and returns its path.
func (u *Ultralytics) Export(ctx context.Context, model string, size pipeline.ImageSize) (string, error) {
	out := pipeline.GraphPath(model)
	args := []string{model, strconv.Itoa(size.Height), strconv.Itoa(size.Width), strconv.Itoa(u.opts.Opset)}
	args = append(args, u.extra...)
	cmd := u.newCmd(args...)
	u.log.Debug().Str("python", cmd.Path).Str("model", model).Str("imgsz", size.String()).Int("opset", u.opts.Opset).Strs("extra", u.extra).Msg("running ultralytics export")
	if err := procutil.Run(ctx, cmd, u.log); err != nil {
		return "", err
	}
	if !fsutil.IsRegularFile(out) {
		return "", fmt.Errorf("exporter finished but %s was not written", out)
	}
	return out, nil
}
