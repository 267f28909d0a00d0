// Package converter drives rknn-toolkit2 to compile an ONNX graph into an
// RKNN artifact. The toolkit is Python-only, so it runs inside a helper
// process (session.py) that keeps one RKNN object alive for the duration of
// a conversion and answers one JSON request per step.
package converter

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"pt2rknn/internal/common/procutil"
)

//go:embed session.py
var sessionScript string

// DefaultPython is used when ToolkitOptions.Python is empty.
const DefaultPython = "python3"

// ToolkitOptions configures how the toolkit helper is started.
type ToolkitOptions struct {
	// Python is the interpreter with rknn-toolkit2 installed.
	Python string
	// Verbose enables the toolkit's own verbose logging.
	Verbose bool
}

// Toolkit implements pipeline.Converter on top of rknn-toolkit2.
type Toolkit struct {
	opts ToolkitOptions
	log  zerolog.Logger
	// newCmd builds the helper command; tests swap it.
	newCmd func() procutil.Cmd
	// open starts a session; tests swap it for an in-memory fake.
	open func(ctx context.Context) (Session, error)
}

// New returns a Toolkit with defaults applied.
func New(opts ToolkitOptions, log zerolog.Logger) *Toolkit {
	if strings.TrimSpace(opts.Python) == "" {
		opts.Python = DefaultPython
	}
	t := &Toolkit{opts: opts, log: log}
	t.newCmd = func() procutil.Cmd {
		return procutil.Cmd{Path: t.opts.Python, Args: []string{"-u", "-c", sessionScript}}
	}
	t.open = t.Open
	return t
}

// Open starts a toolkit session. The session lives until Release or until
// ctx is cancelled.
func (t *Toolkit) Open(ctx context.Context) (Session, error) {
	s, err := startSession(ctx, t.newCmd(), t.log)
	if err != nil {
		return nil, err
	}
	code, err := s.call(ctx, "open", map[string]bool{"verbose": t.opts.Verbose})
	if err == nil && code != 0 {
		err = fmt.Errorf("open: status %d", code)
	}
	if err != nil {
		s.kill()
		_ = s.Release()
		return nil, err
	}
	return s, nil
}
