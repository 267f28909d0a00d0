// Package procutil runs external tool processes and routes their output to
// the structured logger.
package procutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/rs/zerolog"
)

// tailSize bounds the stderr tail attached to failures.
const tailSize = 4096

// Cmd describes an external command.
type Cmd struct {
	Path string
	Args []string
	Env  map[string]string // additional env vars
	Dir  string            // working directory
}

// Build returns an *exec.Cmd that inherits the current environment plus c.Env.
func (c Cmd) Build(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	cmd.Env = os.Environ()
	for k, v := range c.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	return cmd
}

// Run executes c to completion. Output lines are logged at debug level
// tagged with the stream name; on failure the error carries the stderr tail.
func Run(ctx context.Context, c Cmd, log zerolog.Logger) error {
	cmd := c.Build(ctx)
	stdout := NewLineWriter(log, "stdout")
	stderr := NewLineWriter(log, "stderr")
	tail := NewTail(tailSize)
	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(stderr, tail)
	err := cmd.Run()
	stdout.Flush()
	stderr.Flush()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if t := tail.String(); t != "" {
			return fmt.Errorf("%s: %w; stderr tail: %s", c.Path, err, t)
		}
		return fmt.Errorf("%s: %w", c.Path, err)
	}
	return nil
}

// LineWriter logs complete lines written to it.
type LineWriter struct {
	mu     sync.Mutex
	log    zerolog.Logger
	stream string
	buf    []byte
}

func NewLineWriter(log zerolog.Logger, stream string) *LineWriter {
	return &LineWriter{log: log, stream: stream}
}

func (lw *LineWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.buf = append(lw.buf, p...)
	for {
		idx := bytes.IndexByte(lw.buf, '\n')
		if idx < 0 {
			break
		}
		lw.emit(lw.buf[:idx])
		lw.buf = lw.buf[idx+1:]
	}
	return len(p), nil
}

// Flush logs any trailing partial line.
func (lw *LineWriter) Flush() {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if len(lw.buf) > 0 {
		lw.emit(lw.buf)
		lw.buf = nil
	}
}

func (lw *LineWriter) emit(line []byte) {
	line = bytes.TrimRight(line, "\r")
	if len(line) == 0 {
		return
	}
	lw.log.Debug().Str("stream", lw.stream).Msg(string(line))
}

// Tail keeps the last n bytes written to it.
type Tail struct {
	mu  sync.Mutex
	n   int
	buf []byte
}

func NewTail(n int) *Tail { return &Tail{n: n} }

func (t *Tail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.n {
		t.buf = append([]byte(nil), t.buf[len(t.buf)-t.n:]...)
	}
	return len(p), nil
}

func (t *Tail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(bytes.TrimSpace(t.buf))
}
