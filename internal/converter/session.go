package converter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"pt2rknn/internal/common/procutil"
)

const (
	releaseTimeout = 30 * time.Second
	exitTimeout    = 5 * time.Second
)

var errReleased = errors.New("session already released")

// Session is an open RKNN toolkit handle. Every step returns the toolkit
// status code (0 on success); err is set only when the step could not be
// delivered or answered.
type Session interface {
	Config(ctx context.Context, opts Options) (int, error)
	LoadONNX(ctx context.Context, model string) (int, error)
	Build(ctx context.Context, quantize bool, dataset string) (int, error)
	ExportRKNN(ctx context.Context, path string) (int, error)
	// Release frees the toolkit object and ends the session. It is safe to
	// call more than once.
	Release() error
}

type request struct {
	Op   string `json:"op"`
	Args any    `json:"args,omitempty"`
}

type response struct {
	Ret   int    `json:"ret"`
	Error string `json:"error,omitempty"`
}

type reply struct {
	resp response
	err  error
}

// processSession talks to the session helper over stdin/stdout, one JSON
// object per line in each direction.
type processSession struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	enc    *json.Encoder
	dec    *json.Decoder
	stderr *procutil.LineWriter
	tail   *procutil.Tail
	log    zerolog.Logger

	killed   bool
	released bool
}

func startSession(ctx context.Context, c procutil.Cmd, log zerolog.Logger) (*processSession, error) {
	cmd := c.Build(ctx)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	s := &processSession{
		cmd:    cmd,
		stdin:  stdin,
		enc:    json.NewEncoder(stdin),
		dec:    json.NewDecoder(stdout),
		stderr: procutil.NewLineWriter(log, "stderr"),
		tail:   procutil.NewTail(4096),
		log:    log,
	}
	cmd.Stderr = io.MultiWriter(s.stderr, s.tail)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", c.Path, err)
	}
	log.Debug().Int("pid", cmd.Process.Pid).Str("python", c.Path).Msg("RKNN session started")
	return s, nil
}

func (s *processSession) Config(ctx context.Context, opts Options) (int, error) {
	return s.call(ctx, "config", opts)
}

func (s *processSession) LoadONNX(ctx context.Context, model string) (int, error) {
	return s.call(ctx, "load_onnx", map[string]string{"model": model})
}

func (s *processSession) Build(ctx context.Context, quantize bool, dataset string) (int, error) {
	return s.call(ctx, "build", map[string]any{"do_quantization": quantize, "dataset": dataset})
}

func (s *processSession) ExportRKNN(ctx context.Context, path string) (int, error) {
	return s.call(ctx, "export_rknn", map[string]string{"path": path})
}

func (s *processSession) Release() error {
	if s.released {
		return nil
	}
	var relErr error
	if !s.killed {
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		code, err := s.call(ctx, "release", nil)
		cancel()
		switch {
		case err != nil:
			relErr = err
		case code != 0:
			relErr = fmt.Errorf("release: status %d", code)
		}
	}
	s.released = true
	_ = s.stdin.Close()
	if err := s.wait(); err != nil && relErr == nil && !s.killed {
		relErr = err
	}
	s.stderr.Flush()
	return relErr
}

// call sends one request and waits for its reply. If ctx ends first the
// helper is killed, since the toolkit cannot abort a step midway.
func (s *processSession) call(ctx context.Context, op string, args any) (int, error) {
	if s.released {
		return 0, errReleased
	}
	if s.killed {
		return 0, fmt.Errorf("%s: session process was terminated", op)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.enc.Encode(request{Op: op, Args: args}); err != nil {
		return 0, s.failure(op, err)
	}
	ch := make(chan reply, 1)
	go func() {
		var r response
		err := s.dec.Decode(&r)
		ch <- reply{resp: r, err: err}
	}()
	select {
	case <-ctx.Done():
		s.kill()
		<-ch
		return 0, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return 0, s.failure(op, r.err)
		}
		if r.resp.Error != "" {
			s.log.Error().Str("op", op).Int("ret", r.resp.Ret).Msg(r.resp.Error)
		}
		return r.resp.Ret, nil
	}
}

func (s *processSession) failure(op string, err error) error {
	if t := s.tail.String(); t != "" {
		return fmt.Errorf("%s: %w; stderr tail: %s", op, err, t)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *processSession) kill() {
	if s.killed || s.cmd.Process == nil {
		return
	}
	s.killed = true
	_ = s.cmd.Process.Kill()
}

// wait reaps the helper, killing it if it does not exit on its own.
func (s *processSession) wait() error {
	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(exitTimeout):
		s.log.Warn().Int("pid", s.cmd.Process.Pid).Msg("RKNN session did not exit, killing")
		s.kill()
		return <-done
	}
}
