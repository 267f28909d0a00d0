package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"pt2rknn/internal/pipeline"
)

type stubExporter struct {
	calls int
	size  pipeline.ImageSize
	err   error
}

func (s *stubExporter) Export(ctx context.Context, model string, size pipeline.ImageSize) (string, error) {
	s.calls++
	s.size = size
	if s.err != nil {
		return "", s.err
	}
	out := pipeline.GraphPath(model)
	return out, os.WriteFile(out, []byte("onnx"), 0o644)
}

type stubConverter struct {
	calls int
	req   pipeline.ConvertRequest
	err   error
}

func (s *stubConverter) Convert(ctx context.Context, req pipeline.ConvertRequest) error {
	s.calls++
	s.req = req
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(req.Output, []byte("rknn"), 0o644)
}

// withStages swaps the stage constructors for stubs and records the options
// they were built with.
func withStages(t *testing.T, exp *stubExporter, conv *stubConverter) *Options {
	t.Helper()
	oldExp, oldConv := fnNewExporter, fnNewConverter
	got := &Options{}
	fnNewExporter = func(o *Options, log zerolog.Logger) (pipeline.Exporter, error) {
		*got = *o
		return exp, nil
	}
	fnNewConverter = func(o *Options, log zerolog.Logger) (pipeline.Converter, error) {
		return conv, nil
	}
	t.Cleanup(func() {
		fnNewExporter, fnNewConverter = oldExp, oldConv
	})
	return got
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

// clearEnv unsets every PT2RKNN_* default for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{envPlatform, envImageSize, envPython, envOpset, envLogLevel, envLogFormat, envVerbose} {
		t.Setenv(k, "")
	}
}
