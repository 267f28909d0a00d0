package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// writeFile creates a file with the given content under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

// fakeExporter writes "<base>.onnx" next to the model, like the ultralytics exporter.
type fakeExporter struct {
	calls    int
	err      error
	gotModel string
	gotSize  ImageSize
}

func (f *fakeExporter) Export(ctx context.Context, model string, size ImageSize) (string, error) {
	f.calls++
	f.gotModel = model
	f.gotSize = size
	if f.err != nil {
		return "", f.err
	}
	out := GraphPath(model)
	if err := os.WriteFile(out, []byte("onnx"), 0o644); err != nil {
		return "", err
	}
	return out, nil
}

// fakeConverter records the request and writes a fixed artifact.
type fakeConverter struct {
	calls   int
	err     error
	got     ConvertRequest
	noWrite bool
}

func (f *fakeConverter) Convert(ctx context.Context, req ConvertRequest) error {
	f.calls++
	f.got = req
	if f.err != nil {
		return f.err
	}
	if f.noWrite {
		return nil
	}
	return os.WriteFile(req.Output, []byte("rknn-artifact"), 0o644)
}
