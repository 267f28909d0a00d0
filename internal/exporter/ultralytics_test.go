package exporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"pt2rknn/internal/common/procutil"
	"pt2rknn/internal/pipeline"
)

// TestHelperProcess stands in for the Python exporter. Arguments after "--"
// are the script arguments: model height width opset [key=value...].
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	if os.Getenv("HELPER_RECORD") != "" {
		_ = os.WriteFile(os.Getenv("HELPER_RECORD"), []byte(strings.Join(args, " ")), 0o644)
	}
	switch os.Getenv("HELPER_MODE") {
	case "fail":
		fmt.Fprintln(os.Stderr, "ModuleNotFoundError: No module named 'ultralytics'")
		os.Exit(1)
	case "nowrite":
		os.Exit(0)
	}
	model := args[0]
	out := strings.TrimSuffix(model, filepath.Ext(model)) + ".onnx"
	if err := os.WriteFile(out, []byte("onnx"), 0o644); err != nil {
		os.Exit(2)
	}
	os.Exit(0)
}

func helperExporter(t *testing.T, opts Options, env map[string]string) *Ultralytics {
	t.Helper()
	u, err := New(opts, zerolog.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	e := map[string]string{"GO_WANT_HELPER_PROCESS": "1"}
	for k, v := range env {
		e[k] = v
	}
	u.newCmd = func(args ...string) procutil.Cmd {
		return procutil.Cmd{Path: os.Args[0], Args: append([]string{"-test.run=TestHelperProcess", "--"}, args...), Env: e}
	}
	return u
}

func TestExport_WritesGraphNextToModel(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "yolov8n.pt")
	if err := os.WriteFile(model, []byte("w"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	record := filepath.Join(dir, "args.txt")
	u := helperExporter(t, Options{ExtraArgs: `simplify=True name="my model"`}, map[string]string{"HELPER_RECORD": record})
	out, err := u.Export(context.Background(), model, pipeline.ImageSize{Height: 480, Width: 640})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if out != filepath.Join(dir, "yolov8n.onnx") {
		t.Fatalf("out = %q", out)
	}
	b, err := os.ReadFile(record)
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	want := model + " 480 640 12 simplify=True name=my model"
	if string(b) != want {
		t.Fatalf("args = %q, want %q", string(b), want)
	}
}

func TestExport_SubprocessFailure(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "m.pt")
	_ = os.WriteFile(model, []byte("w"), 0o644)
	u := helperExporter(t, Options{}, map[string]string{"HELPER_MODE": "fail"})
	_, err := u.Export(context.Background(), model, pipeline.DefaultImageSize)
	if err == nil || !strings.Contains(err.Error(), "No module named 'ultralytics'") {
		t.Fatalf("expected error with stderr tail, got %v", err)
	}
}

func TestExport_MissingOutput(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "m.pt")
	_ = os.WriteFile(model, []byte("w"), 0o644)
	u := helperExporter(t, Options{}, map[string]string{"HELPER_MODE": "nowrite"})
	if _, err := u.Export(context.Background(), model, pipeline.DefaultImageSize); err == nil {
		t.Fatalf("expected error when the graph is not written")
	}
}

func TestNew_Defaults(t *testing.T) {
	u, err := New(Options{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if u.opts.Python != DefaultPython || u.opts.Opset != DefaultOpset {
		t.Fatalf("defaults not applied: %+v", u.opts)
	}
	cmd := u.newCmd("m.pt", "640", "640", "12")
	if cmd.Path != "python3" || cmd.Args[0] != "-c" || !strings.Contains(cmd.Args[1], "from ultralytics import YOLO") || cmd.Args[2] != "m.pt" {
		t.Fatalf("unexpected command: %s %v", cmd.Path, cmd.Args[:1])
	}
}

func TestNew_RejectsBadExtraArgs(t *testing.T) {
	for _, in := range []string{`simplify`, `opset=13`, `imgsz=320`, `"unterminated`} {
		if _, err := New(Options{ExtraArgs: in}, zerolog.Nop()); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}
