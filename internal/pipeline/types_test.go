package pipeline

import "testing"

func TestParseImageSize(t *testing.T) {
	ok := map[string]ImageSize{
		"640":      {Height: 640, Width: 640},
		"480:640":  {Height: 480, Width: 640},
		" 320 ":    {Height: 320, Width: 320},
		"320: 256": {Height: 320, Width: 256},
	}
	for in, want := range ok {
		got, err := ParseImageSize(in)
		if err != nil {
			t.Fatalf("ParseImageSize(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseImageSize(%q) = %+v, want %+v", in, got, want)
		}
	}
	for _, in := range []string{"1:2:3", "abc", "", "640:", ":640", "640x640", "0", "-1:640", "1.5"} {
		_, err := ParseImageSize(in)
		if !IsImageSizeMalformed(err) {
			t.Fatalf("ParseImageSize(%q): expected malformed error, got %v", in, err)
		}
	}
}

func TestParsePlatform(t *testing.T) {
	for _, p := range []string{"rk3562", "rk3566", "rk3568", "rk3588", "rk1808", "rv1109", "rv1126"} {
		got, err := ParsePlatform(p)
		if err != nil || string(got) != p {
			t.Fatalf("ParsePlatform(%q) = %q, %v", p, got, err)
		}
	}
	for _, p := range []string{"", "rk3588s", "RK3588", "rk3399"} {
		if _, err := ParsePlatform(p); !IsPlatformUnsupported(err) {
			t.Fatalf("ParsePlatform(%q): expected unsupported, got %v", p, err)
		}
	}
	if n := len(Platforms()); n != 7 {
		t.Fatalf("expected 7 platforms, got %d", n)
	}
	ps := Platforms()
	ps[0] = "mutated"
	if Platforms()[0] != RK3562 {
		t.Fatalf("Platforms must return a copy")
	}
}

func TestDetectFormat(t *testing.T) {
	cases := map[string]ModelFormat{
		"yolov8n.pt":      FormatWeights,
		"dir/best.PT":     FormatWeights,
		"yolov8n.onnx":    FormatGraph,
		"/abs/model.ONNX": FormatGraph,
	}
	for in, want := range cases {
		got, err := DetectFormat(in)
		if err != nil || got != want {
			t.Fatalf("DetectFormat(%q) = %v, %v", in, got, err)
		}
	}
	for _, in := range []string{"model.tflite", "model.pth", "model"} {
		if _, err := DetectFormat(in); !IsFormatUnrecognized(err) {
			t.Fatalf("DetectFormat(%q): expected unrecognized, got %v", in, err)
		}
	}
}

func TestPaths(t *testing.T) {
	if got := OutputPath("models/yolov8n.pt", RK3566); got != "models/yolov8n-rk3566.rknn" {
		t.Fatalf("OutputPath = %q", got)
	}
	if got := OutputPath("best.onnx", RV1126); got != "best-rv1126.rknn" {
		t.Fatalf("OutputPath = %q", got)
	}
	if got := GraphPath("/data/yolov8s.pt"); got != "/data/yolov8s.onnx" {
		t.Fatalf("GraphPath = %q", got)
	}
}
