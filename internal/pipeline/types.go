package pipeline

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pt2rknn/internal/common/fsutil"
)

// Platform is an RKNN target platform label.
type Platform string

const (
	RK3562 Platform = "rk3562"
	RK3566 Platform = "rk3566"
	RK3568 Platform = "rk3568"
	RK3588 Platform = "rk3588"
	RK1808 Platform = "rk1808"
	RV1109 Platform = "rv1109"
	RV1126 Platform = "rv1126"
)

// DefaultPlatform is used when no platform is given.
const DefaultPlatform = RK3588

var platforms = []Platform{RK3562, RK3566, RK3568, RK3588, RK1808, RV1109, RV1126}

// Platforms lists the supported targets in a stable order.
func Platforms() []Platform {
	return append([]Platform(nil), platforms...)
}

// ParsePlatform validates s against the supported set. Labels are exact,
// as the vendor toolkit expects them lowercase.
func ParsePlatform(s string) (Platform, error) {
	for _, p := range platforms {
		if string(p) == s {
			return p, nil
		}
	}
	return "", ErrPlatformUnsupported(s)
}

// ImageSize is the export resolution.
type ImageSize struct {
	Height int
	Width  int
}

// DefaultImageSize matches the usual YOLO training resolution.
var DefaultImageSize = ImageSize{Height: 640, Width: 640}

// ParseImageSize accepts "N" for a square input or "H:W".
func ParseImageSize(s string) (ImageSize, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) > 2 {
		return ImageSize{}, ErrImageSizeMalformed(s)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return ImageSize{}, ErrImageSizeMalformed(s)
	}
	w := h
	if len(parts) == 2 {
		if w, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
			return ImageSize{}, ErrImageSizeMalformed(s)
		}
	}
	size := ImageSize{Height: h, Width: w}
	if err := size.Validate(); err != nil {
		return ImageSize{}, ErrImageSizeMalformed(s)
	}
	return size, nil
}

// Validate rejects non-positive dimensions.
func (s ImageSize) Validate() error {
	if s.Height <= 0 || s.Width <= 0 {
		return ErrImageSizeMalformed(s.String())
	}
	return nil
}

func (s ImageSize) String() string { return fmt.Sprintf("%d:%d", s.Height, s.Width) }

// ModelFormat is the kind of model file given as input.
type ModelFormat int

const (
	FormatUnknown ModelFormat = iota
	// FormatWeights is a PyTorch checkpoint (.pt) that needs an ONNX export first.
	FormatWeights
	// FormatGraph is an ONNX graph that goes straight to the converter.
	FormatGraph
)

func (f ModelFormat) String() string {
	switch f {
	case FormatWeights:
		return "pytorch"
	case FormatGraph:
		return "onnx"
	default:
		return "unknown"
	}
}

// DetectFormat picks the format from the file extension, case-insensitively.
func DetectFormat(path string) (ModelFormat, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pt":
		return FormatWeights, nil
	case ".onnx":
		return FormatGraph, nil
	default:
		return FormatUnknown, ErrFormatUnrecognized(ext)
	}
}

// OutputPath is "<base>-<platform>.rknn" where base is model without its extension.
func OutputPath(model string, p Platform) string {
	return fmt.Sprintf("%s-%s.rknn", fsutil.TrimExt(model), p)
}

// GraphPath is where the exporter writes the ONNX graph for model.
func GraphPath(model string) string {
	return fsutil.TrimExt(model) + ".onnx"
}

// Request is one conversion invocation.
type Request struct {
	Model     string
	Dataset   string // calibration list; empty disables quantization
	ImageSize ImageSize
	Platform  Platform
}

// Quantize reports whether the build should quantize.
func (r Request) Quantize() bool { return r.Dataset != "" }

// Result summarizes a successful run.
type Result struct {
	Request   Request
	Format    ModelFormat
	Graph     string
	Output    string
	Exported  bool // an ONNX export ran
	Size      int64
	Digest    string
	Durations map[string]time.Duration
}
