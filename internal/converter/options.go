package converter

import "pt2rknn/internal/pipeline"

// Normalization and build constants used for every conversion.
const (
	DefaultOptimizationLevel = 2
	DefaultQuantizedDtype    = "asymmetric_quantized-8"
)

// Options is the toolkit configuration sent before loading a model.
type Options struct {
	MeanValues        [][]float64 `json:"mean_values"`
	StdValues         [][]float64 `json:"std_values"`
	TargetPlatform    string      `json:"target_platform"`
	OptimizationLevel int         `json:"optimization_level"`
	QuantizedDtype    string      `json:"quantized_dtype"`
}

// DefaultOptions returns the fixed configuration for platform: inputs are
// scaled from [0, 255] to [0, 1] with no mean shift.
func DefaultOptions(p pipeline.Platform) Options {
	return Options{
		MeanValues:        [][]float64{{0, 0, 0}},
		StdValues:         [][]float64{{255, 255, 255}},
		TargetPlatform:    string(p),
		OptimizationLevel: DefaultOptimizationLevel,
		QuantizedDtype:    DefaultQuantizedDtype,
	}
}
