// Package pipeline orchestrates a model conversion: it validates the request,
// decides whether the input needs an ONNX export first, then hands the graph
// to the RKNN converter. The files are split by concern:
//
//   - types.go: Platform, ImageSize, ModelFormat, Request and Result.
//   - errors.go: the error taxonomy and ExitCode.
//   - pipeline.go: Exporter/Converter contracts and Pipeline.Run.
//   - report.go: artifact digest and the JSON run report.
//
// The stages themselves live in internal/exporter and internal/converter.
package pipeline
