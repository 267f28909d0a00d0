package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"

	"pt2rknn/internal/common/fsutil"
	"pt2rknn/internal/metrics"
)

// Exporter turns PyTorch weights into an ONNX graph and returns the graph path.
type Exporter interface {
	Export(ctx context.Context, model string, size ImageSize) (string, error)
}

// ConvertRequest is the input of the conversion stage.
type ConvertRequest struct {
	Graph    string
	Dataset  string
	Output   string
	Platform Platform
}

// Quantize reports whether the build should quantize with the dataset.
func (r ConvertRequest) Quantize() bool { return r.Dataset != "" }

// Converter compiles an ONNX graph into an RKNN artifact at req.Output.
// Failures of individual toolkit steps are reported as *StageError.
type Converter interface {
	Convert(ctx context.Context, req ConvertRequest) error
}

// Pipeline sequences validation, export and conversion.
type Pipeline struct {
	exporter  Exporter
	converter Converter
	log       zerolog.Logger
}

// New constructs a Pipeline.
func New(exp Exporter, conv Converter, log zerolog.Logger) *Pipeline {
	return &Pipeline{exporter: exp, converter: conv, log: log}
}

// Validate runs every check that must pass before a stage is invoked and
// returns the detected model format.
func (p *Pipeline) Validate(req Request) (ModelFormat, error) {
	if err := req.ImageSize.Validate(); err != nil {
		return FormatUnknown, err
	}
	if !fsutil.IsRegularFile(req.Model) {
		return FormatUnknown, ErrInputMissing(req.Model)
	}
	if req.Dataset != "" && !fsutil.IsRegularFile(req.Dataset) {
		return FormatUnknown, ErrInputMissing(req.Dataset)
	}
	if _, err := ParsePlatform(string(req.Platform)); err != nil {
		return FormatUnknown, err
	}
	return DetectFormat(req.Model)
}

// Run converts req.Model into "<base>-<platform>.rknn". Stage failures are
// not retried.
func (p *Pipeline) Run(ctx context.Context, req Request) (res Result, err error) {
	defer func() {
		label := string(req.Platform)
		if _, perr := ParsePlatform(label); perr != nil {
			label = ""
		}
		metrics.ObserveConversion(label, res.Size, err)
	}()

	format, err := p.Validate(req)
	if err != nil {
		return Result{}, err
	}
	res = Result{
		Request:   req,
		Format:    format,
		Output:    OutputPath(req.Model, req.Platform),
		Durations: make(map[string]time.Duration),
	}

	p.log.Info().Msg("Converting PyTorch or ONNX model to RKNN model.")
	p.log.Info().Msgf("Input model: %s", req.Model)
	p.log.Info().Msgf("Output model: %s", res.Output)
	p.log.Info().Msgf("Target platform: %s", req.Platform)
	if req.Quantize() {
		p.log.Info().Msgf("Quantization using dataset file: %s", req.Dataset)
	} else {
		p.log.Warn().Msg("Without quantization!")
	}

	switch format {
	case FormatWeights:
		p.log.Info().Msgf("Converting %s to ONNX model", req.Model)
		err = p.timed(res.Durations, StageExport, func() error {
			graph, eerr := p.exporter.Export(ctx, req.Model, req.ImageSize)
			res.Graph = graph
			return eerr
		})
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			return Result{}, &StageError{Stage: StageExport, Err: err}
		}
		res.Exported = true
		p.log.Info().Msgf("ONNX model saved to %s", res.Graph)
	case FormatGraph:
		res.Graph = req.Model
	}

	creq := ConvertRequest{Graph: res.Graph, Dataset: req.Dataset, Output: res.Output, Platform: req.Platform}
	p.log.Info().Msgf("Converting %s to RKNN model", res.Graph)
	if err = p.timed(res.Durations, StageConvert, func() error { return p.converter.Convert(ctx, creq) }); err != nil {
		var se *StageError
		if ctx.Err() != nil || errors.As(err, &se) {
			return Result{}, err
		}
		return Result{}, &StageError{Stage: StageConvert, Err: err}
	}

	dgst, size, err := fileDigest(res.Output)
	if err != nil {
		return Result{}, &StageError{Stage: StageExportRKNN, Err: fmt.Errorf("artifact not readable: %w", err)}
	}
	res.Digest = dgst.String()
	res.Size = size
	p.log.Info().Str("size", units.HumanSize(float64(size))).Str("digest", res.Digest).Msg("Done")
	return res, nil
}

func (p *Pipeline) timed(durations map[string]time.Duration, stage Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	durations[string(stage)] = d
	metrics.ObserveStage(string(stage), d, err)
	p.log.Debug().Str("stage", string(stage)).Dur("dur", d).Err(err).Msg("stage finished")
	return err
}
