package cli

import (
	"context"

	"github.com/rs/zerolog"

	"pt2rknn/internal/converter"
	"pt2rknn/internal/exporter"
	"pt2rknn/internal/pipeline"
	"pt2rknn/internal/preflight"
)

// Indirection layer to allow stubbing in tests

var (
	fnNewExporter  = newExporter
	fnNewConverter = newConverter
	fnCheck        = checkToolchain
)

func newExporter(o *Options, log zerolog.Logger) (pipeline.Exporter, error) {
	e, err := exporter.New(exporter.Options{Python: o.Python, Opset: o.Opset, ExtraArgs: o.ExportArgs}, log)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func newConverter(o *Options, log zerolog.Logger) (pipeline.Converter, error) {
	return converter.New(converter.ToolkitOptions{Python: o.Python, Verbose: o.Verbose}, log), nil
}

func checkToolchain(ctx context.Context, python string, log zerolog.Logger) preflight.Report {
	return preflight.New(log).Check(ctx, python)
}
