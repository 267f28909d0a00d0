package cli

import (
	"github.com/spf13/pflag"

	"pt2rknn/internal/common/fsutil"
	"pt2rknn/internal/config"
)

// Options is the resolved command line. Precedence: flag, environment,
// config file, built-in default.
type Options struct {
	Model       string
	Dataset     string
	ImageSize   string
	Platform    string
	ConfigPath  string
	Python      string
	Opset       int
	ExportArgs  string
	LogLevel    string
	LogFormat   string
	MetricsFile string
	Report      string
	Verbose     bool
}

func defaultOptions() *Options {
	return &Options{
		ImageSize: envStr(envImageSize, "640"),
		Platform:  envStr(envPlatform, "rk3588"),
		Python:    envStr(envPython, "python3"),
		Opset:     envInt(envOpset, 12),
		LogLevel:  envStr(envLogLevel, "info"),
		LogFormat: envStr(envLogFormat, "console"),
		Verbose:   envBool(envVerbose, false),
	}
}

func (o *Options) bindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Model, "model", "m", o.Model, "Model file: YOLO PyTorch weights (.pt) or ONNX graph (.onnx)")
	fs.StringVarP(&o.Dataset, "dataset", "d", o.Dataset, "Calibration dataset list (.txt) for quantization; omit to build without quantization")
	fs.StringVarP(&o.ImageSize, "imgsize", "s", o.ImageSize, "Input image size: N for a square or H:W (env PT2RKNN_IMGSIZE)")
	fs.StringVarP(&o.Platform, "platform", "p", o.Platform, "RKNN target platform (env PT2RKNN_PLATFORM)")
	fs.StringVarP(&o.ConfigPath, "config", "c", o.ConfigPath, "Config file (.yaml, .toml or .json) with defaults")
	fs.StringVar(&o.Python, "python", o.Python, "Python interpreter with ultralytics and rknn-toolkit2 (env PT2RKNN_PYTHON)")
	fs.IntVar(&o.Opset, "opset", o.Opset, "ONNX opset used for the export")
	fs.StringVar(&o.ExportArgs, "export-args", o.ExportArgs, "Extra key=value arguments for the ultralytics export, shell-quoted")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level: debug|info|warn|error (env PT2RKNN_LOG_LEVEL)")
	fs.StringVar(&o.LogFormat, "log-format", o.LogFormat, "Log format: console|json")
	fs.StringVar(&o.MetricsFile, "metrics-file", o.MetricsFile, "Write Prometheus textfile metrics to this path")
	fs.StringVar(&o.Report, "report", o.Report, "Write a JSON conversion report to this path")
	fs.BoolVarP(&o.Verbose, "verbose", "v", o.Verbose, "Enable verbose RKNN toolkit output")
}

// applyConfig fills options that neither a flag nor the environment set.
func (o *Options) applyConfig(fs *pflag.FlagSet, c config.Config) {
	use := func(flag, env string) bool { return !fs.Changed(flag) && !envSet(env) }
	if c.Platform != "" && use("platform", envPlatform) {
		o.Platform = c.Platform
	}
	if c.ImageSize != "" && use("imgsize", envImageSize) {
		o.ImageSize = c.ImageSize
	}
	if c.Dataset != "" && use("dataset", "") {
		o.Dataset = c.Dataset
	}
	if c.PythonBin != "" && use("python", envPython) {
		o.Python = c.PythonBin
	}
	if c.Opset > 0 && use("opset", envOpset) {
		o.Opset = c.Opset
	}
	if c.ExportArgs != "" && use("export-args", "") {
		o.ExportArgs = c.ExportArgs
	}
	if c.LogLevel != "" && use("log-level", envLogLevel) {
		o.LogLevel = c.LogLevel
	}
	if c.LogFormat != "" && use("log-format", envLogFormat) {
		o.LogFormat = c.LogFormat
	}
	if c.MetricsFile != "" && use("metrics-file", "") {
		o.MetricsFile = c.MetricsFile
	}
	if c.Report != "" && use("report", "") {
		o.Report = c.Report
	}
	if c.Verbose && use("verbose", envVerbose) {
		o.Verbose = true
	}
}

// expandPaths resolves a leading ~ in every path option.
func (o *Options) expandPaths() error {
	for _, p := range []*string{&o.Model, &o.Dataset, &o.MetricsFile, &o.Report} {
		v, err := fsutil.ExpandHome(*p)
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}
