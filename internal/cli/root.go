package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pt2rknn/internal/common/fsutil"
	"pt2rknn/internal/config"
	"pt2rknn/internal/logging"
	"pt2rknn/internal/metrics"
	"pt2rknn/internal/pipeline"
)

// usageError marks bad invocations (unknown flags, missing --model) so they
// exit with 2 instead of 1.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func isUsageError(err error) bool {
	var ue usageError
	return errors.As(err, &ue)
}

// app carries state shared by the command tree and MainContext.
type app struct {
	opts   *Options
	log    zerolog.Logger
	stderr io.Writer
}

func newApp(stderr io.Writer) *app {
	opts := defaultOptions()
	return &app{opts: opts, log: logging.New(opts.LogLevel, opts.LogFormat, stderr), stderr: stderr}
}

// buildRootCmd constructs the command tree for a.
func buildRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "pt2rknn --model FILE [--dataset FILE] [--imgsize N|H:W] [--platform NAME]",
		Short: "YOLOv8 to RKNN converter tool",
		Long: "Convert a YOLO PyTorch model (.pt) or an ONNX graph (.onnx) into an RKNN model\n" +
			"for Rockchip NPUs. PyTorch weights are exported to ONNX first with ultralytics;\n" +
			"the graph is then compiled with rknn-toolkit2, quantized when a dataset is given.",
		Example:       "  pt2rknn -m yolov8n.pt -d dataset.txt -s 640 -p rk3588\n  pt2rknn -m best.onnx -p rk3566 --report best.json",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return usageError{err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.convert(cmd)
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error { return usageError{err} })
	a.opts.bindFlags(root.Flags())

	root.AddCommand(&cobra.Command{
		Use:   "platforms",
		Short: "List supported RKNN target platforms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range pipeline.Platforms() {
				marker := ""
				if p == pipeline.DefaultPlatform {
					marker = " (default)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", p, marker)
			}
			return nil
		},
	})

	root.AddCommand(buildCheckCmd(a))

	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(cmd.OutOrStdout(), true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error {
		return root.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
	}})
	root.AddCommand(completionCmd)

	return root
}

// convert resolves options and runs the pipeline.
func (a *app) convert(cmd *cobra.Command) error {
	o := a.opts
	if o.ConfigPath != "" {
		path, err := fsutil.ExpandHome(o.ConfigPath)
		if err != nil {
			return err
		}
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		o.applyConfig(cmd.Flags(), cfg)
	}
	a.log = logging.New(o.LogLevel, o.LogFormat, a.stderr)

	if o.Model == "" {
		return usageError{errors.New(`required flag "model" not set`)}
	}
	// Parsed before touching the model so a bad size never reaches the filesystem.
	size, err := pipeline.ParseImageSize(o.ImageSize)
	if err != nil {
		return err
	}
	if err := o.expandPaths(); err != nil {
		return err
	}

	exp, err := fnNewExporter(o, a.log)
	if err != nil {
		return err
	}
	conv, err := fnNewConverter(o, a.log)
	if err != nil {
		return err
	}
	res, err := pipeline.New(exp, conv, a.log).Run(cmd.Context(), pipeline.Request{
		Model:     o.Model,
		Dataset:   o.Dataset,
		ImageSize: size,
		Platform:  pipeline.Platform(o.Platform),
	})
	if merr := metrics.WriteTextfile(o.MetricsFile); merr != nil {
		a.log.Warn().Err(merr).Str("path", o.MetricsFile).Msg("failed to write metrics")
	}
	if err != nil {
		return err
	}
	if o.Report != "" {
		if err := pipeline.WriteReport(o.Report, res); err != nil {
			return err
		}
		a.log.Info().Msgf("Report saved to %s", o.Report)
	}
	return nil
}

// buildCheckCmd reports whether the interpreter has ultralytics and
// rknn-toolkit2 installed.
func buildCheckCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the Python toolchain used for export and conversion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.log = logging.New(a.opts.LogLevel, a.opts.LogFormat, a.stderr)
			r := fnCheck(cmd.Context(), a.opts.Python, a.log)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(r); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "python       %s\n", status(r.PythonFound, r.PythonVersion))
				fmt.Fprintf(out, "ultralytics  %s\n", status(r.Ultralytics, r.UltralyticsVersion))
				fmt.Fprintf(out, "rknn-toolkit %s\n", status(r.RKNN, r.RKNNVersion))
			}
			if r.Error != "" {
				return fmt.Errorf("toolchain check for %s failed: %s", r.Python, r.Error)
			}
			if !r.OK() {
				return fmt.Errorf("toolchain for %s is missing: %s", r.Python, strings.Join(r.Missing(), ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&a.opts.Python, "python", a.opts.Python, "Python interpreter to check (env PT2RKNN_PYTHON)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func status(ok bool, version string) string {
	switch {
	case !ok:
		return "missing"
	case version == "":
		return "ok"
	default:
		return "ok (" + version + ")"
	}
}
