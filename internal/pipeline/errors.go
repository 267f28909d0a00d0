package pipeline

import (
	"errors"
	"fmt"
)

// inputMissingError signals a model or dataset path that is not a readable file.
type inputMissingError struct{ path string }

func (e inputMissingError) Error() string { return fmt.Sprintf("file %s does not exist", e.path) }

// ErrInputMissing constructs an inputMissingError.
func ErrInputMissing(path string) error { return inputMissingError{path: path} }

// IsInputMissing reports whether err indicates a missing input file.
func IsInputMissing(err error) bool {
	var e inputMissingError
	return errors.As(err, &e)
}

type platformUnsupportedError struct{ platform string }

func (e platformUnsupportedError) Error() string {
	return fmt.Sprintf("platform %s is not supported", e.platform)
}

// ErrPlatformUnsupported constructs a platformUnsupportedError.
func ErrPlatformUnsupported(p string) error { return platformUnsupportedError{platform: p} }

// IsPlatformUnsupported reports whether err indicates an unknown target platform.
func IsPlatformUnsupported(err error) bool {
	var e platformUnsupportedError
	return errors.As(err, &e)
}

type formatUnrecognizedError struct{ ext string }

func (e formatUnrecognizedError) Error() string {
	if e.ext == "" {
		return "unknown model type: missing extension"
	}
	return "unknown model type " + e.ext
}

// ErrFormatUnrecognized constructs a formatUnrecognizedError.
func ErrFormatUnrecognized(ext string) error { return formatUnrecognizedError{ext: ext} }

// IsFormatUnrecognized reports whether err indicates an unsupported model extension.
func IsFormatUnrecognized(err error) bool {
	var e formatUnrecognizedError
	return errors.As(err, &e)
}

type imageSizeMalformedError struct{ value string }

func (e imageSizeMalformedError) Error() string {
	return "invalid image size format: " + e.value
}

// ErrImageSizeMalformed constructs an imageSizeMalformedError.
func ErrImageSizeMalformed(v string) error { return imageSizeMalformedError{value: v} }

// IsImageSizeMalformed reports whether err indicates a bad --imgsize value.
func IsImageSizeMalformed(err error) bool {
	var e imageSizeMalformedError
	return errors.As(err, &e)
}

// Stage names a step of the pipeline.
type Stage string

const (
	StageExport     Stage = "export"
	StageConvert    Stage = "convert"
	StageSession    Stage = "session"
	StageConfig     Stage = "config"
	StageLoad       Stage = "load"
	StageBuild      Stage = "build"
	StageExportRKNN Stage = "export_rknn"
)

func (s Stage) describe() string {
	switch s {
	case StageExport:
		return "ONNX export"
	case StageConvert:
		return "RKNN conversion"
	case StageSession:
		return "RKNN session"
	case StageConfig:
		return "RKNN config"
	case StageLoad:
		return "ONNX load"
	case StageBuild:
		return "RKNN build"
	case StageExportRKNN:
		return "RKNN export"
	default:
		return string(s)
	}
}

// StageError reports a failed stage. Code is the toolkit status when the
// step ran and returned non-zero; Err is set when the step could not run.
type StageError struct {
	Stage Stage
	Code  int
	Err   error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %v", e.Stage.describe(), e.Err)
	}
	return fmt.Sprintf("%s error: %d", e.Stage.describe(), e.Code)
}

func (e *StageError) Unwrap() error { return e.Err }

// IsStageFailed reports whether err is a failure of the given stage.
func IsStageFailed(err error, stage Stage) bool {
	var se *StageError
	return errors.As(err, &se) && se.Stage == stage
}

// ExitCode maps an error from the pipeline to a process exit status.
// Every failure is terminal for the invocation and maps to 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
