// Package preflight checks that the Python toolchains the pipeline drives are
// installed for a given interpreter.
package preflight

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"pt2rknn/internal/common/procutil"
)

//go:embed probe.py
var probeScript string

// Report describes the toolchain available to one interpreter.
type Report struct {
	Python             string `json:"python"`
	PythonFound        bool   `json:"python_found"`
	PythonVersion      string `json:"python_version,omitempty"`
	Ultralytics        bool   `json:"ultralytics"`
	UltralyticsVersion string `json:"ultralytics_version,omitempty"`
	RKNN               bool   `json:"rknn"`
	RKNNVersion        string `json:"rknn_version,omitempty"`
	Error              string `json:"error,omitempty"`
}

// OK reports whether both stages can run.
func (r Report) OK() bool { return r.PythonFound && r.Ultralytics && r.RKNN }

// Missing lists the components that were not found.
func (r Report) Missing() []string {
	var out []string
	if !r.PythonFound {
		return []string{"python"}
	}
	if !r.Ultralytics {
		out = append(out, "ultralytics")
	}
	if !r.RKNN {
		out = append(out, "rknn-toolkit2")
	}
	return out
}

type probeResult struct {
	Python             string `json:"python"`
	Ultralytics        bool   `json:"ultralytics"`
	UltralyticsVersion string `json:"ultralytics_version"`
	RKNN               bool   `json:"rknn"`
	RKNNVersion        string `json:"rknn_version"`
}

// Checker probes an interpreter.
type Checker struct {
	log zerolog.Logger
	// newCmd builds the probe command; tests swap it.
	newCmd func(python string) procutil.Cmd
}

// New returns a Checker that runs the embedded probe script.
func New(log zerolog.Logger) *Checker {
	return &Checker{log: log, newCmd: func(python string) procutil.Cmd {
		return procutil.Cmd{Path: python, Args: []string{"-c", probeScript}}
	}}
}

// Check runs the probe under python. It does not fail; problems are recorded
// in the report.
func (c *Checker) Check(ctx context.Context, python string) Report {
	r := Report{Python: python}
	cmd := c.newCmd(python)
	if _, err := exec.LookPath(cmd.Path); err != nil {
		r.Error = err.Error()
		return r
	}
	r.PythonFound = true
	ec := cmd.Build(ctx)
	tail := procutil.NewTail(1024)
	ec.Stderr = tail
	out, err := ec.Output()
	if err != nil {
		r.Error = strings.TrimSpace(fmt.Sprintf("probe failed: %v %s", err, tail.String()))
		return r
	}
	var pr probeResult
	if err := json.Unmarshal(out, &pr); err != nil {
		r.Error = fmt.Sprintf("decode probe output: %v", err)
		return r
	}
	r.PythonVersion = pr.Python
	r.Ultralytics, r.UltralyticsVersion = pr.Ultralytics, pr.UltralyticsVersion
	r.RKNN, r.RKNNVersion = pr.RKNN, pr.RKNNVersion
	c.log.Debug().Str("python", python).Str("version", r.PythonVersion).Bool("ultralytics", r.Ultralytics).Bool("rknn", r.RKNN).Msg("toolchain probe")
	return r
}
