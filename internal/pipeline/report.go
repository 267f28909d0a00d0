package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/moby/sys/atomicwriter"
	"github.com/opencontainers/go-digest"
)

// Report is the JSON summary written with --report.
type Report struct {
	Model     string            `json:"model"`
	Format    string            `json:"format"`
	Graph     string            `json:"graph"`
	Output    string            `json:"output"`
	Platform  string            `json:"platform"`
	ImageSize string            `json:"imgsize"`
	Dataset   string            `json:"dataset,omitempty"`
	Quantized bool              `json:"quantized"`
	Exported  bool              `json:"exported"`
	SizeBytes int64             `json:"size_bytes"`
	Digest    string            `json:"digest"`
	Durations map[string]string `json:"durations,omitempty"`
}

// NewReport builds the report for a finished run.
func NewReport(res Result) Report {
	r := Report{
		Model:     res.Request.Model,
		Format:    res.Format.String(),
		Graph:     res.Graph,
		Output:    res.Output,
		Platform:  string(res.Request.Platform),
		ImageSize: res.Request.ImageSize.String(),
		Dataset:   res.Request.Dataset,
		Quantized: res.Request.Quantize(),
		Exported:  res.Exported,
		SizeBytes: res.Size,
		Digest:    res.Digest,
	}
	if len(res.Durations) > 0 {
		r.Durations = make(map[string]string, len(res.Durations))
		for stage, d := range res.Durations {
			r.Durations[stage] = d.String()
		}
	}
	return r
}

// WriteReport writes the report for res to path atomically.
func WriteReport(path string, res Result) error {
	b, err := json.MarshalIndent(NewReport(res), "", "  ")
	if err != nil {
		return err
	}
	if err := atomicwriter.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func fileDigest(path string) (digest.Digest, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	digester := digest.Canonical.Digester()
	n, err := io.Copy(digester.Hash(), f)
	if err != nil {
		return "", 0, err
	}
	return digester.Digest(), n, nil
}
