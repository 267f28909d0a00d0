package converter

import (
	"context"
	"os"

	"pt2rknn/internal/pipeline"
)

// fakeSession records calls and returns preset status codes per stage.
type fakeSession struct {
	ops      []string
	codes    map[pipeline.Stage]int
	errs     map[pipeline.Stage]error
	released int

	gotOpts     Options
	gotQuantize bool
	gotDataset  string
}

func newFakeSession() *fakeSession {
	return &fakeSession{codes: map[pipeline.Stage]int{}, errs: map[pipeline.Stage]error{}}
}

func (f *fakeSession) result(stage pipeline.Stage) (int, error) {
	f.ops = append(f.ops, string(stage))
	return f.codes[stage], f.errs[stage]
}

func (f *fakeSession) Config(ctx context.Context, opts Options) (int, error) {
	f.gotOpts = opts
	return f.result(pipeline.StageConfig)
}

func (f *fakeSession) LoadONNX(ctx context.Context, model string) (int, error) {
	return f.result(pipeline.StageLoad)
}

func (f *fakeSession) Build(ctx context.Context, quantize bool, dataset string) (int, error) {
	f.gotQuantize, f.gotDataset = quantize, dataset
	return f.result(pipeline.StageBuild)
}

func (f *fakeSession) ExportRKNN(ctx context.Context, path string) (int, error) {
	code, err := f.result(pipeline.StageExportRKNN)
	if code == 0 && err == nil {
		_ = os.WriteFile(path, []byte("rknn"), 0o644)
	}
	return code, err
}

func (f *fakeSession) Release() error {
	f.released++
	return nil
}
