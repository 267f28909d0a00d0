package converter

import (
	"context"
	"time"

	"pt2rknn/internal/metrics"
	"pt2rknn/internal/pipeline"
)

// State is the position of a conversion in its linear sequence.
type State int

const (
	StateNotStarted State = iota
	StateConfigured
	StateLoaded
	StateBuilt
	StateExported
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateConfigured:
		return "configured"
	case StateLoaded:
		return "loaded"
	case StateBuilt:
		return "built"
	case StateExported:
		return "exported"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}

type step struct {
	stage   pipeline.Stage
	next    State
	start   string
	failure string
	run     func() (int, error)
}

// Convert configures the toolkit, loads req.Graph, builds (quantizing when a
// dataset is set) and exports to req.Output. The first failing step aborts
// the rest. The session is released on every path.
func (t *Toolkit) Convert(ctx context.Context, req pipeline.ConvertRequest) error {
	sess, err := t.open(ctx)
	if err != nil {
		return &pipeline.StageError{Stage: pipeline.StageSession, Err: err}
	}
	state := StateNotStarted
	defer func() {
		if err := sess.Release(); err != nil {
			t.log.Warn().Err(err).Stringer("state", state).Msg("failed to release RKNN session")
			return
		}
		t.log.Debug().Stringer("from", state).Msg("RKNN session released")
	}()

	steps := []step{
		{
			stage:   pipeline.StageConfig,
			next:    StateConfigured,
			failure: "Failed to configure RKNN toolkit for " + string(req.Platform),
			run:     func() (int, error) { return sess.Config(ctx, DefaultOptions(req.Platform)) },
		},
		{
			stage:   pipeline.StageLoad,
			next:    StateLoaded,
			start:   "Loading " + req.Graph,
			failure: "Failed to load ONNX model: " + req.Graph,
			run:     func() (int, error) { return sess.LoadONNX(ctx, req.Graph) },
		},
		{
			stage:   pipeline.StageBuild,
			next:    StateBuilt,
			start:   "Building RKNN model",
			failure: "Failed to build RKNN model: " + req.Graph,
			run:     func() (int, error) { return sess.Build(ctx, req.Quantize(), req.Dataset) },
		},
		{
			stage:   pipeline.StageExportRKNN,
			next:    StateExported,
			start:   "Exporting RKNN model: " + req.Output,
			failure: "Failed to export RKNN model: " + req.Output,
			run:     func() (int, error) { return sess.ExportRKNN(ctx, req.Output) },
		},
	}
	for _, st := range steps {
		if st.start != "" {
			t.log.Info().Msg(st.start)
		}
		began := time.Now()
		code, err := st.run()
		if err == nil && code != 0 {
			err = &pipeline.StageError{Stage: st.stage, Code: code}
		} else if err != nil {
			err = &pipeline.StageError{Stage: st.stage, Err: err}
		}
		metrics.ObserveStage(string(st.stage), time.Since(began), err)
		if err != nil {
			t.log.Error().Stringer("state", state).Msg(st.failure)
			return err
		}
		state = st.next
	}
	return nil
}
