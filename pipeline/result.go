package pipeline

import (
	"time"

	"probe-ids/decisiontree"
	"probe-ids/evaluate"

	"github.com/pkg/errors"
)

// ErrStagesFailed is returned when at least one stage failed.
var ErrStagesFailed = errors.New("pipeline: one or more stages failed")

// Stage names a step of a run.
type Stage string

const (
	StageLoad    Stage = "load"
	StageSelect  Stage = "select"
	StageEncode  Stage = "encode"
	StageTrain   Stage = "train"
	StagePredict Stage = "predict"
	StageRender  Stage = "render"
	StageReport  Stage = "report"
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageLoad, StageSelect, StageEncode, StageTrain, StagePredict, StageRender, StageReport}

// Status is the outcome of a stage.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StageResult records what happened in one stage.
type StageResult struct {
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// Result collects the outputs of a run. Fields of stages that did not
// succeed are left zero.
type Result struct {
	RunID        string
	Stages       []StageResult
	FeatureNames []string
	ClassNames   []string
	TrainRows    int
	ValidRows    int
	Model        *decisiontree.Classifier
	Predictions  []int
	Report       *evaluate.Report
	// Artifacts lists the files written by the render stage.
	Artifacts []string
}

// Stage returns the result of stage s, if it ran or was skipped.
func (r *Result) Stage(s Stage) (StageResult, bool) {
	for _, sr := range r.Stages {
		if sr.Stage == s {
			return sr, true
		}
	}
	return StageResult{}, false
}

// OK reports whether stage s completed successfully.
func (r *Result) OK(s Stage) bool {
	sr, ok := r.Stage(s)
	return ok && sr.Status == StatusOK
}

// Failed returns the results of every failed stage.
func (r *Result) Failed() []StageResult {
	var failed []StageResult
	for _, sr := range r.Stages {
		if sr.Status == StatusFailed {
			failed = append(failed, sr)
		}
	}
	return failed
}
