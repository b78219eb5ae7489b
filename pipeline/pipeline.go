// Package pipeline runs the intrusion-detection experiment end to end:
// load, select, encode, train, predict, render and report.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"probe-ids/arff"
	"probe-ids/config"
	"probe-ids/dataset"
	"probe-ids/decisiontree"
	"probe-ids/evaluate"
	"probe-ids/render"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Option configures a run.
type Option func(*runner)

// WithOutput sets where the feature list, tree and report are printed.
func WithOutput(w io.Writer) Option {
	return func(r *runner) { r.out = w }
}

// WithProgress sets where load progress bars are drawn when enabled in the config.
func WithProgress(w io.Writer) Option {
	return func(r *runner) { r.progress = w }
}

// WithLogger sets the run logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *runner) { r.logger = l }
}

type runner struct {
	cfg      *config.Config
	out      io.Writer
	progress io.Writer
	logger   *slog.Logger
	res      *Result

	train, valid *dataset.Table
	yValid       []int
}

// Run executes every stage. Load, select and encode failures abort the run
// and are returned directly. Train, predict and render failures are recorded
// and later stages that depend on them are skipped; Run then returns the full
// Result together with an error wrapping ErrStagesFailed.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &runner{
		cfg:    cfg,
		out:    io.Discard,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		res:    &Result{RunID: uuid.NewString()},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("run_id", r.res.RunID)
	r.res.ClassNames = cfg.LabelMap().ClassNames()

	r.logger.Info("run started",
		"train", strings.Join(cfg.Train, ","),
		"validation", strings.Join(cfg.Validation, ","),
		"features", cfg.FeatureCount,
		"criterion", cfg.Tree.Criterion,
	)

	for _, stage := range []struct {
		name Stage
		fn   func(context.Context) error
	}{
		{StageLoad, r.load},
		{StageSelect, r.selectFeatures},
		{StageEncode, r.encode},
	} {
		if err := ctx.Err(); err != nil {
			return r.res, err
		}
		if err := r.step(ctx, stage.name, nil, stage.fn); err != nil {
			return r.res, err
		}
	}

	for _, stage := range []struct {
		name  Stage
		needs []Stage
		fn    func(context.Context) error
	}{
		{StageTrain, nil, r.fit},
		{StagePredict, []Stage{StageTrain}, r.predict},
		{StageRender, []Stage{StageTrain}, r.render},
		{StageReport, []Stage{StagePredict}, r.report},
	} {
		if err := ctx.Err(); err != nil {
			return r.res, err
		}
		_ = r.step(ctx, stage.name, stage.needs, stage.fn)
	}

	if failed := r.res.Failed(); len(failed) > 0 {
		names := make([]string, len(failed))
		for i, f := range failed {
			names[i] = string(f.Stage)
		}
		r.logger.Warn("run finished with failures", "failed", strings.Join(names, ","))
		return r.res, errors.Wrapf(ErrStagesFailed, "failed: %s", strings.Join(names, ", "))
	}
	r.logger.Info("run finished")
	return r.res, nil
}

// step runs fn unless a stage it needs did not succeed, and records the outcome.
func (r *runner) step(ctx context.Context, stage Stage, needs []Stage, fn func(context.Context) error) error {
	for _, need := range needs {
		if !r.res.OK(need) {
			r.res.Stages = append(r.res.Stages, StageResult{Stage: stage, Status: StatusSkipped})
			r.logger.Warn("stage skipped", "stage", stage, "missing", need)
			return nil
		}
	}

	start := time.Now()
	err := fn(ctx)
	sr := StageResult{Stage: stage, Status: StatusOK, Elapsed: time.Since(start)}
	if err != nil {
		sr.Status = StatusFailed
		sr.Err = errors.Wrapf(err, "stage %s", stage)
		r.logger.Error("stage failed", "stage", stage, "elapsed", sr.Elapsed, "error", err)
	} else {
		r.logger.Info("stage finished", "stage", stage, "elapsed", sr.Elapsed)
	}
	r.res.Stages = append(r.res.Stages, sr)
	return sr.Err
}

func (r *runner) load(context.Context) error {
	var opts []arff.Option
	if r.cfg.Progress && r.progress != nil {
		opts = append(opts, arff.WithProgress(r.progress))
	}

	var err error
	if r.train, err = dataset.LoadAll(r.cfg.Train, opts...); err != nil {
		return errors.Wrap(err, "training set")
	}
	if r.valid, err = dataset.LoadAll(r.cfg.Validation, opts...); err != nil {
		return errors.Wrap(err, "validation set")
	}
	r.res.TrainRows, r.res.ValidRows = r.train.NumRows(), r.valid.NumRows()
	r.logger.Debug("datasets loaded",
		"train_rows", r.train.NumRows(),
		"validation_rows", r.valid.NumRows(),
		"columns", r.train.NumCols(),
	)
	return nil
}

func (r *runner) selectFeatures(context.Context) error {
	train, err := r.train.SelectFeatures(r.cfg.FeatureCount)
	if err != nil {
		return errors.Wrap(err, "training set")
	}
	valid, err := r.valid.SelectFeatures(r.cfg.FeatureCount)
	if err != nil {
		return errors.Wrap(err, "validation set")
	}
	if err := train.CheckFeatures(valid); err != nil {
		return errors.Wrap(err, "validation set")
	}
	r.train, r.valid = train, valid
	r.res.FeatureNames = train.FeatureNames()

	_, err = fmt.Fprintf(r.out, "features (%d): %s\n", len(r.res.FeatureNames), strings.Join(r.res.FeatureNames, ", "))
	return err
}

func (r *runner) encode(context.Context) error {
	labels := r.cfg.LabelMap()
	train, err := r.train.EncodeLabels(labels)
	if err != nil {
		return errors.Wrap(err, "training set")
	}
	valid, err := r.valid.EncodeLabels(labels)
	if err != nil {
		return errors.Wrap(err, "validation set")
	}
	r.train, r.valid = train, valid
	r.logger.Debug("labels encoded", "train", train.LabelCounts(), "validation", valid.LabelCounts())
	return nil
}

func (r *runner) fit(context.Context) error {
	X, y, err := r.train.Matrix()
	if err != nil {
		return err
	}
	criterion, err := decisiontree.ParseCriterion(r.cfg.Tree.Criterion)
	if err != nil {
		return err
	}
	clf := decisiontree.New(
		decisiontree.WithCriterion(criterion),
		decisiontree.WithMaxDepth(r.cfg.Tree.MaxDepth),
		decisiontree.WithMinSamplesSplit(r.cfg.Tree.MinSamplesSplit),
		decisiontree.WithMinSamplesLeaf(r.cfg.Tree.MinSamplesLeaf),
		decisiontree.WithWorkers(r.cfg.Tree.Workers),
		decisiontree.WithLogger(r.logger),
	)
	if err := clf.Fit(X, y); err != nil {
		return err
	}
	r.res.Model = clf
	r.logger.Info("tree built", "nodes", clf.NodeCount(), "leaves", clf.Leaves(), "depth", clf.Depth())
	return nil
}

func (r *runner) predict(context.Context) error {
	X, y, err := r.valid.Matrix()
	if err != nil {
		return err
	}
	pred, err := r.res.Model.Predict(X)
	if err != nil {
		return err
	}
	r.yValid = y
	r.res.Predictions = pred
	return nil
}

func (r *runner) render(context.Context) error {
	model, names, classes := r.res.Model, r.res.FeatureNames, r.res.ClassNames

	if r.cfg.Output.PrintTree {
		if err := model.Fprint(r.out, names, classes); err != nil {
			return err
		}
	}
	if path := r.cfg.Output.Image; path != "" {
		if err := render.WritePNG(path, model, names, classes, render.WithMaxDepth(r.cfg.Render.MaxDepth)); err != nil {
			return err
		}
		r.res.Artifacts = append(r.res.Artifacts, path)
		r.logger.Info("tree image written", "path", path)
	}
	if path := r.cfg.Output.DOT; path != "" {
		if err := render.WriteDOT(path, model, names, classes); err != nil {
			return err
		}
		r.res.Artifacts = append(r.res.Artifacts, path)
		r.logger.Info("tree description written", "path", path)
	}
	return nil
}

func (r *runner) report(context.Context) error {
	format, err := evaluate.ParseFormat(r.cfg.Output.ReportFormat)
	if err != nil {
		return err
	}
	rep, err := evaluate.NewReport(r.yValid, r.res.Predictions, r.res.ClassNames)
	if err != nil {
		return err
	}
	r.res.Report = rep
	r.logger.Info("validation scored", "accuracy", rep.Accuracy, "samples", rep.Total)
	return rep.Render(r.out, format)
}
