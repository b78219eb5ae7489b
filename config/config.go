// Package config loads the run configuration from defaults, a YAML file,
// IDSTREE_ environment variables and command-line flags.
package config

import (
	"strings"

	"probe-ids/dataset"
	"probe-ids/decisiontree"
	"probe-ids/evaluate"

	"github.com/pkg/errors"
)

// Defaults reproduce the paths and settings of the reference experiment.
const (
	DefaultTrainFile      = "dataset/probe_attack_known_train.arff"
	DefaultValidationFile = "dataset/probe_attack_known_validation.arff"
	DefaultImage          = "full_ids_dt.png"
	DefaultConfigFile     = "idstree.yaml"
	EnvPrefix             = "IDSTREE_"
)

// TreeConfig holds classifier parameters.
type TreeConfig struct {
	Criterion       string `koanf:"criterion"`
	MaxDepth        int    `koanf:"max_depth"`
	MinSamplesSplit int    `koanf:"min_samples_split"`
	MinSamplesLeaf  int    `koanf:"min_samples_leaf"`
	Workers         int    `koanf:"workers"`
}

// OutputConfig controls the artefacts a run writes.
type OutputConfig struct {
	Image        string `koanf:"image"`
	DOT          string `koanf:"dot"`
	ReportFormat string `koanf:"report_format"`
	PrintTree    bool   `koanf:"print_tree"`
}

// RenderConfig controls the tree image.
type RenderConfig struct {
	MaxDepth int `koanf:"max_depth"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Config is the full run configuration.
type Config struct {
	Train        []string       `koanf:"train"`
	Validation   []string       `koanf:"validation"`
	FeatureCount int            `koanf:"feature_count"`
	Labels       map[string]int `koanf:"labels"`
	Tree         TreeConfig     `koanf:"tree"`
	Output       OutputConfig   `koanf:"output"`
	Render       RenderConfig   `koanf:"render"`
	Log          LogConfig      `koanf:"log"`
	Progress     bool           `koanf:"progress"`

	// File is the config file that was loaded, empty when none.
	File string `koanf:"-"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Train:        []string{DefaultTrainFile},
		Validation:   []string{DefaultValidationFile},
		FeatureCount: dataset.DefaultFeatureCount,
		Labels:       dataset.DefaultLabels(),
		Tree: TreeConfig{
			Criterion:       string(decisiontree.Gini),
			MinSamplesSplit: 2,
			MinSamplesLeaf:  1,
			Workers:         1,
		},
		Output: OutputConfig{
			Image:        DefaultImage,
			ReportFormat: string(evaluate.FormatText),
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// LabelMap returns the configured labels as a dataset.LabelMap.
func (c *Config) LabelMap() dataset.LabelMap {
	return dataset.LabelMap(c.Labels)
}

// Validate checks the configuration before a run.
func (c *Config) Validate() error {
	if len(c.Train) == 0 || hasBlank(c.Train) {
		return errors.New("config: train requires at least one non-empty path")
	}
	if len(c.Validation) == 0 || hasBlank(c.Validation) {
		return errors.New("config: validation requires at least one non-empty path")
	}
	if c.FeatureCount <= 0 {
		return errors.Errorf("config: feature_count must be positive, got %d", c.FeatureCount)
	}
	if err := c.LabelMap().Validate(); err != nil {
		return errors.Wrap(err, "config: labels")
	}
	if _, err := decisiontree.ParseCriterion(c.Tree.Criterion); err != nil {
		return errors.Wrap(err, "config: tree.criterion")
	}
	if c.Tree.MaxDepth < 0 {
		return errors.Errorf("config: tree.max_depth must be >= 0, got %d", c.Tree.MaxDepth)
	}
	if c.Tree.MinSamplesSplit < 2 {
		return errors.Errorf("config: tree.min_samples_split must be >= 2, got %d", c.Tree.MinSamplesSplit)
	}
	if c.Tree.MinSamplesLeaf < 1 {
		return errors.Errorf("config: tree.min_samples_leaf must be >= 1, got %d", c.Tree.MinSamplesLeaf)
	}
	if c.Render.MaxDepth < 0 {
		return errors.Errorf("config: render.max_depth must be >= 0, got %d", c.Render.MaxDepth)
	}
	if _, err := evaluate.ParseFormat(c.Output.ReportFormat); err != nil {
		return errors.Wrap(err, "config: output.report_format")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func hasBlank(paths []string) bool {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			return true
		}
	}
	return false
}
