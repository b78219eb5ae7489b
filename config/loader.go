package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// flagKeys maps command-line flag names to config keys. Flags not listed
// map to their name with dashes replaced by underscores.
var flagKeys = map[string]string{
	"features":     "feature_count",
	"criterion":    "tree.criterion",
	"max-depth":    "tree.max_depth",
	"workers":      "tree.workers",
	"image":        "output.image",
	"dot":          "output.dot",
	"format":       "output.report_format",
	"print-tree":   "output.print_tree",
	"render-depth": "render.max_depth",
	"log-level":    "log.level",
	"log-format":   "log.format",
}

// listKeys are split on commas when they come from the environment.
var listKeys = map[string]bool{"train": true, "validation": true}

// Load builds the configuration. Precedence, highest first: flags that were
// explicitly set, IDSTREE_ environment variables, the config file, defaults.
// An empty cfgFile falls back to ./idstree.yaml when it exists.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	def := Default()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"train":                  def.Train,
		"validation":             def.Validation,
		"feature_count":          def.FeatureCount,
		"tree.criterion":         def.Tree.Criterion,
		"tree.max_depth":         def.Tree.MaxDepth,
		"tree.min_samples_split": def.Tree.MinSamplesSplit,
		"tree.min_samples_leaf":  def.Tree.MinSamplesLeaf,
		"tree.workers":           def.Tree.Workers,
		"output.image":           def.Output.Image,
		"output.dot":             def.Output.DOT,
		"output.report_format":   def.Output.ReportFormat,
		"output.print_tree":      def.Output.PrintTree,
		"render.max_depth":       def.Render.MaxDepth,
		"log.level":              def.Log.Level,
		"log.format":             def.Log.Format,
		"progress":               def.Progress,
	}, "."), nil); err != nil {
		return nil, errors.Wrap(err, "config: load defaults")
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "config: read %s", used)
		}
	}

	// IDSTREE_TREE__MAX_DEPTH -> tree.max_depth
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		key = strings.ReplaceAll(key, "__", ".")
		if listKeys[key] {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return key, parts
		}
		return key, value
	}), nil); err != nil {
		return nil, errors.Wrap(err, "config: load env")
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, errors.Wrap(err, "config: load flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "config: decode")
	}
	if len(cfg.Labels) == 0 {
		cfg.Labels = def.Labels
	}
	cfg.File = used
	return &cfg, nil
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{DefaultConfigFile, "idstree.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}
