package cli

import (
	"probe-ids/config"
	"probe-ids/pipeline"

	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Train, validate and export the decision tree",
		Long: `Load the training and validation sets, keep the leading header features,
encode the class labels, fit the tree, print the classification report for the
validation set and write the tree image.

Flags override the config file and environment.`,
		Example: `  idstree run
  idstree run --train dataset/probe_attack_known_train.arff --train dataset/probe_known_service_train.arff
  idstree run --criterion entropy --max-depth 10 --dot tree.dot --format markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := GetConfig(ctx)
			_, err := pipeline.Run(ctx, cfg,
				pipeline.WithOutput(cmd.OutOrStdout()),
				pipeline.WithProgress(cmd.ErrOrStderr()),
				pipeline.WithLogger(config.GetLogger(ctx)),
			)
			return err
		},
	}

	cmd.Flags().StringSlice("train", nil, "training ARFF file (repeatable, appended in order)")
	cmd.Flags().StringSlice("validation", nil, "validation ARFF file (repeatable)")
	cmd.Flags().Int("features", 0, "number of leading columns used as features")
	cmd.Flags().String("criterion", "", "split criterion (gini|entropy)")
	cmd.Flags().Int("max-depth", 0, "maximum tree depth, 0 for unlimited")
	cmd.Flags().Int("workers", 0, "features scanned concurrently per split")
	cmd.Flags().String("image", "", "PNG path for the tree image, empty to skip")
	cmd.Flags().String("dot", "", "also write the graphviz description to this path")
	cmd.Flags().String("format", "", "report format (text|markdown|json|yaml)")
	cmd.Flags().Bool("print-tree", false, "print the fitted tree as text")
	cmd.Flags().Int("render-depth", 0, "draw the image only down to this depth, 0 for all")
	cmd.Flags().Bool("progress", false, "show a progress bar while loading")

	_ = cmd.RegisterFlagCompletionFunc("criterion", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"gini", "entropy"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "markdown", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}
