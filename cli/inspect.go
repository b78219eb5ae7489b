package cli

import (
	"fmt"
	"sort"

	"probe-ids/arff"
	"probe-ids/config"
	"probe-ids/dataset"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.arff>...",
		Short: "Describe ARFF files",
		Long: `Print the relation name, the attribute list with the role each column plays
in a run (feature, label or dropped) and the class distribution.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := GetConfig(ctx)
			logger := config.GetLogger(ctx)
			out := cmd.OutOrStdout()

			var opts []arff.Option
			if cfg.Progress {
				opts = append(opts, arff.WithProgress(cmd.ErrOrStderr()))
			}

			for i, path := range args {
				t, err := dataset.Load(path, opts...)
				if err != nil {
					return err
				}
				logger.Debug("inspected", "path", path, "rows", t.NumRows(), "columns", t.NumCols())

				if i > 0 {
					_, _ = fmt.Fprintln(out)
				}
				_, _ = fmt.Fprintf(out, "%s: relation %q, %d rows, %d attributes\n", path, t.Relation, t.NumRows(), t.NumCols())

				attrs := table.NewWriter()
				attrs.SetOutputMirror(out)
				attrs.SetStyle(table.StyleLight)
				attrs.AppendHeader(table.Row{"#", "Name", "Type", "Role"})
				last := t.NumCols() - 1
				for j, c := range t.Columns {
					role := "dropped"
					switch {
					case j == last:
						role = "label"
					case j < cfg.FeatureCount:
						role = "feature"
					}
					attrs.AppendRow(table.Row{j, c.Name, typeName(c), role})
				}
				attrs.Render()

				counts := t.LabelCounts()
				labels := make([]string, 0, len(counts))
				for l := range counts {
					labels = append(labels, l)
				}
				sort.Strings(labels)

				dist := table.NewWriter()
				dist.SetOutputMirror(out)
				dist.SetStyle(table.StyleLight)
				dist.AppendHeader(table.Row{"Class", "Rows", "Share"})
				for _, l := range labels {
					share := float64(counts[l]) / float64(max(t.NumRows(), 1))
					dist.AppendRow(table.Row{l, counts[l], fmt.Sprintf("%.1f%%", share*100)})
				}
				dist.Render()
			}
			return nil
		},
	}
}

func typeName(c dataset.Column) string {
	a := arff.Attribute{Name: c.Name, Kind: c.Kind, Values: c.Values}
	return a.TypeString()
}
