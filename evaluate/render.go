package evaluate

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat accepts text, markdown (or md), json and yaml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "table":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", errors.Errorf("evaluate: unknown report format %q", s)
	}
}

// Render writes the report to w.
func (r *Report) Render(w io.Writer, format Format) error {
	switch format {
	case FormatText, "":
		r.renderTables(w, false)
		return nil
	case FormatMarkdown:
		r.renderTables(w, true)
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(r), "evaluate: encode json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return errors.Wrap(err, "evaluate: encode yaml")
		}
		return errors.Wrap(enc.Close(), "evaluate: encode yaml")
	default:
		return errors.Errorf("evaluate: unknown report format %q", format)
	}
}

func (r *Report) renderTables(w io.Writer, markdown bool) {
	render := func(t table.Writer) {
		if markdown {
			t.RenderMarkdown()
			_, _ = fmt.Fprintln(w)
			return
		}
		t.Render()
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"", "precision", "recall", "f1-score", "support"})
	for _, c := range r.Classes {
		t.AppendRow(metricsRow(c))
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"accuracy", "", "", fmt.Sprintf("%.2f", r.Accuracy), r.Total})
	t.AppendRow(metricsRow(r.MacroAvg))
	t.AppendRow(metricsRow(r.WeightedAvg))
	render(t)

	cm := table.NewWriter()
	cm.SetOutputMirror(w)
	cm.SetStyle(table.StyleLight)
	cm.Style().Format.Header = text.FormatDefault
	header := table.Row{"true \\ predicted"}
	for _, c := range r.Classes {
		header = append(header, c.Class)
	}
	cm.AppendHeader(header)
	for i, c := range r.Classes {
		row := table.Row{c.Class}
		for _, n := range r.Confusion[i] {
			row = append(row, n)
		}
		cm.AppendRow(row)
	}
	render(cm)
}

func metricsRow(c ClassMetrics) table.Row {
	return table.Row{
		c.Class,
		fmt.Sprintf("%.2f", c.Precision),
		fmt.Sprintf("%.2f", c.Recall),
		fmt.Sprintf("%.2f", c.F1),
		c.Support,
	}
}
