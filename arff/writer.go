package arff

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Write serialises rel as a dense ARFF document.
func Write(w io.Writer, rel *Relation) error {
	bw := bufio.NewWriter(w)

	name := rel.Name
	if name == "" {
		name = "relation"
	}
	if _, err := bw.WriteString("@relation " + quote(name) + "\n\n"); err != nil {
		return errors.Wrap(err, "arff: write header")
	}
	for _, a := range rel.Attributes {
		typ := a.TypeString()
		if a.Kind == Nominal {
			values := make([]string, len(a.Values))
			for i, v := range a.Values {
				values[i] = quote(v)
			}
			typ = "{" + strings.Join(values, ",") + "}"
		}
		if _, err := bw.WriteString("@attribute " + quote(a.Name) + " " + typ + "\n"); err != nil {
			return errors.Wrap(err, "arff: write header")
		}
	}
	if _, err := bw.WriteString("\n@data\n"); err != nil {
		return errors.Wrap(err, "arff: write header")
	}

	for i, row := range rel.Data {
		if len(row) != len(rel.Attributes) {
			return errors.Errorf("arff: row %d has %d values, want %d", i, len(row), len(rel.Attributes))
		}
		cells := make([]string, len(row))
		for j, v := range row {
			if v.Missing {
				cells[j] = "?"
				continue
			}
			switch rel.Attributes[j].Kind {
			case Numeric:
				cells[j] = v.String()
			default:
				cells[j] = quote(v.Str)
			}
		}
		if _, err := bw.WriteString(strings.Join(cells, ",") + "\n"); err != nil {
			return errors.Wrap(err, "arff: write data")
		}
	}
	return errors.Wrap(bw.Flush(), "arff: flush")
}

func quote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t,{}'\"%?\\") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}
