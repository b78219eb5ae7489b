package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"probe-ids/arff"

	"github.com/pkg/errors"
)

// ReadCSV parses a CSV export with a header row. The last column is the
// label and is kept as a string column; every other column is numeric when
// all of its non-missing cells parse as floats, and a string column
// otherwise. Empty cells and "?" are missing.
func ReadCSV(r io.Reader, relation string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "dataset: csv")
	}
	if len(records) == 0 {
		return nil, errors.New("dataset: csv has no header row")
	}

	header := records[0]
	records = records[1:]
	cols := make([]Column, len(header))
	for j, name := range header {
		cols[j] = Column{Name: strings.TrimSpace(name), Kind: arff.Numeric}
		if j == len(header)-1 {
			cols[j].Kind = arff.String
			continue
		}
		for _, record := range records {
			if s := record[j]; !isMissing(s) {
				if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
					cols[j].Kind = arff.String
					break
				}
			}
		}
	}

	rows := make([][]Value, len(records))
	for i, record := range records {
		row := make([]Value, len(record))
		for j, s := range record {
			s = strings.TrimSpace(s)
			switch {
			case isMissing(s):
				row[j] = arff.MissingValue()
			case cols[j].Kind == arff.Numeric:
				f, _ := strconv.ParseFloat(s, 64)
				row[j] = Value{Num: f}
			default:
				row[j] = Value{Str: s, Text: true}
			}
		}
		rows[i] = row
	}
	return &Table{Relation: relation, Columns: cols, Rows: rows}, nil
}

// LoadCSV reads the CSV file at path. The relation is named after the file.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "dataset: open")
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	t, err := ReadCSV(f, name)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: %s", path)
	}
	return t, nil
}

func isMissing(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "?"
}
