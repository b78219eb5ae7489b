// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"probe-ids/arff"
)

// NewTestLogger returns a debug-level logger that writes to t.Log.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// WriteARFF serialises rel into dir/name and returns the path.
func WriteARFF(t testing.TB, dir, name string, rel *arff.Relation) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := arff.Write(f, rel); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// ProbeRelation builds a capture-like relation: features numeric header
// columns, extra trailing numeric columns and a nominal normal/attack class.
// Rows are labelled attack exactly when column 1 is 1, so the data is
// separable by a single split on that column.
func ProbeRelation(rows, features, extra int, seed int64) *arff.Relation {
	rng := rand.New(rand.NewSource(seed))
	class := arff.Attribute{Name: "class", Kind: arff.Nominal, Values: []string{"normal", "attack"}}

	rel := &arff.Relation{Name: "probe_attack"}
	for i := 0; i < features; i++ {
		rel.Attributes = append(rel.Attributes, arff.Attribute{Name: fmt.Sprintf("hdr_%02d", i), Kind: arff.Numeric})
	}
	for i := 0; i < extra; i++ {
		rel.Attributes = append(rel.Attributes, arff.Attribute{Name: fmt.Sprintf("payload_%02d", i), Kind: arff.Numeric})
	}
	rel.Attributes = append(rel.Attributes, class)

	for r := 0; r < rows; r++ {
		row := make([]arff.Value, 0, features+extra+1)
		for i := 0; i < features+extra; i++ {
			v := float64(rng.Intn(64))
			if i == 1 {
				v = float64(r % 2)
			}
			row = append(row, arff.Value{Num: v})
		}
		label := class.Values[r%2]
		row = append(row, arff.Value{Str: label, Num: float64(class.Index(label))})
		rel.Data = append(rel.Data, row)
	}
	return rel
}
