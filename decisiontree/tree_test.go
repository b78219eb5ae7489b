package decisiontree

import (
	"bytes"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toy data separable on feature 1 at 0.5; feature 0 is noise.
var (
	toyX = [][]float64{
		{3, 0},
		{1, 0},
		{2, 1},
		{0, 1},
	}
	toyY = []int{0, 0, 1, 1}
)

func TestFitSeparable(t *testing.T) {
	for _, crit := range []Criterion{Gini, Entropy} {
		t.Run(string(crit), func(t *testing.T) {
			clf := New(WithCriterion(crit))
			require.NoError(t, clf.Fit(toyX, toyY))

			root := clf.Root()
			require.NotNil(t, root)
			assert.Equal(t, 1, root.Feature)
			assert.Equal(t, 0.5, root.Threshold)
			assert.True(t, root.Left.IsLeaf())
			assert.True(t, root.Right.IsLeaf())
			assert.Equal(t, 0, root.Left.Class)
			assert.Equal(t, 1, root.Right.Class)

			assert.Equal(t, 2, clf.Leaves())
			assert.Equal(t, 3, clf.NodeCount())
			assert.Equal(t, 1, clf.Depth())
			assert.Equal(t, []int{0, 1}, clf.Classes())
			assert.Equal(t, 2, clf.NumFeatures())

			pred, err := clf.Predict(toyX)
			require.NoError(t, err)
			assert.Equal(t, toyY, pred)

			pred, err = clf.Predict([][]float64{{9, 0.2}, {-4, 0.8}})
			require.NoError(t, err)
			assert.Equal(t, []int{0, 1}, pred)
		})
	}
}

func TestRootImpurity(t *testing.T) {
	clf := New()
	require.NoError(t, clf.Fit(toyX, toyY))
	assert.InDelta(t, 0.5, clf.Root().Impurity, 1e-12)
	assert.Equal(t, []float64{2, 2}, clf.Root().Counts)

	clf = New(WithCriterion(Entropy))
	require.NoError(t, clf.Fit(toyX, toyY))
	assert.InDelta(t, 1.0, clf.Root().Impurity, 1e-12)
}

func TestFitErrors(t *testing.T) {
	tests := []struct {
		name string
		X    [][]float64
		y    []int
		opts []Option
		want error
	}{
		{name: "empty", X: nil, y: nil, want: ErrEmpty},
		{name: "row count mismatch", X: toyX, y: []int{0, 1}, want: ErrDimensionMismatch},
		{name: "ragged", X: [][]float64{{1, 2}, {3}}, y: []int{0, 1}, want: ErrDimensionMismatch},
		{name: "nan", X: [][]float64{{1}, {math.NaN()}}, y: []int{0, 1}, want: ErrInvalidValue},
		{name: "inf", X: [][]float64{{1}, {math.Inf(1)}}, y: []int{0, 1}, want: ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clf := New(tt.opts...)
			require.NoError(t, clf.Fit(toyX, toyY))

			err := clf.Fit(tt.X, tt.y)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			assert.False(t, clf.Fitted(), "failed fit must discard the previous model")
			_, err = clf.Predict(toyX)
			assert.True(t, errors.Is(err, ErrNotFitted))
		})
	}
}

func TestFitInvalidParams(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "criterion", opts: []Option{WithCriterion("mse")}},
		{name: "depth", opts: []Option{WithMaxDepth(-1)}},
		{name: "split", opts: []Option{WithMinSamplesSplit(1)}},
		{name: "leaf", opts: []Option{WithMinSamplesLeaf(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, New(tt.opts...).Fit(toyX, toyY))
		})
	}
}

func TestPredictErrors(t *testing.T) {
	clf := New()
	_, err := clf.Predict(toyX)
	assert.True(t, errors.Is(err, ErrNotFitted))

	require.NoError(t, clf.Fit(toyX, toyY))

	_, err = clf.Predict([][]float64{{1, 2, 3}})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	_, err = clf.Predict([][]float64{{1, math.NaN()}})
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestStoppingRules(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {3}, {4}, {5}}
	y := []int{0, 1, 0, 1, 0, 1}

	full := New()
	require.NoError(t, full.Fit(X, y))
	pred, err := full.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, y, pred, "unlimited depth memorises distinct points")

	stump := New(WithMaxDepth(1))
	require.NoError(t, stump.Fit(X, y))
	assert.Equal(t, 1, stump.Depth())
	assert.Equal(t, 2, stump.Leaves())

	wide := New(WithMinSamplesLeaf(3))
	require.NoError(t, wide.Fit(X, y))
	wide.Walk(func(n *Node, _ int) {
		assert.GreaterOrEqual(t, n.Samples, 3)
	})

	none := New(WithMinSamplesSplit(7))
	require.NoError(t, none.Fit(X, y))
	assert.Equal(t, 1, none.NodeCount())
}

func TestDuplicatePointsBecomeLeaf(t *testing.T) {
	X := [][]float64{{1, 1}, {1, 1}, {1, 1}}
	y := []int{1, 0, 1}

	clf := New()
	require.NoError(t, clf.Fit(X, y))
	assert.True(t, clf.Root().IsLeaf())
	assert.Equal(t, 1, clf.Root().Class)
}

func TestMajorityTieGoesToSmallestClass(t *testing.T) {
	X := [][]float64{{1}, {1}}
	y := []int{7, 3}

	clf := New()
	require.NoError(t, clf.Fit(X, y))
	pred, err := clf.Predict([][]float64{{1}})
	require.NoError(t, err)
	assert.Equal(t, []int{3}, pred)
}

func TestParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n, d := 2000, 6
	X := make([][]float64, n)
	y := make([]int, n)
	for i := range X {
		row := make([]float64, d)
		for j := range row {
			row[j] = math.Round(rng.Float64()*100) / 10
		}
		X[i] = row
		if row[2]+row[4] > 10 {
			y[i] = 1
		}
	}

	seq := New()
	require.NoError(t, seq.Fit(X, y))
	par := New(WithWorkers(4))
	require.NoError(t, par.Fit(X, y))

	var a, b bytes.Buffer
	require.NoError(t, seq.Fprint(&a, nil, nil))
	require.NoError(t, par.Fprint(&b, nil, nil))
	assert.Equal(t, a.String(), b.String())
}

func TestFprint(t *testing.T) {
	clf := New()
	assert.True(t, errors.Is(clf.Fprint(&bytes.Buffer{}, nil, nil), ErrNotFitted))

	require.NoError(t, clf.Fit(toyX, toyY))

	var buf bytes.Buffer
	require.NoError(t, clf.Fprint(&buf, []string{"ip_len", "syn_flag"}, nil))
	want := strings.Join([]string{
		"Decision Node: syn_flag <= 0.50 (gini = 0.500, samples = 4)",
		"├── L Leaf Node: Label = 0 (samples = 2)",
		"└── R Leaf Node: Label = 1 (samples = 2)",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())

	buf.Reset()
	require.NoError(t, clf.Fprint(&buf, []string{"ip_len", "syn_flag"}, []string{"normal", "attack"}))
	assert.Contains(t, buf.String(), "├── L Leaf Node: Label = normal (samples = 2)")
	assert.Contains(t, buf.String(), "└── R Leaf Node: Label = attack (samples = 2)")

	err := clf.Fprint(&buf, []string{"only_one"}, nil)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	err = clf.Fprint(&buf, nil, []string{"normal"})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestParseCriterion(t *testing.T) {
	c, err := ParseCriterion(" Entropy ")
	require.NoError(t, err)
	assert.Equal(t, Entropy, c)

	_, err = ParseCriterion("log_loss")
	assert.Error(t, err)
}
