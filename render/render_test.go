package render

import (
	"bytes"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"probe-ids/decisiontree"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var classNames = []string{"normal", "attack"}

func fitToy(t *testing.T) *decisiontree.Classifier {
	t.Helper()
	clf := decisiontree.New()
	require.NoError(t, clf.Fit(
		[][]float64{{3, 0}, {1, 0}, {2, 1}, {0, 1}},
		[]int{0, 0, 1, 1},
	))
	return clf
}

func fitRandom(t *testing.T, n int) *decisiontree.Classifier {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := range X {
		X[i] = []float64{float64(rng.Intn(20)), float64(rng.Intn(20)), float64(rng.Intn(5))}
		if X[i][0]+X[i][1] > 19 || rng.Intn(10) == 0 {
			y[i] = 1
		}
	}
	clf := decisiontree.New()
	require.NoError(t, clf.Fit(X, y))
	return clf
}

func TestDOT(t *testing.T) {
	clf := fitToy(t)

	dot, err := DOT(clf, []string{"ip_len", "syn_flag"}, classNames)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(strings.TrimSpace(dot), "digraph Tree"))
	assert.Contains(t, dot, `syn_flag <= 0.5\ngini = 0.5\nsamples = 4\nvalue = [2, 2]\nclass = normal`)
	assert.Contains(t, dot, `gini = 0\nsamples = 2\nvalue = [0, 2]\nclass = attack`)
	assert.Contains(t, dot, "0->1")
	assert.Contains(t, dot, "0->2")
	assert.Contains(t, dot, `headlabel="True"`)
	assert.Contains(t, dot, `headlabel="False"`)
}

func TestCountLeavesRoundTrip(t *testing.T) {
	for _, clf := range []*decisiontree.Classifier{fitToy(t), fitRandom(t, 300)} {
		names := make([]string, clf.NumFeatures())
		for i := range names {
			names[i] = "f" + string(rune('a'+i))
		}
		dot, err := DOT(clf, names, classNames)
		require.NoError(t, err)

		leaves, err := CountLeaves(dot)
		require.NoError(t, err)
		assert.Equal(t, clf.Leaves(), leaves)
	}

	_, err := CountLeaves("digraph {")
	assert.Error(t, err)
}

func TestDOTErrors(t *testing.T) {
	_, err := DOT(decisiontree.New(), nil, classNames)
	assert.ErrorIs(t, err, decisiontree.ErrNotFitted)

	clf := fitToy(t)
	_, err = DOT(clf, []string{"only"}, classNames)
	assert.ErrorContains(t, err, "1 feature names for 2 features")

	_, err = DOT(clf, []string{"a", "b"}, []string{"normal"})
	assert.ErrorContains(t, err, "class 1 has no name")
}

func TestPNG(t *testing.T) {
	clf := fitRandom(t, 300)
	names := []string{"src_bytes", "dst_bytes", "flag"}

	var full bytes.Buffer
	require.NoError(t, PNG(&full, clf, names, classNames))
	img, err := png.Decode(&full)
	require.NoError(t, err)
	fullBounds := img.Bounds()
	assert.Positive(t, fullBounds.Dx())
	assert.Positive(t, fullBounds.Dy())

	var shallow bytes.Buffer
	require.NoError(t, PNG(&shallow, clf, names, classNames, WithMaxDepth(1)))
	img, err = png.Decode(&shallow)
	require.NoError(t, err)
	assert.Less(t, img.Bounds().Dy(), fullBounds.Dy())

	var bounded bytes.Buffer
	require.NoError(t, PNG(&bounded, clf, names, classNames, WithMaxSize(200)))
	img, err = png.Decode(&bounded)
	require.NoError(t, err)
	// 200pt at 96 dpi
	assert.LessOrEqual(t, img.Bounds().Dx(), 267)
	assert.LessOrEqual(t, img.Bounds().Dy(), 267)

	assert.Error(t, PNG(&bytes.Buffer{}, clf, names, classNames, WithMaxDepth(-1)))
	assert.ErrorIs(t, PNG(&bytes.Buffer{}, decisiontree.New(), names, classNames), decisiontree.ErrNotFitted)
}

func TestWriteFiles(t *testing.T) {
	clf := fitToy(t)
	dir := t.TempDir()
	names := []string{"ip_len", "syn_flag"}

	image := filepath.Join(dir, "full_ids_dt.png")
	require.NoError(t, WritePNG(image, clf, names, classNames))
	info, err := os.Stat(image)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	dotPath := filepath.Join(dir, "tree.dot")
	require.NoError(t, WriteDOT(dotPath, clf, names, classNames))
	raw, err := os.ReadFile(dotPath)
	require.NoError(t, err)
	leaves, err := CountLeaves(string(raw))
	require.NoError(t, err)
	assert.Equal(t, 2, leaves)

	assert.Error(t, WritePNG(filepath.Join(dir, "missing", "x.png"), clf, names, classNames))
}
