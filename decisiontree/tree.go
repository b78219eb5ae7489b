// Package decisiontree implements a CART classification tree over dense
// float64 feature matrices.
package decisiontree

import (
	"io"
	"log/slog"
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrNotFitted         = errors.New("decisiontree: classifier is not fitted")
	ErrEmpty             = errors.New("decisiontree: empty training set")
	ErrDimensionMismatch = errors.New("decisiontree: dimension mismatch")
	ErrInvalidValue      = errors.New("decisiontree: NaN or infinite value")
)

// Option configures a Classifier.
type Option func(*Classifier)

// WithCriterion sets the split criterion. Default Gini.
func WithCriterion(c Criterion) Option {
	return func(t *Classifier) { t.criterion = c }
}

// WithMaxDepth limits the tree depth; 0 means unlimited.
func WithMaxDepth(d int) Option {
	return func(t *Classifier) { t.maxDepth = d }
}

// WithMinSamplesSplit sets the minimum samples a node needs to be split. Default 2.
func WithMinSamplesSplit(n int) Option {
	return func(t *Classifier) { t.minSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum samples each child of a split must hold. Default 1.
func WithMinSamplesLeaf(n int) Option {
	return func(t *Classifier) { t.minSamplesLeaf = n }
}

// WithWorkers sets how many features are scanned concurrently when searching
// a split. Values below 2 scan sequentially.
func WithWorkers(n int) Option {
	return func(t *Classifier) { t.workers = n }
}

// WithLogger sets the logger used for fit diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(t *Classifier) { t.logger = l }
}

// Classifier is a binary-split decision tree. It must be fitted before Predict.
type Classifier struct {
	criterion       Criterion
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	workers         int
	logger          *slog.Logger

	root      *Node
	classes   []int
	nFeatures int
}

// New returns an unfitted classifier.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		criterion:       Gini,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		workers:         1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

func (c *Classifier) validateParams() error {
	if _, err := ParseCriterion(string(c.criterion)); err != nil {
		return err
	}
	if c.maxDepth < 0 {
		return errors.Errorf("decisiontree: max depth must be >= 0, got %d", c.maxDepth)
	}
	if c.minSamplesSplit < 2 {
		return errors.Errorf("decisiontree: min samples split must be >= 2, got %d", c.minSamplesSplit)
	}
	if c.minSamplesLeaf < 1 {
		return errors.Errorf("decisiontree: min samples leaf must be >= 1, got %d", c.minSamplesLeaf)
	}
	return nil
}

// Fitted reports whether the classifier holds a model.
func (c *Classifier) Fitted() bool { return c.root != nil }

// Root returns the root node, nil when unfitted.
func (c *Classifier) Root() *Node { return c.root }

// Classes returns the sorted class labels seen during Fit.
func (c *Classifier) Classes() []int { return c.classes }

// NumFeatures returns the number of columns the model was fitted on.
func (c *Classifier) NumFeatures() int { return c.nFeatures }

// Criterion returns the configured split criterion.
func (c *Classifier) Criterion() Criterion { return c.criterion }

// Fit builds the tree from X (one row per sample) and labels y. On error the
// classifier is left unfitted.
func (c *Classifier) Fit(X [][]float64, y []int) error {
	c.root, c.classes, c.nFeatures = nil, nil, 0

	if err := c.validateParams(); err != nil {
		return err
	}
	if len(X) == 0 {
		return ErrEmpty
	}
	if len(X) != len(y) {
		return errors.Wrapf(ErrDimensionMismatch, "%d rows but %d labels", len(X), len(y))
	}
	nFeatures := len(X[0])
	if nFeatures == 0 {
		return errors.Wrap(ErrDimensionMismatch, "rows have no features")
	}
	if err := checkRows(X, nFeatures); err != nil {
		return err
	}

	classes, codes := encodeClasses(y)
	b := &builder{
		c:       c,
		X:       X,
		y:       codes,
		nClass:  len(classes),
		classes: classes,
	}
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}

	// 构建决策树
	c.root = b.build(idx, 0)
	c.classes = classes
	c.nFeatures = nFeatures

	c.logger.Debug("tree fitted",
		"samples", len(X),
		"features", nFeatures,
		"classes", len(classes),
		"nodes", c.NodeCount(),
		"leaves", c.Leaves(),
		"depth", c.Depth(),
	)
	return nil
}

// Predict returns the majority class of the leaf each row lands in.
func (c *Classifier) Predict(X [][]float64) ([]int, error) {
	if c.root == nil {
		return nil, ErrNotFitted
	}
	if err := checkRows(X, c.nFeatures); err != nil {
		return nil, err
	}
	out := make([]int, len(X))
	for i, x := range X {
		out[i] = c.predictOne(x)
	}
	return out, nil
}

func (c *Classifier) predictOne(x []float64) int {
	n := c.root
	for !n.IsLeaf() {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Class
}

func checkRows(X [][]float64, nFeatures int) error {
	for i, row := range X {
		if len(row) != nFeatures {
			return errors.Wrapf(ErrDimensionMismatch, "row %d has %d features, want %d", i, len(row), nFeatures)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.Wrapf(ErrInvalidValue, "row %d feature %d", i, j)
			}
		}
	}
	return nil
}

// encodeClasses maps labels to dense indices into the sorted distinct labels.
func encodeClasses(y []int) ([]int, []int) {
	seen := make(map[int]struct{})
	for _, v := range y {
		seen[v] = struct{}{}
	}
	classes := make([]int, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Ints(classes)

	index := make(map[int]int, len(classes))
	for i, v := range classes {
		index[v] = i
	}
	codes := make([]int, len(y))
	for i, v := range y {
		codes[i] = index[v]
	}
	return classes, codes
}

type builder struct {
	c       *Classifier
	X       [][]float64
	y       []int
	nClass  int
	classes []int
}

func (b *builder) counts(idx []int) []float64 {
	counts := make([]float64, b.nClass)
	for _, i := range idx {
		counts[b.y[i]]++
	}
	return counts
}

func (b *builder) build(idx []int, depth int) *Node {
	counts := b.counts(idx)
	n := float64(len(idx))
	node := &Node{
		Feature:  -1,
		Samples:  len(idx),
		Counts:   counts,
		Impurity: b.c.criterion.impurity(counts, n),
		// MaxIdx returns the first maximum, the smallest label on ties.
		Class: b.classes[floats.MaxIdx(counts)],
	}

	if node.Impurity == 0 ||
		len(idx) < b.c.minSamplesSplit ||
		len(idx) < 2*b.c.minSamplesLeaf ||
		(b.c.maxDepth > 0 && depth >= b.c.maxDepth) {
		return node
	}

	s, ok := b.bestSplit(idx, counts, node.Impurity)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][s.feature] <= s.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	node.Feature = s.feature
	node.Threshold = s.threshold
	node.Left = b.build(left, depth+1)
	node.Right = b.build(right, depth+1)
	return node
}
