package decisiontree

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// Node is one node of a fitted tree. Leaves have nil children and Feature -1.
type Node struct {
	Feature   int
	Threshold float64
	Impurity  float64
	Samples   int
	// Counts holds the number of training samples per class, indexed like Classifier.Classes.
	Counts []float64
	// Class is the majority class label; ties go to the smallest label.
	Class       int
	Left, Right *Node
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return n.Left == nil && n.Right == nil }

// Walk visits every node in pre-order, left before right.
func (c *Classifier) Walk(fn func(n *Node, depth int)) {
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		if n == nil {
			return
		}
		fn(n, depth)
		walk(n.Left, depth+1)
		walk(n.Right, depth+1)
	}
	walk(c.root, 0)
}

// Leaves returns the number of leaf nodes, 0 when unfitted.
func (c *Classifier) Leaves() int {
	leaves := 0
	c.Walk(func(n *Node, _ int) {
		if n.IsLeaf() {
			leaves++
		}
	})
	return leaves
}

// NodeCount returns the number of nodes, 0 when unfitted.
func (c *Classifier) NodeCount() int {
	count := 0
	c.Walk(func(*Node, int) { count++ })
	return count
}

// Depth returns the length of the longest root-to-leaf path; a single leaf has depth 0.
func (c *Classifier) Depth() int {
	depth := 0
	c.Walk(func(_ *Node, d int) {
		if d > depth {
			depth = d
		}
	})
	return depth
}

// Fprint 递归打印决策树
// Nil featureNames or classNames print indices and class codes instead.
func (c *Classifier) Fprint(w io.Writer, featureNames, classNames []string) error {
	if c.root == nil {
		return ErrNotFitted
	}
	if featureNames != nil && len(featureNames) != c.nFeatures {
		return errors.Wrapf(ErrDimensionMismatch, "%d feature names for %d features", len(featureNames), c.nFeatures)
	}
	if classNames != nil {
		for _, cls := range c.classes {
			if cls < 0 || cls >= len(classNames) {
				return errors.Wrapf(ErrDimensionMismatch, "class %d has no name among %d class names", cls, len(classNames))
			}
		}
	}
	name := func(f int) string {
		if featureNames == nil {
			return fmt.Sprintf("Feature[%d]", f)
		}
		return featureNames[f]
	}
	label := func(cls int) string {
		if classNames == nil {
			return strconv.Itoa(cls)
		}
		return classNames[cls]
	}

	bw := bufio.NewWriter(w)
	var printNode func(n *Node, prefix, branch string, last bool)
	printNode = func(n *Node, prefix, branch string, last bool) {
		connector, next := "├── ", "│   "
		if last {
			connector, next = "└── ", "    "
		}
		if prefix == "" && branch == "" {
			connector, next = "", ""
		}
		if n.IsLeaf() {
			fmt.Fprintf(bw, "%s%s%sLeaf Node: Label = %s (samples = %d)\n", prefix, connector, branch, label(n.Class), n.Samples)
			return
		}
		fmt.Fprintf(bw, "%s%s%sDecision Node: %s <= %.2f (%s = %.3f, samples = %d)\n",
			prefix, connector, branch, name(n.Feature), n.Threshold, c.criterion, n.Impurity, n.Samples)
		printNode(n.Left, prefix+next, "L ", false)
		printNode(n.Right, prefix+next, "R ", true)
	}
	printNode(c.root, "", "", true)
	return errors.Wrap(bw.Flush(), "decisiontree: print")
}
