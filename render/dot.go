// Package render exports fitted decision trees as graphviz descriptions and
// PNG images.
package render

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"probe-ids/decisiontree"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
)

// Tree is the read-only view of a fitted classifier the renderers need.
type Tree interface {
	Fitted() bool
	Root() *decisiontree.Node
	Classes() []int
	NumFeatures() int
	Criterion() decisiontree.Criterion
}

const graphName = "Tree"

// DOT describes the tree in graphviz syntax, one box per node. Internal nodes
// show their split; every node shows impurity, sample count, per-class counts
// and its majority class.
func DOT(tree Tree, featureNames, classNames []string) (string, error) {
	lb, err := newLabeler(tree, featureNames, classNames)
	if err != nil {
		return "", err
	}

	g := gographviz.NewGraph()
	if err := g.SetName(graphName); err != nil {
		return "", errors.Wrap(err, "render: dot")
	}
	if err := g.SetDir(true); err != nil {
		return "", errors.Wrap(err, "render: dot")
	}

	next := 0
	var add func(n *decisiontree.Node, parent string) error
	add = func(n *decisiontree.Node, parent string) error {
		id := strconv.Itoa(next)
		next++
		attrs := map[string]string{
			"label":    dotLabel(lb.lines(n)),
			"shape":    "box",
			"fontname": "helvetica",
		}
		if err := g.AddNode(graphName, id, attrs); err != nil {
			return err
		}
		if parent != "" {
			edge := map[string]string{}
			if parent == "0" {
				// the root's outgoing edges carry the split outcome
				edge["labeldistance"] = "2.5"
				edge["labelangle"] = "45"
				edge["headlabel"] = `"True"`
				if id != "1" {
					edge["labelangle"] = "-45"
					edge["headlabel"] = `"False"`
				}
			}
			if err := g.AddEdge(parent, id, true, edge); err != nil {
				return err
			}
		}
		if n.IsLeaf() {
			return nil
		}
		if err := add(n.Left, id); err != nil {
			return err
		}
		return add(n.Right, id)
	}
	if err := add(tree.Root(), ""); err != nil {
		return "", errors.Wrap(err, "render: dot")
	}
	out, err := g.WriteAst()
	if err != nil {
		return "", errors.Wrap(err, "render: dot")
	}
	return out.String(), nil
}

// WriteDOT writes the DOT description of the tree to path.
func WriteDOT(path string, tree Tree, featureNames, classNames []string) error {
	dot, err := DOT(tree, featureNames, classNames)
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, []byte(dot), 0644), "render: write %s", path)
}

// CountLeaves parses a DOT description and counts nodes without outgoing edges.
func CountLeaves(dot string) (int, error) {
	g, err := gographviz.Read([]byte(dot))
	if err != nil {
		return 0, errors.Wrap(err, "render: parse dot")
	}
	leaves := 0
	for _, n := range g.Nodes.Nodes {
		if len(g.Edges.SrcToDsts[n.Name]) == 0 {
			leaves++
		}
	}
	return leaves, nil
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// dotLabel quotes lines as one DOT string joined by \n escapes.
func dotLabel(lines []string) string {
	escaped := make([]string, len(lines))
	for i, l := range lines {
		escaped[i] = dotEscaper.Replace(l)
	}
	return `"` + strings.Join(escaped, `\n`) + `"`
}

// labeler formats node labels for both renderers.
type labeler struct {
	tree         Tree
	featureNames []string
	classNames   []string
	// classIndex maps a model class label to its position in Node.Counts.
	classIndex map[int]int
}

func newLabeler(tree Tree, featureNames, classNames []string) (*labeler, error) {
	if tree == nil || !tree.Fitted() {
		return nil, decisiontree.ErrNotFitted
	}
	if len(featureNames) != tree.NumFeatures() {
		return nil, errors.Errorf("render: %d feature names for %d features", len(featureNames), tree.NumFeatures())
	}
	lb := &labeler{
		tree:         tree,
		featureNames: featureNames,
		classNames:   classNames,
		classIndex:   make(map[int]int),
	}
	for i, c := range tree.Classes() {
		if c < 0 || c >= len(classNames) {
			return nil, errors.Errorf("render: class %d has no name among %d class names", c, len(classNames))
		}
		lb.classIndex[c] = i
	}
	return lb, nil
}

func (lb *labeler) lines(n *decisiontree.Node) []string {
	var lines []string
	if !n.IsLeaf() {
		lines = append(lines, fmt.Sprintf("%s <= %s", lb.featureNames[n.Feature], formatFloat(n.Threshold)))
	}
	value := make([]string, len(lb.classNames))
	for c := range lb.classNames {
		count := 0.0
		if i, ok := lb.classIndex[c]; ok {
			count = n.Counts[i]
		}
		value[c] = strconv.FormatFloat(count, 'f', -1, 64)
	}
	return append(lines,
		fmt.Sprintf("%s = %s", lb.tree.Criterion(), formatFloat(n.Impurity)),
		fmt.Sprintf("samples = %d", n.Samples),
		fmt.Sprintf("value = [%s]", strings.Join(value, ", ")),
		fmt.Sprintf("class = %s", lb.classNames[n.Class]),
	)
}

// formatFloat rounds to three decimals.
func formatFloat(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
