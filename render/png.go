package render

import (
	"image/color"
	"io"
	"math"
	"os"
	"strings"

	"probe-ids/decisiontree"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	defaultFontSize = vg.Length(10)
	// defaultMaxSize bounds each side of the image, in points.
	defaultMaxSize = vg.Length(4500)

	boxPadding = vg.Length(4)
	hGap       = vg.Length(12)
	vGap       = vg.Length(36)
	margin     = vg.Length(16)
)

// Option configures PNG rendering.
type Option func(*pngOptions)

type pngOptions struct {
	maxDepth int
	maxSize  vg.Length
	fontSize vg.Length
}

// WithMaxDepth stops drawing below depth d; deeper subtrees are shown as "(...)".
// 0 draws the whole tree.
func WithMaxDepth(d int) Option {
	return func(o *pngOptions) { o.maxDepth = d }
}

// WithMaxSize bounds each side of the image; larger trees are scaled down.
func WithMaxSize(side vg.Length) Option {
	return func(o *pngOptions) { o.maxSize = side }
}

// WithFontSize sets the label font size before scaling.
func WithFontSize(size vg.Length) Option {
	return func(o *pngOptions) { o.fontSize = size }
}

type box struct {
	label    string
	x, y     vg.Length // centre, y grows downwards from the top margin
	w, h     vg.Length
	children []*box
}

// PNG rasterises the tree: one outlined box per node with the same labels as
// DOT, and straight edges from each box to its children.
func PNG(w io.Writer, tree Tree, featureNames, classNames []string, opts ...Option) error {
	o := pngOptions{maxSize: defaultMaxSize, fontSize: defaultFontSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxDepth < 0 {
		return errors.Errorf("render: max depth must be >= 0, got %d", o.maxDepth)
	}
	if o.maxSize <= 0 || o.fontSize <= 0 {
		return errors.New("render: image size and font size must be positive")
	}

	lb, err := newLabeler(tree, featureNames, classNames)
	if err != nil {
		return err
	}

	sty := text.Style{
		Color:   color.Black,
		Font:    font.From(plot.DefaultFont, o.fontSize),
		XAlign:  draw.XCenter,
		YAlign:  draw.YCenter,
		Handler: plot.DefaultTextHandler,
	}

	root, depth := layoutTree(tree.Root(), lb, sty, o.maxDepth)
	boxW, boxH := maxBox(root)
	slot := boxW + hGap
	level := boxH + vGap

	leaves := 0
	var place func(b *box, d int)
	place = func(b *box, d int) {
		b.y = margin + vg.Length(d)*level + boxH/2
		if len(b.children) == 0 {
			b.x = margin + slot*vg.Length(leaves) + slot/2
			leaves++
			return
		}
		for _, c := range b.children {
			place(c, d+1)
		}
		b.x = (b.children[0].x + b.children[len(b.children)-1].x) / 2
	}
	place(root, 0)

	width := 2*margin + slot*vg.Length(leaves)
	height := 2*margin + vg.Length(depth+1)*level - vGap
	scale := math.Min(1, math.Min(float64(o.maxSize/width), float64(o.maxSize/height)))
	s := vg.Length(scale)

	c := vgimg.New(width*s, height*s)
	dc := draw.New(c)
	sty.Font.Size *= s
	top := height * s
	at := func(x, y vg.Length) vg.Point {
		return vg.Point{X: x * s, Y: top - y*s}
	}
	line := draw.LineStyle{Color: color.Black, Width: vg.Points(1) * s}

	var paint func(b *box, isRoot bool)
	paint = func(b *box, isRoot bool) {
		for i, ch := range b.children {
			from := at(b.x, b.y+b.h/2)
			to := at(ch.x, ch.y-ch.h/2)
			dc.StrokeLines(line, []vg.Point{from, to})
			if isRoot {
				outcome := "True"
				if i > 0 {
					outcome = "False"
				}
				mid := vg.Point{X: (from.X + to.X) / 2, Y: (from.Y + to.Y) / 2}
				dc.FillText(sty, mid, outcome)
			}
			paint(ch, false)
		}

		x0, y0 := b.x-b.w/2, b.y-b.h/2
		x1, y1 := b.x+b.w/2, b.y+b.h/2
		outline := []vg.Point{at(x0, y0), at(x1, y0), at(x1, y1), at(x0, y1), at(x0, y0)}
		dc.FillPolygon(color.White, outline[:4])
		dc.StrokeLines(line, outline)
		dc.FillText(sty, at(b.x, b.y), b.label)
	}
	paint(root, true)

	_, err = vgimg.PngCanvas{Canvas: c}.WriteTo(w)
	return errors.Wrap(err, "render: encode png")
}

// WritePNG renders the tree into the file at path.
func WritePNG(path string, tree Tree, featureNames, classNames []string, opts ...Option) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "render: create image")
	}
	if err := PNG(f, tree, featureNames, classNames, opts...); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "render: close %s", path)
}

// layoutTree measures every drawn node and returns the box tree with its depth.
func layoutTree(n *decisiontree.Node, lb *labeler, sty text.Style, maxDepth int) (*box, int) {
	deepest := 0
	var build func(n *decisiontree.Node, d int) *box
	build = func(n *decisiontree.Node, d int) *box {
		if d > deepest {
			deepest = d
		}
		b := &box{}
		switch {
		case maxDepth > 0 && d == maxDepth && !n.IsLeaf():
			b.label = "(...)"
		default:
			b.label = strings.Join(lb.lines(n), "\n")
			if !n.IsLeaf() {
				b.children = []*box{build(n.Left, d+1), build(n.Right, d+1)}
			}
		}
		b.w = sty.Width(b.label) + 2*boxPadding
		b.h = sty.Height(b.label) + 2*boxPadding
		return b
	}
	return build(n, 0), deepest
}

func maxBox(b *box) (vg.Length, vg.Length) {
	w, h := b.w, b.h
	for _, c := range b.children {
		cw, ch := maxBox(c)
		w = max(w, cw)
		h = max(h, ch)
	}
	return w, h
}
