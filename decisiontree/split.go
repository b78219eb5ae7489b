package decisiontree

import (
	"sort"

	"golang.org/x/sync/errgroup"
)

// Nodes smaller than this are scanned sequentially even when workers > 1.
const parallelMinSamples = 512

type split struct {
	feature   int
	threshold float64
	// childImpurity is the sample-weighted impurity of the two children.
	childImpurity float64
	ok            bool
}

// better reports whether s beats o. Ties keep o, so earlier features and
// lower thresholds win and the result does not depend on scan order.
func (s split) better(o split) bool {
	if !s.ok {
		return false
	}
	return !o.ok || s.childImpurity < o.childImpurity
}

// 选择最佳分割点
func (b *builder) bestSplit(idx []int, counts []float64, parent float64) (split, bool) {
	nFeatures := len(b.X[idx[0]])
	results := make([]split, nFeatures)

	if b.c.workers > 1 && len(idx) >= parallelMinSamples && nFeatures > 1 {
		var g errgroup.Group
		g.SetLimit(b.c.workers)
		for f := 0; f < nFeatures; f++ {
			f := f
			g.Go(func() error {
				results[f] = b.scanFeature(idx, counts, f)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for f := 0; f < nFeatures; f++ {
			results[f] = b.scanFeature(idx, counts, f)
		}
	}

	var best split
	for _, s := range results {
		if s.better(best) {
			best = s
		}
	}
	if !best.ok || best.childImpurity > parent+1e-12 {
		return split{}, false
	}
	return best, true
}

// scanFeature sorts the node's samples on feature f and evaluates every
// midpoint between consecutive distinct values.
func (b *builder) scanFeature(idx []int, counts []float64, f int) split {
	order := make([]int, len(idx))
	copy(order, idx)
	sort.SliceStable(order, func(i, j int) bool {
		return b.X[order[i]][f] < b.X[order[j]][f]
	})

	n := len(order)
	total := float64(n)
	left := make([]float64, b.nClass)
	right := make([]float64, b.nClass)
	copy(right, counts)
	minLeaf := b.c.minSamplesLeaf

	best := split{feature: f}
	for k := 0; k < n-1; k++ {
		c := b.y[order[k]]
		left[c]++
		right[c]--

		v, next := b.X[order[k]][f], b.X[order[k+1]][f]
		if v == next {
			continue
		}
		nl, nr := k+1, n-k-1
		if nl < minLeaf || nr < minLeaf {
			continue
		}

		fl, fr := float64(nl), float64(nr)
		child := (fl*b.c.criterion.impurity(left, fl) + fr*b.c.criterion.impurity(right, fr)) / total
		if best.ok && child >= best.childImpurity {
			continue
		}

		threshold := v/2 + next/2
		if threshold >= next {
			threshold = v
		}
		best.threshold = threshold
		best.childImpurity = child
		best.ok = true
	}
	return best
}
