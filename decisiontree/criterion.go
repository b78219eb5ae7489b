package decisiontree

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Criterion selects the impurity measure used to score splits.
type Criterion string

const (
	Gini    Criterion = "gini"
	Entropy Criterion = "entropy"
)

// ParseCriterion accepts "gini" or "entropy", case-insensitively.
func ParseCriterion(s string) (Criterion, error) {
	switch c := Criterion(strings.ToLower(strings.TrimSpace(s))); c {
	case Gini, Entropy:
		return c, nil
	default:
		return "", errors.Errorf("decisiontree: unknown criterion %q", s)
	}
}

// impurity of a node holding counts[k] samples of class k, total samples n.
func (c Criterion) impurity(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	switch c {
	case Entropy:
		// 计算熵
		var ent float64
		for _, cnt := range counts {
			if cnt == 0 {
				continue
			}
			p := cnt / n
			ent -= p * math.Log2(p)
		}
		return ent
	default:
		return 1 - floats.Dot(counts, counts)/(n*n)
	}
}
