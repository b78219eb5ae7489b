// Package evaluate computes classification metrics for predicted labels and
// renders them as a report.
package evaluate

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sjwhitworth/golearn/evaluation"
)

// ClassMetrics holds the scores of one class.
type ClassMetrics struct {
	Class     string  `json:"class" yaml:"class"`
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1        float64 `json:"f1_score" yaml:"f1_score"`
	Support   int     `json:"support" yaml:"support"`
}

// Report is a classification report over every declared class.
type Report struct {
	Classes     []ClassMetrics `json:"classes" yaml:"classes"`
	Accuracy    float64        `json:"accuracy" yaml:"accuracy"`
	MacroAvg    ClassMetrics   `json:"macro_avg" yaml:"macro_avg"`
	WeightedAvg ClassMetrics   `json:"weighted_avg" yaml:"weighted_avg"`
	// Confusion[i][j] counts samples of true class i predicted as class j.
	Confusion [][]int `json:"confusion" yaml:"confusion"`
	Total     int     `json:"total" yaml:"total"`
}

// NewReport scores yPred against yTrue. Class codes index classNames.
func NewReport(yTrue, yPred []int, classNames []string) (*Report, error) {
	if len(yTrue) != len(yPred) {
		return nil, errors.Errorf("evaluate: %d true labels but %d predictions", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return nil, errors.New("evaluate: no samples")
	}
	if len(classNames) == 0 {
		return nil, errors.New("evaluate: no class names")
	}

	k := len(classNames)
	confusion := make([][]int, k)
	for i := range confusion {
		confusion[i] = make([]int, k)
	}
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= k {
			return nil, errors.Errorf("evaluate: true label %d at %d outside [0,%d)", t, i, k)
		}
		if p < 0 || p >= k {
			return nil, errors.Errorf("evaluate: predicted label %d at %d outside [0,%d)", p, i, k)
		}
		confusion[t][p]++
	}

	cm := toConfusionMatrix(confusion, classNames)
	r := &Report{
		Confusion: confusion,
		Total:     len(yTrue),
		Accuracy:  finite(evaluation.GetAccuracy(cm)),
	}
	for i, name := range classNames {
		support := 0
		for _, n := range confusion[i] {
			support += n
		}
		r.Classes = append(r.Classes, ClassMetrics{
			Class:     name,
			Precision: finite(evaluation.GetPrecision(name, cm)),
			Recall:    finite(evaluation.GetRecall(name, cm)),
			F1:        finite(evaluation.GetF1Score(name, cm)),
			Support:   support,
		})
	}
	r.MacroAvg, r.WeightedAvg = averages(r.Classes)
	return r, nil
}

// toConfusionMatrix converts counts to golearn's reference -> predicted map,
// with an entry for every pair of classes.
func toConfusionMatrix(confusion [][]int, classNames []string) evaluation.ConfusionMatrix {
	cm := make(evaluation.ConfusionMatrix, len(classNames))
	for i, ref := range classNames {
		row := make(map[string]int, len(classNames))
		for j, pred := range classNames {
			row[pred] = confusion[i][j]
		}
		cm[ref] = row
	}
	return cm
}

func averages(classes []ClassMetrics) (ClassMetrics, ClassMetrics) {
	macro := ClassMetrics{Class: "macro avg"}
	weighted := ClassMetrics{Class: "weighted avg"}
	total := 0
	for _, c := range classes {
		macro.Precision += c.Precision
		macro.Recall += c.Recall
		macro.F1 += c.F1
		weighted.Precision += c.Precision * float64(c.Support)
		weighted.Recall += c.Recall * float64(c.Support)
		weighted.F1 += c.F1 * float64(c.Support)
		total += c.Support
	}
	n := float64(len(classes))
	macro.Precision /= n
	macro.Recall /= n
	macro.F1 /= n
	macro.Support = total
	if total > 0 {
		weighted.Precision /= float64(total)
		weighted.Recall /= float64(total)
		weighted.F1 /= float64(total)
	}
	weighted.Support = total
	return macro, weighted
}

// finite maps the NaN of a zero division to 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
