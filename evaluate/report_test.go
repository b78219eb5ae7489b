package evaluate

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var classNames = []string{"normal", "attack"}

func TestNewReport(t *testing.T) {
	yTrue := []int{0, 0, 0, 0, 1, 1, 1, 1, 1, 1}
	yPred := []int{0, 0, 0, 1, 1, 1, 1, 1, 0, 0}

	r, err := NewReport(yTrue, yPred, classNames)
	require.NoError(t, err)

	assert.Equal(t, [][]int{{3, 1}, {2, 4}}, r.Confusion)
	assert.Equal(t, 10, r.Total)
	assert.InDelta(t, 0.7, r.Accuracy, 1e-9)

	normal, attack := r.Classes[0], r.Classes[1]
	assert.Equal(t, "normal", normal.Class)
	assert.InDelta(t, 3.0/5, normal.Precision, 1e-9)
	assert.InDelta(t, 3.0/4, normal.Recall, 1e-9)
	assert.InDelta(t, 2*(0.6*0.75)/(0.6+0.75), normal.F1, 1e-9)
	assert.Equal(t, 4, normal.Support)

	assert.InDelta(t, 4.0/5, attack.Precision, 1e-9)
	assert.InDelta(t, 4.0/6, attack.Recall, 1e-9)
	assert.Equal(t, 6, attack.Support)

	assert.InDelta(t, (0.6+0.8)/2, r.MacroAvg.Precision, 1e-9)
	assert.InDelta(t, (0.6*4+0.8*6)/10, r.WeightedAvg.Precision, 1e-9)
	assert.Equal(t, 10, r.WeightedAvg.Support)
}

func TestNewReportPerfect(t *testing.T) {
	y := []int{0, 1, 1, 0}
	r, err := NewReport(y, y, classNames)
	require.NoError(t, err)

	assert.Equal(t, 1.0, r.Accuracy)
	for _, c := range r.Classes {
		assert.Equal(t, 1.0, c.Precision, c.Class)
		assert.Equal(t, 1.0, c.Recall, c.Class)
		assert.Equal(t, 1.0, c.F1, c.Class)
	}
}

func TestNewReportZeroDivision(t *testing.T) {
	// attack is never predicted and never present
	r, err := NewReport([]int{0, 0}, []int{0, 0}, classNames)
	require.NoError(t, err)

	attack := r.Classes[1]
	assert.Equal(t, 0.0, attack.Precision)
	assert.Equal(t, 0.0, attack.Recall)
	assert.Equal(t, 0.0, attack.F1)
	assert.Equal(t, 0, attack.Support)
	assert.InDelta(t, 0.5, r.MacroAvg.F1, 1e-9)
	assert.Equal(t, 1.0, r.WeightedAvg.F1)
}

func TestNewReportErrors(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []int
		yPred   []int
		wantErr string
	}{
		{name: "length mismatch", yTrue: []int{0, 1}, yPred: []int{0}, wantErr: "2 true labels but 1 predictions"},
		{name: "empty", yTrue: nil, yPred: nil, wantErr: "no samples"},
		{name: "true out of range", yTrue: []int{2}, yPred: []int{0}, wantErr: "true label 2"},
		{name: "pred out of range", yTrue: []int{0}, yPred: []int{-1}, wantErr: "predicted label -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReport(tt.yTrue, tt.yPred, classNames)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRender(t *testing.T) {
	r, err := NewReport([]int{0, 1, 1}, []int{0, 1, 0}, classNames)
	require.NoError(t, err)

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf, FormatText))
		out := buf.String()
		for _, want := range []string{"precision", "recall", "f1-score", "support", "normal", "attack", "accuracy", "macro avg", "weighted avg", "0.67"} {
			assert.Contains(t, out, want)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf, FormatMarkdown))
		assert.True(t, strings.HasPrefix(buf.String(), "|"))
		assert.Contains(t, buf.String(), "| attack |")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf, FormatJSON))
		var got Report
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, r.Confusion, got.Confusion)
		assert.Equal(t, "attack", got.Classes[1].Class)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf, FormatYAML))
		var got Report
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, r.Total, got.Total)
		assert.Equal(t, r.Classes[0].Support, got.Classes[0].Support)
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, r.Render(&bytes.Buffer{}, Format("html")))
	})
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":         FormatText,
		"TEXT":     FormatText,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
		"json":     FormatJSON,
		"yml":      FormatYAML,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("csv")
	assert.Error(t, err)
}
