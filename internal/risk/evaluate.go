package risk

import (
	"fmt"
	"strings"
)

// ClassMetrics are per-class scores on held-out rows
type ClassMetrics struct {
	Class     Tier    `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is a classification report for one model
type Report struct {
	Model       string         `json:"model"`
	Accuracy    float64        `json:"accuracy"`
	PerClass    []ClassMetrics `json:"per_class"`
	MacroAvg    ClassMetrics   `json:"macro_avg"`
	WeightedAvg ClassMetrics   `json:"weighted_avg"`
}

// Evaluate scores predictions against truth. Both hold class codes into
// Classes. Undefined ratios (no predictions or no support) score 0.
func Evaluate(model string, truth, pred []int) Report {
	k := len(Classes)
	tp := make([]int, k)
	predicted := make([]int, k)
	support := make([]int, k)
	correct := 0

	for i := range truth {
		support[truth[i]]++
		predicted[pred[i]]++
		if truth[i] == pred[i] {
			tp[truth[i]]++
			correct++
		}
	}

	r := Report{Model: model}
	if len(truth) > 0 {
		r.Accuracy = float64(correct) / float64(len(truth))
	}

	total := len(truth)
	for c := 0; c < k; c++ {
		m := ClassMetrics{
			Class:     Classes[c],
			Precision: ratio(tp[c], predicted[c]),
			Recall:    ratio(tp[c], support[c]),
			Support:   support[c],
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.PerClass = append(r.PerClass, m)

		r.MacroAvg.Precision += m.Precision / float64(k)
		r.MacroAvg.Recall += m.Recall / float64(k)
		r.MacroAvg.F1 += m.F1 / float64(k)
		if total > 0 {
			w := float64(m.Support) / float64(total)
			r.WeightedAvg.Precision += m.Precision * w
			r.WeightedAvg.Recall += m.Recall * w
			r.WeightedAvg.F1 += m.F1 * w
		}
	}
	r.MacroAvg.Support = total
	r.WeightedAvg.Support = total

	return r
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// String renders the report as a fixed-width table
func (r Report) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s accuracy: %.4f\n\n", r.Model, r.Accuracy))
	sb.WriteString(fmt.Sprintf("%14s %10s %10s %10s %10s\n", "", "precision", "recall", "f1-score", "support"))
	for _, m := range r.PerClass {
		sb.WriteString(fmt.Sprintf("%14s %10.2f %10.2f %10.2f %10d\n", m.Class, m.Precision, m.Recall, m.F1, m.Support))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%14s %10.2f %10.2f %10.2f %10d\n", "macro avg", r.MacroAvg.Precision, r.MacroAvg.Recall, r.MacroAvg.F1, r.MacroAvg.Support))
	sb.WriteString(fmt.Sprintf("%14s %10.2f %10.2f %10.2f %10d\n", "weighted avg", r.WeightedAvg.Precision, r.WeightedAvg.Recall, r.WeightedAvg.F1, r.WeightedAvg.Support))
	return sb.String()
}
