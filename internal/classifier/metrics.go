package classifier

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// ROCAUC computes the area under the ROC curve from binary labels and scores.
// Tied scores form a single cutoff, so they contribute their average.
func ROCAUC(yTrue []int, scores []float64) (float64, error) {
	if len(yTrue) != len(scores) {
		return 0, fmt.Errorf("got %d labels but %d scores", len(yTrue), len(scores))
	}

	y := make([]float64, len(scores))
	copy(y, scores)
	classes := make([]bool, len(yTrue))
	var positives int
	for i, label := range yTrue {
		classes[i] = label == 1
		if classes[i] {
			positives++
		}
	}
	if positives == 0 || positives == len(yTrue) {
		return 0, errors.New("ROC AUC is undefined when only one class is present")
	}

	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

// ClassMetrics are the per-class rows of a classification report.
type ClassMetrics struct {
	Label     int
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report summarises binary predictions against ground truth.
type Report struct {
	Classes     []ClassMetrics
	Accuracy    float64
	MacroAvg    ClassMetrics
	WeightedAvg ClassMetrics
	Total       int
}

// ClassificationReport builds a Report for labels 0 and 1. Ratios with a
// zero denominator are reported as 0.
func ClassificationReport(yTrue, yPred []int) (*Report, error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("got %d labels but %d predictions", len(yTrue), len(yPred))
	}

	report := &Report{Total: len(yTrue)}
	var correct int
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	if report.Total > 0 {
		report.Accuracy = float64(correct) / float64(report.Total)
	}

	for _, label := range []int{0, 1} {
		var tp, fp, fn int
		for i := range yTrue {
			switch {
			case yPred[i] == label && yTrue[i] == label:
				tp++
			case yPred[i] == label:
				fp++
			case yTrue[i] == label:
				fn++
			}
		}
		m := ClassMetrics{
			Label:     label,
			Precision: ratio(tp, tp+fp),
			Recall:    ratio(tp, tp+fn),
			Support:   tp + fn,
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		report.Classes = append(report.Classes, m)
	}

	n := float64(len(report.Classes))
	for _, m := range report.Classes {
		report.MacroAvg.Precision += m.Precision / n
		report.MacroAvg.Recall += m.Recall / n
		report.MacroAvg.F1 += m.F1 / n
		report.MacroAvg.Support += m.Support
		if report.Total > 0 {
			w := float64(m.Support) / float64(report.Total)
			report.WeightedAvg.Precision += m.Precision * w
			report.WeightedAvg.Recall += m.Recall * w
			report.WeightedAvg.F1 += m.F1 * w
		}
		report.WeightedAvg.Support += m.Support
	}
	return report, nil
}

// String renders the report as an aligned text table with four decimals.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%12s %9s %9s %9s %9s\n\n", "", "precision", "recall", "f1-score", "support")
	for _, m := range r.Classes {
		fmt.Fprintf(&b, "%12d %9.4f %9.4f %9.4f %9d\n", m.Label, m.Precision, m.Recall, m.F1, m.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%12s %9s %9s %9.4f %9d\n", "accuracy", "", "", r.Accuracy, r.Total)
	for _, row := range []struct {
		name string
		m    ClassMetrics
	}{{"macro avg", r.MacroAvg}, {"weighted avg", r.WeightedAvg}} {
		fmt.Fprintf(&b, "%12s %9.4f %9.4f %9.4f %9d\n", row.name, row.m.Precision, row.m.Recall, row.m.F1, row.m.Support)
	}
	return b.String()
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
