package ml

import (
	"fmt"
	"sort"
	"strings"
)

// ClassReport holds per-class precision, recall, F1 and support.
type ClassReport struct {
	Class     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Evaluation is the outcome of scoring predictions against ground truth.
type Evaluation struct {
	Accuracy  float64
	F1Macro   float64
	Confusion [][]int
	Classes   []ClassReport
}

// Evaluate scores predicted class codes against the true ones. classes names
// every code known to the encoder; the confusion matrix and per-class report
// cover all of them. Macro F1 averages only the classes present in yTrue or
// yPred, and a class with no predicted or true members scores 0.
func Evaluate(yTrue, yPred []int, classes []string) (*Evaluation, error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("truth (%d) and predictions (%d) differ in length", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return nil, fmt.Errorf("nothing to evaluate")
	}

	k := len(classes)
	cm := make([][]int, k)
	for i := range cm {
		cm[i] = make([]int, k)
	}
	correct := 0
	present := make(map[int]struct{})
	for i := range yTrue {
		cm[yTrue[i]][yPred[i]]++
		if yTrue[i] == yPred[i] {
			correct++
		}
		present[yTrue[i]] = struct{}{}
		present[yPred[i]] = struct{}{}
	}

	ev := &Evaluation{
		Accuracy:  float64(correct) / float64(len(yTrue)),
		Confusion: cm,
		Classes:   make([]ClassReport, k),
	}

	for c := 0; c < k; c++ {
		tp := cm[c][c]
		predicted, support := 0, 0
		for i := 0; i < k; i++ {
			predicted += cm[i][c]
			support += cm[c][i]
		}
		r := ClassReport{Class: classes[c], Support: support}
		if predicted > 0 {
			r.Precision = float64(tp) / float64(predicted)
		}
		if support > 0 {
			r.Recall = float64(tp) / float64(support)
		}
		if r.Precision+r.Recall > 0 {
			r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
		}
		ev.Classes[c] = r
	}

	codes := make([]int, 0, len(present))
	for c := range present {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	sum := 0.0
	for _, c := range codes {
		sum += ev.Classes[c].F1
	}
	ev.F1Macro = sum / float64(len(codes))

	return ev, nil
}

// Report renders the evaluation as the human-readable run artifact.
func (e *Evaluation) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Accuracy: %.4f\n", e.Accuracy)
	fmt.Fprintf(&b, "F1 (macro): %.4f\n\n", e.F1Macro)

	b.WriteString("Confusion Matrix:\n")
	for _, row := range e.Confusion {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprintf("%3d", v)
		}
		fmt.Fprintf(&b, "[%s]\n", strings.Join(cells, " "))
	}

	b.WriteString("\nClassification Report:\n")
	width := len("macro avg")
	for _, c := range e.Classes {
		if len(c.Class) > width {
			width = len(c.Class)
		}
	}
	fmt.Fprintf(&b, "%*s %10s %10s %10s %10s\n\n", width, "", "precision", "recall", "f1-score", "support")

	total := 0
	var p, r, f float64
	for _, c := range e.Classes {
		fmt.Fprintf(&b, "%*s %10.2f %10.2f %10.2f %10d\n", width, c.Class, c.Precision, c.Recall, c.F1, c.Support)
		total += c.Support
		p += c.Precision
		r += c.Recall
		f += c.F1
	}
	n := float64(len(e.Classes))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s %10s %10s %10.2f %10d\n", width, "accuracy", "", "", e.Accuracy, total)
	fmt.Fprintf(&b, "%*s %10.2f %10.2f %10.2f %10d\n", width, "macro avg", p/n, r/n, f/n, total)
	return b.String()
}
