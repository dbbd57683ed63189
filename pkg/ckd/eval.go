package ckd

import (
	"fmt"
	"io"

	"git.sr.ht/~flobar/ckd/pkg/ckd/ml"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Report holds the evaluation metrics of a model on a labeled
// partition.  Precision, recall and F1 refer to the positive class.
type Report struct {
	N         int     `json:"n"`
	Accuracy  float64 `json:"accuracy"`
	AUC       float64 `json:"auc"`
	TP        int     `json:"tp"`
	FP        int     `json:"fp"`
	TN        int     `json:"tn"`
	FN        int     `json:"fn"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Evaluate scores the predictor on the given labeled matrix.  The
// AUC is the probability that a random positive record is scored
// higher than a random negative record (ties count one half).  It
// fails with ErrDegenerateLabelSet if the labels are all the same.
func Evaluate(p ml.Predictor, m Matrix) (Report, error) {
	if m.Y == nil || m.Y.Len() == 0 {
		return Report{}, fmt.Errorf("evaluate: no records: %w", ErrDegenerateLabelSet)
	}
	n := m.Y.Len()
	var r Report
	r.N = n
	labels := p.PredictLabels(m.X)
	for i := 0; i < n; i++ {
		r.add(m.Y.AtVec(i), labels.AtVec(i))
	}
	if r.TP+r.FN == 0 || r.TN+r.FP == 0 {
		return Report{}, fmt.Errorf("evaluate: single label in %d records: %w", n, ErrDegenerateLabelSet)
	}
	r.Accuracy = float64(r.TP+r.TN) / float64(n)
	r.AUC = AUC(p.PredictScores(m.X).RawVector().Data, m.Y.RawVector().Data)
	r.Precision = ratio(r.TP, r.TP+r.FP)
	r.Recall = ratio(r.TP, r.TP+r.FN)
	if r.Precision+r.Recall > 0 {
		r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
	}
	return r, nil
}

func (r *Report) add(y, p float64) {
	switch {
	case y == ml.True && p == ml.True:
		r.TP++
	case y == ml.True:
		r.FN++
	case p == ml.True:
		r.FP++
	default:
		r.TN++
	}
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// AUC computes the area under the ROC curve of the scores for the
// given labels.  The inputs are not modified.
func AUC(scores, labels []float64) float64 {
	ys := append([]float64(nil), scores...)
	classes := make([]bool, len(labels))
	for i := range labels {
		classes[i] = labels[i] == ml.True
	}
	stat.SortWeightedLabeled(ys, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, ys, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

// Write writes the report in a human readable form.
func (r Report) Write(out io.Writer) error {
	f := formater{out: out}
	f.printf("Accuracy: %.4f\n", r.Accuracy)
	f.printf("AUC-ROC: %.4f\n", r.AUC)
	f.printf("tp %d\nfp %d\ntn %d\nfn %d\n", r.TP, r.FP, r.TN, r.FN)
	f.printf("pr %f\nre %f\nf1 %f\n", r.Precision, r.Recall, r.F1)
	return f.err
}

type formater struct {
	out io.Writer
	err error
}

func (f *formater) printf(format string, args ...interface{}) {
	if f.err != nil {
		return
	}
	_, err := fmt.Fprintf(f.out, format, args...)
	f.err = err
}
