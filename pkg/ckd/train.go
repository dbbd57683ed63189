package ckd

import (
	"fmt"

	"git.sr.ht/~flobar/ckd/pkg/ckd/ml"
)

// Train fits a new classifier for the given configuration on the
// preprocessed training matrix.
func Train(c ml.Config, m Matrix) (ml.Classifier, error) {
	classifier, err := ml.New(c)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	r, cols := m.X.Dims()
	Log("train: fitting %s on %d records with %d features (seed=%d)",
		classifier.Name(), r, cols, classifier.Config().Seed)
	if err := classifier.Fit(m.X, m.Y); err != nil {
		return nil, fmt.Errorf("train %s: %w", classifier.Name(), err)
	}
	Log("train: fitted %s", classifier.Name())
	return classifier, nil
}
