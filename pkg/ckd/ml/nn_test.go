package ml

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

var (
	andxs = mat.NewDense(4, 2, []float64{
		.01, .01, // false
		.01, .99, // false
		.99, .01, // false
		.99, .99, // true
	})
	andys = mat.NewVecDense(4, []float64{False, False, False, True})
)

func TestAndNN(t *testing.T) {
	nn := andfit()
	got := nn.PredictLabels(andxs)
	if got.Len() != andys.Len() {
		t.Fatalf("different lengths: expected %d; got %d", andys.Len(), got.Len())
	}
	for i := 0; i < andys.Len(); i++ {
		if andys.AtVec(i) != got.AtVec(i) {
			t.Errorf("expected %g; got %g", andys.AtVec(i), got.AtVec(i))
		}
	}
}

func BenchmarkAndNN(b *testing.B) {
	for i := 0; i < b.N; i++ {
		andfit().PredictScores(andxs)
	}
}

func andfit() *NN {
	nn := &NN{config: Config{
		Algorithm:    Network,
		Hidden:       4,
		LearningRate: .5,
		Epochs:       5000,
		Seed:         1,
	}.WithDefaults()}
	if err := nn.Fit(andxs, andys); err != nil {
		panic(err)
	}
	return nn
}
