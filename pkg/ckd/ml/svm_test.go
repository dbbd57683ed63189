package ml

import (
	"testing"
)

func TestSVMScoresFollowMargins(t *testing.T) {
	x, y := blobs(30, 9)
	svc := SVC{config: Config{Algorithm: SVM, Seed: 2}.WithDefaults()}
	if err := svc.Fit(x, y); err != nil {
		t.Fatalf("got error: %v", err)
	}
	if svc.a >= 0 {
		t.Fatalf("expected negative sigmoid slope; got %g", svc.a)
	}
	margins, scores := svc.Margins(x), svc.PredictScores(x)
	for i := 0; i < margins.Len(); i++ {
		for j := 0; j < margins.Len(); j++ {
			if margins.AtVec(i) < margins.AtVec(j) && scores.AtVec(i) > scores.AtVec(j) {
				t.Fatalf("scores not monotone in margins at %d/%d", i, j)
			}
		}
	}
}

func TestPlatt(t *testing.T) {
	f := []float64{-3, -2, -1, 1, 2, 3}
	y := []float64{0, 0, 0, 1, 1, 1}
	a, b := platt(f, y)
	if a >= 0 {
		t.Fatalf("expected negative slope; got %g", a)
	}
	if p := sigmoid(-(a*3 + b)); p <= .5 {
		t.Fatalf("expected p(3) > .5; got %g", p)
	}
	if p := sigmoid(-(a*-3 + b)); p >= .5 {
		t.Fatalf("expected p(-3) < .5; got %g", p)
	}
}

func TestPrior(t *testing.T) {
	x, y := blobs(10, 4)
	c := Constant{config: Config{Algorithm: Prior}.WithDefaults()}
	if err := c.Fit(x, y); err != nil {
		t.Fatalf("got error: %v", err)
	}
	got := c.PredictScores(x).RawVector().Data
	for _, s := range got {
		if s != .5 {
			t.Fatalf("expected .5; got %v", got)
		}
	}
}
