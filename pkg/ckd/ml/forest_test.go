package ml

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestTreeScore(t *testing.T) {
	tr := tree{Nodes: []node{
		{Feature: 1, Threshold: .5, Left: 1, Right: 2},
		{Left: -1, Right: -1, Score: .25},
		{Left: -1, Right: -1, Score: 1},
	}}
	for _, tc := range []struct {
		row  []float64
		want float64
	}{
		{[]float64{9, .5}, .25},
		{[]float64{9, .6}, 1},
		{[]float64{-9, -3}, .25},
	} {
		if got := tr.score(tc.row); got != tc.want {
			t.Errorf("expected %g; got %g", tc.want, got)
		}
	}
	if got := tr.depth(); got != 1 {
		t.Errorf("expected depth 1; got %d", got)
	}
}

func TestGini(t *testing.T) {
	for _, tc := range []struct {
		n, pos int
		want   float64
	}{
		{0, 0, 0},
		{4, 0, 0},
		{4, 4, 0},
		{4, 2, .5},
		{4, 1, .375},
	} {
		if got := gini(tc.n, tc.pos); !floatArrayEqual([]float64{got}, []float64{tc.want}, 1e-12) {
			t.Errorf("gini(%d,%d): expected %g; got %g", tc.n, tc.pos, tc.want, got)
		}
	}
}

func TestForestMaxDepth(t *testing.T) {
	x, y := blobs(30, 1)
	rf := RandomForest{config: Config{Algorithm: Forest, Trees: 8, MaxDepth: 1, Seed: 1}.WithDefaults()}
	if err := rf.Fit(x, y); err != nil {
		t.Fatalf("got error: %v", err)
	}
	for i, d := range rf.Depths() {
		if d > 1 {
			t.Fatalf("tree %d: expected depth <= 1; got %d", i, d)
		}
	}
}

func TestForestConstantFeature(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{1, 1, 1, 1})
	y := mat.NewVecDense(4, []float64{0, 1, 0, 1})
	rf := RandomForest{config: Config{Algorithm: Forest, Trees: 3, NoBootstrap: true}.WithDefaults()}
	if err := rf.Fit(x, y); err != nil {
		t.Fatalf("got error: %v", err)
	}
	got := rf.PredictScores(x).RawVector().Data
	if !floatArrayEqual(got, []float64{.5, .5, .5, .5}, 1e-12) {
		t.Fatalf("expected constant .5 scores; got %v", got)
	}
}

func TestDefaultMtry(t *testing.T) {
	for _, tc := range []struct{ p, max, want int }{
		{1, 0, 1},
		{7, 0, 3},
		{16, 0, 4},
		{7, 2, 2},
		{7, 9, 3},
	} {
		if got := defaultMtry(tc.p, tc.max); got != tc.want {
			t.Errorf("defaultMtry(%d,%d): expected %d; got %d", tc.p, tc.max, tc.want, got)
		}
	}
}
