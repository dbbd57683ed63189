package ml

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestLR(t *testing.T) {
	for _, tc := range []struct {
		x, y []float64
	}{
		{[]float64{-2, -1.5, -1, 1, 1.5, 2}, []float64{0, 0, 0, 1, 1, 1}},
		{[]float64{2, 1.5, 1, -1, -1.5, -2}, []float64{0, 0, 0, 1, 1, 1}},
	} {
		x := mat.NewDense(len(tc.y), 1, tc.x)
		y := mat.NewVecDense(len(tc.y), tc.y)
		lr := LR{config: Config{Algorithm: LogReg}.WithDefaults()}
		if err := lr.Fit(x, y); err != nil {
			t.Fatalf("got error: %v", err)
		}
		got := lr.PredictLabels(x)
		if !reflect.DeepEqual(got.RawVector().Data, tc.y) {
			t.Fatalf("expected %v; got %v", tc.y, got.RawVector().Data)
		}
	}
}

func TestJSON(t *testing.T) {
	lr := LR{
		weights: mat.NewVecDense(3, []float64{.1, .2, .3}),
		bias:    -.5,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(&lr); err != nil {
		t.Fatalf("got error: %v", err)
	}
	var lr2 LR
	if err := json.NewDecoder(&buf).Decode(&lr2); err != nil {
		t.Fatalf("got error: %v", err)
	}
	if !reflect.DeepEqual(lr, lr2) {
		t.Fatalf("expected %v; got %v", lr, lr2)
	}
}
