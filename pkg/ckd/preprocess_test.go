package ckd

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func readTestDataset(t *testing.T) Dataset {
	t.Helper()
	ds, err := Loader{Schema: testSchema}.Read(strings.NewReader(testCSV))
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	return ds
}

func withinTolerance(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestFit(t *testing.T) {
	p, err := Fit(readTestDataset(t))
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	age, color := p.Stats[0], p.Stats[1]
	for _, tc := range []struct {
		name      string
		got, want float64
	}{
		{"age fill", age.Fill, 40},
		{"age mean", age.Mean, 40},
		{"age std", age.Std, math.Sqrt(50)},
		{"color mean", color.Mean, .75},
		{"color std", color.Std, math.Sqrt(.1875)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if !withinTolerance(tc.got, tc.want, 1e-12) {
				t.Fatalf("expected %g; got %g", tc.want, tc.got)
			}
		})
	}
	if color.FillCat != "red" {
		t.Fatalf("expected fill red; got %s", color.FillCat)
	}
	if got := strings.Join(color.Categories, ","); got != "blue,red" {
		t.Fatalf("expected categories blue,red; got %s", got)
	}
}

func TestTransform(t *testing.T) {
	ds := readTestDataset(t)
	p, err := Fit(ds)
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	before, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	m1, err := p.Transform(ds)
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	m2, err := p.Transform(ds)
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	if !mat.Equal(m1.X, m2.X) || !mat.Equal(m1.Y, m2.Y) {
		t.Fatalf("expected identical transforms")
	}
	after, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("transform modified the preprocessing statistics")
	}
	if got := ds.Row(1)[0]; !got.Missing {
		t.Fatalf("transform modified the dataset: %v", got)
	}
	// Record 2 has a missing age, record 3 a missing color.
	want := []float64{
		10 / math.Sqrt(50), (1 - .75) / math.Sqrt(.1875),
		0, (0 - .75) / math.Sqrt(.1875),
		0, (1 - .75) / math.Sqrt(.1875),
		-10 / math.Sqrt(50), (1 - .75) / math.Sqrt(.1875),
	}
	if !floatArrayEqual(m1.X.RawMatrix().Data, want, 1e-12) {
		t.Fatalf("expected %v; got %v", want, m1.X.RawMatrix().Data)
	}
	if got, want := m1.Y.RawVector().Data, []float64{0, 1, 0, 1}; !floatArrayEqual(got, want, 0) {
		t.Fatalf("expected %v; got %v", want, got)
	}
}

func TestTransformUnknownCategory(t *testing.T) {
	p, err := Fit(readTestDataset(t))
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	x, err := p.TransformRows([][]Value{{Num(40), Cat("green")}})
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	want := (UnknownCode - .75) / math.Sqrt(.1875)
	if got := x.At(0, 1); !withinTolerance(got, want, 1e-12) {
		t.Fatalf("expected %g; got %g", want, got)
	}
}

func TestTransformSchemaMismatch(t *testing.T) {
	ds := readTestDataset(t)
	p, err := Fit(ds)
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	other := ds
	other.Schema = Schema{Features: testSchema.Features[:1], Target: "ckd_label"}
	if _, err := p.Transform(other); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected %v; got %v", ErrSchemaMismatch, err)
	}
	if _, err := p.TransformRows([][]Value{{Num(1)}}); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected %v; got %v", ErrSchemaMismatch, err)
	}
}

func TestFitEmptyFeatureColumn(t *testing.T) {
	for _, kind := range []Kind{Numeric, Categorical} {
		t.Run(kind.String(), func(t *testing.T) {
			s := Schema{Features: []Feature{{Name: "a", Kind: Numeric}, {Name: "b", Kind: kind}}, Target: "y"}
			rows := [][]Value{{Num(1), Missing}, {Num(2), Missing}}
			ds, err := NewDataset(s, [2]string{"0", "1"}, rows, []int{0, 1})
			if err != nil {
				t.Fatalf("got error: %v", err)
			}
			if _, err := Fit(ds); !errors.Is(err, ErrEmptyFeatureColumn) {
				t.Fatalf("expected %v; got %v", ErrEmptyFeatureColumn, err)
			}
		})
	}
}

func TestFitZeroStd(t *testing.T) {
	s := Schema{Features: []Feature{{Name: "a", Kind: Numeric}}, Target: "y"}
	rows := [][]Value{{Num(3)}, {Missing}, {Num(3)}}
	ds, err := NewDataset(s, [2]string{"0", "1"}, rows, []int{0, 1, 0})
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	p, err := Fit(ds)
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	if p.Stats[0].Std != 1 {
		t.Fatalf("expected std 1; got %g", p.Stats[0].Std)
	}
	m, err := p.Transform(ds)
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	for i, v := range m.X.RawMatrix().Data {
		if v != 0 {
			t.Fatalf("expected 0 at %d; got %g", i, v)
		}
	}
}

func TestFitModeTies(t *testing.T) {
	s := Schema{Features: []Feature{{Name: "c", Kind: Categorical}}, Target: "y"}
	rows := [][]Value{{Cat("b")}, {Cat("a")}, {Missing}, {Cat("c")}, {Cat("b")}, {Cat("a")}}
	ds, err := NewDataset(s, [2]string{"0", "1"}, rows, []int{0, 1, 0, 1, 0, 1})
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	p, err := Fit(ds)
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	if got := p.Stats[0].FillCat; got != "a" {
		t.Fatalf("expected a; got %s", got)
	}
}

func floatArrayEqual(a, b []float64, eps float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !withinTolerance(a[i], b[i], eps) {
			return false
		}
	}
	return true
}
