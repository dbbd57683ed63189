package ckd

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// UnknownCode is the encoding of categories not seen during fitting.
const UnknownCode = -1

// Stats holds the fitted statistics of one feature.  Numeric features
// are imputed with Fill, categorical features with FillCat.
// Categories are sorted; the code of a category is its index.  Mean
// and Std are the scaling parameters of the imputed and encoded
// feature.
type Stats struct {
	Name       string   `json:"name"`
	Kind       Kind     `json:"kind"`
	Fill       float64  `json:"fill,omitempty"`
	FillCat    string   `json:"fillCat,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Mean       float64  `json:"mean"`
	Std        float64  `json:"std"`
}

// Preprocessing holds the statistics fitted on a training partition.
// It must not be modified after fitting.
type Preprocessing struct {
	Schema Schema  `json:"schema"`
	Stats  []Stats `json:"stats"`
}

// Matrix is a transformed partition: one row of scaled features per
// record and (optionally) the aligned labels.
type Matrix struct {
	X *mat.Dense
	Y *mat.VecDense
}

// Fit fits the imputation, encoding and scaling statistics on the
// given training partition.  The scaling parameters are computed on
// the imputed and encoded values.
func Fit(train Dataset) (*Preprocessing, error) {
	p := Preprocessing{
		Schema: train.Schema,
		Stats:  make([]Stats, len(train.Schema.Features)),
	}
	col := make([]float64, train.Len())
	for j, f := range train.Schema.Features {
		st := Stats{Name: f.Name, Kind: f.Kind}
		if err := st.fitFill(train, j); err != nil {
			return nil, fmt.Errorf("fit: %w", err)
		}
		for i := range col {
			col[i] = st.value(train.rows[i][j])
		}
		st.Mean, st.Std = stat.PopMeanStdDev(col, nil)
		if st.Std == 0 || math.IsNaN(st.Std) {
			st.Std = 1
		}
		p.Stats[j] = st
	}
	return &p, nil
}

func (st *Stats) fitFill(train Dataset, j int) error {
	var nums []float64
	counts := make(map[string]int)
	for _, row := range train.rows {
		v := row[j]
		if v.Missing {
			continue
		}
		if st.Kind == Numeric {
			nums = append(nums, v.Num)
		} else {
			counts[v.Cat]++
		}
	}
	if len(nums) == 0 && len(counts) == 0 {
		return fmt.Errorf("%s: no values: %w", st.Name, ErrEmptyFeatureColumn)
	}
	if st.Kind == Numeric {
		st.Fill = stat.Mean(nums, nil)
		return nil
	}
	for c := range counts {
		st.Categories = append(st.Categories, c)
	}
	sort.Strings(st.Categories)
	// Categories are sorted, so ties go to the smallest category.
	mode := 0
	for i, c := range st.Categories {
		if counts[c] > counts[st.Categories[mode]] {
			mode = i
		}
	}
	st.FillCat = st.Categories[mode]
	return nil
}

// value imputes and encodes v.
func (st *Stats) value(v Value) float64 {
	if st.Kind == Numeric {
		if v.Missing {
			return st.Fill
		}
		return v.Num
	}
	c := v.Cat
	if v.Missing {
		c = st.FillCat
	}
	return float64(st.Code(c))
}

// Code returns the encoding of the given category or UnknownCode.
func (st *Stats) Code(c string) int {
	i := sort.SearchStrings(st.Categories, c)
	if i < len(st.Categories) && st.Categories[i] == c {
		return i
	}
	return UnknownCode
}

// Transform imputes, encodes and scales the given partition.  It
// returns a new matrix and never modifies the dataset or the
// statistics.
func (p *Preprocessing) Transform(ds Dataset) (Matrix, error) {
	if !ds.Schema.Equal(p.Schema) {
		return Matrix{}, fmt.Errorf("transform: %w", ErrSchemaMismatch)
	}
	x, err := p.TransformRows(ds.rows)
	if err != nil {
		return Matrix{}, fmt.Errorf("transform: %w", err)
	}
	ys := make([]float64, ds.Len())
	for i, l := range ds.labels {
		ys[i] = float64(l)
	}
	return Matrix{X: x, Y: mat.NewVecDense(len(ys), ys)}, nil
}

// TransformRows imputes, encodes and scales unlabeled records.  The
// values of each row must be aligned with the fitted schema.
func (p *Preprocessing) TransformRows(rows [][]Value) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("transformRows: no records")
	}
	c := len(p.Stats)
	x := mat.NewDense(len(rows), c, nil)
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("transformRows: record %d: %d values for %d features: %w",
				i, len(row), c, ErrSchemaMismatch)
		}
		for j := range p.Stats {
			st := &p.Stats[j]
			x.Set(i, j, (st.value(row[j])-st.Mean)/st.Std)
		}
	}
	return x, nil
}

// Check validates decoded statistics against their schema.
func (p *Preprocessing) Check() error {
	if len(p.Stats) != len(p.Schema.Features) {
		return fmt.Errorf("check: %d stats for %d features", len(p.Stats), len(p.Schema.Features))
	}
	for j, f := range p.Schema.Features {
		st := p.Stats[j]
		if st.Name != f.Name || st.Kind != f.Kind {
			return fmt.Errorf("check: stats %d: %s/%s for feature %s/%s",
				j, st.Name, st.Kind, f.Name, f.Kind)
		}
		if st.Std <= 0 || math.IsNaN(st.Std) || math.IsNaN(st.Mean) {
			return fmt.Errorf("check: %s: bad scaling parameters", st.Name)
		}
		if !sort.StringsAreSorted(st.Categories) {
			return fmt.Errorf("check: %s: unsorted categories", st.Name)
		}
	}
	return nil
}
