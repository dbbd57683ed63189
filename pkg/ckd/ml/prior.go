package ml

import (
	"encoding/json"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Constant is a baseline classifier that ignores its input and always
// scores the positive class with its training prior.
type Constant struct {
	prior  float64
	config Config
}

// Name returns the algorithm's name.
func (c *Constant) Name() string { return Prior }

// Config returns the classifier's configuration.
func (c *Constant) Config() Config { return c.config }

// Fit records the fraction of positive labels.
func (c *Constant) Fit(x *mat.Dense, y *mat.VecDense) error {
	if err := checkFit(c.Name(), x, y); err != nil {
		return err
	}
	c.prior = floats.Sum(y.RawVector().Data) / float64(y.Len())
	return nil
}

// PredictScores returns the prior for each row of x.
func (c *Constant) PredictScores(x *mat.Dense) *mat.VecDense {
	r, _ := x.Dims()
	ret := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		ret.SetVec(i, c.prior)
	}
	return ret
}

// PredictLabels returns the majority class for each row of x.
func (c *Constant) PredictLabels(x *mat.Dense) *mat.VecDense {
	return labels(c, x, c.config.Threshold)
}

// MarshalJSON implements the json.Marshaler interface.
func (c *Constant) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct{ Prior float64 }{c.prior})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (c *Constant) UnmarshalJSON(data []byte) error {
	var tmp struct{ Prior *float64 }
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if tmp.Prior == nil {
		return errEmptyParams
	}
	c.prior = *tmp.Prior
	return nil
}

var _ Classifier = &Constant{}
