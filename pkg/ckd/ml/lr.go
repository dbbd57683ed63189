package ml

import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LR implements logistic regression trained with batch gradient
// descent.
type LR struct {
	weights *mat.VecDense
	bias    float64
	config  Config
}

// Name returns the algorithm's name.
func (lr *LR) Name() string { return LogReg }

// Config returns the classifier's configuration.
func (lr *LR) Config() Config { return lr.config }

// Weights returns the weights of the logistic regression model.
func (lr *LR) Weights() []float64 {
	if lr.weights == nil {
		return nil
	}
	return lr.weights.RawVector().Data
}

func (lr *LR) gradient(x *mat.Dense, y, p, out *mat.VecDense) (float64, float64) {
	r, _ := x.Dims()
	p.SubVec(p, y)
	err := averageError(p)
	out.MulVec(x.T(), p)
	out.ScaleVec(1.0/float64(r), out)
	return err, floats.Sum(p.RawVector().Data) / float64(r)
}

func averageError(dif *mat.VecDense) float64 {
	sum := 0.0
	for i := 0; i < dif.Len(); i++ {
		sum += dif.AtVec(i) * dif.AtVec(i)
	}
	return math.Sqrt(sum) / float64(dif.Len())
}

func (lr *LR) predictVec(x *mat.Dense, out *mat.VecDense) {
	out.MulVec(x, lr.weights)
	for i := 0; i < out.Len(); i++ {
		out.SetVec(i, sigmoid(out.AtVec(i)+lr.bias))
	}
}

// PredictScores calculates the probability predictions for the given values.
func (lr *LR) PredictScores(x *mat.Dense) *mat.VecDense {
	var tmp mat.VecDense
	lr.predictVec(x, &tmp)
	return &tmp
}

// PredictLabels calculates the predictions for the given values.
func (lr *LR) PredictLabels(x *mat.Dense) *mat.VecDense {
	return labels(lr, x, lr.config.Threshold)
}

// Fit fits the logistic regression model.  Training stops early if
// the error starts to grow.
func (lr *LR) Fit(x *mat.Dense, y *mat.VecDense) error {
	if err := checkFit(lr.Name(), x, y); err != nil {
		return err
	}
	_, c := x.Dims()
	lr.weights = mat.NewVecDense(c, nil)
	lr.bias = 0
	errb := math.MaxFloat64
	var pred, gradient mat.VecDense
	for i := 0; i < lr.config.Epochs; i++ {
		lr.predictVec(x, &pred)
		err, db := lr.gradient(x, y, &pred, &gradient)
		if errb < err {
			return nil
		}
		gradient.ScaleVec(lr.config.LearningRate, &gradient)
		lr.weights.SubVec(lr.weights, &gradient)
		lr.bias -= lr.config.LearningRate * db
		errb = err
	}
	return nil
}

type lrdata struct {
	Weights []float64
	Bias    float64
}

// MarshalJSON implements the json.Marshaler interface.
func (lr *LR) MarshalJSON() ([]byte, error) {
	return json.Marshal(lrdata{Weights: lr.Weights(), Bias: lr.bias})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (lr *LR) UnmarshalJSON(data []byte) error {
	var tmp lrdata
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if len(tmp.Weights) == 0 {
		return errEmptyParams
	}
	lr.weights = mat.NewVecDense(len(tmp.Weights), tmp.Weights)
	lr.bias = tmp.Bias
	return nil
}

var _ Classifier = &LR{}
