package ml

import (
	"encoding/json"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SVC is a linear soft margin classifier trained with the Pegasos
// sub-gradient method.  Labels are decided by the sign of the margin;
// scores are obtained by a sigmoid fitted on the training margins
// (Platt scaling).
type SVC struct {
	weights []float64
	bias    float64
	a, b    float64 // sigmoid parameters: p = 1/(1+exp(a*f+b))
	config  Config
}

// Name returns the algorithm's name.
func (svc *SVC) Name() string { return SVM }

// Config returns the classifier's configuration.
func (svc *SVC) Config() Config { return svc.config }

// Fit fits the hyperplane and the score sigmoid.
func (svc *SVC) Fit(x *mat.Dense, y *mat.VecDense) error {
	if err := checkFit(svc.Name(), x, y); err != nil {
		return err
	}
	r, c := x.Dims()
	lambda := svc.config.Lambda
	rnd := rand.New(rand.NewSource(uint64(svc.config.Seed)))
	svc.weights = make([]float64, c)
	svc.bias = 0
	t0 := 1 / lambda
	var t float64
	for e := 0; e < svc.config.Epochs; e++ {
		for _, i := range rnd.Perm(r) {
			t++
			eta := 1 / (lambda * (t + t0))
			yi := 2*y.AtVec(i) - 1
			row := x.RawRowView(i)
			margin := yi * (floats.Dot(svc.weights, row) + svc.bias)
			floats.Scale(1-eta*lambda, svc.weights)
			if margin < 1 {
				floats.AddScaled(svc.weights, eta*yi, row)
				svc.bias += eta * yi
			}
		}
	}
	svc.a, svc.b = platt(svc.Margins(x).RawVector().Data, y.RawVector().Data)
	return nil
}

// Margins returns the signed distances w*x+b for each row of x.
func (svc *SVC) Margins(x *mat.Dense) *mat.VecDense {
	r, _ := x.Dims()
	ret := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		ret.SetVec(i, floats.Dot(svc.weights, x.RawRowView(i))+svc.bias)
	}
	return ret
}

// PredictScores returns the calibrated positive class probabilities.
func (svc *SVC) PredictScores(x *mat.Dense) *mat.VecDense {
	ret := svc.Margins(x)
	for i := 0; i < ret.Len(); i++ {
		ret.SetVec(i, sigmoid(-(svc.a*ret.AtVec(i) + svc.b)))
	}
	return ret
}

// PredictLabels returns True for all rows on the positive side of the
// hyperplane.
func (svc *SVC) PredictLabels(x *mat.Dense) *mat.VecDense {
	ret := svc.Margins(x)
	for i := 0; i < ret.Len(); i++ {
		ret.SetVec(i, Bool(ret.AtVec(i) >= 0))
	}
	return ret
}

// platt fits p = 1/(1+exp(a*f+b)) to the labels using Newton's method
// with backtracking and Platt's smoothed targets.
func platt(f, y []float64) (a, b float64) {
	var prior1, prior0 float64
	for _, v := range y {
		if v == True {
			prior1++
		} else {
			prior0++
		}
	}
	hi := (prior1 + 1) / (prior1 + 2)
	lo := 1 / (prior0 + 2)
	t := make([]float64, len(y))
	for i := range y {
		if y[i] == True {
			t[i] = hi
		} else {
			t[i] = lo
		}
	}
	loss := func(a, b float64) float64 {
		var sum float64
		for i := range f {
			z := f[i]*a + b
			if z >= 0 {
				sum += t[i]*z + math.Log1p(math.Exp(-z))
			} else {
				sum += (t[i]-1)*z + math.Log1p(math.Exp(z))
			}
		}
		return sum
	}
	a, b = 0, math.Log((prior0+1)/(prior1+1))
	fval := loss(a, b)
	const sigma = 1e-12
	for it := 0; it < 100; it++ {
		h11, h22, h21, g1, g2 := sigma, sigma, 0.0, 0.0, 0.0
		for i := range f {
			z := f[i]*a + b
			var p, q float64
			if z >= 0 {
				p = math.Exp(-z) / (1 + math.Exp(-z))
				q = 1 / (1 + math.Exp(-z))
			} else {
				p = 1 / (1 + math.Exp(z))
				q = math.Exp(z) / (1 + math.Exp(z))
			}
			d2 := p * q
			h11 += f[i] * f[i] * d2
			h22 += d2
			h21 += f[i] * d2
			d1 := t[i] - p
			g1 += f[i] * d1
			g2 += d1
		}
		if math.Abs(g1) < 1e-5 && math.Abs(g2) < 1e-5 {
			break
		}
		det := h11*h22 - h21*h21
		da := -(h22*g1 - h21*g2) / det
		db := -(-h21*g1 + h11*g2) / det
		gd := g1*da + g2*db
		step := 1.0
		for step >= 1e-10 {
			na, nb := a+step*da, b+step*db
			if nf := loss(na, nb); nf < fval+1e-4*step*gd {
				a, b, fval = na, nb, nf
				break
			}
			step /= 2
		}
		if step < 1e-10 {
			break
		}
	}
	return a, b
}

type svmdata struct {
	Weights []float64
	Bias    float64
	A, B    float64
}

// MarshalJSON implements the json.Marshaler interface.
func (svc *SVC) MarshalJSON() ([]byte, error) {
	return json.Marshal(svmdata{
		Weights: svc.weights,
		Bias:    svc.bias,
		A:       svc.a,
		B:       svc.b,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (svc *SVC) UnmarshalJSON(data []byte) error {
	var tmp svmdata
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if len(tmp.Weights) == 0 {
		return errEmptyParams
	}
	svc.weights, svc.bias, svc.a, svc.b = tmp.Weights, tmp.Bias, tmp.A, tmp.B
	return nil
}

var _ Classifier = &SVC{}
