package ml

import (
	"encoding/json"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// NN is a feed forward network with one sigmoid hidden layer and two
// sigmoid output units (one per class).  A constant bias input is
// appended to the inputs and to the hidden layer.
type NN struct {
	wh, wo mat.Dense
	config Config
}

// Name returns the algorithm's name.
func (nn *NN) Name() string { return Network }

// Config returns the classifier's configuration.
func (nn *NN) Config() Config { return nn.config }

const nnOutputs = 2 // Fixed to 2 classes True/False

func (nn *NN) init(inputs int, rnd *rand.Rand) {
	hidden := nn.config.Hidden
	nn.wh.Reset()
	nn.wh.ReuseAs(hidden, inputs+1)
	randomInit(&nn.wh, float64(inputs+1), rnd)
	nn.wo.Reset()
	nn.wo.ReuseAs(nnOutputs, hidden+1)
	randomInit(&nn.wo, float64(hidden+1), rnd)
}

func (nn *NN) target(y float64) *mat.Dense {
	if y == True {
		return mat.NewDense(nnOutputs, 1, []float64{.01, .99})
	}
	return mat.NewDense(nnOutputs, 1, []float64{.99, .01})
}

func withBias(row []float64) *mat.Dense {
	in := make([]float64, len(row)+1)
	copy(in, row)
	in[len(row)] = 1
	return mat.NewDense(len(in), 1, in)
}

func (nn *NN) forward(inputs mat.Matrix) (hiddenOut, finalOut mat.Matrix) {
	hidden := mat.Col(nil, 0, apply(sigmoidf, dot(&nn.wh, inputs)))
	hiddenOut = withBias(hidden)
	finalOut = apply(sigmoidf, dot(&nn.wo, hiddenOut))
	return hiddenOut, finalOut
}

// PredictScores returns the normalized activation of the True output
// unit for each row of x.
func (nn *NN) PredictScores(x *mat.Dense) *mat.VecDense {
	r, _ := x.Dims()
	ys := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		_, out := nn.forward(withBias(x.RawRowView(i)))
		f, t := out.At(0, 0), out.At(1, 0)
		ys.SetVec(i, t/(f+t))
	}
	return ys
}

// PredictLabels returns the thresholded scores.
func (nn *NN) PredictLabels(x *mat.Dense) *mat.VecDense {
	return labels(nn, x, nn.config.Threshold)
}

// Fit trains the network with stochastic gradient descent.  The
// records are visited in a new random order in each epoch.
func (nn *NN) Fit(x *mat.Dense, y *mat.VecDense) error {
	if err := checkFit(nn.Name(), x, y); err != nil {
		return err
	}
	if nn.config.Hidden <= 0 {
		return fmt.Errorf("%s: fit: invalid number of hidden units: %d", nn.Name(), nn.config.Hidden)
	}
	r, c := x.Dims()
	rnd := rand.New(rand.NewSource(uint64(nn.config.Seed)))
	nn.init(c, rnd)
	for e := 0; e < nn.config.Epochs; e++ {
		for _, i := range rnd.Perm(r) {
			nn.train(withBias(x.RawRowView(i)), nn.target(y.AtVec(i)))
		}
	}
	return nil
}

func (nn *NN) train(inputs, targets mat.Matrix) {
	// Forward propagation.
	hiddenOut, finalOut := nn.forward(inputs)

	// Calculate errors.  The bias column of wo does not propagate
	// back into the hidden layer.
	outErr := sub(targets, finalOut)
	hidden := nn.config.Hidden
	wo := nn.wo.Slice(0, nnOutputs, 0, hidden)
	hiddenErr := dot(wo.T(), outErr)
	hiddenAct := hiddenOut.(*mat.Dense).Slice(0, hidden, 0, 1)

	// Backward propagation.
	nn.wo.Add(&nn.wo, scale(nn.config.LearningRate,
		dot(multiply(outErr, sigmoidp(finalOut)), hiddenOut.T())))
	nn.wh.Add(&nn.wh, scale(nn.config.LearningRate,
		dot(multiply(hiddenErr, sigmoidp(hiddenAct)), inputs.T())))
}

func dot(m, n mat.Matrix) mat.Matrix {
	r, _ := m.Dims()
	_, c := n.Dims()
	o := mat.NewDense(r, c, nil)
	o.Product(m, n)
	return o
}

func apply(fn func(i, j int, v float64) float64, m mat.Matrix) mat.Matrix {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Apply(fn, m)
	return o
}

func scale(s float64, m mat.Matrix) mat.Matrix {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Scale(s, m)
	return o
}

func multiply(m, n mat.Matrix) mat.Matrix {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.MulElem(m, n)
	return o
}

func sub(m, n mat.Matrix) mat.Matrix {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Sub(m, n)
	return o
}

func sigmoidf(r, c int, z float64) float64 {
	return sigmoid(z)
}

func sigmoidp(m mat.Matrix) mat.Matrix {
	rows, _ := m.Dims()
	o := make([]float64, rows)
	for i := range o {
		o[i] = 1
	}
	ones := mat.NewDense(rows, 1, o)
	return multiply(m, sub(ones, m))
}

func randomInit(m *mat.Dense, v float64, rnd *rand.Rand) {
	dist := distuv.Uniform{
		Min: -1 / math.Sqrt(v),
		Max: 1 / math.Sqrt(v),
		Src: rnd,
	}
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, dist.Rand())
		}
	}
}

type nndata struct {
	Hidden, Inputs int
	WH, WO         []float64
}

// MarshalJSON implements the json.Marshaler interface.
func (nn *NN) MarshalJSON() ([]byte, error) {
	if nn.wh.IsEmpty() {
		return json.Marshal(nndata{})
	}
	hr, hc := nn.wh.Dims()
	return json.Marshal(nndata{
		Hidden: hr,
		Inputs: hc,
		WH:     mat.DenseCopyOf(&nn.wh).RawMatrix().Data,
		WO:     mat.DenseCopyOf(&nn.wo).RawMatrix().Data,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (nn *NN) UnmarshalJSON(data []byte) error {
	var tmp nndata
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if tmp.Hidden == 0 || tmp.Inputs == 0 ||
		len(tmp.WH) != tmp.Hidden*tmp.Inputs ||
		len(tmp.WO) != nnOutputs*(tmp.Hidden+1) {
		return errEmptyParams
	}
	nn.wh = *mat.NewDense(tmp.Hidden, tmp.Inputs, tmp.WH)
	nn.wo = *mat.NewDense(nnOutputs, tmp.Hidden+1, tmp.WO)
	nn.config.Hidden = tmp.Hidden
	return nil
}

var _ Classifier = &NN{}
