// Package ml implements the binary classifiers used by ckd.  All
// classifiers work on gonum matrices: x holds one record per row, y
// holds the labels False (0) and True (1).
//
// Every classifier is deterministic given its Config (including the
// seed) and the training data.  The forest fits its trees in parallel,
// but each tree owns its own random source and the tree scores are
// combined in tree order, so parallel execution does not change any
// floating point result.
package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Predefined values for true and false.
const (
	False = float64(0)
	True  = float64(1)
)

// Bool converts a bool to a value representing false or true.
func Bool(t bool) float64 {
	if t {
		return True
	}
	return False
}

// ErrUnknownAlgorithm is returned for unregistered algorithm names.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// ErrDimension is returned if a fitted classifier cannot score records
// with the given number of features.
var ErrDimension = errors.New("dimension mismatch")

var errEmptyParams = errors.New("empty parameters")

// Predictor predicts labels and positive class scores.
type Predictor interface {
	PredictLabels(x *mat.Dense) *mat.VecDense
	PredictScores(x *mat.Dense) *mat.VecDense
}

// Fitter fits a model on the given data.
type Fitter interface {
	Fit(x *mat.Dense, y *mat.VecDense) error
}

// Classifier is a fittable binary classifier.
type Classifier interface {
	Fitter
	Predictor
	Name() string
	Config() Config
}

// Config holds the algorithm choice, its hyperparameters and the seed.
// Hyperparameters that do not apply to an algorithm are ignored.
type Config struct {
	Algorithm       string  `json:"algorithm" toml:"algorithm" yaml:"algorithm"`
	Seed            int64   `json:"seed" toml:"seed" yaml:"seed"`
	Threshold       float64 `json:"threshold" toml:"threshold" yaml:"threshold"`
	Trees           int     `json:"trees" toml:"trees" yaml:"trees"`
	MaxDepth        int     `json:"maxDepth" toml:"maxDepth" yaml:"maxDepth"`
	MinSamplesSplit int     `json:"minSamplesSplit" toml:"minSamplesSplit" yaml:"minSamplesSplit"`
	MinSamplesLeaf  int     `json:"minSamplesLeaf" toml:"minSamplesLeaf" yaml:"minSamplesLeaf"`
	MaxFeatures     int     `json:"maxFeatures" toml:"maxFeatures" yaml:"maxFeatures"`
	NoBootstrap     bool    `json:"noBootstrap" toml:"noBootstrap" yaml:"noBootstrap"`
	Jobs            int     `json:"jobs" toml:"jobs" yaml:"jobs"`
	LearningRate    float64 `json:"learningRate" toml:"learningRate" yaml:"learningRate"`
	Lambda          float64 `json:"lambda" toml:"lambda" yaml:"lambda"`
	Epochs          int     `json:"epochs" toml:"epochs" yaml:"epochs"`
	Hidden          int     `json:"hidden" toml:"hidden" yaml:"hidden"`
}

// WithDefaults returns a copy of the config with all zero values
// replaced by the defaults of the configured algorithm.
func (c Config) WithDefaults() Config {
	if c.Algorithm == "" {
		c.Algorithm = Forest
	}
	if c.Threshold == 0 {
		c.Threshold = .5
	}
	if c.Jobs <= 0 {
		c.Jobs = runtime.GOMAXPROCS(0)
	}
	switch c.Algorithm {
	case Forest:
		if c.Trees == 0 {
			c.Trees = 200
		}
		if c.MinSamplesSplit == 0 {
			c.MinSamplesSplit = 2
		}
		if c.MinSamplesLeaf == 0 {
			c.MinSamplesLeaf = 1
		}
	case SVM:
		if c.Lambda == 0 {
			c.Lambda = 1e-2
		}
		if c.Epochs == 0 {
			c.Epochs = 200
		}
	case LogReg:
		if c.LearningRate == 0 {
			c.LearningRate = .1
		}
		if c.Epochs == 0 {
			c.Epochs = 1000
		}
	case Network:
		if c.LearningRate == 0 {
			c.LearningRate = .1
		}
		if c.Epochs == 0 {
			c.Epochs = 200
		}
		if c.Hidden == 0 {
			c.Hidden = 8
		}
	}
	return c
}

// Registered algorithm names.
const (
	Forest  = "forest"
	SVM     = "svm"
	LogReg  = "lr"
	Network = "nn"
	Prior   = "prior"
)

var register = map[string]func(Config) Classifier{
	Forest:  func(c Config) Classifier { return &RandomForest{config: c} },
	SVM:     func(c Config) Classifier { return &SVC{config: c} },
	LogReg:  func(c Config) Classifier { return &LR{config: c} },
	Network: func(c Config) Classifier { return &NN{config: c} },
	Prior:   func(c Config) Classifier { return &Constant{config: c} },
}

// Algorithms returns the sorted list of registered algorithm names.
func Algorithms() []string {
	ret := make([]string, 0, len(register))
	for name := range register {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// New creates a new, unfitted classifier for the given configuration.
func New(c Config) (Classifier, error) {
	c = c.WithDefaults()
	f, ok := register[c.Algorithm]
	if !ok {
		return nil, fmt.Errorf("new %s: %w", c.Algorithm, ErrUnknownAlgorithm)
	}
	return f(c), nil
}

type envelope struct {
	Algorithm string          `json:"algorithm"`
	Config    Config          `json:"config"`
	Params    json.RawMessage `json:"params"`
}

// Marshal encodes a fitted classifier together with its configuration.
func Marshal(c Classifier) ([]byte, error) {
	params, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %v", c.Name(), err)
	}
	return json.Marshal(envelope{
		Algorithm: c.Name(),
		Config:    c.Config(),
		Params:    params,
	})
}

// Unmarshal decodes a classifier encoded with Marshal.
func Unmarshal(data []byte) (Classifier, error) {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal: %v", err)
	}
	e.Config.Algorithm = e.Algorithm
	c, err := New(e.Config)
	if err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if err := json.Unmarshal(e.Params, c); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %v", e.Algorithm, err)
	}
	return c, nil
}

// CheckInputs returns an error wrapping ErrDimension if the fitted
// classifier cannot score records with n features.
func CheckInputs(c Classifier, n int) error {
	var want int
	switch t := c.(type) {
	case *RandomForest:
		for i, tr := range t.trees {
			if f := tr.maxFeature(); f >= n {
				return fmt.Errorf("%s: tree %d splits on feature %d of %d: %w",
					t.Name(), i, f, n, ErrDimension)
			}
		}
		return nil
	case *SVC:
		want = len(t.weights)
	case *LR:
		want = len(t.Weights())
	case *NN:
		_, cols := t.wh.Dims()
		want = cols - 1
	default:
		return nil
	}
	if want != n {
		return fmt.Errorf("%s: %d inputs for %d features: %w", c.Name(), want, n, ErrDimension)
	}
	return nil
}

// ApplyThreshold converts the scores in place to True if they are
// greater or equal to t and to False otherwise.
func ApplyThreshold(scores *mat.VecDense, t float64) *mat.VecDense {
	for i := 0; i < scores.Len(); i++ {
		scores.SetVec(i, Bool(scores.AtVec(i) >= t))
	}
	return scores
}

func labels(p interface {
	PredictScores(*mat.Dense) *mat.VecDense
}, x *mat.Dense, t float64) *mat.VecDense {
	return ApplyThreshold(p.PredictScores(x), t)
}

func checkFit(name string, x *mat.Dense, y *mat.VecDense) error {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return fmt.Errorf("%s: fit: zero length", name)
	}
	if y.Len() != r {
		return fmt.Errorf("%s: fit: %d rows but %d labels", name, r, y.Len())
	}
	for i := 0; i < y.Len(); i++ {
		if v := y.AtVec(i); v != True && v != False {
			return fmt.Errorf("%s: fit: bad label %g at %d", name, v, i)
		}
	}
	return nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
