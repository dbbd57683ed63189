package ml

import (
	"encoding/json"
	"fmt"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// RandomForest is an ensemble of gini trees.  Each tree is grown on a
// bootstrap sample with its own random source seeded with seed+i.
// The score of a record is the mean of the tree scores.
type RandomForest struct {
	trees  []tree
	config Config
}

// Name returns the algorithm's name.
func (rf *RandomForest) Name() string { return Forest }

// Config returns the classifier's configuration.
func (rf *RandomForest) Config() Config { return rf.config }

// Fit grows the trees of the forest.  The trees are grown
// concurrently using at most config.Jobs goroutines.
func (rf *RandomForest) Fit(x *mat.Dense, y *mat.VecDense) error {
	if err := checkFit(rf.Name(), x, y); err != nil {
		return err
	}
	if rf.config.Trees <= 0 {
		return fmt.Errorf("%s: fit: invalid number of trees: %d", rf.Name(), rf.config.Trees)
	}
	r, c := x.Dims()
	cols := make([][]float64, c)
	for j := range cols {
		cols[j] = mat.Col(nil, j, x)
	}
	ys := mat.Col(nil, 0, y)
	trees := make([]tree, rf.config.Trees)
	var g errgroup.Group
	g.SetLimit(rf.config.Jobs)
	for i := range trees {
		i := i
		g.Go(func() error {
			rnd := rand.New(rand.NewSource(uint64(rf.config.Seed) + uint64(i)))
			idx := make([]int, r)
			for j := range idx {
				if rf.config.NoBootstrap {
					idx[j] = j
				} else {
					idx[j] = rnd.Intn(r)
				}
			}
			b := treeBuilder{
				cols:     cols,
				ys:       ys,
				rnd:      rnd,
				maxDepth: rf.config.MaxDepth,
				minSplit: rf.config.MinSamplesSplit,
				minLeaf:  rf.config.MinSamplesLeaf,
				mtry:     defaultMtry(c, rf.config.MaxFeatures),
			}
			trees[i] = b.build(idx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%s: fit: %v", rf.Name(), err)
	}
	rf.trees = trees
	return nil
}

// PredictScores returns the mean tree score for each row of x.
func (rf *RandomForest) PredictScores(x *mat.Dense) *mat.VecDense {
	r, _ := x.Dims()
	ret := mat.NewVecDense(r, nil)
	if len(rf.trees) == 0 {
		return ret
	}
	for i := 0; i < r; i++ {
		row := x.RawRowView(i)
		var sum float64
		for _, t := range rf.trees {
			sum += t.score(row)
		}
		ret.SetVec(i, sum/float64(len(rf.trees)))
	}
	return ret
}

// PredictLabels returns the thresholded scores.
func (rf *RandomForest) PredictLabels(x *mat.Dense) *mat.VecDense {
	return labels(rf, x, rf.config.Threshold)
}

// Depths returns the depth of each tree in the forest.
func (rf *RandomForest) Depths() []int {
	ret := make([]int, len(rf.trees))
	for i, t := range rf.trees {
		ret[i] = t.depth()
	}
	return ret
}

type rfdata struct {
	Trees []tree `json:"trees"`
}

// MarshalJSON implements the json.Marshaler interface.
func (rf *RandomForest) MarshalJSON() ([]byte, error) {
	return json.Marshal(rfdata{Trees: rf.trees})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (rf *RandomForest) UnmarshalJSON(data []byte) error {
	var tmp rfdata
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if len(tmp.Trees) == 0 {
		return errEmptyParams
	}
	for i, t := range tmp.Trees {
		if err := t.check(); err != nil {
			return fmt.Errorf("tree %d: %v", i, err)
		}
	}
	rf.trees = tmp.Trees
	return nil
}

var _ Classifier = &RandomForest{}
