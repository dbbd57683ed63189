package ckd

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
)

// Split partitions the dataset into a stratified train and test
// partition.  The test partition holds round(p*n) records (at least
// one record is left in each partition) and the number of records per
// label in each partition is within one record of the label's
// proportion in the whole dataset.  Records are drawn with a random
// source seeded with seed; both partitions keep the original order of
// the records.  The same dataset, p and seed always yield the same
// partitions.
func Split(ds Dataset, p float64, seed int64) (train, test Dataset, err error) {
	if !(p > 0 && p < 1) {
		return Dataset{}, Dataset{}, fmt.Errorf("split: %g: %w", p, ErrInvalidTestSize)
	}
	var byClass [2][]int
	for i, l := range ds.labels {
		byClass[l] = append(byClass[l], i)
	}
	for l, idx := range byClass {
		if len(idx) < 2 {
			return Dataset{}, Dataset{}, fmt.Errorf("split: label %d (%s): %d records: %w",
				l, ds.Classes[l], len(idx), ErrInsufficientClassSamples)
		}
	}
	n := ds.Len()
	ntest := int(math.Round(p * float64(n)))
	if ntest < 1 {
		ntest = 1
	}
	if ntest > n-1 {
		ntest = n - 1
	}
	counts := stratify(ntest, [2]int{len(byClass[0]), len(byClass[1])})
	rnd := rand.New(rand.NewSource(uint64(seed)))
	intest := make([]bool, n)
	for l, idx := range byClass {
		perm := rnd.Perm(len(idx))
		for _, k := range perm[:counts[l]] {
			intest[idx[k]] = true
		}
	}
	var tr, te []int
	for i := 0; i < n; i++ {
		if intest[i] {
			te = append(te, i)
		} else {
			tr = append(tr, i)
		}
	}
	return ds.Subset(tr), ds.Subset(te), nil
}

// stratify distributes ntest test records over the classes
// proportional to their sizes using the largest remainder method.
// Each class keeps at least one record in each partition.
func stratify(ntest int, sizes [2]int) [2]int {
	n := sizes[0] + sizes[1]
	var counts [2]int
	var rems [2]float64
	assigned := 0
	for l := range sizes {
		ideal := float64(ntest) * float64(sizes[l]) / float64(n)
		counts[l] = int(math.Floor(ideal))
		rems[l] = ideal - float64(counts[l])
		assigned += counts[l]
	}
	order := []int{0, 1}
	sort.SliceStable(order, func(i, j int) bool {
		return rems[order[i]] > rems[order[j]]
	})
	for k := 0; assigned < ntest; k++ {
		counts[order[k%2]]++
		assigned++
	}
	for l := range counts {
		if counts[l] < 1 {
			counts[l] = 1
		}
		if counts[l] > sizes[l]-1 {
			counts[l] = sizes[l] - 1
		}
	}
	return counts
}
