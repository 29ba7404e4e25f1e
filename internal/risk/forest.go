package risk

import (
	"errors"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"
)

// Forest is a bagged ensemble of CART trees voting by majority
type Forest struct {
	Trees []Tree `json:"trees"`
}

// ForestParams controls forest growth
type ForestParams struct {
	NumTrees  int
	Bootstrap bool
	Tree      TreeParams // MaxFeatures 0 means sqrt(numFeatures)
}

// Predict returns the majority class; ties go to the lowest class code
func (f Forest) Predict(x []float64, numClasses int) (int, error) {
	if len(f.Trees) == 0 {
		return 0, errors.New("empty forest")
	}

	votes := make([]int, numClasses)
	for _, t := range f.Trees {
		c, err := t.Predict(x)
		if err != nil {
			return 0, err
		}
		if c < 0 || c >= numClasses {
			return 0, errors.New("tree voted for an unknown class")
		}
		votes[c]++
	}
	return argmax(votes), nil
}

func (f Forest) validate(numFeatures, numClasses int) error {
	if len(f.Trees) == 0 {
		return errors.New("empty forest")
	}
	for _, t := range f.Trees {
		if err := t.validate(numFeatures, numClasses); err != nil {
			return err
		}
	}
	return nil
}

// fitForest grows trees in parallel. Each tree's random stream is derived
// from seed up front so the result does not depend on scheduling.
func fitForest(X [][]float64, y []int, idx []int, numClasses int, params ForestParams, seed uint64) Forest {
	if params.NumTrees < 1 {
		params.NumTrees = 100
	}
	if params.Tree.MaxFeatures <= 0 && len(idx) > 0 {
		params.Tree.MaxFeatures = max(1, int(math.Sqrt(float64(len(X[idx[0]])))))
	}

	master := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	seeds := make([][2]uint64, params.NumTrees)
	for i := range seeds {
		seeds[i] = [2]uint64{master.Uint64(), master.Uint64()}
	}

	trees := make([]Tree, params.NumTrees)
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup

	for i := range trees {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			rng := rand.New(rand.NewPCG(seeds[i][0], seeds[i][1]))
			sample := idx
			if params.Bootstrap && len(idx) > 0 {
				sample = make([]int, len(idx))
				for k := range sample {
					sample[k] = idx[rng.IntN(len(idx))]
				}
			}
			trees[i] = fitTree(X, y, sample, numClasses, params.Tree, rng)
		}(i)
	}
	wg.Wait()

	return Forest{Trees: trees}
}
