package risk

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// TrainOptions controls a training run
type TrainOptions struct {
	Features       []string
	TestSize       float64
	Seed           uint64
	TreeMaxDepth   int
	ForestTrees    int
	ForestMaxDepth int // 0 = unbounded
}

// DefaultTrainOptions returns the standard training configuration
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Features:     DefaultFeatures,
		TestSize:     0.3,
		Seed:         42,
		TreeMaxDepth: 4,
		ForestTrees:  100,
	}
}

// TrainingResult summarizes a training run
type TrainingResult struct {
	Rows         int    `json:"rows"`
	TrainRows    int    `json:"train_rows"`
	TestRows     int    `json:"test_rows"`
	DecisionTree Report `json:"decision_tree"`
	RandomForest Report `json:"random_forest"`
}

// Fit trains both models on rows labelled by the rule and returns the bundle
// ready for installation or persistence
func Fit(rows []Member, opts TrainOptions) (*Bundle, *TrainingResult, error) {
	if len(opts.Features) == 0 {
		opts.Features = DefaultFeatures
	}
	if opts.TestSize <= 0 || opts.TestSize >= 1 {
		return nil, nil, ValidationErrors{{Field: "test_size", Message: "Test size must be between 0 and 1"}}
	}
	if len(rows) < 2 {
		return nil, nil, ValidationErrors{{Field: "rows", Message: fmt.Sprintf("Need at least 2 rows to train, got %d", len(rows))}}
	}

	enc, err := BuildEncoding(rows, opts.Features)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build feature encoding: %w", err)
	}

	X := make([][]float64, len(rows))
	y := make([]int, len(rows))
	for i, r := range rows {
		X[i] = enc.Encode(r).Values
		y[i] = classIndex(r.RuleTier())
	}

	nTest := int(math.Ceil(opts.TestSize * float64(len(rows))))
	nTrain := len(rows) - nTest
	if nTrain < 1 {
		return nil, nil, ValidationErrors{{Field: "rows", Message: "Not enough rows left for training after the test split"}}
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	perm := rng.Perm(len(rows))
	testIdx, trainIdx := perm[:nTest], perm[nTest:]

	tree := fitTree(X, y, trainIdx, len(Classes), TreeParams{MaxDepth: opts.TreeMaxDepth}, rand.New(rand.NewPCG(opts.Seed, 1)))
	forest := fitForest(X, y, trainIdx, len(Classes), ForestParams{
		NumTrees:  opts.ForestTrees,
		Bootstrap: true,
		Tree:      TreeParams{MaxDepth: opts.ForestMaxDepth},
	}, opts.Seed)

	truth := make([]int, nTest)
	treePred := make([]int, nTest)
	forestPred := make([]int, nTest)
	for k, i := range testIdx {
		truth[k] = y[i]
		if treePred[k], err = tree.Predict(X[i]); err != nil {
			return nil, nil, fmt.Errorf("decision tree evaluation: %w", err)
		}
		if forestPred[k], err = forest.Predict(X[i], len(Classes)); err != nil {
			return nil, nil, fmt.Errorf("random forest evaluation: %w", err)
		}
	}

	result := &TrainingResult{
		Rows:         len(rows),
		TrainRows:    nTrain,
		TestRows:     nTest,
		DecisionTree: Evaluate("decision_tree", truth, treePred),
		RandomForest: Evaluate("random_forest", truth, forestPred),
	}

	classes := make([]string, len(Classes))
	for i, c := range Classes {
		classes[i] = string(c)
	}

	bundle := &Bundle{
		SchemaVersion: BundleSchemaVersion,
		TrainedAt:     time.Now().UTC(),
		Encoding:      *enc,
		Classes:       classes,
		DecisionTree:  tree,
		RandomForest:  forest,
		Accuracy: map[string]float64{
			"decision_tree": result.DecisionTree.Accuracy,
			"random_forest": result.RandomForest.Accuracy,
		},
	}

	return bundle, result, nil
}
