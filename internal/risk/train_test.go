package risk

import (
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// syntheticMembers draws rows covering all three tiers
func syntheticMembers(n int, seed uint64) []Member {
	rng := rand.New(rand.NewPCG(seed, seed))
	jobs := []string{"admin.", "blue-collar", "management", "retired", "student", "technician"}
	marital := []string{"divorced", "married", "single"}
	education := []string{"primary", "secondary", "tertiary", "unknown"}

	rows := make([]Member, n)
	for i := range rows {
		rows[i] = Member{
			Age:             18 + rng.IntN(70),
			Balance:         decimal.NewFromInt(int64(rng.IntN(6000) - 1500)),
			HasHousingLoan:  rng.IntN(2) == 1,
			HasPersonalLoan: rng.IntN(4) == 0,
			Job:             jobs[rng.IntN(len(jobs))],
			Marital:         marital[rng.IntN(len(marital))],
			Education:       education[rng.IntN(len(education))],
		}
	}
	return rows
}

func fastOptions() TrainOptions {
	opts := DefaultTrainOptions()
	opts.ForestTrees = 25
	return opts
}

func TestFit(t *testing.T) {
	rows := syntheticMembers(600, 7)

	bundle, result, err := Fit(rows, fastOptions())
	require.NoError(t, err)
	require.NoError(t, bundle.Validate())

	assert.Equal(t, 600, result.Rows)
	assert.Equal(t, 180, result.TestRows)
	assert.Equal(t, 420, result.TrainRows)

	assert.LessOrEqual(t, bundle.DecisionTree.Depth(), 4)
	assert.Len(t, bundle.RandomForest.Trees, 25)
	assert.Equal(t, []string{"High", "Low", "Medium"}, bundle.Classes)
	assert.Equal(t, BundleSchemaVersion, bundle.SchemaVersion)

	assert.Greater(t, result.DecisionTree.Accuracy, 0.85)
	assert.Greater(t, result.RandomForest.Accuracy, 0.85)
	assert.InDelta(t, result.DecisionTree.Accuracy, bundle.Accuracy["decision_tree"], 1e-9)
	assert.Len(t, result.DecisionTree.PerClass, 3)
}

func TestFit_Reproducible(t *testing.T) {
	defer goleak.VerifyNone(t)
	rows := syntheticMembers(300, 11)

	a, ra, err := Fit(rows, fastOptions())
	require.NoError(t, err)
	b, rb, err := Fit(rows, fastOptions())
	require.NoError(t, err)

	assert.Equal(t, a.DecisionTree, b.DecisionTree)
	assert.Equal(t, a.RandomForest, b.RandomForest)
	assert.Equal(t, ra, rb)
}

func TestFit_TestSizeRoundsUp(t *testing.T) {
	_, result, err := Fit(syntheticMembers(11, 3), fastOptions())
	require.NoError(t, err)
	assert.Equal(t, 4, result.TestRows)
	assert.Equal(t, 7, result.TrainRows)
}

func TestFit_InvalidInput(t *testing.T) {
	_, _, err := Fit([]Member{{Age: 30}}, DefaultTrainOptions())
	var verrs ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	opts := DefaultTrainOptions()
	opts.TestSize = 1.5
	_, _, err = Fit(syntheticMembers(10, 1), opts)
	assert.ErrorAs(t, err, &verrs)

	opts = DefaultTrainOptions()
	opts.Features = []string{FeatureAge, "duration"}
	_, _, err = Fit(syntheticMembers(10, 1), opts)
	assert.Error(t, err)
}

func TestTree_DepthLimitAndPurity(t *testing.T) {
	// One feature, perfectly separable at 5
	X := [][]float64{{1}, {2}, {3}, {4}, {6}, {7}, {8}, {9}}
	y := []int{0, 0, 0, 0, 2, 2, 2, 2}
	idx := []int{0, 1, 2, 3, 4, 5, 6, 7}

	tree := fitTree(X, y, idx, 3, TreeParams{MaxDepth: 4}, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, tree.validate(1, 3))
	assert.Equal(t, 1, tree.Depth())
	assert.InDelta(t, 5.0, tree.Nodes[0].Threshold, 1e-9)

	for i, x := range X {
		got, err := tree.Predict(x)
		require.NoError(t, err)
		assert.Equal(t, y[i], got)
	}

	stump := fitTree(X, y, idx, 3, TreeParams{MaxDepth: 0}, rand.New(rand.NewPCG(1, 1)))
	assert.Equal(t, 1, stump.Depth())
}

func TestTree_PredictRejectsCorruptTree(t *testing.T) {
	_, err := Tree{}.Predict([]float64{1})
	assert.Error(t, err)

	bad := Tree{Nodes: []Node{{Feature: 3, Left: 1, Right: 2}, {Feature: -1}, {Feature: -1}}}
	_, err = bad.Predict([]float64{1})
	assert.Error(t, err)

	loop := Tree{Nodes: []Node{{Feature: 0, Threshold: 10, Left: 5, Right: 5}}}
	_, err = loop.Predict([]float64{1})
	assert.Error(t, err)
}

func TestForest_MajorityVoteTieGoesToLowestClass(t *testing.T) {
	leaf := func(c int) Tree { return Tree{Nodes: []Node{{Feature: -1, Class: c}}} }

	f := Forest{Trees: []Tree{leaf(2), leaf(1), leaf(2), leaf(1)}}
	got, err := f.Predict([]float64{0}, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	f = Forest{Trees: []Tree{leaf(2), leaf(2), leaf(0)}}
	got, err = f.Predict([]float64{0}, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	_, err = Forest{}.Predict([]float64{0}, 3)
	assert.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	// codes: 0 High, 1 Low, 2 Medium
	truth := []int{0, 0, 1, 1, 2, 2}
	pred := []int{0, 1, 1, 1, 2, 0}

	r := Evaluate("m", truth, pred)
	assert.InDelta(t, 4.0/6.0, r.Accuracy, 1e-9)
	require.Len(t, r.PerClass, 3)

	high := r.PerClass[0]
	assert.Equal(t, TierHigh, high.Class)
	assert.InDelta(t, 0.5, high.Precision, 1e-9)
	assert.InDelta(t, 0.5, high.Recall, 1e-9)
	assert.Equal(t, 2, high.Support)

	low := r.PerClass[1]
	assert.InDelta(t, 2.0/3.0, low.Precision, 1e-9)
	assert.InDelta(t, 1.0, low.Recall, 1e-9)

	assert.Contains(t, r.String(), "accuracy")
}
