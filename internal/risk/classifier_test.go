package risk

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/riskwise/internal/metrics"
)

func newTestClassifier() *Classifier {
	return NewClassifier(zerolog.Nop())
}

func TestClassifier_UntrainedUsesRuleEverywhere(t *testing.T) {
	c := newTestClassifier()
	assert.Equal(t, StateUntrained, c.State())

	for _, m := range syntheticMembers(50, 9) {
		a := c.Classify(context.Background(), m)
		assert.Equal(t, m.RuleTier(), a.RuleBased)
		assert.Equal(t, a.RuleBased, a.DecisionTree)
		assert.Equal(t, a.RuleBased, a.RandomForest)
		assert.Equal(t, SourceRule, a.Source)
		assert.False(t, a.Degraded)
	}

	assert.Equal(t, ModelInfo{State: StateUntrained}, c.Info())
	assert.ErrorIs(t, c.Save(filepath.Join(t.TempDir(), "b.json")), ErrUntrained)
}

func TestClassifier_TrainAndClassify(t *testing.T) {
	c := newTestClassifier()
	result, err := c.Train(context.Background(), syntheticMembers(400, 21), fastOptions())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, StateTrained, c.State())

	m := Member{Age: 25, Balance: decimal.NewFromInt(-100), HasHousingLoan: true, HasPersonalLoan: true, Job: "student"}
	a := c.Classify(context.Background(), m)
	assert.Equal(t, TierHigh, a.RuleBased)
	assert.Equal(t, SourceModel, a.Source)
	assert.True(t, a.DecisionTree.Valid())
	assert.True(t, a.RandomForest.Valid())

	info := c.Info()
	assert.Equal(t, StateTrained, info.State)
	assert.Equal(t, DefaultFeatures, info.Features)
	assert.Equal(t, 25, info.ForestTrees)
	assert.LessOrEqual(t, info.TreeDepth, 4)
	require.NotNil(t, info.TrainedAt)
}

func TestClassifier_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.json")

	trained := newTestClassifier()
	_, err := trained.Train(context.Background(), syntheticMembers(300, 4), fastOptions())
	require.NoError(t, err)
	require.NoError(t, trained.Save(path))

	loaded := newTestClassifier()
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, StateTrained, loaded.State())

	for _, m := range syntheticMembers(30, 8) {
		assert.Equal(t, trained.Classify(context.Background(), m), loaded.Classify(context.Background(), m))
	}
}

func TestClassifier_LoadFailureRevertsToUntrained(t *testing.T) {
	c := newTestClassifier()
	_, err := c.Train(context.Background(), syntheticMembers(200, 2), fastOptions())
	require.NoError(t, err)
	require.Equal(t, StateTrained, c.State())

	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	assert.Error(t, c.Load(path))
	assert.Equal(t, StateUntrained, c.State())

	m := Member{Age: 45, Balance: decimal.NewFromInt(500)}
	a := c.Classify(context.Background(), m)
	assert.Equal(t, TierMedium, a.RuleBased)
	assert.Equal(t, TierMedium, a.DecisionTree)
	assert.Equal(t, TierMedium, a.RandomForest)
}

func TestClassifier_ModelFailureFallsBackToRule(t *testing.T) {
	c := newTestClassifier()
	b := trainedBundle(t)
	// Bypass Install validation to simulate a model that breaks at inference
	b.DecisionTree = Tree{Nodes: []Node{{Feature: 99, Left: 1, Right: 2}, {Feature: -1}, {Feature: -1}}}
	b.RandomForest = Forest{Trees: []Tree{{}}}
	c.bundle = b

	m := Member{Age: 70, Balance: decimal.NewFromInt(50000)}
	a := c.Classify(context.Background(), m)
	assert.Equal(t, TierLow, a.RuleBased)
	assert.Equal(t, TierLow, a.DecisionTree)
	assert.Equal(t, TierLow, a.RandomForest)
}

func TestClassifier_PanicInInferenceFallsBackToRule(t *testing.T) {
	c := newTestClassifier()
	b := trainedBundle(t)
	// A leaf voting for a class code with no label
	b.DecisionTree = Tree{Nodes: []Node{{Feature: -1, Class: 7}}}
	c.bundle = b

	m := Member{Age: 33, Balance: decimal.NewFromInt(-20)}
	var a Assessment
	require.NotPanics(t, func() { a = c.Classify(context.Background(), m) })
	assert.Equal(t, TierHigh, a.DecisionTree)
}

func TestClassifier_SchemaDriftIsFlagged(t *testing.T) {
	c := newTestClassifier()
	b := trainedBundle(t)
	// A bundle trained with a column this build cannot supply
	b.Encoding.Features = append(b.Encoding.Features[:len(b.Encoding.Features):len(b.Encoding.Features)], "duration")
	c.bundle = b

	a := c.Classify(context.Background(), Member{Age: 40, Balance: decimal.NewFromInt(2000)})
	assert.True(t, a.Degraded)
	assert.Equal(t, []string{"duration"}, a.MissingFeatures)
	assert.Equal(t, SourceModel, a.Source)
	assert.True(t, a.DecisionTree.Valid())
}

func TestClassifier_InstallRejectsInvalidBundle(t *testing.T) {
	c := newTestClassifier()
	assert.Error(t, c.Install(nil))
	assert.Error(t, c.Install(&Bundle{SchemaVersion: BundleSchemaVersion}))
	assert.Equal(t, StateUntrained, c.State())
}

func TestClassifier_TrainedGaugeFollowsInstallAndReset(t *testing.T) {
	trained := newTestClassifier()
	_, err := trained.Train(context.Background(), syntheticMembers(300, 5), fastOptions())
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ModelTrained))

	// a second, untrained classifier leaves the gauge alone
	other := newTestClassifier()
	assert.Equal(t, StateUntrained, other.State())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ModelTrained))

	trained.Reset()
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.ModelTrained))
}
