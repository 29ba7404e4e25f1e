package risk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ajitpratap0/riskwise/internal/fallback"
	"github.com/ajitpratap0/riskwise/internal/metrics"
)

// State is the classifier's model state
type State string

const (
	StateUntrained State = "untrained"
	StateTrained   State = "trained"
)

// Sources of a classification
const (
	SourceRule  = "rule"
	SourceModel = "model"
)

// ErrUntrained is returned when an operation needs a trained model
var ErrUntrained = errors.New("classifier has no trained model")

// Assessment is one classification of one member. With no trained model
// DecisionTree and RandomForest equal RuleBased.
type Assessment struct {
	RuleBased       Tier     `json:"rule_based"`
	DecisionTree    Tier     `json:"decision_tree"`
	RandomForest    Tier     `json:"random_forest"`
	Source          string   `json:"source"`
	Degraded        bool     `json:"degraded,omitempty"`
	MissingFeatures []string `json:"missing_features,omitempty"`
	UnseenFeatures  []string `json:"unseen_features,omitempty"`
}

// ModelInfo describes the installed model
type ModelInfo struct {
	State         State              `json:"state"`
	SchemaVersion string             `json:"schema_version,omitempty"`
	TrainedAt     *time.Time         `json:"trained_at,omitempty"`
	Features      []string           `json:"features,omitempty"`
	Classes       []string           `json:"classes,omitempty"`
	TreeDepth     int                `json:"tree_depth,omitempty"`
	ForestTrees   int                `json:"forest_trees,omitempty"`
	Accuracy      map[string]float64 `json:"accuracy,omitempty"`
}

// Classifier combines the rule with the two trained models. It is safe for
// concurrent use; training and loading swap the installed bundle atomically.
type Classifier struct {
	mu     sync.RWMutex
	bundle *Bundle
	log    zerolog.Logger
}

// NewClassifier creates an untrained classifier
func NewClassifier(log zerolog.Logger) *Classifier {
	return &Classifier{log: log.With().Str("component", "risk_classifier").Logger()}
}

// State reports whether a trained model is installed
func (c *Classifier) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.bundle == nil {
		return StateUntrained
	}
	return StateTrained
}

// Info describes the installed model
func (c *Classifier) Info() ModelInfo {
	c.mu.RLock()
	b := c.bundle
	c.mu.RUnlock()

	if b == nil {
		return ModelInfo{State: StateUntrained}
	}
	trainedAt := b.TrainedAt
	return ModelInfo{
		State:         StateTrained,
		SchemaVersion: b.SchemaVersion,
		TrainedAt:     &trainedAt,
		Features:      b.Encoding.Features,
		Classes:       b.Classes,
		TreeDepth:     b.DecisionTree.Depth(),
		ForestTrees:   len(b.RandomForest.Trees),
		Accuracy:      b.Accuracy,
	}
}

// Install validates and installs a bundle
func (c *Classifier) Install(b *Bundle) error {
	if b == nil {
		return errors.New("nil bundle")
	}
	if err := b.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.bundle = b
	c.mu.Unlock()

	metrics.SetModelTrained(true)
	for model, acc := range b.Accuracy {
		metrics.SetModelAccuracy(model, acc)
	}
	return nil
}

// Reset drops any installed model
func (c *Classifier) Reset() {
	c.mu.Lock()
	c.bundle = nil
	c.mu.Unlock()
	metrics.SetModelTrained(false)
}

// Train fits both models on rows and installs them
func (c *Classifier) Train(ctx context.Context, rows []Member, opts TrainOptions) (*TrainingResult, error) {
	start := time.Now()
	bundle, result, err := Fit(rows, opts)
	if err != nil {
		return nil, err
	}
	if err := c.Install(bundle); err != nil {
		return nil, fmt.Errorf("failed to install trained bundle: %w", err)
	}

	c.log.Info().
		Int("rows", result.Rows).
		Int("train_rows", result.TrainRows).
		Int("test_rows", result.TestRows).
		Float64("decision_tree_accuracy", result.DecisionTree.Accuracy).
		Float64("random_forest_accuracy", result.RandomForest.Accuracy).
		Dur("duration", time.Since(start)).
		Msg("Risk models trained")

	return result, nil
}

// Save persists the installed bundle
func (c *Classifier) Save(path string) error {
	c.mu.RLock()
	b := c.bundle
	c.mu.RUnlock()

	if b == nil {
		return ErrUntrained
	}
	return SaveBundle(path, b)
}

// Load reads a bundle from path. On any failure the classifier reverts to
// the untrained state.
func (c *Classifier) Load(path string) error {
	b, err := LoadBundle(path)
	if err == nil {
		err = c.Install(b)
	}
	if err != nil {
		c.Reset()
		c.log.Warn().Err(err).Str("path", path).Msg("No usable model bundle, classifying with the rule only")
		return err
	}

	c.log.Info().
		Str("path", path).
		Str("schema_version", b.SchemaVersion).
		Time("trained_at", b.TrainedAt).
		Msg("Model bundle loaded")
	return nil
}

// Classify assesses one member. It always succeeds: any model failure
// substitutes the rule tier for that model's slot.
func (c *Classifier) Classify(ctx context.Context, m Member) Assessment {
	rule := m.RuleTier()
	metrics.RecordClassification(SourceRule, string(rule))

	c.mu.RLock()
	b := c.bundle
	c.mu.RUnlock()

	a := Assessment{RuleBased: rule, DecisionTree: rule, RandomForest: rule, Source: SourceRule}
	if b == nil {
		return a
	}
	a.Source = SourceModel

	vec := fallback.Attempt(ctx, fallback.KindModelUnavailable, "risk.classify.encode", func(context.Context) (Vector, error) {
		return b.Encoding.Encode(m), nil
	})
	if !vec.OK {
		a.Source = SourceRule
		return a
	}

	if vec.Val.Degraded() {
		a.Degraded = true
		a.MissingFeatures = vec.Val.Missing
		metrics.RecordDegradedInference()
		fallback.Note(ctx, fallback.KindSchemaDrift, "risk.classify.encode",
			fmt.Errorf("zero-filled features: %s", strings.Join(vec.Val.Missing, ",")))
	}
	a.UnseenFeatures = vec.Val.Unseen

	x := vec.Val.Values
	a.DecisionTree = fallback.Attempt(ctx, fallback.KindModelUnavailable, "risk.classify.decision_tree", func(context.Context) (Tier, error) {
		code, err := b.DecisionTree.Predict(x)
		if err != nil {
			return "", err
		}
		return Classes[code], nil
	}).Or(rule)

	a.RandomForest = fallback.Attempt(ctx, fallback.KindModelUnavailable, "risk.classify.random_forest", func(context.Context) (Tier, error) {
		code, err := b.RandomForest.Predict(x, len(Classes))
		if err != nil {
			return "", err
		}
		return Classes[code], nil
	}).Or(rule)

	metrics.RecordClassification("decision_tree", string(a.DecisionTree))
	metrics.RecordClassification("random_forest", string(a.RandomForest))

	return a
}
