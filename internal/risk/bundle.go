package risk

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
)

// BundleSchemaVersion is written into every saved bundle
const BundleSchemaVersion = "1.0.0"

// compatibleSchemas accepts bundles this code can read
var compatibleSchemas = mustConstraint(">= 1.0.0, < 2.0.0")

// ErrIncompatibleBundle is returned for bundles written by an incompatible schema
var ErrIncompatibleBundle = errors.New("incompatible model bundle schema")

// Bundle is the persisted trained-model state: both models, the feature
// encoding, the tier labels and the feature order
type Bundle struct {
	SchemaVersion string             `json:"schema_version"`
	TrainedAt     time.Time          `json:"trained_at"`
	Encoding      FeatureEncoding    `json:"encoding"`
	Classes       []string           `json:"classes"`
	DecisionTree  Tree               `json:"decision_tree"`
	RandomForest  Forest             `json:"random_forest"`
	Accuracy      map[string]float64 `json:"accuracy,omitempty"`
}

// Validate checks the bundle is complete and internally consistent
func (b *Bundle) Validate() error {
	v, err := semver.NewVersion(b.SchemaVersion)
	if err != nil {
		return fmt.Errorf("%w: invalid schema version %q", ErrIncompatibleBundle, b.SchemaVersion)
	}
	if !compatibleSchemas.Check(v) {
		return fmt.Errorf("%w: schema %s", ErrIncompatibleBundle, v)
	}

	if len(b.Encoding.Features) == 0 {
		return errors.New("bundle has no features")
	}
	if len(b.Classes) != len(Classes) {
		return fmt.Errorf("bundle has %d classes, want %d", len(b.Classes), len(Classes))
	}
	for i, c := range b.Classes {
		if Tier(c) != Classes[i] {
			return fmt.Errorf("bundle class %d is %q, want %q", i, c, Classes[i])
		}
	}
	for _, e := range b.Encoding.Encoders {
		if len(e.Classes) == 0 {
			return fmt.Errorf("encoder %q has an empty vocabulary", e.Field)
		}
	}

	numFeatures := len(b.Encoding.Features)
	if err := b.DecisionTree.validate(numFeatures, len(b.Classes)); err != nil {
		return fmt.Errorf("decision tree: %w", err)
	}
	if err := b.RandomForest.validate(numFeatures, len(b.Classes)); err != nil {
		return fmt.Errorf("random forest: %w", err)
	}
	return nil
}

// SaveBundle writes the bundle atomically: a temp file in the same directory
// renamed over the target
func SaveBundle(path string, b *Bundle) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal bundle: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create bundle directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".bundle-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write bundle: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close bundle: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to install bundle: %w", err)
	}
	return nil
}

// LoadBundle reads and validates a bundle. Any problem is an error; there is
// no partially loaded result.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle: %w", err)
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bundle: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bundle %s: %w", path, err)
	}
	return &b, nil
}

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}
