package risk

import (
	"fmt"
	"slices"
	"sort"
)

// Feature names in training order
const (
	FeatureAge       = "age"
	FeatureJob       = "job"
	FeatureMarital   = "marital"
	FeatureEducation = "education"
	FeatureBalance   = "balance"
	FeatureHousing   = "housing"
	FeatureLoan      = "loan"
)

// DefaultFeatures is the feature list used for training
var DefaultFeatures = []string{
	FeatureAge, FeatureJob, FeatureMarital, FeatureEducation,
	FeatureBalance, FeatureHousing, FeatureLoan,
}

var categoricalFeatures = map[string]bool{
	FeatureJob:       true,
	FeatureMarital:   true,
	FeatureEducation: true,
}

// CategoryEncoder maps one categorical field's vocabulary to dense codes.
// Classes is sorted; the code of a value is its index.
type CategoryEncoder struct {
	Field   string   `json:"field"`
	Classes []string `json:"classes"`
}

// Encode returns the code for v. Unseen values map to code 0.
func (e CategoryEncoder) Encode(v string) (code int, seen bool) {
	i, found := slices.BinarySearch(e.Classes, v)
	if !found {
		return 0, false
	}
	return i, true
}

// FeatureEncoding is the frozen feature schema of a trained model
type FeatureEncoding struct {
	Features []string          `json:"features"`
	Encoders []CategoryEncoder `json:"encoders"`
}

// BuildEncoding computes the categorical vocabularies over the full training
// set before any model is fitted, so codes do not depend on row order
func BuildEncoding(rows []Member, features []string) (*FeatureEncoding, error) {
	if len(features) == 0 {
		features = DefaultFeatures
	}
	enc := &FeatureEncoding{Features: slices.Clone(features)}

	for _, f := range features {
		if _, ok := numericValue(Member{}, f); ok {
			continue
		}
		if !categoricalFeatures[f] {
			return nil, fmt.Errorf("unknown feature %q", f)
		}

		vocab := map[string]struct{}{}
		for _, r := range rows {
			vocab[categoryValue(r.Normalized(), f)] = struct{}{}
		}
		classes := make([]string, 0, len(vocab))
		for v := range vocab {
			classes = append(classes, v)
		}
		sort.Strings(classes)
		enc.Encoders = append(enc.Encoders, CategoryEncoder{Field: f, Classes: classes})
	}

	return enc, nil
}

// Encoder returns the encoder for a categorical field
func (fe *FeatureEncoding) Encoder(field string) (CategoryEncoder, bool) {
	for _, e := range fe.Encoders {
		if e.Field == field {
			return e, true
		}
	}
	return CategoryEncoder{}, false
}

// Vector is an encoded feature row plus the features that had to be zero-filled
type Vector struct {
	Values  []float64
	Missing []string
	Unseen  []string
}

// Degraded reports whether any feature was zero-filled
func (v Vector) Degraded() bool {
	return len(v.Missing) > 0
}

// Encode builds the feature vector for m in schema order. Features the
// member cannot supply (or categorical features with no encoder) are
// zero-filled and reported as missing.
func (fe *FeatureEncoding) Encode(m Member) Vector {
	m = m.Normalized()
	vec := Vector{Values: make([]float64, len(fe.Features))}

	for i, f := range fe.Features {
		if x, ok := numericValue(m, f); ok {
			vec.Values[i] = x
			continue
		}
		if !categoricalFeatures[f] {
			vec.Missing = append(vec.Missing, f)
			continue
		}
		enc, ok := fe.Encoder(f)
		if !ok {
			vec.Missing = append(vec.Missing, f)
			continue
		}
		code, seen := enc.Encode(categoryValue(m, f))
		if !seen {
			vec.Unseen = append(vec.Unseen, f)
		}
		vec.Values[i] = float64(code)
	}

	return vec
}

func numericValue(m Member, feature string) (float64, bool) {
	switch feature {
	case FeatureAge:
		return float64(m.Age), true
	case FeatureBalance:
		return m.Balance.InexactFloat64(), true
	case FeatureHousing:
		return boolValue(m.HasHousingLoan), true
	case FeatureLoan:
		return boolValue(m.HasPersonalLoan), true
	}
	return 0, false
}

func categoryValue(m Member, feature string) string {
	switch feature {
	case FeatureJob:
		return m.Job
	case FeatureMarital:
		return m.Marital
	case FeatureEducation:
		return m.Education
	}
	return UnknownCategory
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
