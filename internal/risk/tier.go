// Package risk classifies members into risk tiers with a deterministic rule
// and two trainable tree models that fall back to the rule.
package risk

import "strings"

// Tier is a categorical risk label. Tiers are not ordered.
type Tier string

const (
	TierLow    Tier = "Low"
	TierMedium Tier = "Medium"
	TierHigh   Tier = "High"
)

// Classes is the tier label encoding used by trained models: labels sorted
// lexicographically, index = class code
var Classes = []Tier{TierHigh, TierLow, TierMedium}

// DisplayOrder is the conventional presentation order
var DisplayOrder = []Tier{TierHigh, TierMedium, TierLow}

// ParseTier accepts a canonical tier name in any case
func ParseTier(s string) (Tier, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return TierLow, true
	case "medium":
		return TierMedium, true
	case "high":
		return TierHigh, true
	}
	return "", false
}

// Valid reports whether t is one of the three tiers
func (t Tier) Valid() bool {
	return t == TierLow || t == TierMedium || t == TierHigh
}

func classIndex(t Tier) int {
	for i, c := range Classes {
		if c == t {
			return i
		}
	}
	return -1
}
