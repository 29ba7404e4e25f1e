// Package advisor turns a risk tier into a personalized investment
// recommendation drawn from a fixed catalogue.
package advisor

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/riskwise/internal/risk"
)

//go:embed catalogue.yaml
var defaultCatalogue []byte

// Product is one line of a recommended allocation
type Product struct {
	Name        string `yaml:"name" json:"name"`
	Allocation  int    `yaml:"allocation" json:"allocation"`
	Description string `yaml:"description" json:"description"`
}

// Recommendation is one catalogue entry
type Recommendation struct {
	Tier        risk.Tier `yaml:"-" json:"tier,omitempty"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Products    []Product `yaml:"products" json:"products"`
	Warning     string    `yaml:"warning" json:"warning"`
}

// Available reports whether r is a real entry rather than the no-advice sentinel
func (r Recommendation) Available() bool {
	return r.Tier != ""
}

// TotalAllocation sums the product allocations
func (r Recommendation) TotalAllocation() int {
	total := 0
	for _, p := range r.Products {
		total += p.Allocation
	}
	return total
}

// clone copies r so callers can append to the warning without touching the catalogue
func (r Recommendation) clone() Recommendation {
	r.Products = slices.Clone(r.Products)
	return r
}

// Catalogue is the immutable tier → recommendation reference data
type Catalogue struct {
	entries     map[risk.Tier]Recommendation
	aliases     map[string]risk.Tier
	unavailable Recommendation
}

type catalogueFile struct {
	Aliases     map[string]string         `yaml:"aliases"`
	Entries     map[string]Recommendation `yaml:"entries"`
	Unavailable Recommendation            `yaml:"unavailable"`
}

// DefaultCatalogue parses the embedded catalogue
func DefaultCatalogue() (*Catalogue, error) {
	return ParseCatalogue(defaultCatalogue)
}

// ParseCatalogue parses and validates YAML catalogue data. Every tier must be
// present and its allocations must sum to exactly 100.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var f catalogueFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue: %w", err)
	}

	c := &Catalogue{
		entries:     make(map[risk.Tier]Recommendation, len(f.Entries)),
		aliases:     make(map[string]risk.Tier, len(f.Aliases)),
		unavailable: f.Unavailable,
	}

	for key, rec := range f.Entries {
		tier, ok := risk.ParseTier(key)
		if !ok {
			return nil, fmt.Errorf("catalogue entry %q is not a risk tier", key)
		}
		if len(rec.Products) == 0 {
			return nil, fmt.Errorf("catalogue entry %s has no products", tier)
		}
		if total := rec.TotalAllocation(); total != 100 {
			return nil, fmt.Errorf("catalogue entry %s allocations sum to %d, want 100", tier, total)
		}
		for _, p := range rec.Products {
			if p.Allocation <= 0 {
				return nil, fmt.Errorf("catalogue entry %s product %q has allocation %d", tier, p.Name, p.Allocation)
			}
		}
		rec.Tier = tier
		c.entries[tier] = rec
	}

	for _, tier := range risk.DisplayOrder {
		if _, ok := c.entries[tier]; !ok {
			return nil, fmt.Errorf("catalogue has no entry for %s", tier)
		}
	}

	for alias, target := range f.Aliases {
		tier, ok := risk.ParseTier(target)
		if !ok {
			return nil, fmt.Errorf("catalogue alias %q points at unknown tier %q", alias, target)
		}
		c.aliases[strings.ToLower(strings.TrimSpace(alias))] = tier
	}

	if c.unavailable.Name == "" {
		return nil, errors.New("catalogue has no unavailable entry")
	}
	c.unavailable.Tier = ""

	return c, nil
}

// ResolveTier maps a canonical name or a locale alias onto a tier
func (c *Catalogue) ResolveTier(label string) (risk.Tier, bool) {
	if tier, ok := risk.ParseTier(label); ok {
		return tier, true
	}
	tier, ok := c.aliases[strings.ToLower(strings.TrimSpace(label))]
	return tier, ok
}

// Lookup returns the entry for a tier label. Unrecognized labels return the
// no-advice sentinel.
func (c *Catalogue) Lookup(label string) Recommendation {
	tier, ok := c.ResolveTier(label)
	if !ok {
		return c.unavailable.clone()
	}
	return c.entries[tier].clone()
}

// Entries returns the three entries in display order
func (c *Catalogue) Entries() []Recommendation {
	out := make([]Recommendation, 0, len(risk.DisplayOrder))
	for _, tier := range risk.DisplayOrder {
		out = append(out, c.entries[tier].clone())
	}
	return out
}
