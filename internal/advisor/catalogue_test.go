package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/riskwise/internal/risk"
)

func mustCatalogue(t *testing.T) *Catalogue {
	t.Helper()
	c, err := DefaultCatalogue()
	require.NoError(t, err)
	return c
}

func TestDefaultCatalogue_AllocationsSumTo100(t *testing.T) {
	c := mustCatalogue(t)
	entries := c.Entries()
	require.Len(t, entries, 3)

	for i, tier := range risk.DisplayOrder {
		assert.Equal(t, tier, entries[i].Tier)
		assert.Equal(t, 100, entries[i].TotalAllocation(), tier)
		assert.Len(t, entries[i].Products, 5)
		assert.NotEmpty(t, entries[i].Warning)
	}
}

func TestCatalogue_Lookup(t *testing.T) {
	c := mustCatalogue(t)

	tests := []struct {
		label string
		want  risk.Tier
	}{
		{"High", risk.TierHigh},
		{"medium", risk.TierMedium},
		{"高风险", risk.TierHigh},
		{"中", risk.TierMedium},
		{"低风险", risk.TierLow},
		{"Yüksek Risk", risk.TierHigh},
		{"Orta Risk", risk.TierMedium},
		{"Düşük Risk", risk.TierLow},
	}
	for _, tt := range tests {
		rec := c.Lookup(tt.label)
		assert.True(t, rec.Available(), tt.label)
		assert.Equal(t, tt.want, rec.Tier, tt.label)
	}
}

func TestCatalogue_LookupUnknownReturnsSentinel(t *testing.T) {
	c := mustCatalogue(t)
	for _, label := range []string{"", "extreme", "very high"} {
		rec := c.Lookup(label)
		assert.False(t, rec.Available(), label)
		assert.Equal(t, "No recommendation available", rec.Name)
		assert.Empty(t, rec.Products)
	}
}

func TestCatalogue_LookupReturnsCopy(t *testing.T) {
	c := mustCatalogue(t)
	rec := c.Lookup("High")
	rec.Products[0].Allocation = 99
	rec.Warning = "changed"

	again := c.Lookup("High")
	assert.Equal(t, 30, again.Products[0].Allocation)
	assert.NotEqual(t, "changed", again.Warning)
}

func TestParseCatalogue_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "entries: ["},
		{"bad sum", `
entries:
  High: {name: h, products: [{name: a, allocation: 60}]}
  Medium: {name: m, products: [{name: a, allocation: 100}]}
  Low: {name: l, products: [{name: a, allocation: 100}]}
unavailable: {name: none}
`},
		{"missing tier", `
entries:
  High: {name: h, products: [{name: a, allocation: 100}]}
  Medium: {name: m, products: [{name: a, allocation: 100}]}
unavailable: {name: none}
`},
		{"unknown tier key", `
entries:
  Extreme: {name: x, products: [{name: a, allocation: 100}]}
unavailable: {name: none}
`},
		{"bad alias", `
aliases: {huge: Extreme}
entries:
  High: {name: h, products: [{name: a, allocation: 100}]}
  Medium: {name: m, products: [{name: a, allocation: 100}]}
  Low: {name: l, products: [{name: a, allocation: 100}]}
unavailable: {name: none}
`},
		{"no sentinel", `
entries:
  High: {name: h, products: [{name: a, allocation: 100}]}
  Medium: {name: m, products: [{name: a, allocation: 100}]}
  Low: {name: l, products: [{name: a, allocation: 100}]}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalogue([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
