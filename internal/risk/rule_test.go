package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRuleTier(t *testing.T) {
	tests := []struct {
		name     string
		balance  int64
		housing  bool
		personal bool
		want     Tier
	}{
		{"negative balance", -1, false, false, TierHigh},
		{"negative balance with loans", -5000, true, true, TierHigh},
		{"zero balance", 0, false, false, TierMedium},
		{"just under threshold", 999, false, false, TierMedium},
		{"under threshold with housing only", 500, true, false, TierMedium},
		{"under threshold with both loans", 500, true, true, TierHigh},
		{"at threshold", 1000, false, false, TierLow},
		{"wealthy with personal loan", 250000, false, true, TierLow},
		{"wealthy with both loans", 250000, true, true, TierHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RuleTier(decimal.NewFromInt(tt.balance), tt.housing, tt.personal))
		})
	}
}

func TestRuleTier_FractionalBoundary(t *testing.T) {
	assert.Equal(t, TierHigh, RuleTier(decimal.RequireFromString("-0.01"), false, false))
	assert.Equal(t, TierMedium, RuleTier(decimal.RequireFromString("999.99"), false, false))
}

func TestRuleTier_Properties(t *testing.T) {
	flags := []bool{false, true}
	for b := int64(-3000); b <= 3000; b += 250 {
		for _, housing := range flags {
			for _, personal := range flags {
				got := RuleTier(decimal.NewFromInt(b), housing, personal)
				switch {
				case b < 0:
					assert.Equal(t, TierHigh, got, "balance %d", b)
				case housing && personal:
					assert.Equal(t, TierHigh, got, "balance %d with both loans", b)
				case b < 1000:
					assert.Equal(t, TierMedium, got, "balance %d", b)
				default:
					assert.Equal(t, TierLow, got, "balance %d", b)
				}
			}
		}
	}
}

func TestMember_RuleTierScenarios(t *testing.T) {
	young := Member{Age: 25, Balance: decimal.NewFromInt(-100), HasHousingLoan: true, HasPersonalLoan: true}
	assert.Equal(t, TierHigh, young.RuleTier())

	middle := Member{Age: 45, Balance: decimal.NewFromInt(500)}
	assert.Equal(t, TierMedium, middle.RuleTier())
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in   string
		want Tier
		ok   bool
	}{
		{"High", TierHigh, true},
		{"  medium ", TierMedium, true},
		{"LOW", TierLow, true},
		{"高风险", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseTier(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestMember_Validate(t *testing.T) {
	assert.NoError(t, Member{Age: 40}.Validate())

	err := Member{Age: -1}.Validate()
	var verrs ValidationErrors
	assert.ErrorAs(t, err, &verrs)
	assert.Equal(t, "age", verrs[0].Field)
}
