package risk

import "github.com/shopspring/decimal"

var ruleMediumCeiling = decimal.NewFromInt(1000)

// RuleTier applies the deterministic tier rule. The High condition is
// evaluated first and wins over the balance bands.
func RuleTier(balance decimal.Decimal, hasHousingLoan, hasPersonalLoan bool) Tier {
	switch {
	case balance.IsNegative() || (hasHousingLoan && hasPersonalLoan):
		return TierHigh
	case balance.LessThan(ruleMediumCeiling):
		return TierMedium
	default:
		return TierLow
	}
}

// RuleTier applies the deterministic tier rule to the member
func (m Member) RuleTier() Tier {
	return RuleTier(m.Balance, m.HasHousingLoan, m.HasPersonalLoan)
}
