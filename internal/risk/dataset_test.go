package risk

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bankSample = `"age";"job";"marital";"education";"default";"balance";"housing";"loan";"contact";"day"
30;"unemployed";"married";"primary";"no";1787;"no";"no";"cellular";19
33;"services";"married";"secondary";"no";4789;"yes";"yes";"cellular";11
35;"management";"single";"tertiary";"no";-47;"yes";"no";"cellular";16
59;"blue-collar";"married";"unknown";"no";0;"yes";"no";"unknown";5
`

func TestReadDataset_BankFormat(t *testing.T) {
	rows, err := ReadDataset(strings.NewReader(bankSample), ';')
	require.NoError(t, err)
	require.Len(t, rows, 4)

	first := rows[0]
	assert.Equal(t, 30, first.Age)
	assert.True(t, decimal.NewFromInt(1787).Equal(first.Balance))
	assert.Equal(t, "unemployed", first.Job)
	assert.Equal(t, "married", first.Marital)
	assert.Equal(t, "primary", first.Education)
	assert.False(t, first.HasAnyLoan())

	assert.Equal(t, TierLow, rows[0].RuleTier())
	assert.Equal(t, TierHigh, rows[1].RuleTier())
	assert.Equal(t, TierHigh, rows[2].RuleTier())
	assert.Equal(t, TierMedium, rows[3].RuleTier())
}

func TestReadDataset_CommaAndBooleanSpellings(t *testing.T) {
	data := "Age,Balance,Housing,Loan,Job,Marital,Education\n41,1200.50,true,0,,single,secondary\n"
	rows, err := ReadDataset(strings.NewReader(data), ',')
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.True(t, rows[0].HasHousingLoan)
	assert.False(t, rows[0].HasPersonalLoan)
	assert.Equal(t, UnknownCategory, rows[0].Job)
	assert.True(t, decimal.RequireFromString("1200.5").Equal(rows[0].Balance))
}

func TestReadDataset_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		fields []string
	}{
		{"empty", "", []string{"header"}},
		{"missing columns", "age,job,balance\n30,admin.,10\n", []string{"header", "header", "header", "header"}},
		{
			"bad values",
			"age,job,marital,education,balance,housing,loan\nabc,admin.,single,primary,12x,maybe,no\n",
			[]string{"line 2: age", "line 2: balance", "line 2: housing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDataset(strings.NewReader(tt.data), ',')
			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			got := make([]string, 0, len(verrs))
			for _, e := range verrs {
				got = append(got, e.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}
