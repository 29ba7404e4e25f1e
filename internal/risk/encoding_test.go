package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEncoding_SortedVocabulary(t *testing.T) {
	rows := []Member{
		{Job: "technician", Marital: "single", Education: "tertiary"},
		{Job: "admin.", Marital: "married", Education: ""},
		{Job: "Technician ", Marital: "divorced", Education: "primary"},
	}

	enc, err := BuildEncoding(rows, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultFeatures, enc.Features)

	job, ok := enc.Encoder(FeatureJob)
	require.True(t, ok)
	assert.Equal(t, []string{"admin.", "technician"}, job.Classes)

	edu, ok := enc.Encoder(FeatureEducation)
	require.True(t, ok)
	assert.Equal(t, []string{"primary", "tertiary", "unknown"}, edu.Classes)

	_, ok = enc.Encoder(FeatureAge)
	assert.False(t, ok)
}

func TestBuildEncoding_OrderIndependent(t *testing.T) {
	a := []Member{{Job: "b"}, {Job: "a"}, {Job: "c"}}
	b := []Member{{Job: "c"}, {Job: "b"}, {Job: "a"}}

	ea, err := BuildEncoding(a, nil)
	require.NoError(t, err)
	eb, err := BuildEncoding(b, nil)
	require.NoError(t, err)
	assert.Equal(t, ea, eb)
}

func TestBuildEncoding_UnknownFeature(t *testing.T) {
	_, err := BuildEncoding(nil, []string{FeatureAge, "duration"})
	assert.Error(t, err)
}

func TestFeatureEncoding_Encode(t *testing.T) {
	enc, err := BuildEncoding([]Member{
		{Job: "admin.", Marital: "married", Education: "secondary"},
		{Job: "retired", Marital: "single", Education: "tertiary"},
	}, nil)
	require.NoError(t, err)

	vec := enc.Encode(Member{
		Age:             61,
		Balance:         decimal.NewFromInt(1500),
		HasHousingLoan:  true,
		HasPersonalLoan: false,
		Job:             "retired",
		Marital:         "widowed",
	})

	// age, job, marital, education, balance, housing, loan
	assert.Equal(t, []float64{61, 1, 0, 0, 1500, 1, 0}, vec.Values)
	assert.Equal(t, []string{FeatureMarital, FeatureEducation}, vec.Unseen)
	assert.False(t, vec.Degraded())
}

func TestFeatureEncoding_SchemaDrift(t *testing.T) {
	enc := &FeatureEncoding{
		Features: []string{FeatureAge, "duration", FeatureJob},
	}

	vec := enc.Encode(Member{Age: 30, Job: "student"})
	assert.Equal(t, []float64{30, 0, 0}, vec.Values)
	assert.Equal(t, []string{"duration", FeatureJob}, vec.Missing)
	assert.True(t, vec.Degraded())
}
