package fhe

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenadx/carbonledger/ledger"
)

func TestLinearEstimator(t *testing.T) {
	est := NewLinearEstimator()

	// 2*0.5 + 10*0.02 + 1000*0.001 + 5*0.1 = 2.7
	got, err := est.Estimate(ledger.Metrics{
		Servers:      2,
		BandwidthGB:  10,
		Impressions:  1000,
		DurationDays: 5,
	})
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromFloat(2.7)), "got %s", got)
}

func TestLinearEstimatorZeroMetrics(t *testing.T) {
	est := NewLinearEstimator()

	got, err := est.Estimate(ledger.Metrics{})
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestHomomorphicEstimatorMatchesLinear(t *testing.T) {
	scheme, err := NewPaillier(512)
	require.NoError(t, err)

	homo := NewHomomorphicEstimator(scheme)
	linear := NewLinearEstimator()

	cases := []ledger.Metrics{
		{Servers: 2, BandwidthGB: 10, Impressions: 1000, DurationDays: 5},
		{Servers: 1, BandwidthGB: 0, Impressions: 0, DurationDays: 1},
		{Servers: 40, BandwidthGB: 2.5, Impressions: 123456, DurationDays: 90},
	}

	for _, m := range cases {
		want, err := linear.Estimate(m)
		require.NoError(t, err)
		got, err := homo.Estimate(m)
		require.NoError(t, err)
		assert.True(t, got.Equal(want), "metrics %+v: got %s, want %s", m, got, want)
	}
}
