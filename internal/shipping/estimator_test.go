package shipping_test

import (
	"testing"

	"maplestore/internal/apperrors"
	"maplestore/internal/shipping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimator_DefaultZones(t *testing.T) {
	estimator := shipping.NewEstimator(shipping.DefaultRateTable())

	tests := []struct {
		name string
		dest shipping.Destination
		want shipping.Estimate
	}{
		{"local radius", shipping.Destination{Country: "CA", Region: "ON", PostalCode: "P0R 1A0"}, shipping.Estimate{CostCents: 499, Zone: "LOCAL_RADIUS"}},
		{"province", shipping.Destination{Country: "ca", Region: "on", PostalCode: "M5V 2T6"}, shipping.Estimate{CostCents: 799, Zone: "ONTARIO"}},
		{"aliases", shipping.Destination{Country: " Canada ", Region: "Ontario", PostalCode: "k1a0b1"}, shipping.Estimate{CostCents: 799, Zone: "ONTARIO"}},
		{"country", shipping.Destination{Country: "CA", Region: "BC", PostalCode: "V6B 1A1"}, shipping.Estimate{CostCents: 1299, Zone: "CANADA"}},
		{"unknown country", shipping.Destination{Country: "FR", Region: "IDF", PostalCode: "75001"}, shipping.Estimate{CostCents: 2999, Zone: shipping.ZoneOther}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := estimator.Estimate(tt.dest)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEstimator_Deterministic(t *testing.T) {
	estimator := shipping.NewEstimator(shipping.DefaultRateTable())
	dest := shipping.Destination{Country: "CA", Region: "ON", PostalCode: "P0R1A0"}

	first, err := estimator.Estimate(dest)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := estimator.Estimate(dest)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEstimator_MissingFields(t *testing.T) {
	estimator := shipping.NewEstimator(shipping.DefaultRateTable())

	_, err := estimator.Estimate(shipping.Destination{Country: "CA", Region: " "})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Details, "region")
	assert.Contains(t, appErr.Details, "postal_code")
	assert.NotContains(t, appErr.Details, "country")
}

func TestEstimator_CustomTable(t *testing.T) {
	estimator := shipping.NewEstimator(shipping.RateTable{
		Rules:         []shipping.Rule{{Zone: "DOMESTIC", Country: "us", CostCents: 500}},
		FallbackCents: 1500,
	})

	got, err := estimator.Estimate(shipping.Destination{Country: "US", Region: "NY", PostalCode: "10001"})
	require.NoError(t, err)
	assert.Equal(t, shipping.Estimate{CostCents: 500, Zone: "DOMESTIC"}, got)

	got, err = estimator.Estimate(shipping.Destination{Country: "CA", Region: "ON", PostalCode: "P0R1A0"})
	require.NoError(t, err)
	assert.Equal(t, shipping.Estimate{CostCents: 1500, Zone: shipping.ZoneOther}, got)
}
