package costing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnergyCost(t *testing.T) {
	// 120 min on a 1 kWh printer at 0.89 per kWh.
	got, err := EnergyCost(120, 1, 0.89)
	require.NoError(t, err)
	assert.InDelta(t, 1.78, got, 1e-9)
}

func TestEnergyCostRejectsNegative(t *testing.T) {
	_, err := EnergyCost(-5, 1, 0.89)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "durationMinutes", verr.Field)
}

func TestEnergyCostRejectsNaN(t *testing.T) {
	_, err := EnergyCost(120, math.NaN(), 0.89)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "powerDrawKwh", verr.Field)
}

func TestFilamentCostSingleSpool(t *testing.T) {
	got, err := FilamentCost([]UsageLine{
		{SpoolID: "a", Grams: 50, PurchasePrice: 100, InitialGrams: 1000},
	})
	require.NoError(t, err)
	assert.InDelta(t, 5.00, got, 1e-9)
}

func TestFilamentCostMultipleSpools(t *testing.T) {
	got, err := FilamentCost([]UsageLine{
		{Grams: 60, PurchasePrice: 100, InitialGrams: 1000}, // 6.00
		{Grams: 40, PurchasePrice: 200, InitialGrams: 500},  // 16.00
	})
	require.NoError(t, err)
	assert.InDelta(t, 22.00, got, 1e-9)
}

func TestFilamentCostRejectsZeroInitialMass(t *testing.T) {
	_, err := FilamentCost([]UsageLine{{Grams: 10, PurchasePrice: 100, InitialGrams: 0}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "initialGrams", verr.Field)
}

func TestBuildQuoteDeterminism(t *testing.T) {
	q, err := BuildQuote(120, 1, 0.89, []UsageLine{
		{Grams: 50, PurchasePrice: 100, InitialGrams: 1000},
	}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.78, q.EnergyCost, 1e-9)
	assert.InDelta(t, 5.00, q.FilamentCost, 1e-9)
	assert.InDelta(t, 6.78, q.TotalCost, 1e-9)
	assert.Nil(t, q.Profit)
}

func TestBuildQuoteWithSalePrice(t *testing.T) {
	sale := 30.0
	q, err := BuildQuote(120, 1, 0.89, []UsageLine{
		{Grams: 50, PurchasePrice: 100, InitialGrams: 1000},
	}, &sale)
	require.NoError(t, err)
	require.NotNil(t, q.Profit)
	assert.InDelta(t, 23.22, *q.Profit, 1e-9)
}

func TestReprice(t *testing.T) {
	p, err := Reprice(6.78, 27.12)
	require.NoError(t, err)
	assert.InDelta(t, 20.34, p, 1e-9)

	_, err = Reprice(6.78, -1)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSuggestedSalePrice(t *testing.T) {
	assert.InDelta(t, 27.12, SuggestedSalePrice(6.78, 0), 1e-9)   // default markup
	assert.InDelta(t, 13.56, SuggestedSalePrice(6.78, 2.0), 1e-9) // explicit markup
}
