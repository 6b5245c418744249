// Package costing computes the money figures attached to a print job:
// energy cost, filament cost, total cost, and profit. Everything here is
// pure arithmetic over job parameters and spool/printer attributes; the
// lifecycle engine is responsible for persisting the results.
package costing

import (
	"fmt"
	"math"
)

// DefaultMarkupFactor is the multiplier applied to total cost when
// suggesting a sale price. Callers may override it per request.
const DefaultMarkupFactor = 4.0

// UsageLine describes filament drawn from a single spool for one job.
type UsageLine struct {
	SpoolID       string
	Grams         float64
	PurchasePrice float64 // price paid for the whole spool
	InitialGrams  float64 // spool mass when new
}

// Quote holds the derived cost figures for a job.
type Quote struct {
	EnergyCost   float64  `json:"energyCost"`
	FilamentCost float64  `json:"filamentCost"`
	TotalCost    float64  `json:"totalCost"`
	Profit       *float64 `json:"profit,omitempty"`
}

// ValidationError reports a malformed numeric input.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func checkNumber(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ValidationError{Field: field, Message: "must be a finite number"}
	}
	if v < 0 {
		return &ValidationError{Field: field, Message: "must not be negative"}
	}
	return nil
}

// EnergyCost computes the electricity cost of running a printer for the
// given duration: (minutes / 60) * kWh drawn per hour * unit price.
func EnergyCost(durationMinutes, powerDrawKwh, energyUnitPrice float64) (float64, error) {
	if err := checkNumber("durationMinutes", durationMinutes); err != nil {
		return 0, err
	}
	if err := checkNumber("powerDrawKwh", powerDrawKwh); err != nil {
		return 0, err
	}
	if err := checkNumber("energyUnitPrice", energyUnitPrice); err != nil {
		return 0, err
	}
	return (durationMinutes / 60) * powerDrawKwh * energyUnitPrice, nil
}

// FilamentCost sums the material cost across usage lines. Each spool
// contributes at its constant cost-per-gram (purchase price / initial mass).
func FilamentCost(lines []UsageLine) (float64, error) {
	var total float64
	for _, l := range lines {
		if err := checkNumber("grams", l.Grams); err != nil {
			return 0, err
		}
		if err := checkNumber("purchasePrice", l.PurchasePrice); err != nil {
			return 0, err
		}
		if l.InitialGrams <= 0 || math.IsNaN(l.InitialGrams) || math.IsInf(l.InitialGrams, 0) {
			return 0, &ValidationError{Field: "initialGrams", Message: "must be a positive finite number"}
		}
		total += (l.PurchasePrice / l.InitialGrams) * l.Grams
	}
	return total, nil
}

// BuildQuote computes the full cost breakdown for a job. salePrice may be
// nil; profit is only derived when it is present. The total is fixed at
// creation time and never recomputed, so callers must not re-quote a
// persisted job except through Reprice.
func BuildQuote(durationMinutes, powerDrawKwh, energyUnitPrice float64, lines []UsageLine, salePrice *float64) (Quote, error) {
	energy, err := EnergyCost(durationMinutes, powerDrawKwh, energyUnitPrice)
	if err != nil {
		return Quote{}, err
	}
	filament, err := FilamentCost(lines)
	if err != nil {
		return Quote{}, err
	}
	q := Quote{
		EnergyCost:   energy,
		FilamentCost: filament,
		TotalCost:    energy + filament,
	}
	if salePrice != nil {
		p, err := Reprice(q.TotalCost, *salePrice)
		if err != nil {
			return Quote{}, err
		}
		q.Profit = &p
	}
	return q, nil
}

// Reprice derives profit from an already-fixed total cost and a new sale
// price. The cost itself is never touched.
func Reprice(totalCost, salePrice float64) (float64, error) {
	if err := checkNumber("salePrice", salePrice); err != nil {
		return 0, err
	}
	return salePrice - totalCost, nil
}

// SuggestedSalePrice applies the markup heuristic to a total cost. A
// non-positive markup falls back to DefaultMarkupFactor.
func SuggestedSalePrice(totalCost, markupFactor float64) float64 {
	if markupFactor <= 0 || math.IsNaN(markupFactor) {
		markupFactor = DefaultMarkupFactor
	}
	return totalCost * markupFactor
}
