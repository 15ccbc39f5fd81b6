// Package markup applies the DPWH indirect-cost rule: OCM and CP percentages
// bracketed by estimated direct cost, VAT on the markup-inclusive subtotal.
package markup

import "math"

// DefaultVATPct is the statutory VAT rate.
const DefaultVATPct = 12.0

// Percentages carries the markup rates shared by every line of one estimate.
// Values are percents (12 means 12%).
type Percentages struct {
	OCM float64
	CP  float64
	VAT float64
}

// BracketFor returns the OCM/CP percentages for an estimated direct cost.
// The brackets and rates are fixed by DPWH regulation.
func BracketFor(totalDirectCost float64) (ocmPct, cpPct float64) {
	switch {
	case totalDirectCost <= 1_000_000:
		return 15, 10
	case totalDirectCost <= 5_000_000:
		return 12, 8
	case totalDirectCost <= 15_000_000:
		return 10, 7
	case totalDirectCost <= 50_000_000:
		return 8, 6
	default:
		return 5, 5
	}
}

// ForDirectCost builds the full percentage set for an aggregate direct cost.
func ForDirectCost(totalDirectCost float64) Percentages {
	ocm, cp := BracketFor(totalDirectCost)
	return Percentages{OCM: ocm, CP: cp, VAT: DefaultVATPct}
}

type LineAmounts struct {
	OCM         float64
	CP          float64
	Subtotal    float64
	VAT         float64
	UnitPrice   float64
	TotalAmount float64
}

// ComputeLine applies the markup chain to a per-unit direct cost. The order
// is the legal definition of the markup stack and must not change: OCM and CP
// are each taken off the direct cost (not stacked on one another), VAT off
// the markup-inclusive subtotal.
func ComputeLine(directCost, quantity float64, pct Percentages) LineAmounts {
	ocm := directCost * pct.OCM / 100
	cp := directCost * pct.CP / 100
	subtotal := directCost + ocm + cp
	vat := subtotal * pct.VAT / 100
	unitPrice := subtotal + vat
	return LineAmounts{
		OCM:         ocm,
		CP:          cp,
		Subtotal:    subtotal,
		VAT:         vat,
		UnitPrice:   unitPrice,
		TotalAmount: unitPrice * quantity,
	}
}

// Round2 rounds a monetary aggregate for presentation and summary storage.
// Per-line amounts stay unrounded so rounding error does not compound across
// lines.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
