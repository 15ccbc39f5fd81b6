package markup

import (
	"math"
	"testing"
)

func TestBracketFor(t *testing.T) {
	tests := []struct {
		name      string
		direct    float64
		expectOCM float64
		expectCP  float64
	}{
		{"small project", 500_000, 15, 10},
		{"exactly 1M", 1_000_000, 15, 10},
		{"just above 1M", 1_000_000.01, 12, 8},
		{"mid bracket", 4_800_000, 12, 8},
		{"exactly 5M", 5_000_000, 12, 8},
		{"10M", 10_000_000, 10, 7},
		{"exactly 15M", 15_000_000, 10, 7},
		{"30M", 30_000_000, 8, 6},
		{"exactly 50M", 50_000_000, 8, 6},
		{"above 50M", 50_000_000.01, 5, 5},
		{"zero", 0, 15, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ocm, cp := BracketFor(tt.direct)
			if ocm != tt.expectOCM || cp != tt.expectCP {
				t.Errorf("BracketFor(%v) = (%v, %v), want (%v, %v)",
					tt.direct, ocm, cp, tt.expectOCM, tt.expectCP)
			}
		})
	}
}

func TestComputeLineChain(t *testing.T) {
	pct := Percentages{OCM: 12, CP: 8, VAT: 12}
	got := ComputeLine(1000, 3, pct)

	if got.OCM != 120 {
		t.Errorf("OCM = %v, want 120", got.OCM)
	}
	if got.CP != 80 {
		t.Errorf("CP = %v, want 80", got.CP)
	}
	if got.Subtotal != 1200 {
		t.Errorf("Subtotal = %v, want 1200", got.Subtotal)
	}
	if got.VAT != 144 {
		t.Errorf("VAT = %v, want 144", got.VAT)
	}
	if got.UnitPrice != 1344 {
		t.Errorf("UnitPrice = %v, want 1344", got.UnitPrice)
	}
	if got.TotalAmount != 4032 {
		t.Errorf("TotalAmount = %v, want 4032", got.TotalAmount)
	}
}

// OCM and CP are each taken off the direct cost; VAT off the subtotal. A
// cumulative stack (CP on top of OCM) would inflate the unit price.
func TestComputeLineNotCumulative(t *testing.T) {
	pct := Percentages{OCM: 15, CP: 10, VAT: 12}
	got := ComputeLine(200, 1, pct)

	wantSubtotal := 200 + 200*0.15 + 200*0.10
	if math.Abs(got.Subtotal-wantSubtotal) > 1e-9 {
		t.Errorf("Subtotal = %v, want %v", got.Subtotal, wantSubtotal)
	}

	cumulative := 200 * 1.15 * 1.10
	if math.Abs(got.Subtotal-cumulative) < 1e-9 {
		t.Error("subtotal matches the cumulative stack; markups must not compound")
	}
}

func TestComputeLineInvariant(t *testing.T) {
	pct := ForDirectCost(4_800_000)
	for _, direct := range []float64{0, 12.5, 999.99, 120_000} {
		for _, qty := range []float64{0, 1, 2.75, 150} {
			got := ComputeLine(direct, qty, pct)
			unit := got.Subtotal + got.VAT
			if math.Abs(got.UnitPrice-unit) > 1e-9 {
				t.Errorf("UnitPrice = %v, want subtotal+vat = %v", got.UnitPrice, unit)
			}
			if math.Abs(got.TotalAmount-got.UnitPrice*qty) > 1e-9 {
				t.Errorf("TotalAmount = %v, want %v", got.TotalAmount, got.UnitPrice*qty)
			}
		}
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		input  float64
		expect float64
	}{
		{1.005, 1.0}, // binary 1.005 sits just below the midpoint
		{1.015, 1.01},
		{2.675, 2.67},
		{100.554, 100.55},
		{0, 0},
		{-1.339, -1.34},
	}
	for _, tt := range tests {
		if got := Round2(tt.input); got != tt.expect {
			t.Errorf("Round2(%v) = %v, want %v", tt.input, got, tt.expect)
		}
	}
}
