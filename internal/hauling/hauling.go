// Package hauling supplies per-unit hauling surcharges for materials. The
// distance/route/equipment computation lives in a separate subsystem; this
// package consumes its output as flat additive unit-cost terms.
package hauling

import "strings"

// StaticTable applies a default per-unit rate with optional per-material
// overrides, typically loaded from configuration or the hauling subsystem's
// published table for the district.
type StaticTable struct {
	DefaultRate float64
	PerMaterial map[string]float64
}

func NewStaticTable(defaultRate float64, perMaterial map[string]float64) *StaticTable {
	normalized := make(map[string]float64, len(perMaterial))
	for code, rate := range perMaterial {
		normalized[key(code)] = rate
	}
	return &StaticTable{DefaultRate: defaultRate, PerMaterial: normalized}
}

func (t *StaticTable) SurchargePerUnit(materialCode, unit string) float64 {
	if rate, ok := t.PerMaterial[key(materialCode)]; ok {
		return rate
	}
	return t.DefaultRate
}

func key(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
