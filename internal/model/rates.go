package model

import "time"

type PriceSource string

const (
	SourcePriceBook PriceSource = "PRICE_BOOK"
	SourceCanvass   PriceSource = "CANVASS"
)

type LaborRate struct {
	Designation   string
	Location      string
	HourlyRate    float64
	EffectiveDate time.Time
}

type EquipmentRate struct {
	Description   string
	HourlyRate    float64
	EffectiveDate time.Time
}

// MaterialPrice rows may exist for the same material and district across
// price-book versions; only the active row of the requested version is
// eligible during resolution.
type MaterialPrice struct {
	Code             string
	District         string
	PriceBookVersion string
	UnitCost         float64
	Source           PriceSource
	Active           bool
	EffectiveDate    time.Time
}
