package model

import (
	"time"

	"github.com/google/uuid"
)

type CostEstimateStatus string

const (
	EstimateStatusDraft     CostEstimateStatus = "DRAFT"
	EstimateStatusSubmitted CostEstimateStatus = "SUBMITTED"
	EstimateStatusApproved  CostEstimateStatus = "APPROVED"
)

// PricingContext fixes the location, district, and price-book version an
// estimate is priced against.
type PricingContext struct {
	Location         string
	District         string
	PriceBookVersion string
}

type CostItemKind string

const (
	CostItemLabor     CostItemKind = "labor"
	CostItemEquipment CostItemKind = "equipment"
	CostItemMaterial  CostItemKind = "material"
)

// CostItem is one resolved row of an estimate line's unit-price analysis.
// Labor, equipment, and material rows share the type; Kind discriminates
// which of the optional fields are meaningful.
type CostItem struct {
	Kind            CostItemKind `json:"kind"`
	Description     string       `json:"description"`
	Unit            string       `json:"unit,omitempty"`
	Persons         float64      `json:"persons,omitempty"`
	Units           float64      `json:"units,omitempty"`
	Hours           float64      `json:"hours,omitempty"`
	Quantity        float64      `json:"quantity,omitempty"`
	UnitRate        float64      `json:"unit_rate"`
	Amount          float64      `json:"amount"`
	Source          PriceSource  `json:"source,omitempty"`
	RequiresCanvass bool         `json:"requires_canvass,omitempty"`
}

// EstimateLine is one priced BOQ line. Lines are written once per generation
// run and never mutated in place; a new run produces a new estimate.
type EstimateLine struct {
	ID             uuid.UUID
	CostEstimateID uuid.UUID
	BOQLineID      uuid.UUID
	PayItemNumber  string
	Description    string
	Unit           string
	Quantity       float64
	Items          []CostItem
	LaborCost      float64
	EquipmentCost  float64
	MaterialCost   float64
	DirectCost     float64 // per unit of the pay item
	OCMCost        float64
	CPCost         float64
	VATCost        float64
	UnitPrice      float64
	TotalAmount    float64
	DupaNotFound   bool
	NeedsCanvass   bool
	SortOrder      int
}

// CostSummary aggregates the lines of one estimate. SubtotalWithMarkup is
// direct + OCM + CP; GrandTotal is the subtotal plus VAT. Both must match the
// sums recomputed from the stored lines.
type CostSummary struct {
	TotalDirectCost    float64
	TotalOCM           float64
	TotalCP            float64
	SubtotalWithMarkup float64
	TotalVAT           float64
	GrandTotal         float64
	LineCount          int
	UnmappedCount      int
}

type CostEstimate struct {
	ID               uuid.UUID
	TakeoffVersionID uuid.UUID
	ProjectID        uuid.UUID
	Location         string
	District         string
	PriceBookVersion string
	OCMPct           float64
	CPPct            float64
	VATPct           float64
	Summary          CostSummary
	Status           CostEstimateStatus
	SubmittedByID    *uuid.UUID
	SubmittedAt      *time.Time
	ApprovedByID     *uuid.UUID
	ApprovedAt       *time.Time
	CreatedByUserID  uuid.UUID
	CreatedByOrgID   uuid.UUID
	CreatedAt        time.Time
}

func (ctx PricingContext) Validate() bool {
	return ctx.Location != "" && ctx.District != "" && ctx.PriceBookVersion != ""
}
