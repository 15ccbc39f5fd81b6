package model

import "github.com/google/uuid"

// DupaTemplate is the standard unit-price analysis for one pay item: the
// labor, equipment, and material inputs needed to produce one unit of it.
// Templates are read-only reference data during generation.
type DupaTemplate struct {
	ID            uuid.UUID
	PayItemNumber string
	Description   string
	Unit          string
	Part          string
	MinorToolsPct float64 // percentage of labor cost added to equipment; 0 disables
	Labor         []LaborLine
	Equipment     []EquipmentLine
	Materials     []MaterialLine
}

type LaborLine struct {
	Designation string
	Persons     float64
	Hours       float64
}

type EquipmentLine struct {
	Description string
	Units       float64
	Hours       float64
}

type MaterialLine struct {
	Code          string
	Description   string
	Unit          string
	Quantity      float64 // per unit of the pay item
	HaulingExempt bool
}
