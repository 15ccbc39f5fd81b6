package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lagrosa/dpwh-estimates/internal/model"
)

type DupaRepository struct {
	db *gorm.DB
}

func NewDupaRepository(db *gorm.DB) *DupaRepository {
	return &DupaRepository{db: db}
}

// ListTemplates loads every DUPA template with its labor, equipment, and
// material rows. Templates are reference data; one load per generation run.
func (r *DupaRepository) ListTemplates(ctx context.Context) ([]model.DupaTemplate, error) {
	var headers []struct {
		ID            uuid.UUID
		PayItemNumber string
		Description   string
		Unit          string
		Part          string
		MinorToolsPct float64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, pay_item_number, description, unit, part, minor_tools_pct
		FROM dupa_templates
		ORDER BY pay_item_number
	`).Scan(&headers).Error
	if err != nil {
		return nil, err
	}

	templates := make([]model.DupaTemplate, len(headers))
	index := make(map[uuid.UUID]int, len(headers))
	for i, header := range headers {
		templates[i] = model.DupaTemplate{
			ID:            header.ID,
			PayItemNumber: header.PayItemNumber,
			Description:   header.Description,
			Unit:          header.Unit,
			Part:          header.Part,
			MinorToolsPct: header.MinorToolsPct,
		}
		index[header.ID] = i
	}

	var labor []struct {
		TemplateID  uuid.UUID
		Designation string
		Persons     float64
		Hours       float64
	}
	err = r.db.WithContext(ctx).Raw(`
		SELECT template_id, designation, persons, hours
		FROM dupa_labor
		ORDER BY template_id, sort_order
	`).Scan(&labor).Error
	if err != nil {
		return nil, err
	}
	for _, row := range labor {
		if i, ok := index[row.TemplateID]; ok {
			templates[i].Labor = append(templates[i].Labor, model.LaborLine{
				Designation: row.Designation,
				Persons:     row.Persons,
				Hours:       row.Hours,
			})
		}
	}

	var equipment []struct {
		TemplateID  uuid.UUID
		Description string
		Units       float64
		Hours       float64
	}
	err = r.db.WithContext(ctx).Raw(`
		SELECT template_id, description, units, hours
		FROM dupa_equipment
		ORDER BY template_id, sort_order
	`).Scan(&equipment).Error
	if err != nil {
		return nil, err
	}
	for _, row := range equipment {
		if i, ok := index[row.TemplateID]; ok {
			templates[i].Equipment = append(templates[i].Equipment, model.EquipmentLine{
				Description: row.Description,
				Units:       row.Units,
				Hours:       row.Hours,
			})
		}
	}

	var materials []struct {
		TemplateID    uuid.UUID
		Code          string
		Description   string
		Unit          string
		Quantity      float64
		HaulingExempt bool
	}
	err = r.db.WithContext(ctx).Raw(`
		SELECT template_id, code, description, unit, quantity, hauling_exempt
		FROM dupa_materials
		ORDER BY template_id, sort_order
	`).Scan(&materials).Error
	if err != nil {
		return nil, err
	}
	for _, row := range materials {
		if i, ok := index[row.TemplateID]; ok {
			templates[i].Materials = append(templates[i].Materials, model.MaterialLine{
				Code:          row.Code,
				Description:   row.Description,
				Unit:          row.Unit,
				Quantity:      row.Quantity,
				HaulingExempt: row.HaulingExempt,
			})
		}
	}

	return templates, nil
}
