package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lagrosa/dpwh-estimates/internal/model"
)

type EstimateRepository struct {
	db *gorm.DB
}

func NewEstimateRepository(db *gorm.DB) *EstimateRepository {
	return &EstimateRepository{db: db}
}

type estimateRow struct {
	ID                 uuid.UUID
	TakeoffVersionID   uuid.UUID
	ProjectID          uuid.UUID
	Location           string
	District           string
	PricebookVersion   string
	OCMPct             float64
	CPPct              float64
	VATPct             float64
	TotalDirectCost    float64
	TotalOCM           float64
	TotalCP            float64
	SubtotalWithMarkup float64
	TotalVAT           float64
	GrandTotal         float64
	LineCount          int
	UnmappedCount      int
	Status             model.CostEstimateStatus
	SubmittedByID      *uuid.UUID
	SubmittedAt        *time.Time
	ApprovedByID       *uuid.UUID
	ApprovedAt         *time.Time
	CreatedByUserID    uuid.UUID
	CreatedByOrgID     uuid.UUID
	CreatedAt          time.Time
}

const estimateColumns = `
	id,
	takeoff_version_id,
	project_id,
	location,
	district,
	pricebook_version,
	ocm_pct,
	cp_pct,
	vat_pct,
	total_direct_cost,
	total_ocm,
	total_cp,
	subtotal_with_markup,
	total_vat,
	grand_total,
	line_count,
	unmapped_count,
	status,
	submitted_by_id,
	submitted_at,
	approved_by_id,
	approved_at,
	created_by_user_id,
	created_by_org_id,
	created_at
`

func (row estimateRow) toModel() model.CostEstimate {
	return model.CostEstimate{
		ID:               row.ID,
		TakeoffVersionID: row.TakeoffVersionID,
		ProjectID:        row.ProjectID,
		Location:         row.Location,
		District:         row.District,
		PriceBookVersion: row.PricebookVersion,
		OCMPct:           row.OCMPct,
		CPPct:            row.CPPct,
		VATPct:           row.VATPct,
		Summary: model.CostSummary{
			TotalDirectCost:    row.TotalDirectCost,
			TotalOCM:           row.TotalOCM,
			TotalCP:            row.TotalCP,
			SubtotalWithMarkup: row.SubtotalWithMarkup,
			TotalVAT:           row.TotalVAT,
			GrandTotal:         row.GrandTotal,
			LineCount:          row.LineCount,
			UnmappedCount:      row.UnmappedCount,
		},
		Status:          row.Status,
		SubmittedByID:   row.SubmittedByID,
		SubmittedAt:     row.SubmittedAt,
		ApprovedByID:    row.ApprovedByID,
		ApprovedAt:      row.ApprovedAt,
		CreatedByUserID: row.CreatedByUserID,
		CreatedByOrgID:  row.CreatedByOrgID,
		CreatedAt:       row.CreatedAt,
	}
}

// CreateEstimate persists the estimate header and its full line set in one
// transaction, so readers never observe a half-written estimate.
func (r *EstimateRepository) CreateEstimate(ctx context.Context, est model.CostEstimate, lines []model.EstimateLine) (*model.CostEstimate, error) {
	var saved estimateRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Raw(`
			INSERT INTO cost_estimates (
				takeoff_version_id,
				project_id,
				location,
				district,
				pricebook_version,
				ocm_pct,
				cp_pct,
				vat_pct,
				total_direct_cost,
				total_ocm,
				total_cp,
				subtotal_with_markup,
				total_vat,
				grand_total,
				line_count,
				unmapped_count,
				status,
				created_by_user_id,
				created_by_org_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING `+estimateColumns,
			est.TakeoffVersionID,
			est.ProjectID,
			est.Location,
			est.District,
			est.PriceBookVersion,
			est.OCMPct,
			est.CPPct,
			est.VATPct,
			est.Summary.TotalDirectCost,
			est.Summary.TotalOCM,
			est.Summary.TotalCP,
			est.Summary.SubtotalWithMarkup,
			est.Summary.TotalVAT,
			est.Summary.GrandTotal,
			est.Summary.LineCount,
			est.Summary.UnmappedCount,
			est.Status,
			est.CreatedByUserID,
			est.CreatedByOrgID,
		).Scan(&saved).Error
		if err != nil {
			return err
		}

		for _, line := range lines {
			items, err := json.Marshal(line.Items)
			if err != nil {
				return fmt.Errorf("marshal line items: %w", err)
			}
			if err := tx.Exec(`
				INSERT INTO estimate_lines (
					cost_estimate_id,
					boq_line_id,
					pay_item_number,
					description,
					unit,
					quantity,
					items,
					labor_cost,
					equipment_cost,
					material_cost,
					direct_cost,
					ocm_cost,
					cp_cost,
					vat_cost,
					unit_price,
					total_amount,
					dupa_not_found,
					needs_canvass,
					sort_order
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				saved.ID,
				nullableID(line.BOQLineID),
				line.PayItemNumber,
				line.Description,
				line.Unit,
				line.Quantity,
				string(items),
				line.LaborCost,
				line.EquipmentCost,
				line.MaterialCost,
				line.DirectCost,
				line.OCMCost,
				line.CPCost,
				line.VATCost,
				line.UnitPrice,
				line.TotalAmount,
				line.DupaNotFound,
				line.NeedsCanvass,
				line.SortOrder,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := saved.toModel()
	return &result, nil
}

func (r *EstimateRepository) GetEstimate(ctx context.Context, id uuid.UUID) (*model.CostEstimate, error) {
	var row estimateRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+estimateColumns+`
		FROM cost_estimates
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	result := row.toModel()
	return &result, nil
}

func (r *EstimateRepository) ListEstimatesForVersion(ctx context.Context, versionID uuid.UUID) ([]model.CostEstimate, error) {
	var rows []estimateRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+estimateColumns+`
		FROM cost_estimates
		WHERE takeoff_version_id = ?
		ORDER BY created_at DESC
	`, versionID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	estimates := make([]model.CostEstimate, 0, len(rows))
	for _, row := range rows {
		estimates = append(estimates, row.toModel())
	}
	return estimates, nil
}

func (r *EstimateRepository) ListLines(ctx context.Context, estimateID uuid.UUID) ([]model.EstimateLine, error) {
	var rows []struct {
		ID             uuid.UUID
		CostEstimateID uuid.UUID
		BOQLineID      *uuid.UUID
		PayItemNumber  string
		Description    string
		Unit           string
		Quantity       float64
		Items          []byte
		LaborCost      float64
		EquipmentCost  float64
		MaterialCost   float64
		DirectCost     float64
		OCMCost        float64
		CPCost         float64
		VATCost        float64
		UnitPrice      float64
		TotalAmount    float64
		DupaNotFound   bool
		NeedsCanvass   bool
		SortOrder      int
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			cost_estimate_id,
			boq_line_id,
			pay_item_number,
			description,
			unit,
			quantity,
			items,
			labor_cost,
			equipment_cost,
			material_cost,
			direct_cost,
			ocm_cost,
			cp_cost,
			vat_cost,
			unit_price,
			total_amount,
			dupa_not_found,
			needs_canvass,
			sort_order
		FROM estimate_lines
		WHERE cost_estimate_id = ?
		ORDER BY sort_order, id
	`, estimateID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	lines := make([]model.EstimateLine, 0, len(rows))
	for _, row := range rows {
		line := model.EstimateLine{
			ID:             row.ID,
			CostEstimateID: row.CostEstimateID,
			PayItemNumber:  row.PayItemNumber,
			Description:    row.Description,
			Unit:           row.Unit,
			Quantity:       row.Quantity,
			LaborCost:      row.LaborCost,
			EquipmentCost:  row.EquipmentCost,
			MaterialCost:   row.MaterialCost,
			DirectCost:     row.DirectCost,
			OCMCost:        row.OCMCost,
			CPCost:         row.CPCost,
			VATCost:        row.VATCost,
			UnitPrice:      row.UnitPrice,
			TotalAmount:    row.TotalAmount,
			DupaNotFound:   row.DupaNotFound,
			NeedsCanvass:   row.NeedsCanvass,
			SortOrder:      row.SortOrder,
		}
		if row.BOQLineID != nil {
			line.BOQLineID = *row.BOQLineID
		}
		if len(row.Items) > 0 {
			if err := json.Unmarshal(row.Items, &line.Items); err != nil {
				return nil, fmt.Errorf("unmarshal line items: %w", err)
			}
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// UpdateEstimateStatus performs the optimistic status swap; see the version
// counterpart for the concurrency contract.
func (r *EstimateRepository) UpdateEstimateStatus(
	ctx context.Context,
	estimateID uuid.UUID,
	from, to model.CostEstimateStatus,
	actorID uuid.UUID,
	at time.Time,
) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE cost_estimates
		SET
			status = ?,
			submitted_by_id = CASE WHEN ? = 'SUBMITTED' THEN ? ELSE submitted_by_id END,
			submitted_at = CASE WHEN ? = 'SUBMITTED' THEN ? ELSE submitted_at END,
			approved_by_id = CASE WHEN ? = 'APPROVED' THEN ? ELSE approved_by_id END,
			approved_at = CASE WHEN ? = 'APPROVED' THEN ? ELSE approved_at END
		WHERE id = ? AND status = ?
	`, to, string(to), actorID, string(to), at, string(to), actorID, string(to), at, estimateID, from)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteEstimate deletes a non-approved estimate; its lines go with it via
// the cascade. The status guard protects against a concurrent approval.
func (r *EstimateRepository) DeleteEstimate(ctx context.Context, estimateID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		DELETE FROM cost_estimates WHERE id = ? AND status <> 'APPROVED'
	`, estimateID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func nullableID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
