package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lagrosa/dpwh-estimates/internal/model"
)

type TakeoffRepository struct {
	db *gorm.DB
}

func NewTakeoffRepository(db *gorm.DB) *TakeoffRepository {
	return &TakeoffRepository{db: db}
}

func (r *TakeoffRepository) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, location, district, active_version_id, created_by_org_id, created_at
		FROM projects
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&project).Error
	if err != nil {
		return nil, err
	}
	if project.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &project, nil
}

func (r *TakeoffRepository) GetVersion(ctx context.Context, id uuid.UUID) (*model.TakeoffVersion, error) {
	var version model.TakeoffVersion
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			project_id,
			version_number,
			status,
			remarks,
			rejection_reason,
			submitted_by_id,
			submitted_at,
			approved_by_id,
			approved_at,
			created_by_user_id,
			created_at
		FROM takeoff_versions
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&version).Error
	if err != nil {
		return nil, err
	}
	if version.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &version, nil
}

func (r *TakeoffRepository) ListBOQLines(ctx context.Context, versionID uuid.UUID) ([]model.BOQLine, error) {
	var lines []model.BOQLine
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, takeoff_version_id, pay_item_number, description, unit, quantity, sort_order
		FROM boq_lines
		WHERE takeoff_version_id = ?
		ORDER BY sort_order, id
	`, versionID).Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// Every status write carries the expected current status in the WHERE clause
// so that of two concurrent transitions exactly one succeeds; the caller
// re-reads on a false return.

func (r *TakeoffRepository) SubmitVersion(ctx context.Context, versionID uuid.UUID, from model.TakeoffVersionStatus, submitterID uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE takeoff_versions
		SET status = 'SUBMITTED', rejection_reason = NULL, submitted_by_id = ?, submitted_at = ?
		WHERE id = ? AND status = ?
	`, submitterID, at, versionID, from)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *TakeoffRepository) RejectVersion(ctx context.Context, versionID uuid.UUID, reason string) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE takeoff_versions
		SET status = 'REJECTED', rejection_reason = ?
		WHERE id = ? AND status = 'SUBMITTED'
	`, reason, versionID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *TakeoffRepository) SupersedeVersion(ctx context.Context, versionID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE takeoff_versions
		SET status = 'SUPERSEDED'
		WHERE id = ? AND status = 'APPROVED'
	`, versionID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ApproveVersion approves a submitted version and swaps the project's active
// version pointer in the same transaction. Other versions keep their status;
// superseding the previous active version is a separate, explicit action.
func (r *TakeoffRepository) ApproveVersion(
	ctx context.Context,
	versionID, projectID uuid.UUID,
	approverID uuid.UUID,
	at time.Time,
) (bool, error) {
	approved := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(`
			UPDATE takeoff_versions
			SET status = 'APPROVED', approved_by_id = ?, approved_at = ?
			WHERE id = ? AND status = 'SUBMITTED'
		`, approverID, at, versionID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if err := tx.Exec(`
			UPDATE projects SET active_version_id = ? WHERE id = ?
		`, versionID, projectID).Error; err != nil {
			return err
		}
		approved = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return approved, nil
}

func (r *TakeoffRepository) UpdateVersionRemarks(ctx context.Context, versionID uuid.UUID, remarks string) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE takeoff_versions SET remarks = ? WHERE id = ?
	`, remarks, versionID).Error
}

func (r *TakeoffRepository) CountEstimatesForVersion(ctx context.Context, versionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM cost_estimates WHERE takeoff_version_id = ?
	`, versionID).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteVersion removes a version and its BOQ lines. Callers check the
// editability and dependent-estimate rules first; the status guard here is
// the last line of defense against a concurrent transition.
func (r *TakeoffRepository) DeleteVersion(ctx context.Context, versionID uuid.UUID, current model.TakeoffVersionStatus) (bool, error) {
	result := r.db.WithContext(ctx).Exec(`
		DELETE FROM takeoff_versions WHERE id = ? AND status = ?
	`, versionID, current)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
