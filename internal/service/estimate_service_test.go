package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lagrosa/dpwh-estimates/internal/config"
	"github.com/lagrosa/dpwh-estimates/internal/lifecycle"
	"github.com/lagrosa/dpwh-estimates/internal/model"
)

type stubTakeoffStore struct {
	project *model.Project
	version *model.TakeoffVersion
	lines   []model.BOQLine
}

func (s *stubTakeoffStore) GetProject(_ context.Context, id uuid.UUID) (*model.Project, error) {
	if s.project == nil || s.project.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.project, nil
}

func (s *stubTakeoffStore) GetVersion(_ context.Context, id uuid.UUID) (*model.TakeoffVersion, error) {
	if s.version == nil || s.version.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.version, nil
}

func (s *stubTakeoffStore) ListBOQLines(_ context.Context, _ uuid.UUID) ([]model.BOQLine, error) {
	return s.lines, nil
}

type stubTemplateStore struct {
	templates []model.DupaTemplate
}

func (s *stubTemplateStore) ListTemplates(_ context.Context) ([]model.DupaTemplate, error) {
	return s.templates, nil
}

type stubRateStore struct {
	labor     []model.LaborRate
	equipment []model.EquipmentRate
	materials []model.MaterialPrice
}

func (s *stubRateStore) ListLaborRates(_ context.Context, _ string) ([]model.LaborRate, error) {
	return s.labor, nil
}

func (s *stubRateStore) ListEquipmentRates(_ context.Context) ([]model.EquipmentRate, error) {
	return s.equipment, nil
}

func (s *stubRateStore) ListMaterialPrices(_ context.Context, _, _ string) ([]model.MaterialPrice, error) {
	return s.materials, nil
}

type stubEstimateStore struct {
	estimates map[uuid.UUID]*model.CostEstimate
	lines     map[uuid.UUID][]model.EstimateLine

	created      *model.CostEstimate
	createdLines []model.EstimateLine

	updateResult bool
	deleteResult bool
	lastFrom     model.CostEstimateStatus
	lastTo       model.CostEstimateStatus
}

func newStubEstimateStore() *stubEstimateStore {
	return &stubEstimateStore{
		estimates:    make(map[uuid.UUID]*model.CostEstimate),
		lines:        make(map[uuid.UUID][]model.EstimateLine),
		updateResult: true,
		deleteResult: true,
	}
}

func (s *stubEstimateStore) CreateEstimate(_ context.Context, est model.CostEstimate, lines []model.EstimateLine) (*model.CostEstimate, error) {
	est.ID = uuid.New()
	est.CreatedAt = time.Now().UTC()
	s.created = &est
	s.createdLines = lines
	s.estimates[est.ID] = &est
	s.lines[est.ID] = lines
	return &est, nil
}

func (s *stubEstimateStore) GetEstimate(_ context.Context, id uuid.UUID) (*model.CostEstimate, error) {
	est, ok := s.estimates[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return est, nil
}

func (s *stubEstimateStore) ListLines(_ context.Context, estimateID uuid.UUID) ([]model.EstimateLine, error) {
	return s.lines[estimateID], nil
}

func (s *stubEstimateStore) ListEstimatesForVersion(_ context.Context, versionID uuid.UUID) ([]model.CostEstimate, error) {
	var result []model.CostEstimate
	for _, est := range s.estimates {
		if est.TakeoffVersionID == versionID {
			result = append(result, *est)
		}
	}
	return result, nil
}

func (s *stubEstimateStore) UpdateEstimateStatus(_ context.Context, estimateID uuid.UUID, from, to model.CostEstimateStatus, _ uuid.UUID, _ time.Time) (bool, error) {
	s.lastFrom = from
	s.lastTo = to
	if !s.updateResult {
		return false, nil
	}
	if est, ok := s.estimates[estimateID]; ok && est.Status == from {
		est.Status = to
		return true, nil
	}
	return false, nil
}

func (s *stubEstimateStore) DeleteEstimate(_ context.Context, estimateID uuid.UUID) (bool, error) {
	if !s.deleteResult {
		return false, nil
	}
	delete(s.estimates, estimateID)
	delete(s.lines, estimateID)
	return true, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Pricing: config.PricingConfig{DefaultPriceBookVersion: "2025-Q3"},
	}
}

func estimatorPrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), OrgID: uuid.New(), Role: model.RoleEstimator}
}

func reviewerPrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), OrgID: uuid.New(), Role: model.RoleReviewer}
}

func viewerPrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), OrgID: uuid.New(), Role: model.RoleViewer}
}

func serviceFixture() (*EstimateService, *stubTakeoffStore, *stubEstimateStore) {
	projectID := uuid.New()
	versionID := uuid.New()

	takeoffs := &stubTakeoffStore{
		project: &model.Project{
			ID:       projectID,
			Name:     "Daang Maharlika Rehabilitation",
			Location: "Region IV-A",
			District: "Quezon 1st DEO",
		},
		version: &model.TakeoffVersion{
			ID:        versionID,
			ProjectID: projectID,
			Status:    model.VersionStatusSubmitted,
		},
		lines: []model.BOQLine{
			{ID: uuid.New(), TakeoffVersionID: versionID, PayItemNumber: "100(1)", Description: "Clearing and grubbing", Unit: "ha", Quantity: 2, SortOrder: 1},
			{ID: uuid.New(), TakeoffVersionID: versionID, PayItemNumber: "999(9)", Description: "Unknown work", Unit: "ls", Quantity: 1, SortOrder: 2},
		},
	}

	templates := &stubTemplateStore{
		templates: []model.DupaTemplate{
			{
				ID:            uuid.New(),
				PayItemNumber: "100 (1)",
				Description:   "Clearing and grubbing",
				Unit:          "ha",
				Labor:         []model.LaborLine{{Designation: "Foreman", Persons: 1, Hours: 8}},
				Equipment:     []model.EquipmentLine{{Description: "Bulldozer", Units: 1, Hours: 4}},
				Materials:     []model.MaterialLine{{Code: "CM-01", Description: "Fuel", Unit: "L", Quantity: 10}},
			},
		},
	}

	rates := &stubRateStore{
		labor:     []model.LaborRate{{Designation: "Foreman", Location: "Region IV-A", HourlyRate: 100}},
		equipment: []model.EquipmentRate{{Description: "Bulldozer", HourlyRate: 500}},
		materials: []model.MaterialPrice{{Code: "CM-01", District: "Quezon 1st DEO", PriceBookVersion: "2025-Q3", UnitCost: 60, Source: model.SourcePriceBook, Active: true}},
	}

	estimates := newStubEstimateStore()

	svc := NewEstimateService(takeoffs, templates, rates, estimates, nil, nil, nil, testConfig(), zerolog.Nop())
	return svc, takeoffs, estimates
}

func TestGenerateEstimatePersistsDraft(t *testing.T) {
	svc, takeoffs, store := serviceFixture()

	result, err := svc.GenerateEstimate(context.Background(), GenerateEstimateInput{
		TakeoffVersionID: takeoffs.version.ID,
		Principal:        estimatorPrincipal(),
	})
	require.NoError(t, err)
	require.NotNil(t, store.created)

	est := result.Estimate
	assert.Equal(t, model.EstimateStatusDraft, est.Status)
	assert.Equal(t, takeoffs.version.ID, est.TakeoffVersionID)
	assert.Equal(t, takeoffs.project.ID, est.ProjectID)

	// Context defaults fall back to the project and the configured price book.
	assert.Equal(t, "Region IV-A", est.Location)
	assert.Equal(t, "Quezon 1st DEO", est.District)
	assert.Equal(t, "2025-Q3", est.PriceBookVersion)

	// Labor 800 + equipment 2000 + material 600 per ha, 2 ha of priced work.
	require.Len(t, result.Lines, 2)
	priced := result.Lines[0]
	assert.InDelta(t, 3400.0, priced.DirectCost, 1e-9)
	assert.False(t, priced.DupaNotFound)

	unmapped := result.Lines[1]
	assert.True(t, unmapped.DupaNotFound)
	assert.Zero(t, unmapped.UnitPrice)
	assert.Equal(t, []string{"999(9)"}, result.UnmappedPayItems)

	assert.Equal(t, 2, est.Summary.LineCount)
	assert.Equal(t, 1, est.Summary.UnmappedCount)
	assert.Greater(t, est.Summary.GrandTotal, est.Summary.TotalDirectCost)
}

func TestGenerateEstimateRequiresEstimatorRole(t *testing.T) {
	svc, takeoffs, _ := serviceFixture()

	_, err := svc.GenerateEstimate(context.Background(), GenerateEstimateInput{
		TakeoffVersionID: takeoffs.version.ID,
		Principal:        viewerPrincipal(),
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestGenerateEstimateRejectsSupersededVersion(t *testing.T) {
	svc, takeoffs, _ := serviceFixture()
	takeoffs.version.Status = model.VersionStatusSuperseded

	_, err := svc.GenerateEstimate(context.Background(), GenerateEstimateInput{
		TakeoffVersionID: takeoffs.version.ID,
		Principal:        estimatorPrincipal(),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGenerateEstimateRejectsEmptyBOQ(t *testing.T) {
	svc, takeoffs, _ := serviceFixture()
	takeoffs.lines = nil

	_, err := svc.GenerateEstimate(context.Background(), GenerateEstimateInput{
		TakeoffVersionID: takeoffs.version.ID,
		Principal:        estimatorPrincipal(),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGenerateEstimateUnknownVersion(t *testing.T) {
	svc, _, _ := serviceFixture()

	_, err := svc.GenerateEstimate(context.Background(), GenerateEstimateInput{
		TakeoffVersionID: uuid.New(),
		Principal:        estimatorPrincipal(),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransitionEstimateStatusSubmitThenApprove(t *testing.T) {
	svc, takeoffs, store := serviceFixture()

	result, err := svc.GenerateEstimate(context.Background(), GenerateEstimateInput{
		TakeoffVersionID: takeoffs.version.ID,
		Principal:        estimatorPrincipal(),
	})
	require.NoError(t, err)
	id := result.Estimate.ID

	submitted, err := svc.TransitionEstimateStatus(context.Background(), id, lifecycle.ActionSubmit, estimatorPrincipal())
	require.NoError(t, err)
	assert.Equal(t, model.EstimateStatusSubmitted, submitted.Status)

	// An estimator cannot approve.
	_, err = svc.TransitionEstimateStatus(context.Background(), id, lifecycle.ActionApprove, model.Principal{UserID: uuid.New(), Role: model.RoleEstimator})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	approved, err := svc.TransitionEstimateStatus(context.Background(), id, lifecycle.ActionApprove, reviewerPrincipal())
	require.NoError(t, err)
	assert.Equal(t, model.EstimateStatusApproved, approved.Status)
	assert.Equal(t, model.EstimateStatusSubmitted, store.lastFrom)
	assert.Equal(t, model.EstimateStatusApproved, store.lastTo)
}

func TestTransitionEstimateStatusConflict(t *testing.T) {
	svc, takeoffs, store := serviceFixture()

	result, err := svc.GenerateEstimate(context.Background(), GenerateEstimateInput{
		TakeoffVersionID: takeoffs.version.ID,
		Principal:        estimatorPrincipal(),
	})
	require.NoError(t, err)

	store.updateResult = false
	_, err = svc.TransitionEstimateStatus(context.Background(), result.Estimate.ID, lifecycle.ActionSubmit, estimatorPrincipal())
	assert.ErrorIs(t, err, ErrConflict)
}

func TestTransitionEstimateStatusInvalidAction(t *testing.T) {
	svc, takeoffs, _ := serviceFixture()

	result, err := svc.GenerateEstimate(context.Background(), GenerateEstimateInput{
		TakeoffVersionID: takeoffs.version.ID,
		Principal:        estimatorPrincipal(),
	})
	require.NoError(t, err)

	// A draft estimate cannot be approved directly.
	_, err = svc.TransitionEstimateStatus(context.Background(), result.Estimate.ID, lifecycle.ActionApprove, reviewerPrincipal())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteEstimateBlocksApproved(t *testing.T) {
	svc, takeoffs, _ := serviceFixture()

	result, err := svc.GenerateEstimate(context.Background(), GenerateEstimateInput{
		TakeoffVersionID: takeoffs.version.ID,
		Principal:        estimatorPrincipal(),
	})
	require.NoError(t, err)
	id := result.Estimate.ID

	_, err = svc.TransitionEstimateStatus(context.Background(), id, lifecycle.ActionSubmit, estimatorPrincipal())
	require.NoError(t, err)
	_, err = svc.TransitionEstimateStatus(context.Background(), id, lifecycle.ActionApprove, reviewerPrincipal())
	require.NoError(t, err)

	err = svc.DeleteEstimate(context.Background(), id, estimatorPrincipal())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteEstimateRemovesDraft(t *testing.T) {
	svc, takeoffs, store := serviceFixture()

	result, err := svc.GenerateEstimate(context.Background(), GenerateEstimateInput{
		TakeoffVersionID: takeoffs.version.ID,
		Principal:        estimatorPrincipal(),
	})
	require.NoError(t, err)
	id := result.Estimate.ID

	require.NoError(t, svc.DeleteEstimate(context.Background(), id, estimatorPrincipal()))
	_, ok := store.estimates[id]
	assert.False(t, ok)

	err = svc.DeleteEstimate(context.Background(), id, estimatorPrincipal())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListEstimatesForVersion(t *testing.T) {
	svc, takeoffs, _ := serviceFixture()

	_, err := svc.GenerateEstimate(context.Background(), GenerateEstimateInput{
		TakeoffVersionID: takeoffs.version.ID,
		Principal:        estimatorPrincipal(),
	})
	require.NoError(t, err)

	estimates, err := svc.ListEstimatesForVersion(context.Background(), takeoffs.version.ID)
	require.NoError(t, err)
	assert.Len(t, estimates, 1)

	_, err = svc.ListEstimatesForVersion(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunDiagnosticsDetectsTampering(t *testing.T) {
	svc, takeoffs, store := serviceFixture()

	result, err := svc.GenerateEstimate(context.Background(), GenerateEstimateInput{
		TakeoffVersionID: takeoffs.version.ID,
		Principal:        estimatorPrincipal(),
	})
	require.NoError(t, err)
	id := result.Estimate.ID

	report, err := svc.RunDiagnostics(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, report.SummaryMatches)
	assert.Empty(t, report.MismatchedLines)

	store.estimates[id].Summary.GrandTotal += 100
	report, err = svc.RunDiagnostics(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, report.SummaryMatches)
}
