package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lagrosa/dpwh-estimates/internal/config"
	"github.com/lagrosa/dpwh-estimates/internal/estimate"
	"github.com/lagrosa/dpwh-estimates/internal/lifecycle"
	"github.com/lagrosa/dpwh-estimates/internal/markup"
	"github.com/lagrosa/dpwh-estimates/internal/model"
	"github.com/lagrosa/dpwh-estimates/internal/payitem"
	"github.com/lagrosa/dpwh-estimates/internal/pricing"
)

type TakeoffStore interface {
	GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error)
	GetVersion(ctx context.Context, id uuid.UUID) (*model.TakeoffVersion, error)
	ListBOQLines(ctx context.Context, versionID uuid.UUID) ([]model.BOQLine, error)
}

type TemplateStore interface {
	ListTemplates(ctx context.Context) ([]model.DupaTemplate, error)
}

type RateStore interface {
	ListLaborRates(ctx context.Context, location string) ([]model.LaborRate, error)
	ListEquipmentRates(ctx context.Context) ([]model.EquipmentRate, error)
	ListMaterialPrices(ctx context.Context, district, version string) ([]model.MaterialPrice, error)
}

type EstimateStore interface {
	CreateEstimate(ctx context.Context, est model.CostEstimate, lines []model.EstimateLine) (*model.CostEstimate, error)
	GetEstimate(ctx context.Context, id uuid.UUID) (*model.CostEstimate, error)
	ListLines(ctx context.Context, estimateID uuid.UUID) ([]model.EstimateLine, error)
	ListEstimatesForVersion(ctx context.Context, versionID uuid.UUID) ([]model.CostEstimate, error)
	UpdateEstimateStatus(ctx context.Context, estimateID uuid.UUID, from, to model.CostEstimateStatus, actorID uuid.UUID, at time.Time) (bool, error)
	DeleteEstimate(ctx context.Context, estimateID uuid.UUID) (bool, error)
}

type ExcelGenerator interface {
	Generate(doc model.EstimateDocument) ([]byte, error)
}

type PDFGenerator interface {
	Generate(doc model.EstimateDocument) ([]byte, error)
}

type EstimateService struct {
	takeoffs  TakeoffStore
	templates TemplateStore
	rates     RateStore
	estimates EstimateStore
	hauling   pricing.HaulingCalculator
	excel     ExcelGenerator
	pdf       PDFGenerator
	cfg       *config.Config
	log       zerolog.Logger
}

func NewEstimateService(
	takeoffs TakeoffStore,
	templates TemplateStore,
	rates RateStore,
	estimates EstimateStore,
	hauling pricing.HaulingCalculator,
	excel ExcelGenerator,
	pdf PDFGenerator,
	cfg *config.Config,
	log zerolog.Logger,
) *EstimateService {
	return &EstimateService{
		takeoffs:  takeoffs,
		templates: templates,
		rates:     rates,
		estimates: estimates,
		hauling:   hauling,
		excel:     excel,
		pdf:       pdf,
		cfg:       cfg,
		log:       log,
	}
}

type GenerateEstimateInput struct {
	TakeoffVersionID uuid.UUID
	Context          model.PricingContext
	Overrides        *markup.Percentages
	Principal        model.Principal
}

type GenerateEstimateResult struct {
	Estimate         *model.CostEstimate
	Lines            []model.EstimateLine
	UnmappedPayItems []string
	Warnings         []string
}

// GenerateEstimate runs the full pipeline for one takeoff version: load the
// frozen BOQ, load reference data once, price and mark up every line, and
// persist the result as a draft estimate. Line-level pricing gaps come back
// as warnings; only infrastructure failures abort the run.
func (s *EstimateService) GenerateEstimate(ctx context.Context, input GenerateEstimateInput) (*GenerateEstimateResult, error) {
	if !input.Principal.IsEstimator() {
		return nil, ErrPermissionDenied
	}
	if input.TakeoffVersionID == uuid.Nil {
		return nil, fmt.Errorf("%w: takeoff_version_id is required", ErrInvalidInput)
	}

	version, err := s.takeoffs.GetVersion(ctx, input.TakeoffVersionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: takeoff version", ErrNotFound)
		}
		return nil, err
	}
	if !lifecycle.CanGenerateFor(version.Status) {
		return nil, fmt.Errorf("%w: estimates cannot be generated for a %s version",
			ErrInvalidInput, strings.ToLower(string(version.Status)))
	}

	project, err := s.takeoffs.GetProject(ctx, version.ProjectID)
	if err != nil {
		return nil, err
	}

	pctx := s.resolveContext(input.Context, project)
	if !pctx.Validate() {
		return nil, fmt.Errorf("%w: location, district, and price-book version are required", ErrInvalidInput)
	}

	boqLines, err := s.takeoffs.ListBOQLines(ctx, version.ID)
	if err != nil {
		return nil, err
	}
	if len(boqLines) == 0 {
		return nil, fmt.Errorf("%w: takeoff version has no BOQ lines", ErrInvalidInput)
	}

	templates, err := s.templates.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	byPayItem := make(map[string]model.DupaTemplate, len(templates))
	for _, tpl := range templates {
		byPayItem[payitem.Normalize(tpl.PayItemNumber)] = tpl
	}

	book, err := s.loadRateBook(ctx, pctx)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result := estimate.Generate(estimate.Input{
		Lines:     boqLines,
		Templates: byPayItem,
		Resolver:  pricing.NewResolver(book, s.hauling),
		Overrides: input.Overrides,
	})

	saved, err := s.estimates.CreateEstimate(ctx, model.CostEstimate{
		TakeoffVersionID: version.ID,
		ProjectID:        project.ID,
		Location:         pctx.Location,
		District:         pctx.District,
		PriceBookVersion: pctx.PriceBookVersion,
		OCMPct:           result.Percentages.OCM,
		CPPct:            result.Percentages.CP,
		VATPct:           result.Percentages.VAT,
		Summary:          result.Summary,
		Status:           model.EstimateStatusDraft,
		CreatedByUserID:  input.Principal.UserID,
		CreatedByOrgID:   input.Principal.OrgID,
	}, result.Lines)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("takeoff_version_id", version.ID.String()).
		Str("estimate_id", saved.ID.String()).
		Int("lines", result.Summary.LineCount).
		Int("unmapped", result.Summary.UnmappedCount).
		Float64("grand_total", result.Summary.GrandTotal).
		Dur("elapsed", time.Since(started)).
		Msg("estimate generated")

	return &GenerateEstimateResult{
		Estimate:         saved,
		Lines:            result.Lines,
		UnmappedPayItems: result.UnmappedPayItems,
		Warnings:         result.Warnings,
	}, nil
}

func (s *EstimateService) resolveContext(requested model.PricingContext, project *model.Project) model.PricingContext {
	pctx := requested
	if pctx.Location == "" {
		pctx.Location = project.Location
	}
	if pctx.District == "" {
		pctx.District = project.District
	}
	if pctx.PriceBookVersion == "" {
		pctx.PriceBookVersion = s.cfg.Pricing.DefaultPriceBookVersion
	}
	return pctx
}

func (s *EstimateService) loadRateBook(ctx context.Context, pctx model.PricingContext) (*pricing.RateBook, error) {
	labor, err := s.rates.ListLaborRates(ctx, pctx.Location)
	if err != nil {
		return nil, err
	}
	equipment, err := s.rates.ListEquipmentRates(ctx)
	if err != nil {
		return nil, err
	}
	materials, err := s.rates.ListMaterialPrices(ctx, pctx.District, pctx.PriceBookVersion)
	if err != nil {
		return nil, err
	}
	return pricing.NewRateBook(labor, equipment, materials), nil
}

// GetEstimate returns the stored estimate with its lines.
func (s *EstimateService) GetEstimate(ctx context.Context, id uuid.UUID) (*model.CostEstimate, []model.EstimateLine, error) {
	est, err := s.estimates.GetEstimate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: cost estimate", ErrNotFound)
		}
		return nil, nil, err
	}
	lines, err := s.estimates.ListLines(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return est, lines, nil
}

// ListEstimatesForVersion returns every estimate generated against a takeoff
// version, newest first.
func (s *EstimateService) ListEstimatesForVersion(ctx context.Context, versionID uuid.UUID) ([]model.CostEstimate, error) {
	if _, err := s.takeoffs.GetVersion(ctx, versionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: takeoff version", ErrNotFound)
		}
		return nil, err
	}
	return s.estimates.ListEstimatesForVersion(ctx, versionID)
}

// RunDiagnostics validates a stored estimate's summary against recomputation
// from its own lines. Divergences are reported, never repaired.
func (s *EstimateService) RunDiagnostics(ctx context.Context, estimateID uuid.UUID) (*estimate.DiagnosticsReport, error) {
	est, lines, err := s.GetEstimate(ctx, estimateID)
	if err != nil {
		return nil, err
	}
	report := estimate.Diagnose(*est, lines)
	if !report.SummaryMatches {
		s.log.Warn().
			Str("estimate_id", estimateID.String()).
			Msg("stored summary diverges from recomputed totals")
	}
	return &report, nil
}

// TransitionEstimateStatus applies a lifecycle action with an optimistic
// check against the persisted status.
func (s *EstimateService) TransitionEstimateStatus(ctx context.Context, estimateID uuid.UUID, action lifecycle.Action, principal model.Principal) (*model.CostEstimate, error) {
	switch action {
	case lifecycle.ActionSubmit:
		if !principal.IsEstimator() {
			return nil, ErrPermissionDenied
		}
	case lifecycle.ActionApprove:
		if !principal.IsReviewer() {
			return nil, ErrPermissionDenied
		}
	}

	est, err := s.estimates.GetEstimate(ctx, estimateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: cost estimate", ErrNotFound)
		}
		return nil, err
	}

	next, err := lifecycle.NextEstimateStatus(est.Status, action)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	updated, err := s.estimates.UpdateEstimateStatus(ctx, estimateID, est.Status, next, principal.UserID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, fmt.Errorf("%w: estimate status is no longer %s", ErrConflict, est.Status)
	}
	return s.estimates.GetEstimate(ctx, estimateID)
}

// DeleteEstimate removes a non-approved estimate and its lines.
func (s *EstimateService) DeleteEstimate(ctx context.Context, estimateID uuid.UUID, principal model.Principal) error {
	if !principal.IsEstimator() {
		return ErrPermissionDenied
	}
	est, err := s.estimates.GetEstimate(ctx, estimateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: cost estimate", ErrNotFound)
		}
		return err
	}
	if !lifecycle.CanDeleteEstimate(est.Status) {
		return fmt.Errorf("%w: approved estimates cannot be deleted", ErrInvalidInput)
	}
	deleted, err := s.estimates.DeleteEstimate(ctx, estimateID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: estimate was approved concurrently", ErrConflict)
	}
	return nil
}

type ExportResult struct {
	FileName string
	Content  []byte
}

func (s *EstimateService) ExportExcel(ctx context.Context, estimateID uuid.UUID) (*ExportResult, error) {
	doc, err := s.buildDocument(ctx, estimateID)
	if err != nil {
		return nil, err
	}
	content, err := s.excel.Generate(*doc)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: buildFileName(doc, "xlsx"),
		Content:  content,
	}, nil
}

func (s *EstimateService) ExportPDF(ctx context.Context, estimateID uuid.UUID) (*ExportResult, error) {
	doc, err := s.buildDocument(ctx, estimateID)
	if err != nil {
		return nil, err
	}
	content, err := s.pdf.Generate(*doc)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: buildFileName(doc, "pdf"),
		Content:  content,
	}, nil
}

func (s *EstimateService) buildDocument(ctx context.Context, estimateID uuid.UUID) (*model.EstimateDocument, error) {
	est, lines, err := s.GetEstimate(ctx, estimateID)
	if err != nil {
		return nil, err
	}
	version, err := s.takeoffs.GetVersion(ctx, est.TakeoffVersionID)
	if err != nil {
		return nil, err
	}
	project, err := s.takeoffs.GetProject(ctx, est.ProjectID)
	if err != nil {
		return nil, err
	}
	return &model.EstimateDocument{
		Estimate: *est,
		Project:  *project,
		Version:  *version,
		Lines:    lines,
	}, nil
}

func buildFileName(doc *model.EstimateDocument, ext string) string {
	name := sanitizeFileName(doc.Project.Name)
	if name == "" {
		name = doc.Project.ID.String()
	}
	return fmt.Sprintf("estimate-%s-v%d-%s.%s", name, doc.Version.VersionNumber, doc.Estimate.CreatedAt.Format("20060102"), ext)
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
