package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lagrosa/dpwh-estimates/internal/http/middleware"
	"github.com/lagrosa/dpwh-estimates/internal/lifecycle"
	"github.com/lagrosa/dpwh-estimates/internal/markup"
	"github.com/lagrosa/dpwh-estimates/internal/model"
	"github.com/lagrosa/dpwh-estimates/internal/service"
)

type Handler struct {
	estimates *service.EstimateService
	versions  *service.VersionService
	log       zerolog.Logger
}

func NewHandler(estimates *service.EstimateService, versions *service.VersionService, log zerolog.Logger) *Handler {
	return &Handler{estimates: estimates, versions: versions, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/estimates/generate", h.generateEstimate)
	protected.GET("/estimates/:id", h.getEstimate)
	protected.GET("/estimates/:id/diagnostics", h.runDiagnostics)
	protected.POST("/estimates/:id/status", h.transitionEstimate)
	protected.DELETE("/estimates/:id", h.deleteEstimate)
	protected.POST("/estimates/:id/export", h.exportExcel)
	protected.POST("/estimates/:id/export/pdf", h.exportPDF)

	protected.GET("/takeoff-versions/:id/estimates", h.listEstimatesForVersion)
	protected.POST("/takeoff-versions/:id/status", h.transitionVersion)
	protected.PATCH("/takeoff-versions/:id", h.updateVersionRemarks)
	protected.DELETE("/takeoff-versions/:id", h.deleteVersion)
}

type generateEstimateRequest struct {
	TakeoffVersionID string   `json:"takeoff_version_id" binding:"required"`
	Location         string   `json:"location"`
	District         string   `json:"district"`
	PriceBookVersion string   `json:"pricebook_version"`
	OCMPct           *float64 `json:"ocm_pct"`
	CPPct            *float64 `json:"cp_pct"`
	VATPct           *float64 `json:"vat_pct"`
}

func (h *Handler) generateEstimate(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req generateEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	versionID, err := uuid.Parse(strings.TrimSpace(req.TakeoffVersionID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid takeoff_version_id"})
		return
	}

	overrides, err := parseOverrides(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.estimates.GenerateEstimate(c.Request.Context(), service.GenerateEstimateInput{
		TakeoffVersionID: versionID,
		Context: model.PricingContext{
			Location:         strings.TrimSpace(req.Location),
			District:         strings.TrimSpace(req.District),
			PriceBookVersion: strings.TrimSpace(req.PriceBookVersion),
		},
		Overrides: overrides,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"estimate":           result.Estimate,
		"lines":              result.Lines,
		"unmapped_pay_items": result.UnmappedPayItems,
		"warnings":           result.Warnings,
	})
}

// Overrides replace the bracket-derived percentages wholesale, so a partial
// pair is rejected rather than silently mixed with bracket values.
func parseOverrides(req generateEstimateRequest) (*markup.Percentages, error) {
	if req.OCMPct == nil && req.CPPct == nil && req.VATPct == nil {
		return nil, nil
	}
	if req.OCMPct == nil || req.CPPct == nil {
		return nil, errors.New("ocm_pct and cp_pct must be overridden together")
	}
	overrides := &markup.Percentages{OCM: *req.OCMPct, CP: *req.CPPct}
	if req.VATPct != nil {
		overrides.VAT = *req.VATPct
	}
	return overrides, nil
}

func (h *Handler) getEstimate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	est, lines, err := h.estimates.GetEstimate(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"estimate": est, "lines": lines})
}

func (h *Handler) runDiagnostics(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	report, err := h.estimates.RunDiagnostics(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type transitionRequest struct {
	Action string `json:"action" binding:"required"`
	Reason string `json:"reason"`
}

func (h *Handler) transitionEstimate(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	action, ok := lifecycle.ParseAction(req.Action)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action"})
		return
	}

	est, err := h.estimates.TransitionEstimateStatus(c.Request.Context(), id, action, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"estimate": est})
}

func (h *Handler) deleteEstimate(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.estimates.DeleteEstimate(c.Request.Context(), id, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) exportExcel(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	result, err := h.estimates.ExportExcel(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	const contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentType, result.Content)
}

func (h *Handler) exportPDF(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	result, err := h.estimates.ExportPDF(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) listEstimatesForVersion(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	estimates, err := h.estimates.ListEstimatesForVersion(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"estimates": estimates})
}

func (h *Handler) transitionVersion(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	action, ok := lifecycle.ParseAction(req.Action)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action"})
		return
	}

	version, err := h.versions.TransitionVersionStatus(c.Request.Context(), id, action, principal, req.Reason)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": version})
}

type updateRemarksRequest struct {
	Remarks string `json:"remarks"`
}

func (h *Handler) updateVersionRemarks(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updateRemarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	version, err := h.versions.UpdateRemarks(c.Request.Context(), id, req.Remarks, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": version})
}

func (h *Handler) deleteVersion(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.versions.DeleteVersion(c.Request.Context(), id, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
