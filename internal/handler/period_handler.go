package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enrollment-api/internal/middleware"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/pkg/response"
)

const (
	contentTypeCSV   = "text/csv"
	activePeriodCode = "active"
)

type periodReportService interface {
	ExportOfferings(ctx context.Context, periodCode string) ([]byte, string, error)
	SeatAudit(ctx context.Context, periodCode string) ([]models.SeatDrift, error)
}

// PeriodHandler exposes per-period operational reports.
type PeriodHandler struct {
	reports periodReportService
}

// NewPeriodHandler constructs the handler.
func NewPeriodHandler(reports periodReportService) *PeriodHandler {
	return &PeriodHandler{reports: reports}
}

// periodCode reads the :code parameter. Codes contain a slash and must be sent URL encoded; "active"
// selects the active period.
func periodCode(c *gin.Context) string {
	code := strings.TrimSpace(c.Param("code"))
	if strings.EqualFold(code, activePeriodCode) {
		return ""
	}
	return code
}

// ExportOfferings godoc
// @Summary Export offering occupancy as CSV
// @Tags Periods
// @Produce text/csv
// @Param code path string true "Period code (URL encoded) or 'active'"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /periods/{code}/offerings/export [get]
func (h *PeriodHandler) ExportOfferings(c *gin.Context) {
	content, filename, err := h.reports.ExportOfferings(c.Request.Context(), periodCode(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, contentTypeCSV, content)
}

// SeatAudit godoc
// @Summary Offerings whose seat counter disagrees with their selections
// @Tags Periods
// @Produce json
// @Param code path string true "Period code (URL encoded) or 'active'"
// @Success 200 {object} response.Envelope
// @Router /periods/{code}/seat-audit [get]
func (h *PeriodHandler) SeatAudit(c *gin.Context) {
	drift, err := h.reports.SeatAudit(c.Request.Context(), periodCode(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if drift == nil {
		drift = []models.SeatDrift{}
	}
	meta := middleware.ResponseMeta(c)
	meta["balanced"] = len(drift) == 0
	response.OK(c, drift, meta)
}
