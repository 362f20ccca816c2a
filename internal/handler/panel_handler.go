package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/middleware"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
	"github.com/noah-isme/enrollment-api/pkg/response"
)

const contentTypePDF = "application/pdf"

type panelService interface {
	EnrollmentDates(ctx context.Context, registration, careerCode string) (*dto.EnrollmentDatesResponse, bool, error)
	Holds(ctx context.Context, registration, careerCode string) (*dto.HoldsResponse, bool, error)
	AvailableCourses(ctx context.Context, registration, careerCode string, onlyWithSeats bool) (*dto.AvailableCoursesResponse, bool, error)
	EnabledPeriod(ctx context.Context, registration, careerCode string) (*dto.EnabledPeriodResponse, bool, error)
	CurrentEnrollment(ctx context.Context, registration, careerCode string) (*dto.CurrentEnrollmentResponse, bool, error)
	Panel(ctx context.Context, registration, careerCode string) (*dto.PanelResponse, bool, error)
	EnrollmentSlip(ctx context.Context, registration, careerCode string) ([]byte, string, error)
}

// PanelHandler serves the student dashboard sections.
type PanelHandler struct {
	panel panelService
}

// NewPanelHandler constructs the handler.
func NewPanelHandler(panel panelService) *PanelHandler {
	return &PanelHandler{panel: panel}
}

func servePanel[T any](c *gin.Context, load func(ctx context.Context, registration, careerCode string) (T, bool, error)) {
	registration, careerCode := panelParams(c)
	data, hit, err := load(c.Request.Context(), registration, careerCode)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.OK(c, data, middleware.ResponseMeta(c))
}

func panelParams(c *gin.Context) (string, string) {
	return strings.TrimSpace(c.Param("registration")), strings.TrimSpace(c.Query("career"))
}

// EnrollmentDates godoc
// @Summary Enrollment window of the active period
// @Tags Panel
// @Produce json
// @Param registration path string true "Student registration"
// @Param career query string false "Career code, defaults to the first active career"
// @Success 200 {object} response.Envelope
// @Router /students/{registration}/enrollment-dates [get]
func (h *PanelHandler) EnrollmentDates(c *gin.Context) {
	servePanel(c, h.panel.EnrollmentDates)
}

// Holds godoc
// @Summary Active holds of the student career
// @Tags Panel
// @Produce json
// @Param registration path string true "Student registration"
// @Param career query string false "Career code"
// @Success 200 {object} response.Envelope
// @Router /students/{registration}/holds [get]
func (h *PanelHandler) Holds(c *gin.Context) {
	servePanel(c, h.panel.Holds)
}

// AvailableCourses godoc
// @Summary Offerings of the active period for the student's semester
// @Tags Panel
// @Produce json
// @Param registration path string true "Student registration"
// @Param career query string false "Career code"
// @Param onlyWithSeats query bool false "Hide full offerings"
// @Success 200 {object} response.Envelope
// @Router /students/{registration}/available-courses [get]
func (h *PanelHandler) AvailableCourses(c *gin.Context) {
	onlyWithSeats := false
	if raw := strings.TrimSpace(c.Query("onlyWithSeats")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "onlyWithSeats must be a boolean"))
			return
		}
		onlyWithSeats = parsed
	}
	servePanel(c, func(ctx context.Context, registration, careerCode string) (*dto.AvailableCoursesResponse, bool, error) {
		return h.panel.AvailableCourses(ctx, registration, careerCode, onlyWithSeats)
	})
}

// EnabledPeriod godoc
// @Summary Active period and whether enrollment is open
// @Tags Panel
// @Produce json
// @Param registration path string true "Student registration"
// @Param career query string false "Career code"
// @Success 200 {object} response.Envelope
// @Router /students/{registration}/enabled-period [get]
func (h *PanelHandler) EnabledPeriod(c *gin.Context) {
	servePanel(c, h.panel.EnabledPeriod)
}

// CurrentEnrollment godoc
// @Summary Current enrollment of the student career
// @Tags Panel
// @Produce json
// @Param registration path string true "Student registration"
// @Param career query string false "Career code"
// @Success 200 {object} response.Envelope
// @Router /students/{registration}/enrollment [get]
func (h *PanelHandler) CurrentEnrollment(c *gin.Context) {
	servePanel(c, h.panel.CurrentEnrollment)
}

// Panel godoc
// @Summary Full student panel
// @Tags Panel
// @Produce json
// @Param registration path string true "Student registration"
// @Param career query string false "Career code"
// @Success 200 {object} response.Envelope
// @Router /students/{registration}/panel [get]
func (h *PanelHandler) Panel(c *gin.Context) {
	servePanel(c, h.panel.Panel)
}

// EnrollmentSlip godoc
// @Summary Download the enrollment slip
// @Tags Panel
// @Produce application/pdf
// @Param registration path string true "Student registration"
// @Param career query string false "Career code"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /students/{registration}/enrollment/slip [get]
func (h *PanelHandler) EnrollmentSlip(c *gin.Context) {
	registration, careerCode := panelParams(c)
	content, filename, err := h.panel.EnrollmentSlip(c.Request.Context(), registration, careerCode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, contentTypePDF, content)
}
