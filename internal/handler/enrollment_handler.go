package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/middleware"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
	"github.com/noah-isme/enrollment-api/pkg/response"
)

type confirmationService interface {
	Confirm(ctx context.Context, req dto.ConfirmEnrollmentRequest) dto.ConfirmationResult
}

// EnrollmentHandler exposes the enrollment confirmation endpoint.
type EnrollmentHandler struct {
	confirmations confirmationService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(confirmations confirmationService) *EnrollmentHandler {
	return &EnrollmentHandler{confirmations: confirmations}
}

// Confirm godoc
// @Summary Confirm enrollment
// @Description Replaces the student's selection for the active period with the given offerings, all or nothing.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body dto.ConfirmEnrollmentRequest true "Confirmation payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /enrollments/confirm [post]
func (h *EnrollmentHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.JSON(c, http.StatusBadRequest, dto.ConfirmationResult{
			OK:      false,
			Message: "invalid confirmation payload",
			Code:    appErrors.ErrValidation.Code,
		}, middleware.ResponseMeta(c))
		return
	}

	result := h.confirmations.Confirm(c.Request.Context(), req)
	status := result.Status
	if status == 0 {
		status = http.StatusOK
		if !result.OK {
			status = http.StatusInternalServerError
		}
	}
	response.JSON(c, status, result, middleware.ResponseMeta(c))
}
