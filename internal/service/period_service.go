package service

import (
	"context"
	"database/sql"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

type periodRepository interface {
	FindByCode(ctx context.Context, code string) (*models.AcademicPeriod, error)
	ListActive(ctx context.Context) ([]models.AcademicPeriod, error)
}

// PeriodService resolves the academic period every enrollment operation works against.
type PeriodService struct {
	repo   periodRepository
	logger *zap.Logger
}

// NewPeriodService constructs the resolver.
func NewPeriodService(repo periodRepository, logger *zap.Logger) *PeriodService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{repo: repo, logger: logger}
}

// Resolve looks a period up by code, or returns the single active period when code is empty.
func (s *PeriodService) Resolve(ctx context.Context, code string) (*models.AcademicPeriod, error) {
	code = strings.TrimSpace(code)
	if code != "" {
		period, err := s.repo.FindByCode(ctx, code)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clonef(appErrors.ErrPeriodNotFound, "academic period %s not found", code)
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic period")
		}
		return period, nil
	}

	periods, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active period")
	}
	switch len(periods) {
	case 0:
		return nil, appErrors.ErrNoActivePeriod
	case 1:
		return &periods[0], nil
	default:
		s.logger.Error("more than one active academic period",
			zap.String("first", periods[0].Code), zap.String("second", periods[1].Code))
		return nil, appErrors.Clonef(appErrors.ErrMultipleActivePeriods,
			"more than one academic period is active (%s, %s)", periods[0].Code, periods[1].Code)
	}
}

// ResolveForEnrollment returns the active period and requires it to be open for enrollment.
func (s *PeriodService) ResolveForEnrollment(ctx context.Context) (*models.AcademicPeriod, error) {
	period, err := s.Resolve(ctx, "")
	if err != nil {
		return nil, err
	}
	if !period.EnrollmentOpen {
		return nil, appErrors.Clonef(appErrors.ErrEnrollmentClosed, "period %s is not open for enrollment", period.Code)
	}
	return period, nil
}
