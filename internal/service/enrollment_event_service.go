package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/pkg/jobs"
)

type cacheInvalidator interface {
	Invalidate(ctx context.Context, patterns ...string) error
}

// EnrollmentEventService reacts to committed confirmations outside the request path.
type EnrollmentEventService struct {
	cache  cacheInvalidator
	logger *zap.Logger
}

// NewEnrollmentEventService constructs the event handler.
func NewEnrollmentEventService(cache cacheInvalidator, logger *zap.Logger) *EnrollmentEventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentEventService{cache: cache, logger: logger}
}

// HandleConfirmed drops the cached panel of the student and the cached offering listings of the period.
func (s *EnrollmentEventService) HandleConfirmed(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(dto.EnrollmentConfirmedEvent)
	if !ok {
		return jobs.Permanent(fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type))
	}
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, PanelCachePattern(event.Registration), OfferingCachePattern(event.PeriodCode)); err != nil {
		return fmt.Errorf("invalidate caches for enrollment %s: %w", event.EnrollmentID, err)
	}
	s.logger.Debug("enrollment caches invalidated",
		zap.String("enrollment_id", event.EnrollmentID),
		zap.String("registration", event.Registration),
		zap.String("period", event.PeriodCode))
	return nil
}
