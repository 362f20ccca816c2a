package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

type holdRepository interface {
	ListByStudentCareer(ctx context.Context, studentCareerID int64, onlyActive bool) ([]models.Hold, error)
}

// HoldService is the hold gate consulted before any seat is reserved.
type HoldService struct {
	repo   holdRepository
	logger *zap.Logger
}

// NewHoldService constructs the gate.
func NewHoldService(repo holdRepository, logger *zap.Logger) *HoldService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HoldService{repo: repo, logger: logger}
}

// Check reports whether the student career is blocked and why.
func (s *HoldService) Check(ctx context.Context, studentCareerID int64) (*models.HoldStatus, error) {
	holds, err := s.List(ctx, studentCareerID, true)
	if err != nil {
		return nil, err
	}
	status := &models.HoldStatus{Reasons: []string{}, Holds: []models.Hold{}}
	for _, hold := range holds {
		if !hold.Blocking() {
			continue
		}
		status.Blocked = true
		status.Reasons = append(status.Reasons, hold.Reason)
		status.Holds = append(status.Holds, hold)
	}
	return status, nil
}

// List returns holds of a student career; onlyActive restricts to unresolved active holds.
func (s *HoldService) List(ctx context.Context, studentCareerID int64, onlyActive bool) ([]models.Hold, error) {
	holds, err := s.repo.ListByStudentCareer(ctx, studentCareerID, onlyActive)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holds")
	}
	return holds, nil
}
