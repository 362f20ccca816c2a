package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// HoldRepository reads administrative holds. Hold lifecycle is owned by another service.
type HoldRepository struct {
	db *sqlx.DB
}

// NewHoldRepository constructs the repository.
func NewHoldRepository(db *sqlx.DB) *HoldRepository {
	return &HoldRepository{db: db}
}

// ListByStudentCareer returns holds attached to a student career, newest first.
func (r *HoldRepository) ListByStudentCareer(ctx context.Context, studentCareerID int64, onlyActive bool) ([]models.Hold, error) {
	query := `SELECT id, student_career_id, type, reason, blocked_on, estimated_release_date, is_active, resolved
        FROM holds WHERE student_career_id = $1`
	if onlyActive {
		query += ` AND is_active = TRUE AND resolved = FALSE`
	}
	query += ` ORDER BY blocked_on DESC, id DESC`

	var holds []models.Hold
	if err := r.db.SelectContext(ctx, &holds, query, studentCareerID); err != nil {
		return nil, fmt.Errorf("list holds: %w", err)
	}
	return holds, nil
}
