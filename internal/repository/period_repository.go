package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/enrollment-api/internal/models"
)

const periodColumns = `id, code, name, start_date, end_date, is_active, enrollment_open`

// PeriodRepository handles persistence for academic periods.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository instantiates a period repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// FindByCode loads a period by its code.
func (r *PeriodRepository) FindByCode(ctx context.Context, code string) (*models.AcademicPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM academic_periods WHERE code = $1`
	var period models.AcademicPeriod
	if err := r.db.GetContext(ctx, &period, query, code); err != nil {
		return nil, err
	}
	return &period, nil
}

// ListActive returns at most two active periods so callers can detect a broken single-active invariant.
func (r *PeriodRepository) ListActive(ctx context.Context) ([]models.AcademicPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM academic_periods WHERE is_active = TRUE ORDER BY start_date DESC, id DESC LIMIT 2`
	var periods []models.AcademicPeriod
	if err := r.db.SelectContext(ctx, &periods, query); err != nil {
		return nil, fmt.Errorf("list active periods: %w", err)
	}
	return periods, nil
}
